package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citypulse/server/internal/model"
	"github.com/citypulse/server/internal/queue"
)

func captureEvents(t *testing.T, b queue.Broker, topic string) *[]json.RawMessage {
	t.Helper()
	got := &[]json.RawMessage{}
	require.NoError(t, b.Subscribe(topic, func(_ context.Context, body []byte) error {
		*got = append(*got, append(json.RawMessage(nil), body...))
		return nil
	}))
	return got
}

func ptr(f float64) *float64 { return &f }

func TestOrchestratorPublishesHotspotEvent(t *testing.T) {
	b := queue.NewMemoryBroker()
	events := captureEvents(t, b, queue.TopicWorldEvent)
	require.NoError(t, NewOrchestrator(b).Start())

	tick := queue.SimTick{
		Tick: 1,
		Deltas: []model.TileDelta{
			{X: 1, Y: 2, Traffic: ptr(0.95)},
			{X: 3, Y: 4, Traffic: ptr(0.10)},
		},
		At: time.Now().UTC(),
	}
	require.NoError(t, b.Publish(context.Background(), queue.TopicSimTick, tick))

	require.Len(t, *events, 1)
	var ev queue.WorldEvent
	require.NoError(t, json.Unmarshal((*events)[0], &ev))
	assert.Equal(t, model.EventTrafficSpike, ev.Type)
	assert.Equal(t, []model.Vec2{{X: 1, Y: 2}}, ev.Tiles)
	assert.GreaterOrEqual(t, ev.Severity, 1)
	assert.LessOrEqual(t, ev.Severity, 5)
}

func TestOrchestratorQuietTickPublishesNothing(t *testing.T) {
	b := queue.NewMemoryBroker()
	events := captureEvents(t, b, queue.TopicWorldEvent)
	require.NoError(t, NewOrchestrator(b).Start())

	tick := queue.SimTick{
		Tick:   2,
		Deltas: []model.TileDelta{{X: 1, Y: 2, Traffic: ptr(0.5)}, {X: 2, Y: 2}},
		At:     time.Now().UTC(),
	}
	require.NoError(t, b.Publish(context.Background(), queue.TopicSimTick, tick))

	assert.Empty(t, *events)
}

func TestOrchestratorCapsTilesAndSeverity(t *testing.T) {
	b := queue.NewMemoryBroker()
	events := captureEvents(t, b, queue.TopicWorldEvent)
	require.NoError(t, NewOrchestrator(b).Start())

	deltas := make([]model.TileDelta, 12)
	for i := range deltas {
		deltas[i] = model.TileDelta{X: i, Y: i, Traffic: ptr(0.99)}
	}
	require.NoError(t, b.Publish(context.Background(), queue.TopicSimTick, queue.SimTick{Tick: 3, Deltas: deltas}))

	require.Len(t, *events, 1)
	var ev queue.WorldEvent
	require.NoError(t, json.Unmarshal((*events)[0], &ev))
	assert.Len(t, ev.Tiles, maxHotspotTiles)
	assert.Equal(t, 3, ev.Severity) // 1 + 5/2
}

func TestSimTickerProducesDeltasWithinGrid(t *testing.T) {
	s := NewSimTicker(queue.NewMemoryBroker(), 40, 30, time.Second)
	tick := s.NextTick()

	assert.Len(t, tick.Deltas, defaultDeltasPerTick)
	for _, d := range tick.Deltas {
		assert.GreaterOrEqual(t, d.X, 0)
		assert.Less(t, d.X, 40)
		assert.GreaterOrEqual(t, d.Y, 0)
		assert.Less(t, d.Y, 30)
		require.NotNil(t, d.Traffic)
		assert.GreaterOrEqual(t, *d.Traffic, 0.0)
		assert.Less(t, *d.Traffic, 1.0)
	}
}

// End-to-end over the in-process bus: a hot tick flows through the
// orchestrator into a world event that any bound subscriber observes.
func TestTickToEventPipeline(t *testing.T) {
	b := queue.NewMemoryBroker()
	events := captureEvents(t, b, queue.TopicWorldEvent)
	require.NoError(t, NewOrchestrator(b).Start())

	tick := queue.SimTick{
		Tick:   1,
		Deltas: []model.TileDelta{{X: 1, Y: 2, Traffic: ptr(0.95)}},
		At:     time.Now().UTC(),
	}
	require.NoError(t, b.Publish(context.Background(), queue.TopicSimTick, tick))

	require.Len(t, *events, 1)
	var ev queue.WorldEvent
	require.NoError(t, json.Unmarshal((*events)[0], &ev))
	assert.Contains(t, ev.Tiles, model.Vec2{X: 1, Y: 2})
	assert.InDelta(t, 3, ev.Severity, 2) // always within [1,5]
}
