package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/citypulse/server/internal/model"
	"github.com/citypulse/server/internal/queue"
)

const (
	// hotspotThreshold is the traffic value above which a tile counts as hot.
	hotspotThreshold = 0.8
	// maxHotspotTiles caps how many tiles one event may reference.
	maxHotspotTiles = 5
)

// Orchestrator consumes raw simulation ticks on sim.tick, detects traffic
// hotspots and publishes derived events on world.event. Ticks without any
// hot tile produce nothing.
type Orchestrator struct {
	Broker    queue.Broker
	Threshold float64
}

func NewOrchestrator(b queue.Broker) *Orchestrator {
	return &Orchestrator{Broker: b, Threshold: hotspotThreshold}
}

func (o *Orchestrator) Start() error {
	return o.Broker.Subscribe(queue.TopicSimTick, o.handle)
}

func (o *Orchestrator) handle(ctx context.Context, body []byte) error {
	var tick queue.SimTick
	if err := json.Unmarshal(body, &tick); err != nil {
		return fmt.Errorf("decode tick: %w", err)
	}

	hot := make([]model.Vec2, 0, maxHotspotTiles)
	for _, d := range tick.Deltas {
		if d.TrafficValue() > o.Threshold {
			hot = append(hot, model.Vec2{X: d.X, Y: d.Y})
			if len(hot) == maxHotspotTiles {
				break
			}
		}
	}
	if len(hot) == 0 {
		return nil
	}

	severity := 1 + len(hot)/2
	if severity > 5 {
		severity = 5
	}
	ev := queue.WorldEvent{
		Type:     model.EventTrafficSpike,
		Tiles:    hot,
		Severity: severity,
		Reason:   fmt.Sprintf("traffic>%.1f", o.Threshold),
		At:       time.Now().UTC(),
	}
	return o.Broker.Publish(ctx, queue.TopicWorldEvent, ev)
}
