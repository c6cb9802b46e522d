package realtime

import (
	"context"

	"github.com/citypulse/server/internal/queue"
)

// StartBridge establishes the three persistent bus subscriptions once at
// process start. Each received payload is rebroadcast to all connected
// clients unconditionally; world data is a global channel. If the bus
// connection is later lost, world-data delivery stalls until the process
// restarts — room chat keeps working since it does not touch the bus.
func StartBridge(b queue.Broker, hub *Hub) error {
	forward := func(topic, event string, project func(any) any) error {
		return b.Subscribe(topic, func(_ context.Context, body []byte) error {
			payload, err := queue.Decode(topic, body)
			if err != nil {
				return err // dropped by the broker, never requeued
			}
			hub.Broadcast(event, project(payload))
			return nil
		})
	}

	identity := func(v any) any { return v }
	if err := forward(queue.TopicSimTick, EventWorldDelta, identity); err != nil {
		return err
	}
	if err := forward(queue.TopicWorldEvent, EventWorldEvent, identity); err != nil {
		return err
	}
	return forward(queue.TopicQuestGenerated, EventQuestNew, func(v any) any {
		return v.(queue.GeneratedQuest).Quest
	})
}
