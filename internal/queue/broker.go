// Package queue is the topic-based event bus connecting the backend stages.
// Producers publish JSON payloads under dot-separated routing keys; every
// subscriber bound to a matching key receives its own copy (fan-out, not
// work-queue distribution).
package queue

import "context"

// Exchange is the single shared topic exchange all stages publish to.
const Exchange = "world.topic"

// Routing keys used by the system. Bindings support AMQP topic wildcards,
// though every production binding is an exact match.
const (
	TopicSimTick        = "sim.tick"        // world-state deltas
	TopicWorldEvent     = "world.event"     // derived hotspot events
	TopicQuestGenerated = "quest.generated" // synthesized quests
	TopicQuestCompleted = "quest.completed" // user quest completions
)

// Handler processes one delivered message body. A nil return acknowledges
// the message; an error drops it without requeue so a poison message cannot
// loop forever.
type Handler func(ctx context.Context, body []byte) error

// Broker is the bus contract shared by the AMQP implementation and the
// in-process one. Delivery is at-least-once within a live subscription;
// there is no durable redelivery across restarts, so a subscriber that is
// offline at publish time misses the message.
type Broker interface {
	// Publish serializes payload and sends it under routingKey. It is
	// fire-and-forget with respect to subscribers, but a broker
	// connection error is returned to the caller.
	Publish(ctx context.Context, routingKey string, payload any) error
	// Subscribe binds a fresh ephemeral queue under bindingKey and
	// invokes handler for each delivery, in publish order per key.
	Subscribe(bindingKey string, handler Handler) error
	Close() error
}
