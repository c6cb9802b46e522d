package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
)

// MemoryBroker is an in-process Broker with the same observable contract as
// the AMQP one: every matching binding gets its own copy, deliveries arrive
// in publish order per key, and a failed handler drops the message. It
// backs tests and single-process development runs; it offers no
// cross-process visibility.
type MemoryBroker struct {
	mu   sync.Mutex
	subs []memorySub
}

type memorySub struct {
	binding string
	handler Handler
}

func NewMemoryBroker() *MemoryBroker { return &MemoryBroker{} }

func (b *MemoryBroker) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	b.mu.Lock()
	matched := make([]memorySub, 0, len(b.subs))
	for _, s := range b.subs {
		if matchTopic(s.binding, routingKey) {
			matched = append(matched, s)
		}
	}
	b.mu.Unlock()

	// Deliver synchronously so publish order is the delivery order.
	for _, s := range matched {
		if err := s.handler(ctx, body); err != nil {
			log.Printf("queue: %s handler failed: %v", s.binding, err)
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(bindingKey string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, memorySub{binding: bindingKey, handler: handler})
	return nil
}

func (b *MemoryBroker) Close() error { return nil }

// matchTopic implements AMQP topic matching over dot-separated words:
// '*' matches exactly one word, '#' matches zero or more words.
func matchTopic(binding, key string) bool {
	return matchWords(strings.Split(binding, "."), strings.Split(key, "."))
}

func matchWords(pattern, words []string) bool {
	if len(pattern) == 0 {
		return len(words) == 0
	}
	switch pattern[0] {
	case "#":
		for i := 0; i <= len(words); i++ {
			if matchWords(pattern[1:], words[i:]) {
				return true
			}
		}
		return false
	case "*":
		return len(words) > 0 && matchWords(pattern[1:], words[1:])
	default:
		return len(words) > 0 && pattern[0] == words[0] && matchWords(pattern[1:], words[1:])
	}
}
