// Message payloads exchanged over the bus, one type per routing key.

package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/citypulse/server/internal/model"
)

// SimTick is published on sim.tick by the simulation engine.
type SimTick struct {
	Tick   int64             `json:"tick"`
	Deltas []model.TileDelta `json:"deltas"`
	At     time.Time         `json:"at"`
}

// WorldEvent is published on world.event by the orchestrator when raw tick
// data crosses a hotspot threshold. Severity is always within [1,5].
type WorldEvent struct {
	Type     string       `json:"type"`
	Tiles    []model.Vec2 `json:"tiles"`
	Severity int          `json:"severity"`
	Reason   string       `json:"reason"`
	At       time.Time    `json:"at"`
}

// GeneratedQuest is published on quest.generated once a quest has been
// synthesized and persisted.
type GeneratedQuest struct {
	Quest model.Quest `json:"quest"`
	At    time.Time   `json:"at"`
}

// QuestCompleted is published on quest.completed when a user finishes a
// quest through the gateway.
type QuestCompleted struct {
	QuestID  uint64    `json:"questId"`
	UserID   uint64    `json:"userId"`
	RewardXP int       `json:"rewardXp"`
	At       time.Time `json:"at"`
}

// Decode maps a delivery back to its typed payload based on the routing
// key. Unknown keys and malformed bodies are errors, which subscribers
// surface as handler failures (message dropped, not retried).
func Decode(routingKey string, body []byte) (any, error) {
	switch routingKey {
	case TopicSimTick:
		var v SimTick
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", routingKey, err)
		}
		return v, nil
	case TopicWorldEvent:
		var v WorldEvent
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", routingKey, err)
		}
		return v, nil
	case TopicQuestGenerated:
		var v GeneratedQuest
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", routingKey, err)
		}
		return v, nil
	case TopicQuestCompleted:
		var v QuestCompleted
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", routingKey, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown routing key %q", routingKey)
	}
}
