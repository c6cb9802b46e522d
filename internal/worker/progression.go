package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/citypulse/server/internal/queue"
)

// UserStore is the slice of persistence progression needs.
type UserStore interface {
	// AddXP credits reward XP to a user, creating the row if needed.
	AddXP(ctx context.Context, userID uint64, xp int) error
}

// ProgressStore records per-user quest progress.
type ProgressStore interface {
	// MarkClaimed upserts the (user, quest) progress row as reward-claimed.
	MarkClaimed(ctx context.Context, userID, questID uint64) error
}

// ProgressionWorker consumes quest.completed and mutates persisted XP. The
// XP increment is relative, so a missed message loses one update instead of
// corrupting the total.
type ProgressionWorker struct {
	Broker   queue.Broker
	Users    UserStore
	Progress ProgressStore
}

func NewProgressionWorker(b queue.Broker, users UserStore, progress ProgressStore) *ProgressionWorker {
	return &ProgressionWorker{Broker: b, Users: users, Progress: progress}
}

func (w *ProgressionWorker) Start() error {
	return w.Broker.Subscribe(queue.TopicQuestCompleted, w.handle)
}

func (w *ProgressionWorker) handle(ctx context.Context, body []byte) error {
	var msg queue.QuestCompleted
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("decode completion: %w", err)
	}
	if err := w.Users.AddXP(ctx, msg.UserID, msg.RewardXP); err != nil {
		return fmt.Errorf("credit xp: %w", err)
	}
	if err := w.Progress.MarkClaimed(ctx, msg.UserID, msg.QuestID); err != nil {
		return fmt.Errorf("mark claimed: %w", err)
	}
	log.Printf("progression: user %d earned %d xp for quest %d", msg.UserID, msg.RewardXP, msg.QuestID)
	return nil
}
