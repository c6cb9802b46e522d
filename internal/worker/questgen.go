package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/citypulse/server/internal/model"
	"github.com/citypulse/server/internal/queue"
)

// Generator turns a world event into a quest. Production deployments can
// plug an LLM-backed implementation here; the worker only cares about the
// event -> quest mapping.
type Generator func(ev queue.WorldEvent) model.Quest

// TemplateGenerator is the deterministic default: reward and estimated
// effort scale with severity, targets are the first three hot tiles.
func TemplateGenerator(ev queue.WorldEvent) model.Quest {
	targets := ev.Tiles
	if len(targets) > 3 {
		targets = targets[:3]
	}
	return model.Quest{
		Title:       fmt.Sprintf("Mitigate %s (%d)", strings.ReplaceAll(ev.Type, "_", " "), ev.Severity),
		Description: fmt.Sprintf("Respond to %s across %d hot tiles. Deploy resources and stabilize traffic.", ev.Type, len(ev.Tiles)),
		TargetTiles: targets,
		Deadline:    time.Now().UTC().Add(30 * time.Minute),
		RewardXP:    40 + ev.Severity*10,
		Status:      model.QuestActive,
		Steps: []string{
			"Assess the hotspot tiles",
			"Deploy temporary routing",
			"Verify stabilization and report",
		},
		EstimatedMinutes: 15 + ev.Severity*5,
	}
}

// QuestStore is the slice of persistence quest synthesis needs.
type QuestStore interface {
	Insert(ctx context.Context, q model.Quest) (uint64, error)
}

// QuestWorker consumes world.event, synthesizes and persists a quest, and
// publishes the saved quest on quest.generated. A store failure drops the
// event (the message is not requeued), losing one quest at most.
type QuestWorker struct {
	Broker   queue.Broker
	Quests   QuestStore
	Generate Generator
}

func NewQuestWorker(b queue.Broker, quests QuestStore) *QuestWorker {
	return &QuestWorker{Broker: b, Quests: quests, Generate: TemplateGenerator}
}

func (w *QuestWorker) Start() error {
	return w.Broker.Subscribe(queue.TopicWorldEvent, w.handle)
}

func (w *QuestWorker) handle(ctx context.Context, body []byte) error {
	var ev queue.WorldEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}

	q := w.Generate(ev)
	q.CreatedAt = time.Now().UTC()
	id, err := w.Quests.Insert(ctx, q)
	if err != nil {
		return fmt.Errorf("insert quest: %w", err)
	}
	q.ID = id

	return w.Broker.Publish(ctx, queue.TopicQuestGenerated, queue.GeneratedQuest{
		Quest: q,
		At:    time.Now().UTC(),
	})
}
