package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/citypulse/server/internal/model"
)

// QuestRepo persists quests. Target tiles and steps are stored as JSON
// columns; they are only ever read back whole.
type QuestRepo struct{ DB *sql.DB }

func NewQuestRepo(db *sql.DB) *QuestRepo { return &QuestRepo{DB: db} }

// Insert stores a quest and returns its ID.
func (r *QuestRepo) Insert(ctx context.Context, q model.Quest) (uint64, error) {
	tiles, err := json.Marshal(q.TargetTiles)
	if err != nil {
		return 0, fmt.Errorf("marshal target tiles: %w", err)
	}
	steps, err := json.Marshal(q.Steps)
	if err != nil {
		return 0, fmt.Errorf("marshal steps: %w", err)
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO quests (title, description, target_tiles, deadline, reward_xp, status, steps, estimated_minutes, created_at) VALUES (?,?,?,?,?,?,?,?,?)",
		q.Title, q.Description, tiles, q.Deadline, q.RewardXP, q.Status, steps, q.EstimatedMinutes, q.CreatedAt)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a quest by id.
func (r *QuestRepo) GetByID(ctx context.Context, id uint64) (model.Quest, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT id,title,description,target_tiles,deadline,reward_xp,status,steps,estimated_minutes,created_at FROM quests WHERE id=? LIMIT 1",
		id)
	q, err := scanQuest(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Quest{}, ErrNotFound
	}
	return q, err
}

// ListActive returns up to limit active quests, newest first.
func (r *QuestRepo) ListActive(ctx context.Context, limit int) ([]model.Quest, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,title,description,target_tiles,deadline,reward_xp,status,steps,estimated_minutes,created_at FROM quests WHERE status=? ORDER BY created_at DESC LIMIT ?",
		model.QuestActive, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Quest, 0, limit)
	for rows.Next() {
		q, err := scanQuest(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func scanQuest(scan func(dest ...any) error) (model.Quest, error) {
	var (
		q     model.Quest
		tiles []byte
		steps []byte
	)
	if err := scan(&q.ID, &q.Title, &q.Description, &tiles, &q.Deadline, &q.RewardXP, &q.Status, &steps, &q.EstimatedMinutes, &q.CreatedAt); err != nil {
		return model.Quest{}, err
	}
	if len(tiles) > 0 {
		if err := json.Unmarshal(tiles, &q.TargetTiles); err != nil {
			return model.Quest{}, fmt.Errorf("unmarshal target tiles: %w", err)
		}
	}
	if len(steps) > 0 {
		if err := json.Unmarshal(steps, &q.Steps); err != nil {
			return model.Quest{}, fmt.Errorf("unmarshal steps: %w", err)
		}
	}
	return q, nil
}
