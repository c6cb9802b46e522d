package repository

import (
	"context"
	"database/sql"
	"time"
)

// ProgressRepo tracks per-user quest progress. Rows are unique per
// (user_id, quest_id) and upserted as the user moves through a quest, so
// duplicate bus deliveries and out-of-order HTTP calls converge on the same
// row instead of failing.
type ProgressRepo struct{ DB *sql.DB }

func NewProgressRepo(db *sql.DB) *ProgressRepo { return &ProgressRepo{DB: db} }

// MarkAccepted records that a user accepted a quest. Re-accepting keeps the
// original acceptance time.
func (r *ProgressRepo) MarkAccepted(ctx context.Context, userID, questID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO quest_progress (user_id, quest_id, accepted_at, reward_claimed)
		 VALUES (?,?,?,0)
		 ON DUPLICATE KEY UPDATE accepted_at = COALESCE(accepted_at, VALUES(accepted_at))`,
		userID, questID, time.Now().UTC())
	return err
}

// MarkCompleted records the completion time for a (user, quest) pair.
func (r *ProgressRepo) MarkCompleted(ctx context.Context, userID, questID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO quest_progress (user_id, quest_id, completed_at, reward_claimed)
		 VALUES (?,?,?,0)
		 ON DUPLICATE KEY UPDATE completed_at = VALUES(completed_at)`,
		userID, questID, time.Now().UTC())
	return err
}

// MarkClaimed flags the reward as credited by the progression worker.
func (r *ProgressRepo) MarkClaimed(ctx context.Context, userID, questID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO quest_progress (user_id, quest_id, reward_claimed)
		 VALUES (?,?,1)
		 ON DUPLICATE KEY UPDATE reward_claimed = 1`,
		userID, questID)
	return err
}

// HasCompleted reports whether the pair already has a completion recorded.
func (r *ProgressRepo) HasCompleted(ctx context.Context, userID, questID uint64) (bool, error) {
	var completed sql.NullTime
	err := r.DB.QueryRowContext(ctx,
		"SELECT completed_at FROM quest_progress WHERE user_id=? AND quest_id=? LIMIT 1",
		userID, questID).Scan(&completed)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return completed.Valid, nil
}
