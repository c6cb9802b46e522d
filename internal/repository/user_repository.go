package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/citypulse/server/internal/model"
	"github.com/citypulse/server/internal/utils"
)

// UserRepo persists users and their progression counters.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user with a bcrypt-hashed password and returns its ID.
func (r *UserRepo) Create(ctx context.Context, email, displayName, password string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, display_name, password_hash, xp, level) VALUES (?,?,?,0,1)",
		email, displayName, hash)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id,email,display_name,password_hash,xp,level,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id,email,display_name,password_hash,xp,level,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id))
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.XP, &u.Level, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// AddXP credits reward XP to a user. Crediting a user that no longer exists
// is not an error; that one update is simply lost.
func (r *UserRepo) AddXP(ctx context.Context, userID uint64, xp int) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET xp = xp + ? WHERE id = ?",
		xp, userID)
	return err
}

// LeaderboardRow is one public leaderboard entry.
type LeaderboardRow struct {
	UserID      uint64 `json:"userId"`
	DisplayName string `json:"displayName"`
	XP          int    `json:"xp"`
	Level       int    `json:"level"`
}

// TopByXP returns up to limit users ordered by XP descending.
func (r *UserRepo) TopByXP(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,display_name,xp,level FROM users ORDER BY xp DESC, id ASC LIMIT ?",
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LeaderboardRow, 0, limit)
	for rows.Next() {
		var row LeaderboardRow
		if err := rows.Scan(&row.UserID, &row.DisplayName, &row.XP, &row.Level); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
