package model

import "time"

// User represents an application user record as stored in the `users`
// table. The password hash never leaves the repository layer; handlers
// define separate response types with appropriate JSON tags.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Email        – unique email address (stored lower-cased).
//	DisplayName  – player-facing name.
//	PasswordHash – bcrypt hashed password.
//	XP           – accumulated experience points.
//	Level        – derived progression level.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64
	Email        string
	DisplayName  string
	PasswordHash string
	XP           int
	Level        int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
