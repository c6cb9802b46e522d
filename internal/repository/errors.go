// Package repository persists the business entities (users, quests, quest
// progress) behind find/insert/upsert-by-filter contracts. Sentinel errors
// let handlers distinguish failure scenarios without inspecting driver
// errors.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no row. Handlers should
// translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when registration collides with an existing
// email. Handlers should translate this into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")
