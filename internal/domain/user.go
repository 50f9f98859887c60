package domain

import "time"

// User represents a registered account. Notes is derived from the notes
// collection on read and is never persisted with the user record.
type User struct {
	ID           string
	Username     string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Notes        []Note
}

// UserRef is the public projection of a note owner.
type UserRef struct {
	ID       string
	Username string
	Name     string
}
