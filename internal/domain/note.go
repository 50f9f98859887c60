package domain

import "time"

// Note is a short piece of text owned by exactly one user.
type Note struct {
	ID        string
	Content   string
	Important bool
	OwnerID   string
	Owner     *UserRef
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NoteFilter narrows note listings. A nil field matches everything.
type NoteFilter struct {
	Important *bool
	OwnerID   string
}
