package repository

import (
	"context"

	"notes-api/internal/domain"
)

// NoteRepository exposes persistence operations for notes. Reads populate
// Note.Owner from the users collection.
type NoteRepository interface {
	Create(ctx context.Context, note *domain.Note) error
	Get(ctx context.Context, id string) (*domain.Note, error)
	List(ctx context.Context, filter domain.NoteFilter) ([]domain.Note, error)
	Update(ctx context.Context, note *domain.Note) error
	// Delete reports whether a note was removed.
	Delete(ctx context.Context, id string) (bool, error)
}
