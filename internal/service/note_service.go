package service

import (
	"context"
	"errors"
	"strings"

	"notes-api/internal/domain"
	"notes-api/internal/repository"
)

// NoteService coordinates note operations and their authorization rules.
type NoteService interface {
	List(ctx context.Context, filter domain.NoteFilter) ([]domain.Note, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Note, error)
	Get(ctx context.Context, id string) (*domain.Note, error)
	Create(ctx context.Context, content string, important bool, ownerID string) (*domain.Note, error)
	Update(ctx context.Context, id, content string, important bool, requesterID string) (*domain.Note, error)
	Delete(ctx context.Context, id, requesterID string) error
	EnforcesOwnership() bool
}

type noteService struct {
	notes            repository.NoteRepository
	users            repository.UserRepository
	enforceOwnership bool
}

// NewNoteService builds a NoteService. With enforceOwnership set, Update and
// Delete require the requester to own the note.
func NewNoteService(notes repository.NoteRepository, users repository.UserRepository, enforceOwnership bool) NoteService {
	return &noteService{
		notes:            notes,
		users:            users,
		enforceOwnership: enforceOwnership,
	}
}

func (s *noteService) EnforcesOwnership() bool {
	return s.enforceOwnership
}

func (s *noteService) List(ctx context.Context, filter domain.NoteFilter) ([]domain.Note, error) {
	return s.notes.List(ctx, filter)
}

func (s *noteService) ListByOwner(ctx context.Context, ownerID string) ([]domain.Note, error) {
	ownerID, err := domain.ParseID(ownerID)
	if err != nil {
		return nil, err
	}
	return s.notes.List(ctx, domain.NoteFilter{OwnerID: ownerID})
}

func (s *noteService) Get(ctx context.Context, id string) (*domain.Note, error) {
	id, err := domain.ParseID(id)
	if err != nil {
		return nil, err
	}
	note, err := s.notes.Get(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return note, nil
}

func (s *noteService) Create(ctx context.Context, content string, important bool, ownerID string) (*domain.Note, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}
	if ownerID == "" {
		return nil, domain.ErrMissingToken
	}

	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// token signed for a user that no longer resolves
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}

	note := &domain.Note{
		Content:   content,
		Important: important,
		OwnerID:   owner.ID,
	}
	if err := s.notes.Create(ctx, note); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	note.Owner = &domain.UserRef{ID: owner.ID, Username: owner.Username, Name: owner.Name}
	return note, nil
}

func (s *noteService) Update(ctx context.Context, id, content string, important bool, requesterID string) (*domain.Note, error) {
	id, err := domain.ParseID(id)
	if err != nil {
		return nil, err
	}
	if err := validateContent(content); err != nil {
		return nil, err
	}

	if s.enforceOwnership {
		if err := s.authorize(ctx, id, requesterID); err != nil {
			return nil, err
		}
	}

	note := &domain.Note{ID: id, Content: content, Important: important}
	if err := s.notes.Update(ctx, note); err != nil {
		return nil, notFound(err)
	}

	updated, err := s.notes.Get(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return updated, nil
}

// Delete removes the note permanently. Deleting an absent note succeeds.
func (s *noteService) Delete(ctx context.Context, id, requesterID string) error {
	id, err := domain.ParseID(id)
	if err != nil {
		return err
	}

	if s.enforceOwnership {
		if err := s.authorize(ctx, id, requesterID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return err
		}
	}

	if _, err := s.notes.Delete(ctx, id); err != nil {
		return err
	}
	return nil
}

func (s *noteService) authorize(ctx context.Context, id, requesterID string) error {
	if requesterID == "" {
		return domain.ErrMissingToken
	}
	note, err := s.notes.Get(ctx, id)
	if err != nil {
		return notFound(err)
	}
	if note.OwnerID != requesterID {
		return domain.ErrForbidden
	}
	return nil
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return domain.NewValidationError("content", "content is required")
	}
	return nil
}
