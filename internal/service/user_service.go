package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"notes-api/internal/auth"
	"notes-api/internal/domain"
	"notes-api/internal/repository"
)

const (
	MinUsernameLength = 3
	MinPasswordLength = 3
)

const duplicateUsernameMessage = "expected `username` to be unique"

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token    string
	Username string
	Name     string
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, username, name, password string) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

type userService struct {
	users  repository.UserRepository
	notes  repository.NoteRepository
	hasher *auth.Hasher
	tokens *auth.Tokens
}

func NewUserService(users repository.UserRepository, notes repository.NoteRepository, hasher *auth.Hasher, tokens *auth.Tokens) UserService {
	return &userService{
		users:  users,
		notes:  notes,
		hasher: hasher,
		tokens: tokens,
	}
}

func (s *userService) Register(ctx context.Context, username, name, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	name = strings.TrimSpace(name)

	if username == "" {
		return nil, domain.NewValidationError("username", "username is required")
	}
	if len(username) < MinUsernameLength {
		return nil, domain.NewValidationError("username", fmt.Sprintf("username must be at least %d characters long", MinUsernameLength))
	}
	if password == "" {
		return nil, domain.NewValidationError("password", "password is required")
	}
	if len(password) < MinPasswordLength {
		return nil, domain.NewValidationError("password", fmt.Sprintf("password must be at least %d characters long", MinPasswordLength))
	}

	// the unique index is the final arbiter; this only avoids hashing for a known duplicate
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, domain.NewValidationError("username", duplicateUsernameMessage)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		Name:         name,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.NewValidationError("username", duplicateUsernameMessage)
		}
		return nil, err
	}

	user.Notes = []domain.Note{}
	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &LoginResult{
		Token:    token,
		Username: user.Username,
		Name:     user.Name,
	}, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	id, err := domain.ParseID(id)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}

	notes, err := s.notes.List(ctx, domain.NoteFilter{OwnerID: user.ID})
	if err != nil {
		return nil, err
	}
	user.Notes = notes
	return sanitizeUser(user), nil
}

// List returns every user with Notes derived from the notes collection.
func (s *userService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	notes, err := s.notes.List(ctx, domain.NoteFilter{})
	if err != nil {
		return nil, err
	}

	byOwner := make(map[string][]domain.Note, len(users))
	for _, n := range notes {
		byOwner[n.OwnerID] = append(byOwner[n.OwnerID], n)
	}

	out := make([]domain.User, 0, len(users))
	for i := range users {
		users[i].Notes = byOwner[users[i].ID]
		if users[i].Notes == nil {
			users[i].Notes = []domain.Note{}
		}
		out = append(out, *sanitizeUser(&users[i]))
	}
	return out, nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
		Notes:     user.Notes,
	}
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain.ErrNotFound
	}
	return err
}
