package service

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"notes-api/internal/domain"
	"notes-api/internal/repository"
	"notes-api/internal/storage"
)

const snapshotTimeLayout = "20060102T150405Z"

// Snapshot is the exported document. Password hashes are never included.
type Snapshot struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Users       []SnapshotUser `json:"users"`
	Notes       []SnapshotNote `json:"notes"`
}

type SnapshotUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type SnapshotNote struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Important bool      `json:"important"`
	User      string    `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SnapshotOptions conveys the snapshot destination.
type SnapshotOptions struct {
	Bucket    string
	KeyPrefix string
}

// SnapshotService exports the users and notes collections to object storage.
type SnapshotService interface {
	Export(ctx context.Context) (string, error)
	List(ctx context.Context) ([]storage.ObjectInfo, error)
	Prune(ctx context.Context, keep int) ([]string, error)
}

type snapshotService struct {
	users repository.UserRepository
	notes repository.NoteRepository
	store storage.Service
	opts  SnapshotOptions
	now   func() time.Time
}

func NewSnapshotService(users repository.UserRepository, notes repository.NoteRepository, store storage.Service, opts SnapshotOptions) SnapshotService {
	opts.KeyPrefix = strings.Trim(opts.KeyPrefix, "/")
	return &snapshotService{
		users: users,
		notes: notes,
		store: store,
		opts:  opts,
		now:   time.Now,
	}
}

func (s *snapshotService) Export(ctx context.Context) (string, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return "", err
	}
	notes, err := s.notes.List(ctx, domain.NoteFilter{})
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	snap := Snapshot{
		GeneratedAt: now,
		Users:       make([]SnapshotUser, 0, len(users)),
		Notes:       make([]SnapshotNote, 0, len(notes)),
	}
	for _, u := range users {
		snap.Users = append(snap.Users, SnapshotUser{
			ID:        u.ID,
			Username:  u.Username,
			Name:      u.Name,
			CreatedAt: u.CreatedAt,
		})
	}
	for _, n := range notes {
		snap.Notes = append(snap.Notes, SnapshotNote{
			ID:        n.ID,
			Content:   n.Content,
			Important: n.Important,
			User:      n.OwnerID,
			CreatedAt: n.CreatedAt,
			UpdatedAt: n.UpdatedAt,
		})
	}

	body, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	key := path.Join(s.opts.KeyPrefix, "notes-"+now.Format(snapshotTimeLayout)+".json")
	return s.store.Upload(ctx, s.opts.Bucket, key, bytes.NewReader(body), "application/json")
}

func (s *snapshotService) List(ctx context.Context) ([]storage.ObjectInfo, error) {
	objects, err := s.store.ListObjects(ctx, s.opts.Bucket, s.snapshotPrefix())
	if err != nil {
		return nil, err
	}
	// keys embed the UTC timestamp, so lexical order is chronological
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key > objects[j].Key })
	return objects, nil
}

// Prune keeps the newest keep snapshots and deletes the rest, returning the deleted keys.
func (s *snapshotService) Prune(ctx context.Context, keep int) ([]string, error) {
	if keep < 1 {
		return nil, fmt.Errorf("keep must be at least 1")
	}
	objects, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(objects) <= keep {
		return nil, nil
	}

	stale := make([]string, 0, len(objects)-keep)
	for _, obj := range objects[keep:] {
		stale = append(stale, obj.Key)
	}
	if err := s.store.DeleteObjects(ctx, s.opts.Bucket, stale); err != nil {
		return nil, err
	}
	return stale, nil
}

func (s *snapshotService) snapshotPrefix() string {
	if s.opts.KeyPrefix == "" {
		return "notes-"
	}
	return s.opts.KeyPrefix + "/notes-"
}
