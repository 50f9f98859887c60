// Package repositorytest holds behavioural tests shared by every storage
// backend, so the SQLite and MongoDB repositories stay interchangeable.
package repositorytest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notes-api/internal/domain"
	"notes-api/internal/repository"
)

// Factory returns empty repositories backed by a fresh store.
type Factory func(t *testing.T) (repository.UserRepository, repository.NoteRepository)

// Run executes the shared suite against the repositories built by newRepos.
func Run(t *testing.T, newRepos Factory) {
	t.Run("CreateUserAssignsID", func(t *testing.T) {
		users, _ := newRepos(t)
		ctx := context.Background()

		u := &domain.User{Username: "root", Name: "Superuser", PasswordHash: "hash"}
		require.NoError(t, users.Create(ctx, u))
		require.NotEmpty(t, u.ID)
		_, err := domain.ParseID(u.ID)
		require.NoError(t, err)

		got, err := users.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "root", got.Username)
		assert.Equal(t, "Superuser", got.Name)
		assert.Equal(t, "hash", got.PasswordHash)

		got, err = users.GetByUsername(ctx, "root")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		users, _ := newRepos(t)
		ctx := context.Background()

		require.NoError(t, users.Create(ctx, &domain.User{Username: "root", PasswordHash: "a"}))
		err := users.Create(ctx, &domain.User{Username: "root", PasswordHash: "b"})
		require.ErrorIs(t, err, repository.ErrDuplicate)

		list, err := users.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("UserNotFound", func(t *testing.T) {
		users, _ := newRepos(t)
		ctx := context.Background()

		_, err := users.GetByUsername(ctx, "nobody")
		require.ErrorIs(t, err, repository.ErrNotFound)
		_, err = users.GetByID(ctx, domain.NewID())
		require.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("ListUsersInCreationOrder", func(t *testing.T) {
		users, _ := newRepos(t)
		ctx := context.Background()

		for _, name := range []string{"alice", "bob", "carol"} {
			require.NoError(t, users.Create(ctx, &domain.User{Username: name, PasswordHash: "x"}))
		}
		list, err := users.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "alice", list[0].Username)
		assert.Equal(t, "carol", list[2].Username)
	})

	t.Run("NoteLifecycle", func(t *testing.T) {
		users, notes := newRepos(t)
		ctx := context.Background()

		owner := &domain.User{Username: "writer", Name: "Writer", PasswordHash: "x"}
		require.NoError(t, users.Create(ctx, owner))

		n := &domain.Note{Content: "HTML is easy", Important: true, OwnerID: owner.ID}
		require.NoError(t, notes.Create(ctx, n))
		require.NotEmpty(t, n.ID)

		got, err := notes.Get(ctx, n.ID)
		require.NoError(t, err)
		assert.Equal(t, "HTML is easy", got.Content)
		assert.True(t, got.Important)
		require.NotNil(t, got.Owner)
		assert.Equal(t, owner.ID, got.Owner.ID)
		assert.Equal(t, "writer", got.Owner.Username)
		assert.Equal(t, "Writer", got.Owner.Name)

		got.Content = "HTML is hard"
		got.Important = false
		require.NoError(t, notes.Update(ctx, got))

		got, err = notes.Get(ctx, n.ID)
		require.NoError(t, err)
		assert.Equal(t, "HTML is hard", got.Content)
		assert.False(t, got.Important)

		removed, err := notes.Delete(ctx, n.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = notes.Delete(ctx, n.ID)
		require.NoError(t, err)
		assert.False(t, removed)

		_, err = notes.Get(ctx, n.ID)
		require.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("UpdateMissingNote", func(t *testing.T) {
		_, notes := newRepos(t)
		err := notes.Update(context.Background(), &domain.Note{ID: domain.NewID(), Content: "x"})
		require.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("ListNotesFilters", func(t *testing.T) {
		users, notes := newRepos(t)
		ctx := context.Background()

		a := &domain.User{Username: "alice", PasswordHash: "x"}
		b := &domain.User{Username: "bob", PasswordHash: "x"}
		require.NoError(t, users.Create(ctx, a))
		require.NoError(t, users.Create(ctx, b))

		require.NoError(t, notes.Create(ctx, &domain.Note{Content: "first", Important: true, OwnerID: a.ID}))
		require.NoError(t, notes.Create(ctx, &domain.Note{Content: "second", OwnerID: a.ID}))
		require.NoError(t, notes.Create(ctx, &domain.Note{Content: "third", Important: true, OwnerID: b.ID}))

		all, err := notes.List(ctx, domain.NoteFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "first", all[0].Content)
		assert.Equal(t, "third", all[2].Content)

		important := true
		list, err := notes.List(ctx, domain.NoteFilter{Important: &important})
		require.NoError(t, err)
		assert.Len(t, list, 2)

		list, err = notes.List(ctx, domain.NoteFilter{OwnerID: a.ID})
		require.NoError(t, err)
		require.Len(t, list, 2)
		for _, n := range list {
			require.NotNil(t, n.Owner)
			assert.Equal(t, "alice", n.Owner.Username)
		}

		list, err = notes.List(ctx, domain.NoteFilter{OwnerID: b.ID, Important: &important})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "third", list[0].Content)
	})

	t.Run("EmptyListsAreNotNil", func(t *testing.T) {
		users, notes := newRepos(t)
		ctx := context.Background()

		ul, err := users.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, ul)
		assert.Empty(t, ul)

		nl, err := notes.List(ctx, domain.NoteFilter{})
		require.NoError(t, err)
		assert.NotNil(t, nl)
		assert.Empty(t, nl)
	})
}
