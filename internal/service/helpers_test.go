package service

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"notes-api/internal/auth"
	"notes-api/internal/repository"
	"notes-api/internal/repository/sqlite"
)

type testStack struct {
	users   repository.UserRepository
	notes   repository.NoteRepository
	tokens  *auth.Tokens
	userSvc UserService
	noteSvc NoteService
}

func newTestStack(t *testing.T, enforceOwnership bool) *testStack {
	t.Helper()

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	require.NoError(t, sqlite.Migrate(context.Background(), db, logger))

	st := &testStack{
		users:  sqlite.NewUserRepository(db),
		notes:  sqlite.NewNoteRepository(db),
		tokens: auth.NewTokens("test-secret", 0),
	}
	st.userSvc = NewUserService(st.users, st.notes, auth.NewHasher(bcrypt.MinCost), st.tokens)
	st.noteSvc = NewNoteService(st.notes, st.users, enforceOwnership)
	return st
}
