package mongodb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"notes-api/internal/repository"
	"notes-api/internal/repository/repositorytest"
)

// These tests need a running MongoDB; point NOTES_TEST_MONGO_URI at it.
func TestRepositories(t *testing.T) {
	uri := os.Getenv("NOTES_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("NOTES_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := Connect(ctx, uri)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	n := 0
	repositorytest.Run(t, func(t *testing.T) (repository.UserRepository, repository.NoteRepository) {
		n++
		db := client.Database(fmt.Sprintf("notes_test_%d_%d", time.Now().UnixNano(), n))
		t.Cleanup(func() { _ = db.Drop(context.Background()) })
		require.NoError(t, EnsureIndexes(context.Background(), db))
		return NewUserRepository(db), NewNoteRepository(db)
	})
}
