// Package store opens the configured persistence backend.
package store

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"notes-api/internal/config"
	"notes-api/internal/repository"
	"notes-api/internal/repository/mongodb"
	"notes-api/internal/repository/sqlite"
)

// Store bundles the repositories of one backend.
type Store struct {
	Users repository.UserRepository
	Notes repository.NoteRepository

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// Open connects to the backend selected by cfg.Database.Driver and brings its
// schema up to date.
func Open(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*Store, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		if err := sqlite.Migrate(ctx, db, logger); err != nil {
			db.Close()
			return nil, err
		}
		logger.Infof("using sqlite database %s", cfg.Database.Path)
		return &Store{
			Users: sqlite.NewUserRepository(db),
			Notes: sqlite.NewNoteRepository(db),
			ping:  db.PingContext,
			close: func(context.Context) error { return db.Close() },
		}, nil

	case config.DriverMongo:
		client, err := mongodb.Connect(ctx, cfg.Database.MongoURI)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.Database.MongoName)
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		logger.Infof("using mongodb database %s", cfg.Database.MongoName)
		return &Store{
			Users: mongodb.NewUserRepository(db),
			Notes: mongodb.NewNoteRepository(db),
			ping:  func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close: client.Disconnect,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	return s.close(ctx)
}
