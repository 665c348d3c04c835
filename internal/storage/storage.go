// Package storage opens the configured document store and exposes it as the
// three repository interfaces.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sakif/espresso-self/internal/config"
	"github.com/sakif/espresso-self/internal/repository"
	"github.com/sakif/espresso-self/internal/repository/mongo"
	"github.com/sakif/espresso-self/internal/repository/sqlite"
)

// Store bundles the repositories of one open backend.
type Store struct {
	Driver  string
	Users   repository.UserRepository
	Cafes   repository.CafeRepository
	Reviews repository.ReviewRepository

	ping  func(context.Context) error
	close func(context.Context) error
}

// Open connects to the backend cfg.Driver names.
func Open(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return openSQLite(cfg.SQLitePath)
	case config.DriverMongo:
		return openMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}

func openSQLite(path string) (*Store, error) {
	if path != ":memory:" {
		// Like `mkdir -p`, so a fresh checkout can start without setup.
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("storage: creating database directory: %w", err)
		}
	}

	db, err := sqlite.New(path)
	if err != nil {
		return nil, err
	}

	return &Store{
		Driver:  config.DriverSQLite,
		Users:   db.Users(),
		Cafes:   db.Cafes(),
		Reviews: db.Reviews(),
		ping:    db.Ping,
		close:   func(context.Context) error { return db.Close() },
	}, nil
}

func openMongo(ctx context.Context, uri, database string) (*Store, error) {
	db, err := mongo.Connect(ctx, uri, database)
	if err != nil {
		return nil, err
	}

	return &Store{
		Driver:  config.DriverMongo,
		Users:   db.Users(),
		Cafes:   db.Cafes(),
		Reviews: db.Reviews(),
		ping:    db.Ping,
		close:   db.Close,
	}, nil
}

// Ping checks the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Close releases the backend's connections.
func (s *Store) Close(ctx context.Context) error {
	return s.close(ctx)
}
