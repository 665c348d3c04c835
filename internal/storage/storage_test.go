package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sakif/espresso-self/internal/config"
	"github.com/sakif/espresso-self/internal/model"
)

func TestOpen_SQLiteCreatesDirectory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "dir", "espresso.db")

	store, err := Open(ctx, config.StoreConfig{Driver: config.DriverSQLite, SQLitePath: path})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close(ctx)

	if store.Driver != config.DriverSQLite {
		t.Errorf("Driver = %q", store.Driver)
	}
	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if err := store.Users.Create(ctx, &model.User{Username: "ana"}); err != nil {
		t.Fatalf("Users.Create() error = %v", err)
	}
	if n, _ := store.Users.Count(ctx); n != 1 {
		t.Errorf("Users.Count() = %d, want 1", n)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), config.StoreConfig{Driver: "postgres"}); err == nil {
		t.Fatal("Open() should reject an unknown driver")
	}
}
