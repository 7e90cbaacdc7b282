package database

import (
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	src, err := iofs.New(embeddedMigrations, "migrations")
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	first, err := src.First()
	if err != nil {
		t.Fatal(err)
	}
	if first != 1 {
		t.Fatalf("first version = %d, want 1", first)
	}

	up, _, err := src.ReadUp(first)
	if err != nil {
		t.Fatalf("missing up migration: %v", err)
	}
	up.Close()
	down, _, err := src.ReadDown(first)
	if err != nil {
		t.Fatalf("missing down migration: %v", err)
	}
	down.Close()
}
