package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies all pending migrations. An empty migrationsPath uses
// the schema compiled into the binary.
func RunMigrations(dsn string, migrationsPath string, log zerolog.Logger) error {
	m, source, err := newMigrate(dsn, migrationsPath)
	if err != nil {
		return fmt.Errorf("migration init: %w", err)
	}
	defer m.Close()

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up: %w", err)
	}

	version, dirty, _ := m.Version()
	log.Info().Str("source", source).Uint("version", version).Bool("dirty", dirty).Msg("✅ Migrations applied")
	return nil
}

func newMigrate(dsn, migrationsPath string) (*migrate.Migrate, string, error) {
	if migrationsPath != "" {
		m, err := migrate.New(fmt.Sprintf("file://%s", migrationsPath), dsn)
		return m, migrationsPath, err
	}
	src, err := iofs.New(embeddedMigrations, "migrations")
	if err != nil {
		return nil, "", err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	return m, "embedded", err
}
