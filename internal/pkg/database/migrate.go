package database

import (
	"errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// Migrate applies pending migrations from the given directory.
// A dirty database version is a deploy problem, not something to
// auto-repair, so it is surfaced as an error.
func Migrate(db *sqlx.DB, migrationsDir string) error {
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsDir, "postgres", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Msg("Database schema up to date")
			return nil
		}
		return err
	}

	version, _, _ := m.Version()
	log.Info().Uint("version", version).Msg("Database migrated")
	return nil
}
