// The init package contains functions that setup required dependencies such as the SQLite database and the task
// queue.
package initialization

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate"
	"github.com/golang-migrate/migrate/database/sqlite3"
	_ "github.com/golang-migrate/migrate/source/file"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/portal/internal/config"
)

// SetupDB creates the database, if it does not yet exist, and applies all remaining migrations.
func SetupDB(cfg *config.Configuration, db *sql.DB, folder, dbname string) error {
	log.Info().Str("folder", folder).Msg("starting migrations")
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		log.Error().Err(err).Msg("failed to create sqlite3 migration driver")
		return err
	}

	mig, err := migrate.NewWithDatabaseInstance(
		"file://"+folder,
		dbname,
		driver,
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create Migrate object")
		return err
	}

	err = mig.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info().Msg("database schema is up to date")
		return nil
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to run migrations")
		return err
	}
	log.Info().Msg("migrations applied")
	return nil
}

func OpenDB(connString string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", connString)
	if err != nil {
		log.Error().Err(err).Str("connection string", connString).Msg("failed to open database")
		return nil, err
	}
	// sqlite allows a single writer; one connection keeps the task queue and the request handlers from
	// tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	return db, nil
}

// InitQueue creates the backlite client on the portal's database and installs its schema.
func InitQueue(cfg *config.Configuration, db *sql.DB) (*backlite.Client, error) {
	client, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		Logger:          queueLogger{},
		ReleaseAfter:    time.Minute,
		NumWorkers:      cfg.QueueWorkers,
		CleanupInterval: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("creating task queue client: %w", err)
	}

	if err = client.Install(); err != nil {
		return nil, fmt.Errorf("installing task queue schema: %w", err)
	}
	return client, nil
}

// queueLogger forwards backlite's key/value logs to zerolog.
type queueLogger struct{}

func (queueLogger) Info(message string, params ...any) {
	log.Debug().Fields(params).Msg(message)
}

func (queueLogger) Error(message string, params ...any) {
	log.Error().Fields(params).Msg(message)
}
