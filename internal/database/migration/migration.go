// Package migration applies the embedded schema migrations with golang-migrate.
package migration

import (
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"

	"bms/internal/config"
	"bms/internal/database"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

// Migrator runs schema migrations against one database.
type Migrator struct {
	m      *migrate.Migrate
	log    logrus.FieldLogger
	dbHost string
}

// New prepares a Migrator on its own connection. Call Close when done.
func New(c config.DatabaseConfig, log logrus.FieldLogger) (*Migrator, error) {
	src, err := iofs.New(migrationsFS, "sql")
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	dsn, err := database.MigrateDSN(c)
	if err != nil {
		return nil, err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}

	log = log.WithField("component", "database")
	m.Log = migrateLogger{log: log}
	return &Migrator{m: m, log: log, dbHost: c.Host}, nil
}

// Up applies all pending migrations. An up-to-date schema is not an error.
func (mg *Migrator) Up() error {
	start := time.Now()
	log := mg.log.WithField("db_host", mg.dbHost)
	log.WithField("event", "db_migration_start").Info("applying migrations")

	err := mg.m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.WithFields(logrus.Fields{
			"event":       "db_migration_skip",
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("schema already up to date")
		return nil
	case err != nil:
		log.WithError(err).WithFields(logrus.Fields{
			"event":       "db_migration_failed",
			"duration_ms": time.Since(start).Milliseconds(),
		}).Error("migration failed")
		return fmt.Errorf("migrate up: %w", err)
	}

	version, _, _ := mg.m.Version()
	log.WithFields(logrus.Fields{
		"event":       "db_migration_success",
		"version":     version,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("migrations applied")
	return nil
}

// Version reports the applied schema version. A database without migrations reports 0.
func (mg *Migrator) Version() (uint, bool, error) {
	v, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

// Close releases the migration source and its database connection.
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

// Run applies pending migrations using a short-lived Migrator.
func Run(c config.DatabaseConfig, log logrus.FieldLogger) error {
	mg, err := New(c, log)
	if err != nil {
		return err
	}
	defer mg.Close()
	return mg.Up()
}

// migrateLogger forwards golang-migrate's progress lines to logrus at debug level.
type migrateLogger struct {
	log logrus.FieldLogger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.log.Debugf(format, v...)
}

func (l migrateLogger) Verbose() bool {
	if lg, ok := l.log.(*logrus.Entry); ok {
		return lg.Logger.IsLevelEnabled(logrus.DebugLevel)
	}
	return false
}
