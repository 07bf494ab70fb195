package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/railzwaylabs/subscribe/internal/config"
	plandomain "github.com/railzwaylabs/subscribe/internal/plan/domain"
	subscriptiondomain "github.com/railzwaylabs/subscribe/internal/subscription/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Run brings the schema up to date. Postgres applies the embedded SQL
// migrations under an advisory lock; sqlite and mysql are synced from the
// gorm models.
func Run(conn *gorm.DB, driver string, log *zap.Logger) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}

	switch driver {
	case config.DriverPostgres:
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		version, err := RunMigrations(sqlDB)
		if err != nil {
			return err
		}
		checksum, err := MigrationsChecksum()
		if err != nil {
			return err
		}
		log.Info("schema migrated", zap.Uint("version", version), zap.String("checksum", checksum))
		return nil
	default:
		if err := AutoMigrate(conn); err != nil {
			return err
		}
		log.Info("schema synced from models", zap.String("driver", driver))
		return nil
	}
}

// AutoMigrate creates or alters the tables from the gorm models.
func AutoMigrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(
		&plandomain.Plan{},
		&subscriptiondomain.Customer{},
		&subscriptiondomain.Subscription{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// RunMigrations applies all embedded postgres migrations and returns the
// resulting schema version.
func RunMigrations(db *sql.DB) (uint, error) {
	if db == nil {
		return 0, errors.New("migration database handle is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	unlock, err := acquireAdvisoryLock(ctx, db)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = unlock(context.Background())
	}()

	latestVersion, err := LatestMigrationVersion()
	if err != nil {
		return 0, err
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return 0, fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return 0, fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return 0, fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return 0, fmt.Errorf("create migrator: %w", err)
	}

	if _, err := ensureNotDirty(migrator); err != nil {
		return 0, err
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return 0, fmt.Errorf("apply migrations: %w", upErr)
	}

	currentVersion, err := ensureNotDirty(migrator)
	if err != nil {
		return 0, err
	}

	if currentVersion != latestVersion {
		return 0, fmt.Errorf("schema version mismatch after migrate: got %d want %d", currentVersion, latestVersion)
	}
	return currentVersion, nil
}

func ensureNotDirty(migrator *migrate.Migrate) (uint, error) {
	if migrator == nil {
		return 0, errors.New("migrator is required")
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, nil
		}
		return 0, fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		return 0, fmt.Errorf("database migrations are dirty at version %d", version)
	}
	return version, nil
}
