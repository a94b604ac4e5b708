package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	parkingdomain "github.com/smallbiznis/parkpro/internal/parking/domain"
	pricingdomain "github.com/smallbiznis/parkpro/internal/pricing/domain"
	"gorm.io/gorm"
)

// RunMigrations applies the embedded postgres migrations.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// Migrate brings the schema up to date for whichever dialect conn uses.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	if conn.Dialector.Name() == "postgres" {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}
	return AutoMigrate(conn)
}

// AutoMigrate creates the schema through gorm for sqlite and mysql, then adds
// the one-parked-session-per-plate constraint gorm tags cannot express.
func AutoMigrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(
		&parkingdomain.Session{},
		&parkingdomain.Receipt{},
		&parkingdomain.RevenueEntry{},
		&pricingdomain.PricingConfig{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	switch conn.Dialector.Name() {
	case "mysql":
		return ensureMySQLParkedPlateIndex(conn)
	default:
		return conn.Exec(
			"CREATE UNIQUE INDEX IF NOT EXISTS ux_parking_sessions_parked_plate " +
				"ON parking_sessions (plate_key) WHERE status = 'parked'",
		).Error
	}
}

// MySQL has no partial indexes. A generated column that is NULL for exited
// sessions carries the unique index instead.
func ensureMySQLParkedPlateIndex(conn *gorm.DB) error {
	if conn.Migrator().HasColumn(&parkingdomain.Session{}, "parked_plate_key") {
		return nil
	}
	if err := conn.Exec(
		"ALTER TABLE parking_sessions ADD COLUMN parked_plate_key VARCHAR(64) " +
			"GENERATED ALWAYS AS (IF(status = 'parked', plate_key, NULL)) VIRTUAL",
	).Error; err != nil {
		return err
	}
	return conn.Exec(
		"CREATE UNIQUE INDEX ux_parking_sessions_parked_plate ON parking_sessions (parked_plate_key)",
	).Error
}
