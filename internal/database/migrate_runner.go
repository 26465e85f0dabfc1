package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"playrewards/internal/observability"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrSQLMigrationsNeedPostgres is returned when SQL migrations are run against
// another driver. SQLite builds its schema from the models instead.
var ErrSQLMigrationsNeedPostgres = errors.New("sql migrations target PostgreSQL; use AutoMigrate for SQLite")

const migrationLogTable = "migration_logs"

const ensureMigrationLogSQL = `
CREATE TABLE IF NOT EXISTS migration_logs (
	version BIGINT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// migrationLedger reads and writes the migration_logs table. Each script runs
// in the same transaction as its ledger row, so a failed script leaves no
// record behind.
type migrationLedger struct {
	db *gorm.DB
}

func (l migrationLedger) applied(ctx context.Context) ([]int, error) {
	var versions []int
	err := l.db.WithContext(ctx).Table(migrationLogTable).Order("version ASC").Pluck("version", &versions).Error
	if err != nil {
		if isUndefinedTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", migrationLogTable, err)
	}
	return versions, nil
}

func (l migrationLedger) up(ctx context.Context, m Migration) error {
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.UpScript).Error; err != nil {
			return err
		}
		return tx.Exec("INSERT INTO migration_logs (version, name) VALUES (?, ?)", m.Version, m.Name).Error
	})
	if err != nil {
		return fmt.Errorf("apply %s: %w", m, err)
	}
	return nil
}

func (l migrationLedger) down(ctx context.Context, m Migration) error {
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.DownScript).Error; err != nil {
			return err
		}
		return tx.Exec("DELETE FROM migration_logs WHERE version = ?", m.Version).Error
	})
	if err != nil {
		return fmt.Errorf("roll back %s: %w", m, err)
	}
	return nil
}

// isUndefinedTable reports a missing migration_logs table (SQLSTATE 42P01).
func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42P01"
	}
	return strings.Contains(err.Error(), "does not exist")
}

// pendingMigrations returns registered migrations missing from applied, in version order.
func pendingMigrations(applied []int, registered []Migration) []Migration {
	done := make(map[int]struct{}, len(applied))
	for _, v := range applied {
		done[v] = struct{}{}
	}
	var pending []Migration
	for _, m := range registered {
		if _, ok := done[m.Version]; !ok {
			pending = append(pending, m)
		}
	}
	return pending
}

// RunMigrations applies every pending SQL migration to a PostgreSQL database.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	if !IsPostgres(db) {
		return ErrSQLMigrationsNeedPostgres
	}
	if err := db.WithContext(ctx).Exec(ensureMigrationLogSQL).Error; err != nil {
		return fmt.Errorf("ensure %s: %w", migrationLogTable, err)
	}

	ledger := migrationLedger{db: db}
	applied, err := ledger.applied(ctx)
	if err != nil {
		return err
	}
	if err := validateAppliedVersions(applied, migrations); err != nil {
		return err
	}

	pending := pendingMigrations(applied, migrations)
	for _, m := range pending {
		observability.GlobalLogger.InfoContext(ctx, "applying migration", slog.String("migration", m.String()))
		if err := ledger.up(ctx, m); err != nil {
			return err
		}
	}

	observability.GlobalLogger.InfoContext(ctx, "sql migrations up to date",
		slog.Int("applied", len(pending)),
		slog.Int("total", len(migrations)),
	)
	return nil
}

func validateAppliedVersions(applied []int, registered []Migration) error {
	if len(applied) == 0 {
		return nil
	}
	known := make(map[int]struct{}, len(registered))
	for _, m := range registered {
		known[m.Version] = struct{}{}
	}

	var unknown []string
	sorted := append([]int(nil), applied...)
	sort.Ints(sorted)
	for _, version := range sorted {
		if _, ok := known[version]; !ok {
			unknown = append(unknown, fmt.Sprintf("%06d", version))
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	return fmt.Errorf("%s lists versions this build does not know: %s (reset the development database to rebuild)",
		migrationLogTable, strings.Join(unknown, ", "))
}

// RollbackMigration reverts the newest applied migration, which must be version.
// Older migrations are refused so friend_edges never outlives the users table it references.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	if !IsPostgres(db) {
		return ErrSQLMigrationsNeedPostgres
	}
	m := GetMigrationByVersion(version)
	if m == nil {
		return fmt.Errorf("migration version %d not found", version)
	}

	ledger := migrationLedger{db: db}
	applied, err := ledger.applied(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 || !containsVersion(applied, version) {
		return fmt.Errorf("migration %s has not been applied", m)
	}
	if latest := applied[len(applied)-1]; latest != version {
		newer := fmt.Sprintf("%06d", latest)
		if lm := GetMigrationByVersion(latest); lm != nil {
			newer = lm.String()
		}
		return fmt.Errorf("migration %s is not the latest applied; roll back %s first", m, newer)
	}

	observability.GlobalLogger.InfoContext(ctx, "rolling back migration", slog.String("migration", m.String()))
	return ledger.down(ctx, *m)
}

func containsVersion(versions []int, version int) bool {
	for _, v := range versions {
		if v == version {
			return true
		}
	}
	return false
}
