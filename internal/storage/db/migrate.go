package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrator applies the embedded catalog schema migrations.
type Migrator struct {
	sqlDB    *sql.DB
	provider *goose.Provider
	logger   *slog.Logger
}

func NewMigrator(pool *pgxpool.Pool, logger *slog.Logger) (*Migrator, error) {
	fsys, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("sub migrations fs: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, fsys)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("create goose provider: %w", err)
	}

	return &Migrator{
		sqlDB:    sqlDB,
		provider: provider,
		logger:   logger.With(slog.String("component", "migrator")),
	}, nil
}

func (m *Migrator) Close() error {
	return m.sqlDB.Close()
}

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) error {
	results, err := m.provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	m.log(ctx, "applied migration", results)
	return nil
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) error {
	result, err := m.provider.Down(ctx)
	if err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	if result != nil {
		m.log(ctx, "rolled back migration", []*goose.MigrationResult{result})
	}
	return nil
}

// Status logs the state of every known migration.
func (m *Migrator) Status(ctx context.Context) error {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return fmt.Errorf("migration status: %w", err)
	}

	for _, s := range statuses {
		attrs := []any{
			slog.Int64("version", s.Source.Version),
			slog.String("source", s.Source.Path),
			slog.String("state", string(s.State)),
		}
		if !s.AppliedAt.IsZero() {
			attrs = append(attrs, slog.Time("applied_at", s.AppliedAt))
		}
		m.logger.InfoContext(ctx, "migration", attrs...)
	}
	return nil
}

func (m *Migrator) log(ctx context.Context, msg string, results []*goose.MigrationResult) {
	for _, r := range results {
		m.logger.InfoContext(ctx, msg,
			slog.Int64("version", r.Source.Version),
			slog.String("source", r.Source.Path),
			slog.Duration("duration", r.Duration),
		)
	}
}

// Migrate applies every pending migration against the pool's database.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	m, err := NewMigrator(pool, logger)
	if err != nil {
		return err
	}
	defer m.Close()

	return m.Up(ctx)
}
