package pg

import (
	"context"
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations applies the embedded migrations that are not recorded in
// schema_migrations yet. Each migration runs in its own transaction.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	if pool == nil {
		return nil, errors.New("connection pool not initialized")
	}
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create migrations table")
	}

	rows, err := pool.Query(ctx, `SELECT name FROM schema_migrations ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query migrations")
	}
	applied, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan migration names")
	}
	done := make(map[string]bool, len(applied))
	for _, name := range applied {
		done[name] = true
	}

	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, errors.Wrap(err, "failed to read migrations directory")
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var ran []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") || done[entry.Name()] {
			continue
		}
		migrationSQL, err := fs.ReadFile(migrationsFS, path.Join("migrations", entry.Name()))
		if err != nil {
			return ran, errors.Wrapf(err, "failed to read migration %s", entry.Name())
		}
		err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(migrationSQL)); err != nil {
				return errors.Wrap(err, "apply")
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, entry.Name())
			return errors.Wrap(err, "record")
		})
		if err != nil {
			return ran, errors.Wrapf(err, "migration %s", entry.Name())
		}
		klog.InfoS("Applied migration", "name", entry.Name())
		ran = append(ran, entry.Name())
	}
	return ran, nil
}
