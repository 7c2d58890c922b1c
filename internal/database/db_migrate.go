package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// schemaMigration is one numbered SQL script, e.g. 0002_rc_index.sql
type schemaMigration struct {
	Version int
	Name    string
	Script  string
}

// Migrate brings the main database up to the newest embedded schema version.
// Each script runs in its own transaction together with its version record.
func (db *Database) Migrate(ctx context.Context) error {
	if _, err := db.mainDB.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	migrations, err := loadMigrations(migrationsFS)
	if err != nil {
		return err
	}
	current, err := db.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		err := runTransaction(ctx, db.mainDB, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, m.Script); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, m.Version, m.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %04d_%s failed: %w", m.Version, m.Name, err)
		}
		log.Printf("[DATABASE]: Applied schema version %d (%s)", m.Version, m.Name)
	}
	return nil
}

// SchemaVersion returns the highest applied migration, 0 for an empty database
func (db *Database) SchemaVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	if err := db.mainDB.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(version.Int64), nil
}

// loadMigrations reads all scripts below migrations/ ordered by version
func loadMigrations(fsys fs.FS) ([]schemaMigration, error) {
	entries, err := fs.ReadDir(fsys, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}

	var migrations []schemaMigration
	seen := make(map[int]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		version, name, err := parseMigrationName(e.Name())
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migrations %s and %s share version %d", prev, e.Name(), version)
		}
		seen[version] = e.Name()

		script, err := fs.ReadFile(fsys, "migrations/"+e.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", e.Name(), err)
		}
		migrations = append(migrations, schemaMigration{Version: version, Name: name, Script: string(script)})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// parseMigrationName splits "0001_schema.sql" into 1 and "schema"
func parseMigrationName(fileName string) (int, string, error) {
	base, ok := strings.CutSuffix(fileName, ".sql")
	if !ok {
		return 0, "", fmt.Errorf("migration %s: missing .sql suffix", fileName)
	}
	num, name, ok := strings.Cut(base, "_")
	if !ok || name == "" {
		return 0, "", fmt.Errorf("migration %s: expected NNNN_name.sql", fileName)
	}
	version, err := strconv.Atoi(num)
	if err != nil || version <= 0 {
		return 0, "", fmt.Errorf("migration %s: invalid version %q", fileName, num)
	}
	return version, name, nil
}
