package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Execer is satisfied by *pgx.Conn, *pgxpool.Pool and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type Migration struct {
	Name string
	SQL  string
}

// Migrations returns the embedded schema files in apply order. Every file
// is idempotent.
func Migrations() ([]Migration, error) {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	migrations := make([]Migration, 0, len(names))
	for _, name := range names {
		content, err := migrationFiles.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		migrations = append(migrations, Migration{Name: name[len("migrations/"):], SQL: string(content)})
	}
	return migrations, nil
}

// Migrate applies every migration in order. onApplied, if set, is called
// after each file.
func Migrate(ctx context.Context, db Execer, onApplied func(name string)) error {
	migrations, err := Migrations()
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if _, err := db.Exec(ctx, m.SQL); err != nil {
			return fmt.Errorf("failed to execute %s: %w", m.Name, err)
		}
		if onApplied != nil {
			onApplied(m.Name)
		}
	}
	return nil
}
