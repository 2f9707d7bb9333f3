package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/davicafu/hexacrud/internal/infra/db/sqldoc"
	sharedDomain "github.com/davicafu/hexacrud/internal/shared/domain"

	// _ "github.com/mattn/go-sqlite3" // better performance but requires gcc
	_ "modernc.org/sqlite"
)

// Open abre la base de datos. Con ":memory:" limita el pool a una conexión
// para que todas vean la misma base.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// InitSQLite crea la tabla outbox y una tabla documental por cada nombre.
func InitSQLite(ctx context.Context, db *sql.DB, tables ...string) error {
	for _, table := range tables {
		if err := sqldoc.ValidateTable(table); err != nil {
			return err
		}
		_, err := db.ExecContext(ctx, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            id TEXT PRIMARY KEY,
            data TEXT NOT NULL,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`, table))
		if err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
	}

	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS outbox (
            id TEXT PRIMARY KEY,
            aggregate_type TEXT NOT NULL,
            aggregate_id TEXT NOT NULL,
            event_type TEXT NOT NULL,
            payload TEXT NOT NULL,
            created_at DATETIME NOT NULL,
            processed BOOLEAN NOT NULL DEFAULT 0
        )
    `)
	return err
}

// NewDocumentRepo crea un repositorio documental sobre la tabla indicada.
func NewDocumentRepo[T any, P sharedDomain.EntityPtr[T]](db *sql.DB, table string) (*sqldoc.DocumentRepo[T, P], error) {
	return sqldoc.NewDocumentRepo[T, P](db, Dialect{}, table)
}
