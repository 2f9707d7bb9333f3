package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/davicafu/hexacrud/internal/infra/db/sqldoc"
	sharedDomain "github.com/davicafu/hexacrud/internal/shared/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open conecta con el driver pgx de database/sql.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// InitPostgres crea la tabla outbox y una tabla documental por cada nombre.
func InitPostgres(ctx context.Context, db *sql.DB, tables ...string) error {
	for _, table := range tables {
		if err := sqldoc.ValidateTable(table); err != nil {
			return err
		}
		_, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			data JSONB NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL
		)`, table))
		if err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
	}

	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS outbox (
			id UUID PRIMARY KEY,
			aggregate_type TEXT NOT NULL,
			aggregate_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			processed BOOLEAN NOT NULL DEFAULT FALSE
		)
	`)
	return err
}

// NewDocumentRepo crea un repositorio documental sobre la tabla indicada.
func NewDocumentRepo[T any, P sharedDomain.EntityPtr[T]](db *sql.DB, table string) (*sqldoc.DocumentRepo[T, P], error) {
	return sqldoc.NewDocumentRepo[T, P](db, Dialect{}, table)
}
