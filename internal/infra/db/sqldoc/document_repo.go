package sqldoc

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sharedDomain "github.com/davicafu/hexacrud/internal/shared/domain"
	"github.com/davicafu/hexacrud/internal/shared/domain/filter"
	"github.com/google/uuid"
)

// OutboxTable es la tabla donde se escriben los eventos junto a cada cambio.
const OutboxTable = "outbox"

// DocumentRepo implementa sharedDomain.Repository sobre database/sql. La
// entidad completa se guarda serializada en la columna data.
type DocumentRepo[T any, P sharedDomain.EntityPtr[T]] struct {
	db    *sql.DB
	d     Dialect
	table string
}

func NewDocumentRepo[T any, P sharedDomain.EntityPtr[T]](db *sql.DB, d Dialect, table string) (*DocumentRepo[T, P], error) {
	if err := ValidateTable(table); err != nil {
		return nil, err
	}
	return &DocumentRepo[T, P]{db: db, d: d, table: table}, nil
}

func (r *DocumentRepo[T, P]) ph(n int) string { return r.d.Placeholder(n) }

func (r *DocumentRepo[T, P]) Create(ctx context.Context, e *T, evt sharedDomain.OutboxEvent) error {
	base := P(e).EntityBase()
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx,
		fmt.Sprintf("SELECT 1 FROM %s WHERE id = %s", r.table, r.ph(1)), base.ID.String(),
	).Scan(&one)
	switch {
	case err == nil:
		return sharedDomain.ErrAlreadyExists
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("db error: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (id, data, created_at, updated_at) VALUES (%s, %s, %s, %s)",
			r.table, r.ph(1), r.ph(2), r.ph(3), r.ph(4)),
		base.ID.String(), r.d.DataArg(data), base.CreatedAt, base.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if err := r.insertOutbox(ctx, tx, evt); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *DocumentRepo[T, P]) GetByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT data FROM %s WHERE id = %s", r.table, r.ph(1)), id.String(),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sharedDomain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return decode[T](data)
}

func (r *DocumentRepo[T, P]) Update(ctx context.Context, e *T, evt sharedDomain.OutboxEvent) error {
	base := P(e).EntityBase()
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET data = %s, updated_at = %s WHERE id = %s", r.table, r.ph(1), r.ph(2), r.ph(3)),
		r.d.DataArg(data), base.UpdatedAt, base.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return err
	}

	if err := r.insertOutbox(ctx, tx, evt); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *DocumentRepo[T, P]) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = %s", r.table, r.ph(1)), id.String(),
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return err
	}

	if err := r.insertOutbox(ctx, tx, evt); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *DocumentRepo[T, P]) Find(ctx context.Context, q filter.Query) ([]*T, error) {
	st, err := Build(r.d, "data", q)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, st.SQL(r.table), st.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*T, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		e, err := decode[T](data)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *DocumentRepo[T, P]) insertOutbox(ctx context.Context, tx *sql.Tx, evt sharedDomain.OutboxEvent) error {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, aggregate_type, aggregate_id, event_type, payload, created_at, processed)
		 VALUES (%s, %s, %s, %s, %s, %s, FALSE)`,
			OutboxTable, r.ph(1), r.ph(2), r.ph(3), r.ph(4), r.ph(5), r.ph(6)),
		evt.ID.String(), evt.AggregateType, evt.AggregateID, evt.EventType, r.d.DataArg(payload), evt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

func checkAffected(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get RowsAffected: %w", err)
	}
	if rows == 0 {
		return sharedDomain.ErrNotFound
	}
	return nil
}

func decode[T any](data []byte) (*T, error) {
	var e T
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return &e, nil
}
