package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	auditDomain "github.com/davicafu/hexacrud/internal/audit/domain"
)

// EventLogRepo implementa EventLogRepository para ClickHouse.
type EventLogRepo struct {
	db *sql.DB
}

// NewEventLogRepo abre la conexión y comprueba que responde.
func NewEventLogRepo(ctx context.Context, addr string, dbName string) (*EventLogRepo, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
	})

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}

	return &EventLogRepo{db: conn}, nil
}

func (r *EventLogRepo) Close() error {
	return r.db.Close()
}

// InitSchema crea la tabla si no existe. Se particiona por mes y se ordena
// por los campos de consulta habituales.
func (r *EventLogRepo) InitSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS crud_events_log (
			event_id       String,
			event_type     LowCardinality(String),
			aggregate_type LowCardinality(String),
			aggregate_id   String,
			payload        String,
			event_time     DateTime64(3),
			logged_at      DateTime64(3)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(event_time)
		ORDER BY (aggregate_type, event_type, event_time);
	`
	_, err := r.db.ExecContext(ctx, query)
	return err
}

// LogBatch inserta un lote de eventos. ClickHouse funciona mejor con inserciones en lotes.
func (r *EventLogRepo) LogBatch(ctx context.Context, events []auditDomain.LoggedEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO crud_events_log (event_id, event_type, aggregate_type, aggregate_id, payload, event_time, logged_at)")
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	loggedAt := time.Now().UTC()
	for _, evt := range events {
		if _, err := stmt.ExecContext(
			ctx,
			evt.EventID,
			evt.EventType,
			evt.AggregateType,
			evt.AggregateID,
			evt.Payload,
			evt.OccurredAt,
			loggedAt,
		); err != nil {
			// Si un registro falla, hacemos rollback de todo el lote.
			_ = tx.Rollback()
			return fmt.Errorf("failed to exec statement for event %s: %w", evt.EventID, err)
		}
	}

	return tx.Commit()
}

// CountByEventType cuenta los eventos de cada tipo en [start, end).
func (r *EventLogRepo) CountByEventType(ctx context.Context, start, end time.Time) ([]auditDomain.EventTypeCount, error) {
	query := `
		SELECT event_type, count() AS total
		FROM crud_events_log
		WHERE event_time >= ? AND event_time < ?
		GROUP BY event_type
		ORDER BY event_type
	`
	rows, err := r.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]auditDomain.EventTypeCount, 0)
	for rows.Next() {
		var c auditDomain.EventTypeCount
		if err := rows.Scan(&c.EventType, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// Verificación estática de la interfaz.
var _ auditDomain.EventLogRepository = (*EventLogRepo)(nil)
