package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/example/railsahayak/internal/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS orders (
	record_id   TEXT PRIMARY KEY,
	order_id    TEXT NOT NULL,
	user_id     TEXT NOT NULL,
	status      TEXT NOT NULL,
	items       JSONB NOT NULL,
	subtotal    INTEGER NOT NULL,
	gst         INTEGER NOT NULL,
	final_total INTEGER NOT NULL,
	station     TEXT NOT NULL,
	coach       TEXT NOT NULL,
	payment_ref TEXT NOT NULL DEFAULT '',
	ordered_at  TIMESTAMPTZ NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS orders_order_id_idx ON orders (order_id)`

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Migrate creates the orders table if it does not exist.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, postgresSchema)
	return err
}

// SaveOrder is idempotent on record id so redelivered events are harmless.
// Two orders sharing a passenger-facing order id are both kept.
func (p *PostgresStore) SaveOrder(ctx context.Context, o models.OrderRecord) error {
	if o.RecordID == "" {
		return ErrNoRecordID
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `INSERT INTO orders(record_id, order_id, user_id, status, items, subtotal, gst, final_total, station, coach, payment_ref, ordered_at, created_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13) ON CONFLICT (record_id) DO NOTHING`,
		o.RecordID, o.OrderID, o.UserID, o.Status, items, o.Subtotal, o.GST, o.FinalTotal, o.Station, o.Coach, o.PaymentRef, o.Timestamp, o.CreatedAt)
	return err
}

// OrdersByOrderID lists every record sharing a passenger-facing order id.
func (p *PostgresStore) OrdersByOrderID(ctx context.Context, orderID string) ([]models.OrderRecord, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT record_id, order_id, user_id, status, items, subtotal, gst, final_total, station, coach, payment_ref, ordered_at, created_at
		FROM orders WHERE order_id = $1 ORDER BY created_at`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.OrderRecord
	for rows.Next() {
		var (
			o     models.OrderRecord
			items []byte
		)
		if err := rows.Scan(&o.RecordID, &o.OrderID, &o.UserID, &o.Status, &items, &o.Subtotal, &o.GST, &o.FinalTotal,
			&o.Station, &o.Coach, &o.PaymentRef, &o.Timestamp, &o.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("decode items: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (p *PostgresStore) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *PostgresStore) Close() error { return p.db.Close() }
