package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/example/railsahayak/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS orders (
	record_id   TEXT PRIMARY KEY,
	order_id    TEXT NOT NULL,
	user_id     TEXT NOT NULL,
	status      TEXT NOT NULL,
	items       TEXT NOT NULL,
	subtotal    INTEGER NOT NULL,
	gst         INTEGER NOT NULL,
	final_total INTEGER NOT NULL,
	station     TEXT NOT NULL,
	coach       TEXT NOT NULL,
	payment_ref TEXT NOT NULL DEFAULT '',
	ordered_at  TEXT NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS orders_order_id_idx ON orders (order_id)`

// SQLiteStore keeps orders in a local database file, for single-node and
// demo deployments.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer avoids SQLITE_BUSY under concurrent checkouts
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create orders table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveOrder(ctx context.Context, o models.OrderRecord) error {
	if o.RecordID == "" {
		return ErrNoRecordID
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT OR IGNORE INTO orders(record_id, order_id, user_id, status, items, subtotal, gst, final_total, station, coach, payment_ref, ordered_at, created_at)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		o.RecordID, o.OrderID, o.UserID, o.Status, string(items), o.Subtotal, o.GST, o.FinalTotal, o.Station, o.Coach, o.PaymentRef,
		o.Timestamp.UTC().Format(time.RFC3339Nano), o.CreatedAt.UTC().Format(time.RFC3339Nano))
	return err
}

const sqliteSelect = `SELECT record_id, order_id, user_id, status, items, subtotal, gst, final_total, station, coach, payment_ref, ordered_at, created_at FROM orders`

// Order loads a stored record by record id.
func (s *SQLiteStore) Order(ctx context.Context, recordID string) (models.OrderRecord, error) {
	return scanOrder(s.db.QueryRowContext(ctx, sqliteSelect+` WHERE record_id = ?`, recordID))
}

// OrdersByOrderID lists every record sharing a passenger-facing order id.
func (s *SQLiteStore) OrdersByOrderID(ctx context.Context, orderID string) ([]models.OrderRecord, error) {
	rows, err := s.db.QueryContext(ctx, sqliteSelect+` WHERE order_id = ? ORDER BY created_at`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.OrderRecord
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (models.OrderRecord, error) {
	var (
		o                  models.OrderRecord
		items              string
		orderedAt, created string
	)
	err := row.Scan(&o.RecordID, &o.OrderID, &o.UserID, &o.Status, &items, &o.Subtotal, &o.GST, &o.FinalTotal,
		&o.Station, &o.Coach, &o.PaymentRef, &orderedAt, &created)
	if err != nil {
		return models.OrderRecord{}, err
	}
	if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
		return models.OrderRecord{}, fmt.Errorf("decode items: %w", err)
	}
	if o.Timestamp, err = time.Parse(time.RFC3339Nano, orderedAt); err != nil {
		return models.OrderRecord{}, fmt.Errorf("decode ordered_at: %w", err)
	}
	if o.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return models.OrderRecord{}, fmt.Errorf("decode created_at: %w", err)
	}
	return o, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
