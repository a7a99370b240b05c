package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/example/railsahayak/internal/models"
)

func sampleOrder(recordID, orderID string) models.OrderRecord {
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	return models.OrderRecord{
		OrderReceipt: models.OrderReceipt{
			OrderID: orderID,
			Items: []models.FoodItem{
				{ID: "f1", Name: "Veg Thali", Restaurant: "Haldiram's", Price: 180, PrepTimeMinutes: 15},
				{ID: "f2", Name: "Chicken Biryani", Restaurant: "Biryani Blues", Price: 250, PrepTimeMinutes: 20},
			},
			Subtotal:   430,
			GST:        22,
			FinalTotal: 452,
			Station:    "Kota Jn (KOTA)",
			Coach:      "B5 / Seat 32",
			Timestamp:  now,
			PaymentRef: "pi_1",
		},
		RecordID:  recordID,
		UserID:    "mock-email-id",
		Status:    "CONFIRMED",
		CreatedAt: now,
	}
}

// otherPassenger shares the order code but is a different order.
func otherPassenger(recordID, orderID string) models.OrderRecord {
	o := sampleOrder(recordID, orderID)
	o.UserID = "mock-google-id"
	o.Items = o.Items[:1]
	o.Subtotal, o.GST, o.FinalTotal = 180, 9, 189
	o.CreatedAt = o.CreatedAt.Add(time.Minute)
	return o
}

func TestMemoryStoreSaveAndGet(t *testing.T) {
	m := NewMemoryStore()
	if err := m.SaveOrder(context.Background(), sampleOrder("rec-1", "ORD-12345")); err != nil {
		t.Fatal(err)
	}
	got, ok := m.Get("rec-1")
	if !ok || got.FinalTotal != 452 || len(got.Items) != 2 {
		t.Fatalf("unexpected record %+v", got)
	}
	if _, ok := m.Get("rec-2"); ok {
		t.Fatal("expected miss for unknown record")
	}
	if err := m.SaveOrder(context.Background(), sampleOrder("", "ORD-1")); !errors.Is(err, ErrNoRecordID) {
		t.Fatalf("expected ErrNoRecordID, got %v", err)
	}
}

func TestMemoryStoreKeepsOrdersSharingACode(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.SaveOrder(ctx, sampleOrder("rec-1", "ORD-12345"))
	m.SaveOrder(ctx, otherPassenger("rec-2", "ORD-12345"))
	// redelivery of the first write
	m.SaveOrder(ctx, otherPassenger("rec-1", "ORD-12345"))

	if m.Len() != 2 || len(m.ByOrderID("ORD-12345")) != 2 {
		t.Fatalf("expected both orders kept, got %d", m.Len())
	}
	if got, _ := m.Get("rec-1"); got.UserID != "mock-email-id" {
		t.Fatalf("redelivery overwrote the first write: %+v", got)
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "orders.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	want := sampleOrder("rec-1", "ORD-54321")
	if err := s.SaveOrder(ctx, want); err != nil {
		t.Fatal(err)
	}
	// redelivery must not fail
	if err := s.SaveOrder(ctx, want); err != nil {
		t.Fatalf("duplicate save: %v", err)
	}
	got, err := s.Order(ctx, "rec-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.UserID != want.UserID || got.GST != 22 || got.Items[1].Name != "Chicken Biryani" || got.PaymentRef != "pi_1" {
		t.Fatalf("unexpected record %+v", got)
	}
	if !got.Timestamp.Equal(want.Timestamp) {
		t.Fatalf("timestamp mismatch %v vs %v", got.Timestamp, want.Timestamp)
	}
}

func TestSQLiteStoreKeepsOrdersSharingACode(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "orders.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.SaveOrder(ctx, sampleOrder("rec-1", "ORD-12345")); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveOrder(ctx, otherPassenger("rec-2", "ORD-12345")); err != nil {
		t.Fatal(err)
	}
	got, err := s.OrdersByOrderID(ctx, "ORD-12345")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].FinalTotal != 452 || got[1].UserID != "mock-google-id" || got[1].FinalTotal != 189 {
		t.Fatalf("expected both orders stored, got %+v", got)
	}
}

func TestSQLiteStoreRejectsBadTimestamps(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "orders.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.SaveOrder(ctx, sampleOrder("rec-1", "ORD-12345")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE orders SET ordered_at = 'yesterday' WHERE record_id = ?`, "rec-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Order(ctx, "rec-1"); err == nil {
		t.Fatal("expected decode error for malformed timestamp")
	}
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}
	ctx := context.Background()
	p, err := NewPostgresStore(ctx, dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	if err := p.Migrate(ctx); err != nil {
		t.Fatal(err)
	}

	code := "ORD-T" + uuid.NewString()[:8]
	first := sampleOrder(uuid.NewString(), code)
	second := otherPassenger(uuid.NewString(), code)
	for _, o := range []models.OrderRecord{first, first, second} {
		if err := p.SaveOrder(ctx, o); err != nil {
			t.Fatal(err)
		}
	}
	t.Cleanup(func() { p.db.ExecContext(context.Background(), `DELETE FROM orders WHERE order_id = $1`, code) })

	got, err := p.OrdersByOrderID(ctx, code)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].RecordID != first.RecordID || got[1].FinalTotal != 189 || got[0].Items[1].Name != "Chicken Biryani" {
		t.Fatalf("unexpected rows %+v", got)
	}
	if got[0].PaymentRef != "pi_1" || !got[0].Timestamp.Equal(first.Timestamp) {
		t.Fatalf("unexpected payment or time %+v", got[0])
	}
}
