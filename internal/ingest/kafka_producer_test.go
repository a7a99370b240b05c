package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"

	"github.com/example/railsahayak/internal/models"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestSaveOrderPublishesKeyedJSON(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w)
	rec := models.OrderRecord{OrderReceipt: models.OrderReceipt{OrderID: "ORD-42424", FinalTotal: 452}, RecordID: "rec-7", UserID: "u1", Status: "CONFIRMED"}
	if err := p.SaveOrder(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
	if len(w.msgs) != 1 || string(w.msgs[0].Key) != "rec-7" {
		t.Fatalf("unexpected messages %+v", w.msgs)
	}
	var got models.OrderRecord
	if err := json.Unmarshal(w.msgs[0].Value, &got); err != nil {
		t.Fatal(err)
	}
	if got.FinalTotal != 452 || got.UserID != "u1" || got.RecordID != "rec-7" || got.OrderID != "ORD-42424" {
		t.Fatalf("unexpected payload %+v", got)
	}
	p.Close()
	if !w.closed {
		t.Fatal("expected writer closed")
	}
}

func TestSaveOrderReturnsWriterError(t *testing.T) {
	boom := errors.New("broker unavailable")
	p := NewProducerWithWriter(&fakeWriter{err: boom})
	if err := p.SaveOrder(context.Background(), models.OrderRecord{}); !errors.Is(err, boom) {
		t.Fatalf("expected broker error, got %v", err)
	}
}
