package food

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/railsahayak/internal/models"
	"github.com/example/railsahayak/internal/observability"
)

const sinkTimeout = 5 * time.Second

// Checkout turns the session's cart into a receipt. The order record write and
// the payment are side effects whose failures are logged and never change the
// outcome. The record is written once the receipt is committed, so a
// cancelled checkout leaves nothing behind. Only one checkout per session may
// run at a time.
func (s *Service) Checkout(ctx context.Context, session, userID string) (models.OrderReceipt, error) {
	s.mu.Lock()
	c := s.cartLocked(session)
	if len(c.items) == 0 {
		s.mu.Unlock()
		return models.OrderReceipt{}, ErrEmptyCart
	}
	if c.checkingOut {
		s.mu.Unlock()
		return models.OrderReceipt{}, ErrCheckoutInFlight
	}
	c.checkingOut = true
	items := cloneItems(c.items)
	orderID := s.newOrderID()
	s.mu.Unlock()
	recordID := uuid.NewString()

	done := false
	defer func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.carts[session]; ok {
			c.checkingOut = false
			if done {
				c.items = nil
			}
		}
	}()

	subtotal, gst, total := Totals(items)
	now := s.Now()
	receipt := models.OrderReceipt{
		OrderID:    orderID,
		Items:      items,
		Subtotal:   subtotal,
		GST:        gst,
		FinalTotal: total,
		Station:    s.cfg.Station,
		Coach:      s.cfg.Coach,
		Timestamp:  now,
	}
	log := s.logger.With("order_id", receipt.OrderID, "user_id", userID)

	intent := s.authorize(ctx, recordID, receipt, userID)

	select {
	case <-ctx.Done():
		s.void(intent, log)
		return models.OrderReceipt{}, ctx.Err()
	case <-time.After(s.cfg.CheckoutDelay):
	}

	if intent != "" {
		if err := s.payer.Capture(ctx, intent); err != nil {
			observability.PaymentErrors.Inc()
			log.Error("payment capture failed", "intent", intent, "error", err)
			s.void(intent, log)
		} else {
			receipt.PaymentRef = intent
		}
	}

	done = true
	s.saveAsync(models.OrderRecord{OrderReceipt: receipt, RecordID: recordID, UserID: userID, Status: "CONFIRMED", CreatedAt: now})
	observability.OrdersTotal.Inc()
	observability.OrderValue.Observe(float64(total))
	log.Info("order confirmed", "items", len(items), "final_total", total)
	return receipt, nil
}

func (s *Service) saveAsync(rec models.OrderRecord) {
	if s.sink == nil {
		return
	}
	s.writes.Add(1)
	go func() {
		defer s.writes.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		defer cancel()
		if err := s.sink.SaveOrder(ctx, rec); err != nil {
			observability.OrderSinkErrors.Inc()
			s.logger.Error("order record write failed", "order_id", rec.OrderID, "record_id", rec.RecordID, "error", err)
		}
	}()
}

func (s *Service) authorize(ctx context.Context, key string, r models.OrderReceipt, userID string) string {
	if s.payer == nil {
		return ""
	}
	id, err := s.payer.Authorize(ctx, key, r.OrderID, userID, r.FinalTotal)
	if err != nil {
		observability.PaymentErrors.Inc()
		s.logger.Error("payment authorization failed", "order_id", r.OrderID, "error", err)
		return ""
	}
	return id
}

func (s *Service) void(intent string, log *slog.Logger) {
	if intent == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()
	if err := s.payer.Void(ctx, intent); err != nil {
		log.Error("payment void failed", "intent", intent, "error", err)
	}
}

// Wait blocks until pending order record writes have finished.
func (s *Service) Wait() { s.writes.Wait() }
