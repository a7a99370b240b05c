// Package food runs the in-train meal ordering flow: per-session carts gated
// by the halt window at the delivery station, and checkout into a receipt.
package food

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/example/railsahayak/internal/catalog"
	"github.com/example/railsahayak/internal/models"
	"github.com/example/railsahayak/internal/observability"
)

var (
	ErrUnknownItem       = errors.New("unknown food item")
	ErrOutsideHaltWindow = errors.New("kitchen prep time exceeds train halt window")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrCheckoutInFlight  = errors.New("checkout already in progress")
)

// HaltWindowWarning is the passenger-facing text for ErrOutsideHaltWindow.
const HaltWindowWarning = "⚠️ Cannot order! Kitchen prep time exceeds train halt window."

// OrderSink receives one record per completed checkout.
type OrderSink interface {
	SaveOrder(ctx context.Context, o models.OrderRecord) error
}

// Payer authorizes and settles the order total. Amounts are rupees. key is
// unique per checkout and makes a retried authorization safe.
type Payer interface {
	Authorize(ctx context.Context, key, orderID, userID string, amountRupees int) (string, error)
	Capture(ctx context.Context, intentID string) error
	Void(ctx context.Context, intentID string) error
}

type Config struct {
	TimeToArrival int // minutes until the train reaches the delivery station
	HaltDuration  int // minutes the train stands there
	CheckoutDelay time.Duration
	Station       string
	Coach         string
}

type cart struct {
	items       []models.FoodItem
	checkingOut bool
}

type Service struct {
	catalog *catalog.Catalog
	cfg     Config
	sink    OrderSink
	payer   Payer // nil disables payments
	logger  *slog.Logger

	Now  func() time.Time
	Rand interface{ IntN(int) int } // guarded by mu

	mu    sync.Mutex
	carts map[string]*cart

	writes sync.WaitGroup
}

func NewService(c *catalog.Catalog, cfg Config, sink OrderSink, payer Payer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		catalog: c,
		cfg:     cfg,
		sink:    sink,
		payer:   payer,
		logger:  logger,
		Now:     time.Now,
		Rand:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		carts:   make(map[string]*cart),
	}
}

func (s *Service) Menu() []models.FoodItem { return s.catalog.Menu() }

// Orderable reports whether an item can be ready before the train leaves the
// delivery station.
func (s *Service) Orderable(item models.FoodItem) bool {
	return item.PrepTimeMinutes <= s.cfg.TimeToArrival+s.cfg.HaltDuration
}

// Add appends a catalog item to the session's cart. A duplicate add is a
// second unit of the same item.
func (s *Service) Add(session, itemID string) ([]models.FoodItem, error) {
	item, ok := s.catalog.FoodItem(itemID)
	if !ok {
		return nil, ErrUnknownItem
	}
	if !s.Orderable(item) {
		observability.CartRejections.Inc()
		return nil, ErrOutsideHaltWindow
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cartLocked(session)
	c.items = append(c.items, item)
	return cloneItems(c.items), nil
}

// Remove drops the entry at index. An out-of-range index leaves the cart as is.
func (s *Service) Remove(session string, index int) []models.FoodItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cartLocked(session)
	if index >= 0 && index < len(c.items) {
		c.items = append(c.items[:index], c.items[index+1:]...)
	}
	return cloneItems(c.items)
}

func (s *Service) Cart(session string) []models.FoodItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.carts[session]; ok {
		return cloneItems(c.items)
	}
	return []models.FoodItem{}
}

// Clear forgets the session's cart entirely.
func (s *Service) Clear(session string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, session)
}

func (s *Service) cartLocked(session string) *cart {
	c, ok := s.carts[session]
	if !ok {
		c = &cart{}
		s.carts[session] = c
	}
	return c
}

// Totals returns subtotal, GST at 5% rounded half up, and the final total.
func Totals(items []models.FoodItem) (subtotal, gst, total int) {
	for _, it := range items {
		subtotal += it.Price
	}
	gst = (subtotal*5 + 50) / 100
	return subtotal, gst, subtotal + gst
}

func (s *Service) newOrderID() string {
	return fmt.Sprintf("ORD-%d", 10000+s.Rand.IntN(90000))
}

func cloneItems(items []models.FoodItem) []models.FoodItem {
	out := make([]models.FoodItem, len(items))
	copy(out, items)
	return out
}
