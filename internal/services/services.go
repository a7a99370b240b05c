// Package services books on-platform help: coolies, wheelchairs, cloakroom
// assistance and on-board medical requests.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/railsahayak/internal/models"
	"github.com/example/railsahayak/internal/observability"
)

var ErrUnknownService = errors.New("unknown service type")

const (
	DefaultLuggageKg = 20
	MinLuggageKg     = 5
	MaxLuggageKg     = 80

	coolieRatePerKg = 2.5

	// OnboardDoctor is the practitioner the manifest scan turns up.
	OnboardDoctor = "Dr. Anjali Verma (MD) - Coach B2, Seat 45"
)

type Service struct {
	logger    *slog.Logger
	scanDelay time.Duration
	Now       func() time.Time

	mu       sync.Mutex
	bookings map[string][]models.ServiceBooking // newest last
}

func NewService(scanDelay time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		logger:    logger,
		scanDelay: scanDelay,
		Now:       time.Now,
		bookings:  make(map[string][]models.ServiceBooking),
	}
}

// ClampLuggage keeps a requested weight within what a coolie will carry.
// Zero means the passenger did not say.
func ClampLuggage(kg int) int {
	if kg == 0 {
		return DefaultLuggageKg
	}
	return min(max(kg, MinLuggageKg), MaxLuggageKg)
}

// Book records a pending request. luggageKg only matters for coolies.
func (s *Service) Book(session string, t models.ServiceType, luggageKg int) (models.ServiceBooking, error) {
	b := models.ServiceBooking{
		ID:        uuid.NewString(),
		Type:      t,
		Status:    models.BookingPending,
		CreatedAt: s.Now(),
	}
	switch t {
	case models.ServiceCoolie:
		kg := ClampLuggage(luggageKg)
		b.Details = fmt.Sprintf("%dkg Luggage", kg)
		b.Price = int(math.Floor(float64(kg) * coolieRatePerKg))
	case models.ServiceWheelchair, models.ServiceCloakroom:
		b.Details = "Assistance Required"
	case models.ServiceMedical:
		b.Details = "Doctor Request"
	default:
		return models.ServiceBooking{}, ErrUnknownService
	}

	s.mu.Lock()
	s.bookings[session] = append(s.bookings[session], b)
	s.mu.Unlock()

	observability.BookingsTotal.WithLabelValues(string(t)).Inc()
	s.logger.Info("service booked", "booking_id", b.ID, "type", t, "price", b.Price)
	return b, nil
}

// Bookings lists the session's bookings, newest first.
func (s *Service) Bookings(session string) []models.ServiceBooking {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.bookings[session]
	out := make([]models.ServiceBooking, len(src))
	for i, b := range src {
		out[len(src)-1-i] = b
	}
	return out
}

func (s *Service) Clear(session string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bookings, session)
}

// FindDoctor scans the passenger manifest for a registered practitioner.
func (s *Service) FindDoctor(ctx context.Context) (string, error) {
	timer := time.NewTimer(s.scanDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
	}
	return OnboardDoctor, nil
}
