package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/railsahayak/internal/models"
)

func TestBookCoolieClampsAndPrices(t *testing.T) {
	tests := []struct {
		kg      int
		details string
		price   int
	}{
		{0, "20kg Luggage", 50},
		{1, "5kg Luggage", 12},
		{33, "33kg Luggage", 82},
		{500, "80kg Luggage", 200},
	}
	s := NewService(0, nil)
	for _, tc := range tests {
		b, err := s.Book("sess", models.ServiceCoolie, tc.kg)
		if err != nil {
			t.Fatal(err)
		}
		if b.Details != tc.details || b.Price != tc.price || b.Status != models.BookingPending {
			t.Fatalf("kg %d: got %+v", tc.kg, b)
		}
	}
}

func TestBookOtherServicesAreFree(t *testing.T) {
	s := NewService(0, nil)
	for typ, details := range map[models.ServiceType]string{
		models.ServiceWheelchair: "Assistance Required",
		models.ServiceCloakroom:  "Assistance Required",
		models.ServiceMedical:    "Doctor Request",
	} {
		b, err := s.Book("sess", typ, 40)
		if err != nil {
			t.Fatal(err)
		}
		if b.Details != details || b.Price != 0 {
			t.Fatalf("%s: got %+v", typ, b)
		}
	}
	if _, err := s.Book("sess", "TAXI", 0); !errors.Is(err, ErrUnknownService) {
		t.Fatalf("expected unknown service, got %v", err)
	}
}

func TestBookingsNewestFirstPerSession(t *testing.T) {
	s := NewService(0, nil)
	first, _ := s.Book("a", models.ServiceCoolie, 20)
	second, _ := s.Book("a", models.ServiceWheelchair, 0)
	s.Book("b", models.ServiceMedical, 0)

	got := s.Bookings("a")
	if len(got) != 2 || got[0].ID != second.ID || got[1].ID != first.ID {
		t.Fatalf("unexpected order %+v", got)
	}
	s.Clear("a")
	if len(s.Bookings("a")) != 0 || len(s.Bookings("b")) != 1 {
		t.Fatal("clear affected the wrong session")
	}
}

func TestFindDoctor(t *testing.T) {
	s := NewService(time.Millisecond, nil)
	doc, err := s.FindDoctor(context.Background())
	if err != nil || doc != OnboardDoctor {
		t.Fatalf("got %q %v", doc, err)
	}

	s = NewService(time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.FindDoctor(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
