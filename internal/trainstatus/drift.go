package trainstatus

import (
	"context"
	"math"
	"time"

	"github.com/example/railsahayak/internal/models"
)

// Drift nudges the displayed speed by one km/h either way and shaves 10 m off
// the remaining distance. It returns a new record.
func Drift(s models.TrainStatus, r Rand, now time.Time) models.TrainStatus {
	next := s
	if r.IntN(2) == 0 {
		next.CurrentSpeed++
	} else {
		next.CurrentSpeed--
	}
	next.CurrentSpeed = min(max(next.CurrentSpeed, 0), maxSpeed)

	d := math.Round((s.NextStation.DistanceKm-0.01)*100) / 100
	next.NextStation.DistanceKm = max(d, 0)
	next.Timestamp = now
	return next
}

// Tracker emits a status and then a drifted copy on every tick until the
// context ends or emit fails.
type Tracker struct {
	Interval time.Duration
	Rand     Rand
}

func (t *Tracker) Run(ctx context.Context, initial models.TrainStatus, emit func(models.TrainStatus) error) error {
	if err := emit(initial); err != nil {
		return err
	}
	interval := t.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	r := t.Rand
	if r == nil {
		r = DefaultRand
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	cur := initial
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			cur = Drift(cur, r, now)
			if err := emit(cur); err != nil {
				return err
			}
		}
	}
}
