package trainstatus

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/example/railsahayak/internal/catalog"
	"github.com/example/railsahayak/internal/models"
)

const (
	pnrLength = 10
	maxSpeed  = 130
)

// Rand is the subset of *rand.Rand the simulator draws from.
type Rand interface {
	IntN(n int) int
	Int64N(n int64) int64
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }
func (globalRand) Int64N(n int64) int64 { return rand.Int64N(n) }

// DefaultRand draws from the process-wide generator, which is safe for
// concurrent use.
var DefaultRand Rand = globalRand{}

// IsPNR reports whether input is treated as a PNR rather than a train number.
func IsPNR(input string) bool { return utf8.RuneCountInString(input) == pnrLength }

// Simulator builds plausible statuses out of the reference tables. It never fails.
type Simulator struct {
	Catalog *catalog.Catalog
	Rand    Rand
	Now     func() time.Time
}

func NewSimulator(c *catalog.Catalog, r Rand) *Simulator {
	if r == nil {
		r = DefaultRand
	}
	return &Simulator{Catalog: c, Rand: r, Now: time.Now}
}

func (s *Simulator) Generate(input string) models.TrainStatus {
	train := s.Catalog.TrainFor(input)
	picks := s.pickStations(3)
	current, next, prev := picks[0], picks[1], picks[2]

	delayed := s.Rand.IntN(10) < 4
	delay := 0
	if delayed {
		delay = 15 + s.Rand.IntN(120)
	}

	pnr := input
	if !IsPNR(input) {
		pnr = strconv.FormatInt(1_000_000_000+s.Rand.Int64N(9_000_000_000), 10)
	}

	st := models.TrainStatus{
		TrainNo:   train.Number,
		TrainName: train.Name,
		PNR:       pnr,
		CurrentStation: models.StationStop{
			Name:          current.Name,
			Code:          current.Code,
			DepartureTime: "On Time",
			Platform:      strconv.Itoa(1 + s.Rand.IntN(8)),
		},
		NextStation: models.NextStop{
			Name:        next.Name,
			Code:        next.Code,
			ArrivalTime: "In 45 mins",
			DistanceKm:  float64(10 + s.Rand.IntN(100)),
			Weather:     s.weather(),
		},
		PreviousStation: models.PreviousStop{
			Name:          prev.Name,
			Code:          prev.Code,
			DepartureTime: "Departed",
		},
		CoachPosition: s.coach(),
		Status:        models.StateOnTime,
		DelayMinutes:  delay,
		CurrentSpeed:  s.speed(delayed),
		Timestamp:     s.Now(),
	}
	if delayed {
		st.Status = models.StateDelayed
		st.CurrentStation.DepartureTime = "Delayed"
	}
	return st
}

// pickStations samples n distinct stations without replacement.
func (s *Simulator) pickStations(n int) []catalog.Station {
	pool := append([]catalog.Station(nil), s.Catalog.Stations...)
	out := make([]catalog.Station, 0, n)
	for i := 0; i < n && len(pool) > 0; i++ {
		j := s.Rand.IntN(len(pool))
		out = append(out, pool[j])
		pool[j] = pool[len(pool)-1]
		pool = pool[:len(pool)-1]
	}
	return out
}

// speed runs higher when the train is making up time.
func (s *Simulator) speed(delayed bool) int {
	base := 90
	if delayed {
		base = 110
	}
	v := base + s.Rand.IntN(30)
	if v > maxSpeed {
		v = maxSpeed
	}
	return v
}

func (s *Simulator) weather() string {
	sky := "☀️"
	if s.Rand.IntN(2) == 1 {
		sky = "☁️"
	}
	return fmt.Sprintf("%d°C %s", 20+s.Rand.IntN(15), sky)
}

func (s *Simulator) coach() string { return fmt.Sprintf("B%d", 1+s.Rand.IntN(12)) }
