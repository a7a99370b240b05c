// Package trainstatus turns a passenger's PNR or train number into a live
// status record. A configured live source is tried once; any failure, or no
// live source at all, falls back to the simulator, so Resolve always returns
// a complete record.
package trainstatus

import (
	"context"
	"log/slog"

	"github.com/example/railsahayak/internal/models"
	"github.com/example/railsahayak/internal/observability"
)

// LiveSource is the upstream running-status API.
type LiveSource interface {
	Fetch(ctx context.Context, trainNo string) (*LiveStatus, error)
}

type Resolver struct {
	Live   LiveSource // nil disables the live path
	Sim    *Simulator
	Logger *slog.Logger

	// PNRTrain is queried upstream when the input is a PNR, since the live
	// endpoint cannot resolve PNRs.
	PNRTrain string
}

func NewResolver(live LiveSource, sim *Simulator, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{Live: live, Sim: sim, Logger: logger, PNRTrain: sim.Catalog.DefaultTrain}
}

func (r *Resolver) Resolve(ctx context.Context, input string) models.TrainStatus {
	if r.Live != nil {
		st, err := r.resolveLive(ctx, input)
		if err == nil {
			observability.StatusLookups.WithLabelValues("live").Inc()
			return st
		}
		r.Logger.Warn("live train status unavailable, using simulation", "input", input, "error", err)
		observability.StatusFallbacks.Inc()
	}
	observability.StatusLookups.WithLabelValues("simulated").Inc()
	return r.Sim.Generate(input)
}

func (r *Resolver) resolveLive(ctx context.Context, input string) (models.TrainStatus, error) {
	trainNo := input
	if IsPNR(input) {
		trainNo = r.PNRTrain
	}
	live, err := r.Live.Fetch(ctx, trainNo)
	if err != nil {
		return models.TrainStatus{}, err
	}
	st, err := live.snapshot(input, trainNo, r.Sim.Now())
	if err != nil {
		return models.TrainStatus{}, err
	}
	// upstream carries no speed, weather or coach; borrow simulated values
	st.CurrentSpeed = r.Sim.speed(st.Status == models.StateDelayed)
	if st.Status == models.StateArrived {
		st.CurrentSpeed = 0
	} else {
		st.NextStation.Weather = r.Sim.weather()
	}
	st.CoachPosition = r.Sim.coach()
	return st, nil
}
