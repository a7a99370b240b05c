// Package community keeps the crowdsourced station incident feed and the
// helper leaderboard.
package community

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/railsahayak/internal/catalog"
	"github.com/example/railsahayak/internal/models"
	"github.com/example/railsahayak/internal/observability"
)

var ErrEmptyReport = errors.New("report text is empty")

const (
	defaultLocation = "Current Location"
	anonymousName   = "You"
	anonymousRank   = "Guide"
)

// Classifier labels free-text reports. It returns the raw model output, which
// should be a JSON object with type and severity.
type Classifier interface {
	ClassifyReport(ctx context.Context, text string) (string, error)
}

// Broadcaster pushes a new update to live feed subscribers.
type Broadcaster interface {
	Broadcast(u models.StationUpdate)
}

type Feed struct {
	catalog     *catalog.Catalog
	classifier  Classifier
	broadcaster Broadcaster
	logger      *slog.Logger
	Now         func() time.Time

	mu      sync.RWMutex
	updates []models.StationUpdate // newest first
}

func NewFeed(c *catalog.Catalog, cl Classifier, b Broadcaster, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Feed{catalog: c, classifier: cl, broadcaster: b, logger: logger, Now: time.Now}
	f.updates = c.SeedUpdates(f.Now())
	return f
}

// Post classifies and publishes a report. Reporter may be nil for an
// anonymous post.
func (f *Feed) Post(ctx context.Context, text, location string, reporter *models.UserProfile) (models.StationUpdate, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.StationUpdate{}, ErrEmptyReport
	}
	typ, sev := f.classify(ctx, text)

	u := models.StationUpdate{
		ID:        uuid.NewString(),
		Type:      typ,
		Severity:  sev,
		Text:      text,
		Timestamp: f.Now(),
		Location:  strings.TrimSpace(location),
		User:      anonymousName,
		UserRank:  anonymousRank,
	}
	if u.Location == "" {
		u.Location = defaultLocation
	}
	if reporter != nil {
		u.User, u.UserRank = reporter.Name, reporter.Level
	}

	f.mu.Lock()
	f.updates = append([]models.StationUpdate{u}, f.updates...)
	f.mu.Unlock()

	observability.ReportsTotal.WithLabelValues(string(typ)).Inc()
	f.logger.Info("community report posted", "update_id", u.ID, "type", typ, "severity", sev)
	if f.broadcaster != nil {
		f.broadcaster.Broadcast(u)
	}
	return u, nil
}

func (f *Feed) classify(ctx context.Context, text string) (models.UpdateType, models.Severity) {
	if f.classifier == nil {
		observability.ClassifierFallbacks.Inc()
		return models.UpdateInfo, models.SeverityLow
	}
	raw, err := f.classifier.ClassifyReport(ctx, text)
	if err != nil {
		f.logger.Warn("report classification failed", "error", err)
		observability.ClassifierFallbacks.Inc()
		return models.UpdateInfo, models.SeverityLow
	}
	typ, sev, ok := ParseClassification(raw)
	if !ok {
		f.logger.Warn("unusable report classification", "output", raw)
		observability.ClassifierFallbacks.Inc()
		return models.UpdateInfo, models.SeverityLow
	}
	return typ, sev
}

// ParseClassification accepts {"type": ISSUE|INFO|CROWD, "severity":
// LOW|MEDIUM|HIGH}. Anything else is rejected.
func ParseClassification(raw string) (models.UpdateType, models.Severity, bool) {
	var out struct {
		Type     string `json:"type"`
		Severity string `json:"severity"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &out); err != nil {
		return "", "", false
	}
	typ, sev := models.UpdateType(out.Type), models.Severity(out.Severity)
	switch typ {
	case models.UpdateIssue, models.UpdateInfo, models.UpdateCrowd:
	default:
		return "", "", false
	}
	switch sev {
	case models.SeverityLow, models.SeverityMedium, models.SeverityHigh:
	default:
		return "", "", false
	}
	return typ, sev, true
}

// List returns the feed newest first.
func (f *Feed) List() []models.StationUpdate {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]models.StationUpdate(nil), f.updates...)
}

func (f *Feed) Leaderboard() []models.LeaderboardUser {
	return f.catalog.LeaderboardUsers()
}
