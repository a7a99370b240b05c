// Package session signs passengers in, keeps their profile for the lifetime
// of an opaque bearer token and tears all session state down at logout.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/railsahayak/internal/models"
	"github.com/example/railsahayak/internal/observability"
)

var ErrNoSession = errors.New("no active session")

// Cleaner drops per-session state owned by another component.
type Cleaner interface {
	Clear(session string)
}

type localSession struct {
	profile models.UserProfile
	expires time.Time // zero means no expiry
}

// Manager holds sessions issued by this process in memory. Tokens issued
// elsewhere are read through the profile store on every request and never
// cached, so the store's TTL and deletes stay authoritative for them.
type Manager struct {
	auth   Authenticator
	store  ProfileStore
	ttl    time.Duration
	logger *slog.Logger
	Now    func() time.Time

	mu       sync.RWMutex
	profiles map[string]localSession
	cleaners []Cleaner
}

func NewManager(auth Authenticator, store ProfileStore, ttl time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{auth: auth, store: store, ttl: ttl, logger: logger, Now: time.Now, profiles: make(map[string]localSession)}
}

// OnLogout registers components whose session state goes away at logout.
func (m *Manager) OnLogout(c ...Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleaners = append(m.cleaners, c...)
}

// Login authenticates and returns a fresh token with the mapped profile. The
// fallback copy is written best effort.
func (m *Manager) Login(ctx context.Context, c Credentials) (string, models.UserProfile, error) {
	provider := c.Provider
	if provider == "" {
		provider = models.ProviderEmail
	}
	id, err := m.auth.SignIn(ctx, c)
	if err != nil {
		observability.LoginsTotal.WithLabelValues(string(provider), "failure").Inc()
		return "", models.UserProfile{}, err
	}
	p := ProfileFromIdentity(id, provider)
	token := uuid.NewString()

	now := m.Now()
	ls := localSession{profile: p}
	if m.ttl > 0 {
		ls.expires = now.Add(m.ttl)
	}
	m.mu.Lock()
	m.pruneLocked(now)
	m.profiles[token] = ls
	observability.ActiveSessions.Set(float64(len(m.profiles)))
	m.mu.Unlock()

	if err := m.store.Put(ctx, KeyPrefix+token, p, m.ttl); err != nil {
		m.logger.Warn("profile fallback write failed", "user_id", p.ID, "error", err)
	}
	observability.LoginsTotal.WithLabelValues(string(provider), "success").Inc()
	m.logger.Info("user signed in", "user_id", p.ID, "provider", provider)
	return token, p, nil
}

// Profile resolves a token from memory, then from the fallback store.
func (m *Manager) Profile(ctx context.Context, token string) (models.UserProfile, error) {
	if token == "" {
		return models.UserProfile{}, ErrNoSession
	}
	m.mu.RLock()
	ls, ok := m.profiles[token]
	m.mu.RUnlock()
	if ok {
		if ls.expired(m.Now()) {
			m.forget(token)
			return models.UserProfile{}, ErrNoSession
		}
		return ls.profile, nil
	}
	p, ok, err := m.store.Get(ctx, KeyPrefix+token)
	if err != nil {
		return models.UserProfile{}, err
	}
	if !ok {
		return models.UserProfile{}, ErrNoSession
	}
	return p, nil
}

// Logout forgets the token everywhere. Logging out an unknown token is not an
// error. The store copy goes first so no reader can find it once the memory
// entry is gone.
func (m *Manager) Logout(ctx context.Context, token string) error {
	err := m.store.Delete(ctx, KeyPrefix+token)
	m.forget(token)

	m.mu.RLock()
	cleaners := append([]Cleaner(nil), m.cleaners...)
	m.mu.RUnlock()
	for _, c := range cleaners {
		c.Clear(token)
	}
	return err
}

func (m *Manager) forget(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.profiles, token)
	observability.ActiveSessions.Set(float64(len(m.profiles)))
}

// pruneLocked drops expired sessions that were never logged out.
func (m *Manager) pruneLocked(now time.Time) {
	for token, ls := range m.profiles {
		if ls.expired(now) {
			delete(m.profiles, token)
		}
	}
}

func (ls localSession) expired(now time.Time) bool {
	return !ls.expires.IsZero() && now.After(ls.expires)
}
