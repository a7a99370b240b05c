// Package assistant keeps a per-session chat transcript with the railway
// assistant. Model failures never surface; the passenger sees a canned reply.
package assistant

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/example/railsahayak/internal/models"
	"github.com/example/railsahayak/internal/observability"
)

var ErrEmptyMessage = errors.New("message is empty")

const (
	Welcome     = "Namaste! I'm Sahayak. I can help you find platforms, suggest food, or book a coolie. How can I help you today?"
	Apology     = "Network patchy? I'm having trouble connecting to the railway brain."
	EmptyAnswer = "Sorry, I couldn't process that request right now."
)

type Chatter interface {
	Chat(ctx context.Context, history []models.ChatMessage, message string) (string, error)
}

type transcript struct {
	mu     sync.Mutex // serializes turns so replies stay in order
	msgs   []models.ChatMessage
	nextID int64
}

func (t *transcript) append(role models.ChatRole, text string) models.ChatMessage {
	t.nextID++
	m := models.ChatMessage{ID: t.nextID, Role: role, Text: text}
	t.msgs = append(t.msgs, m)
	return m
}

type Assistant struct {
	chatter Chatter
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*transcript
}

func New(c Chatter, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{chatter: c, logger: logger, sessions: make(map[string]*transcript)}
}

func (a *Assistant) session(id string) *transcript {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := a.sessions[id]
	if !ok {
		t = &transcript{}
		t.append(models.RoleModel, Welcome)
		a.sessions[id] = t
	}
	return t
}

// Transcript returns the session's messages, oldest first.
func (a *Assistant) Transcript(session string) []models.ChatMessage {
	t := a.session(session)
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.ChatMessage(nil), t.msgs...)
}

// Send records the passenger's message, asks the model with the prior
// transcript as history, and records and returns the reply.
func (a *Assistant) Send(ctx context.Context, session, text string) (models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}
	t := a.session(session)
	t.mu.Lock()
	defer t.mu.Unlock()

	history := append([]models.ChatMessage(nil), t.msgs...)
	t.append(models.RoleUser, text)
	observability.ChatRequests.Inc()

	reply, err := a.ask(ctx, history, text)
	if err != nil {
		observability.ChatErrors.Inc()
		a.logger.Warn("assistant call failed", "error", err)
		reply = Apology
	} else if strings.TrimSpace(reply) == "" {
		reply = EmptyAnswer
	}
	return t.append(models.RoleModel, reply), nil
}

func (a *Assistant) ask(ctx context.Context, history []models.ChatMessage, text string) (string, error) {
	if a.chatter == nil {
		return "", errors.New("no chat backend")
	}
	return a.chatter.Chat(ctx, history, text)
}

// Clear drops the session's transcript; the next access starts over with the
// welcome message.
func (a *Assistant) Clear(session string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, session)
}
