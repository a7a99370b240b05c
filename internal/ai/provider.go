// Package ai talks to the generative model behind the assistant and the
// report classifier. Two backends are supported: Google Gemini and a local
// Ollama server.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/example/railsahayak/internal/models"
)

var ErrNotConfigured = errors.New("ai provider not configured")

const SystemInstruction = `You are the AI Assistant for 'RailSahayak', an Indian Railways companion app.
Your tone is helpful, urgent (when needed), and distinctly Indian context-aware.
You help users with:
1. Station navigation (Platform numbers, exits).
2. Food recommendations based on stop time.
3. Porter/Coolie negotiation tips.
4. Analyzing crowdsourced text to categorize it (Issue vs Info).

If the user asks about specific live train status, clarify that you are using simulated data for this prototype.
Keep responses concise as users might be in a rush.`

func classifyPrompt(text string) string {
	return fmt.Sprintf(`Analyze this station report: %q. Return JSON with 'type' (ISSUE, INFO, or CROWD) and 'severity' (LOW, MEDIUM, HIGH).`, text)
}

// Provider answers chat turns and classifies community reports.
type Provider interface {
	Chat(ctx context.Context, history []models.ChatMessage, message string) (string, error)
	ClassifyReport(ctx context.Context, text string) (string, error)
}

type Options struct {
	Provider    string // gemini or ollama
	GeminiKey   string
	GeminiModel string
	OllamaURL   string
	OllamaModel string
	Timeout     time.Duration
}

// New picks the backend named in opts. Gemini without a key yields a
// disabled provider.
func New(opts Options) (Provider, error) {
	client := &http.Client{Timeout: opts.Timeout}
	switch opts.Provider {
	case "", "gemini":
		if opts.GeminiKey == "" {
			return Disabled{}, nil
		}
		return &GeminiClient{Endpoint: GeminiEndpoint, APIKey: opts.GeminiKey, Model: opts.GeminiModel, Client: client}, nil
	case "ollama":
		return &OllamaClient{Endpoint: opts.OllamaURL, Model: opts.OllamaModel, Client: client}, nil
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", opts.Provider)
	}
}

// Disabled fails every call so callers fall back to their canned answers.
type Disabled struct{}

func (Disabled) Chat(context.Context, []models.ChatMessage, string) (string, error) {
	return "", ErrNotConfigured
}

func (Disabled) ClassifyReport(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}
