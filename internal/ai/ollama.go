package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/example/railsahayak/internal/models"
)

// OllamaClient uses a local Ollama server's chat endpoint.
type OllamaClient struct {
	Endpoint string
	Model    string
	Client   *http.Client
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
}

func (o *OllamaClient) Chat(ctx context.Context, history []models.ChatMessage, message string) (string, error) {
	msgs := []ollamaMessage{{Role: "system", Content: SystemInstruction}}
	for _, h := range history {
		role := "user"
		if h.Role == models.RoleModel {
			role = "assistant"
		}
		msgs = append(msgs, ollamaMessage{Role: role, Content: h.Text})
	}
	msgs = append(msgs, ollamaMessage{Role: "user", Content: message})
	return o.chat(ctx, ollamaRequest{Model: o.Model, Messages: msgs})
}

func (o *OllamaClient) ClassifyReport(ctx context.Context, text string) (string, error) {
	return o.chat(ctx, ollamaRequest{
		Model:    o.Model,
		Messages: []ollamaMessage{{Role: "user", Content: classifyPrompt(text)}},
		Format:   "json",
	})
}

func (o *OllamaClient) chat(ctx context.Context, body ollamaRequest) (string, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(o.Endpoint, "/")+"/api/chat", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := o.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ollama API error %d: %s", resp.StatusCode, msg)
	}
	var out struct {
		Message ollamaMessage `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	return out.Message.Content, nil
}
