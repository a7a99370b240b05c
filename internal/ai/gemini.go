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

const GeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"

type GeminiClient struct {
	Endpoint string
	APIKey   string
	Model    string
	Client   *http.Client
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent   `json:"systemInstruction,omitempty"`
	Contents          []geminiContent  `json:"contents"`
	GenerationConfig  *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiGenConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiClient) Chat(ctx context.Context, history []models.ChatMessage, message string) (string, error) {
	contents := make([]geminiContent, 0, len(history)+1)
	for _, h := range history {
		contents = append(contents, geminiContent{Role: string(h.Role), Parts: []geminiPart{{Text: h.Text}}})
	}
	contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: message}}})
	return g.generate(ctx, geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: SystemInstruction}}},
		Contents:          contents,
	})
}

func (g *GeminiClient) ClassifyReport(ctx context.Context, text string) (string, error) {
	return g.generate(ctx, geminiRequest{
		Contents:         []geminiContent{{Role: "user", Parts: []geminiPart{{Text: classifyPrompt(text)}}}},
		GenerationConfig: &geminiGenConfig{ResponseMimeType: "application/json"},
	})
}

func (g *GeminiClient) generate(ctx context.Context, body geminiRequest) (string, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	u := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(g.Endpoint, "/"), g.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.APIKey)

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("gemini API error %d: %s", resp.StatusCode, msg)
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if len(out.Candidates) == 0 {
		return "", nil
	}
	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}
