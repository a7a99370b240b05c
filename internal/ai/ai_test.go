package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/railsahayak/internal/models"
)

func TestGeminiChatSendsHistoryAndSystemInstruction(t *testing.T) {
	var got geminiRequest
	var path, key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, key = r.URL.Path, r.Header.Get("x-goog-api-key")
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Platform "},{"text":"4."}]}}]}`))
	}))
	defer srv.Close()

	g := &GeminiClient{Endpoint: srv.URL, APIKey: "k", Model: "gemini-2.5-flash", Client: srv.Client()}
	history := []models.ChatMessage{
		{ID: 1, Role: models.RoleModel, Text: "Namaste!"},
		{ID: 2, Role: models.RoleUser, Text: "hi"},
	}
	reply, err := g.Chat(context.Background(), history, "which platform?")
	if err != nil {
		t.Fatal(err)
	}
	if reply != "Platform 4." {
		t.Fatalf("unexpected reply %q", reply)
	}
	if path != "/models/gemini-2.5-flash:generateContent" || key != "k" {
		t.Fatalf("unexpected request %s key=%s", path, key)
	}
	if len(got.Contents) != 3 || got.Contents[0].Role != "model" || got.Contents[2].Parts[0].Text != "which platform?" {
		t.Fatalf("unexpected contents %+v", got.Contents)
	}
	if got.SystemInstruction == nil || !strings.Contains(got.SystemInstruction.Parts[0].Text, "RailSahayak") {
		t.Fatal("missing system instruction")
	}
}

func TestGeminiClassifyRequestsJSON(t *testing.T) {
	var got geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"type\":\"ISSUE\",\"severity\":\"HIGH\"}"}]}}]}`))
	}))
	defer srv.Close()

	g := &GeminiClient{Endpoint: srv.URL, Model: "m", Client: srv.Client()}
	out, err := g.ClassifyReport(context.Background(), "lift stuck")
	if err != nil {
		t.Fatal(err)
	}
	if out != `{"type":"ISSUE","severity":"HIGH"}` {
		t.Fatalf("unexpected output %q", out)
	}
	if got.GenerationConfig == nil || got.GenerationConfig.ResponseMimeType != "application/json" {
		t.Fatal("expected json response mime type")
	}
	if !strings.Contains(got.Contents[0].Parts[0].Text, `"lift stuck"`) {
		t.Fatalf("report text missing from prompt: %s", got.Contents[0].Parts[0].Text)
	}
}

func TestGeminiErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()
	g := &GeminiClient{Endpoint: srv.URL, Model: "m", Client: srv.Client()}
	if _, err := g.Chat(context.Background(), nil, "hi"); err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestOllamaMapsRolesAndFormat(t *testing.T) {
	var reqs []ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req ollamaRequest
		json.NewDecoder(r.Body).Decode(&req)
		reqs = append(reqs, req)
		w.Write([]byte(`{"message":{"role":"assistant","content":"ok"}}`))
	}))
	defer srv.Close()

	o := &OllamaClient{Endpoint: srv.URL + "/", Model: "llama3.2", Client: srv.Client()}
	if _, err := o.Chat(context.Background(), []models.ChatMessage{{Role: models.RoleModel, Text: "Namaste!"}}, "hi"); err != nil {
		t.Fatal(err)
	}
	if _, err := o.ClassifyReport(context.Background(), "crowd at gate"); err != nil {
		t.Fatal(err)
	}
	chat := reqs[0]
	if chat.Messages[0].Role != "system" || chat.Messages[1].Role != "assistant" || chat.Messages[2].Content != "hi" || chat.Stream {
		t.Fatalf("unexpected chat request %+v", chat)
	}
	if reqs[1].Format != "json" {
		t.Fatalf("expected json format for classification, got %q", reqs[1].Format)
	}
}

func TestNewSelectsProvider(t *testing.T) {
	p, err := New(Options{Provider: "gemini", Timeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Chat(context.Background(), nil, "hi"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected disabled provider, got %v", err)
	}
	if p, _ := New(Options{Provider: "ollama", OllamaURL: "http://x"}); p == nil {
		t.Fatal("expected ollama provider")
	}
	if _, err := New(Options{Provider: "gpt"}); err == nil {
		t.Fatal("expected unsupported provider error")
	}
}
