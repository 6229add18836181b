package quizsmith_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"quizsmith"

	openai "github.com/sashabaranov/go-openai"
)

type promptLog struct {
	mu      sync.Mutex
	prompts []string
}

func (p *promptLog) add(prompt string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, prompt)
}

func (p *promptLog) all() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.prompts...)
}

// fakeChatServer answers every chat completion with reply and records the prompts it saw
func fakeChatServer(t *testing.T, reply string, prompts *promptLog) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if prompts != nil && len(req.Messages) > 0 {
			prompts.add(req.Messages[0].Content)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:     "test",
			Object: "chat.completion",
			Model:  req.Model,
			Choices: []openai.ChatCompletionChoice{{
				Index:   0,
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: reply},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestQuestionMaker_GenerateMCQs(t *testing.T) {
	log := &promptLog{}
	srv := fakeChatServer(t, "<think>let me plan\nthe questions</think>\n\n"+wellFormed, log)

	qm := quizsmith.NewQuestionMaker(quizsmith.EndpointConfig{APIKey: "key", BaseURL: srv.URL, Model: "test-model"}, 0)

	text, err := qm.GenerateMCQs(context.Background(), "Paris is the capital of France.", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(text, "<think>") || strings.Contains(text, "let me plan") {
		t.Errorf("expected reasoning block to be stripped, got %q", text)
	}
	if !strings.HasPrefix(text, "Here are your questions:") {
		t.Errorf("expected trimmed completion, got %q", text)
	}
	if got := len(quizsmith.ParseResponse(text)); got != 2 {
		t.Errorf("expected 2 parseable questions, got %d", got)
	}

	prompts := log.all()
	if len(prompts) != 1 {
		t.Fatalf("expected 1 request, got %d", len(prompts))
	}
	for _, want := range []string{"Generate 2 multiple choice questions", "Paris is the capital of France.", "Correct Answer: [A/B/C/D]"} {
		if !strings.Contains(prompts[0], want) {
			t.Errorf("expected prompt to contain %q", want)
		}
	}
}

func TestQuestionMaker_TruncatesContent(t *testing.T) {
	log := &promptLog{}
	srv := fakeChatServer(t, "ok", log)

	qm := quizsmith.NewQuestionMaker(quizsmith.EndpointConfig{BaseURL: srv.URL, Model: "m"}, 10)

	if _, err := qm.GenerateMCQs(context.Background(), "ééééééééééTAIL", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	prompts := log.all()
	if len(prompts) != 1 {
		t.Fatalf("expected 1 request, got %d", len(prompts))
	}
	if strings.Contains(prompts[0], "TAIL") {
		t.Errorf("expected content to be truncated")
	}
	if !strings.Contains(prompts[0], "éééééééééé...") {
		t.Errorf("expected truncation on a rune boundary with ellipsis")
	}
}

func TestQuestionMaker_EmptyCompletion(t *testing.T) {
	srv := fakeChatServer(t, "<think>nothing useful</think>   ", nil)
	qm := quizsmith.NewQuestionMaker(quizsmith.EndpointConfig{BaseURL: srv.URL, Model: "m"}, 0)

	_, err := qm.GenerateMCQs(context.Background(), "material", 3)
	if !errors.Is(err, quizsmith.ErrEmptyCompletion) {
		t.Errorf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestQuestionMaker_RejectsEmptyContent(t *testing.T) {
	qm := quizsmith.NewQuestionMaker(quizsmith.EndpointConfig{BaseURL: "http://127.0.0.1:0", Model: "m"}, 0)

	if _, err := qm.GenerateMCQs(context.Background(), "  \n ", 3); err == nil {
		t.Error("expected an error for empty content")
	}
}

func TestQuestionMaker_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad token","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	qm := quizsmith.NewQuestionMaker(quizsmith.EndpointConfig{BaseURL: srv.URL, Model: "m"}, 0)
	if err := qm.Ping(context.Background()); err == nil {
		t.Error("expected ping to fail")
	}
}

func TestOpenAIEmbedder_OrdersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		// deliberately out of order
		w.Write([]byte(`{"object":"list","data":[
			{"object":"embedding","index":1,"embedding":[0,1]},
			{"object":"embedding","index":0,"embedding":[1,0]}
		],"model":"m"}`))
	}))
	defer srv.Close()

	e := quizsmith.NewOpenAIEmbedder(quizsmith.EndpointConfig{BaseURL: srv.URL, Model: "m"})
	vectors, err := e.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}
	if vectors[0][0] != 1 || vectors[1][1] != 1 {
		t.Errorf("vectors not ordered by index: %v", vectors)
	}
}
