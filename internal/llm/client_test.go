package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

func newFakeOpenAI(t *testing.T, status int, content string, seen *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if seen != nil {
			if err := json.NewDecoder(r.Body).Decode(seen); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status >= 400 {
			_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
}

func TestOpenAIClientGenerate_SendsSystemAndUserMessages(t *testing.T) {
	var seen openai.ChatCompletionRequest
	srv := newFakeOpenAI(t, http.StatusOK, "hola, Artisan es genial", &seen)
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "sk-test", "gpt-4o", "be concise", zap.NewNop())
	out, err := c.Generate(context.Background(), "hola")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "hola, Artisan es genial" {
		t.Fatalf("unexpected response %q", out)
	}
	if seen.Model != "gpt-4o" {
		t.Fatalf("expected model gpt-4o, got %q", seen.Model)
	}
	if len(seen.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(seen.Messages))
	}
	if seen.Messages[0].Role != openai.ChatMessageRoleSystem || seen.Messages[0].Content != "be concise" {
		t.Fatalf("unexpected system message %+v", seen.Messages[0])
	}
	if seen.Messages[1].Role != openai.ChatMessageRoleUser || seen.Messages[1].Content != "hola" {
		t.Fatalf("unexpected user message %+v", seen.Messages[1])
	}
}

func TestOpenAIClientGenerate_APIError(t *testing.T) {
	srv := newFakeOpenAI(t, http.StatusTooManyRequests, "", nil)
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "sk-test", "gpt-4o", "", zap.NewNop())
	if _, err := c.Generate(context.Background(), "hola"); err == nil {
		t.Fatalf("expected error on api failure")
	}
}

func TestOpenAIClientGenerate_EmptyCompletion(t *testing.T) {
	srv := newFakeOpenAI(t, http.StatusOK, "", nil)
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "sk-test", "", "", nil)
	if _, err := c.Generate(context.Background(), "hola"); !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}

type stubCompleter struct {
	err error
}

func (s stubCompleter) CreateChatCompletion(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return openai.ChatCompletionResponse{}, s.err
}

func TestOpenAIClientGenerate_WrapsTransportError(t *testing.T) {
	boom := errors.New("dial tcp: connection refused")
	c := newOpenAIClient(stubCompleter{err: boom}, "", "", nil)
	if _, err := c.Generate(context.Background(), "hola"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
	if c.model != "gpt-4o" {
		t.Fatalf("expected default model, got %q", c.model)
	}
}
