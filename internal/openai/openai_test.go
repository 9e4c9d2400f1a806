package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lehigh-university-libraries/mangacat/internal/providers"
)

func TestExtractText(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"book_title\":\"x\"}"}}]}`))
	}))
	defer server.Close()

	p, err := New("test-key", WithBaseURL(server.URL+"/"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	text, err := p.ExtractText(context.Background(), providers.Config{
		Model:       "deepseek-chat",
		Temperature: 0.1,
		MaxTokens:   1000,
		Prompt:      "catalog this",
	})
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if text != `{"book_title":"x"}` {
		t.Errorf("ExtractText() = %q", text)
	}
	if got.Model != "deepseek-chat" || got.MaxTokens != 1000 {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[1].Content != "catalog this" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestExtractTextStatusError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retriable bool
	}{
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusBadGateway, true},
		{"unauthorized", http.StatusUnauthorized, false},
		{"bad request", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer server.Close()

			p, err := New("k", WithBaseURL(server.URL), WithName("deepseek"))
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			_, err = p.ExtractText(context.Background(), providers.Config{Prompt: "p"})

			var statusErr *providers.StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("expected *StatusError, got %v", err)
			}
			if statusErr.StatusCode != tt.status || statusErr.Provider != "deepseek" {
				t.Errorf("StatusError = %+v", statusErr)
			}
			if providers.Retriable(err) != tt.retriable {
				t.Errorf("Retriable() = %v, want %v", !tt.retriable, tt.retriable)
			}
		})
	}
}

func TestNewMissingCredentials(t *testing.T) {
	if _, err := New(""); !errors.Is(err, providers.ErrMissingCredentials) {
		t.Errorf("New(\"\") error = %v, want ErrMissingCredentials", err)
	}

	t.Setenv("DEEPSEEK_API_KEY", "")
	if _, err := NewDeepSeekFromEnv(); !errors.Is(err, providers.ErrMissingCredentials) {
		t.Errorf("NewDeepSeekFromEnv() error = %v, want ErrMissingCredentials", err)
	}

	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewFromEnv(); !errors.Is(err, providers.ErrMissingCredentials) {
		t.Errorf("NewFromEnv() error = %v, want ErrMissingCredentials", err)
	}
}
