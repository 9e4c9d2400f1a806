package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/lehigh-university-libraries/mangacat/internal/providers"
)

const (
	// DefaultBaseURL is the OpenAI API root
	DefaultBaseURL = "https://api.openai.com/v1"
	// DeepSeekBaseURL is DeepSeek's OpenAI-compatible API root
	DeepSeekBaseURL = "https://api.deepseek.com/v1"

	systemPrompt = "You are a library cataloging assistant that answers with a single JSON object."
)

// OpenAI is a provider for OpenAI and any service exposing the
// chat completions API (DeepSeek)
type OpenAI struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
}

// Option configures an OpenAI provider
type Option func(*OpenAI)

// WithBaseURL points the provider at a different chat completions API root
func WithBaseURL(baseURL string) Option {
	return func(o *OpenAI) {
		o.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client used for requests
func WithHTTPClient(client *http.Client) Option {
	return func(o *OpenAI) {
		o.client = client
	}
}

// WithName sets the provider name used in errors
func WithName(name string) Option {
	return func(o *OpenAI) {
		o.name = name
	}
}

// New returns a new OpenAI provider. An empty apiKey is rejected with
// providers.ErrMissingCredentials.
func New(apiKey string, opts ...Option) (*OpenAI, error) {
	o := &OpenAI{
		name:    "openai",
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		client:  &http.Client{},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.apiKey == "" {
		return nil, fmt.Errorf("%s: %w", o.name, providers.ErrMissingCredentials)
	}
	return o, nil
}

// NewFromEnv returns an OpenAI provider keyed by OPENAI_API_KEY
func NewFromEnv() (*OpenAI, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set: %w", providers.ErrMissingCredentials)
	}
	return New(key)
}

// NewDeepSeekFromEnv returns a provider for DeepSeek keyed by DEEPSEEK_API_KEY
func NewDeepSeekFromEnv() (*OpenAI, error) {
	key := os.Getenv("DEEPSEEK_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("DEEPSEEK_API_KEY environment variable not set: %w", providers.ErrMissingCredentials)
	}
	baseURL := os.Getenv("DEEPSEEK_URL")
	if baseURL == "" {
		baseURL = DeepSeekBaseURL
	}
	return New(key, WithName("deepseek"), WithBaseURL(baseURL))
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// ExtractText sends the prompt to the chat completions endpoint and
// returns the first choice's content
func (o *OpenAI) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	requestBody, err := json.Marshal(chatRequest{
		Model: config.Model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: config.Prompt},
		},
		Temperature: config.Temperature,
		MaxTokens:   config.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &providers.StatusError{
			Provider:   o.name,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from %s", o.name)
	}

	return response.Choices[0].Message.Content, nil
}
