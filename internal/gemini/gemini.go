package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"github.com/lehigh-university-libraries/mangacat/internal/providers"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
)

// Gemini is a provider for Google Gemini
type Gemini struct {
	apiKey string
}

// New returns a new Gemini provider. An empty apiKey is rejected with
// providers.ErrMissingCredentials.
func New(apiKey string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", providers.ErrMissingCredentials)
	}
	return &Gemini{apiKey: apiKey}, nil
}

// NewFromEnv returns a Gemini provider keyed by GEMINI_API_KEY
func NewFromEnv() (*Gemini, error) {
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set: %w", providers.ErrMissingCredentials)
	}
	return New(key)
}

// ExtractText extracts text from the given prompt using Gemini
func (g *Gemini) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(config.Model)
	model.SetTemperature(float32(config.Temperature))
	if config.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(config.MaxTokens))
	}
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(config.Prompt))
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}

	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return string(txt), nil
	}

	return "", fmt.Errorf("unexpected response format from Gemini")
}

// classify converts API errors into providers.StatusError so the
// orchestrator can tell throttling apart from rejections.
func classify(err error) error {
	var apiErr *apierror.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("failed to generate content: %w", err)
	}

	code := apiErr.HTTPCode()
	if code <= 0 {
		code = grpcToHTTP(apiErr.GRPCStatus().Code())
	}
	return &providers.StatusError{
		Provider:   "gemini",
		StatusCode: code,
		Body:       apiErr.Error(),
	}
}

func grpcToHTTP(code codes.Code) int {
	switch code {
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
