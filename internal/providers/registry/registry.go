// Package registry builds the configured LLM provider by name.
package registry

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/lehigh-university-libraries/mangacat/internal/gemini"
	"github.com/lehigh-university-libraries/mangacat/internal/ollama"
	"github.com/lehigh-university-libraries/mangacat/internal/openai"
	"github.com/lehigh-university-libraries/mangacat/internal/providers"
)

// DefaultProvider is used when CATALOGING_PROVIDER is unset
const DefaultProvider = "deepseek"

var defaultModels = map[string]string{
	"deepseek": "deepseek-chat",
	"openai":   "gpt-4o",
	"gemini":   "gemini-1.5-flash",
	"ollama":   "mistral-small3.2:24b",
}

// Names lists the supported providers
func Names() []string {
	names := make([]string, 0, len(defaultModels))
	for name := range defaultModels {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// New constructs the named provider from the environment. Missing API
// keys are reported here, before any lookup is attempted.
func New(name string) (providers.Provider, error) {
	var (
		p   providers.Provider
		err error
	)
	switch strings.ToLower(name) {
	case "deepseek", "":
		p, err = unwrap(openai.NewDeepSeekFromEnv())
	case "openai":
		p, err = unwrap(openai.NewFromEnv())
	case "gemini":
		p, err = unwrap(gemini.NewFromEnv())
	case "ollama":
		p = ollama.NewFromEnv()
	default:
		err = fmt.Errorf("unsupported provider: %s (choose one of %s)", name, strings.Join(Names(), ", "))
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// unwrap keeps a typed nil pointer from becoming a non-nil Provider
func unwrap[T providers.Provider](p T, err error) (providers.Provider, error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}

// DefaultModel returns the model for a provider, honoring <PROVIDER>_MODEL
func DefaultModel(name string) string {
	name = strings.ToLower(name)
	if name == "" {
		name = DefaultProvider
	}
	if model := os.Getenv(strings.ToUpper(name) + "_MODEL"); model != "" {
		return model
	}
	return defaultModels[name]
}
