// Package lookup resolves (series, volume) queries against a generative-text
// provider, paying for each distinct query at most once through the response
// cache.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/mangacat/internal/cache"
	"github.com/lehigh-university-libraries/mangacat/internal/providers"
)

// RetryPolicy bounds how often a transient provider failure is retried
type RetryPolicy struct {
	// Attempts is the total number of calls, including the first
	Attempts int
	// Delay is the fixed pause between attempts
	Delay time.Duration
}

// DefaultRetryPolicy makes three attempts two seconds apart
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Delay: 2 * time.Second}

func (p RetryPolicy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

// Orchestrator checks the cache, calls the provider on a miss and records
// every terminal outcome, successful or not.
type Orchestrator struct {
	cache    cache.Store
	provider providers.Provider
	config   providers.Config
	retry    RetryPolicy
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithRetryPolicy overrides DefaultRetryPolicy
func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *Orchestrator) {
		o.retry = p
	}
}

// WithSleep replaces the backoff wait, mostly for tests
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) {
		o.sleep = sleep
	}
}

// WithTemperature sets the sampling temperature sent with each query
func WithTemperature(t float64) Option {
	return func(o *Orchestrator) {
		o.config.Temperature = t
	}
}

// New returns an Orchestrator. The provider should already be wrapped in a
// providers.Gate shared by every worker.
func New(store cache.Store, provider providers.Provider, model string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cache:    store,
		provider: provider,
		config: providers.Config{
			Model:       model,
			Temperature: 0.1,
			MaxTokens:   1000,
		},
		retry: DefaultRetryPolicy,
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Lookup returns the raw JSON object describing one volume, or false when
// the volume could not be resolved. Lookup failures are cached so a rerun
// does not repeat a call that is known to fail.
func (o *Orchestrator) Lookup(ctx context.Context, series string, volume int) (map[string]any, bool) {
	prompt := BuildPrompt(series, volume)
	fingerprint := Fingerprint(prompt)
	log := slog.With("series", series, "volume", volume)

	entry, hit, err := o.cache.Get(ctx, fingerprint, volume)
	switch {
	case err != nil:
		log.Warn("Cache read failed, treating as miss", "err", err)
	case hit && !entry.Success:
		log.Debug("Cached failure, skipping call", "cached_at", entry.Timestamp)
		return nil, false
	case hit:
		payload, err := decodeObject([]byte(entry.Payload))
		if err == nil {
			log.Debug("Using cached response", "cached_at", entry.Timestamp)
			return payload, true
		}
		log.Warn("Cached response is corrupt, fetching fresh data", "err", err)
	}

	log.Info("Looking up volume")
	payload, raw, err := o.call(ctx, prompt, log)
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		// the caller gave up; nothing terminal to record
		return nil, false
	}

	record := cache.Entry{
		Fingerprint: fingerprint,
		Volume:      volume,
		Series:      series,
		Success:     err == nil,
	}
	if err != nil {
		log.Warn("Lookup failed", "err", err)
		record.Payload = err.Error()
	} else {
		record.Payload = string(raw)
	}
	if err := o.cache.Put(ctx, record); err != nil {
		log.Warn("Cache write failed", "err", err)
	}

	if record.Success {
		return payload, true
	}
	return nil, false
}

// call runs the bounded retry loop and returns the decoded object along
// with the JSON text it came from.
func (o *Orchestrator) call(ctx context.Context, prompt string, log *slog.Logger) (map[string]any, []byte, error) {
	config := o.config
	config.Prompt = prompt

	var lastErr error
	for attempt := 1; attempt <= o.retry.attempts(); attempt++ {
		if attempt > 1 {
			if err := o.sleep(ctx, o.retry.Delay); err != nil {
				return nil, nil, err
			}
		}

		text, err := o.provider.ExtractText(ctx, config)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			if !providers.Retriable(err) {
				return nil, nil, err
			}
			log.Debug("Transient provider failure", "attempt", attempt, "err", err)
			continue
		}

		raw, err := ExtractJSON(text)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", err, truncate(text, 200))
		}
		payload, err := decodeObject(raw)
		if err != nil {
			return nil, nil, err
		}
		return payload, raw, nil
	}

	return nil, nil, fmt.Errorf("giving up after %d attempts: %w", o.retry.attempts(), lastErr)
}

// Suggest asks the provider for official series names close to name. The
// original name leads the list unless a suggestion already contains it, and
// any failure falls back to just name.
func (o *Orchestrator) Suggest(ctx context.Context, name string) []string {
	config := o.config
	config.Prompt = BuildSuggestPrompt(name)
	config.Temperature = 0.3
	config.MaxTokens = 200

	text, err := o.provider.ExtractText(ctx, config)
	if err != nil {
		slog.Warn("Series suggestion failed", "name", name, "err", err)
		return []string{name}
	}

	raw, err := ExtractJSONArray(text)
	if err != nil {
		slog.Warn("Series suggestion was not a JSON list", "name", name, "err", err)
		return []string{name}
	}
	var suggestions []string
	if err := json.Unmarshal(raw, &suggestions); err != nil {
		slog.Warn("Series suggestion was not a list of names", "name", name, "err", err)
		return []string{name}
	}

	return withOriginal(name, suggestions)
}

func withOriginal(name string, suggestions []string) []string {
	out := make([]string, 0, len(suggestions)+1)
	lower := strings.ToLower(name)
	found := false
	for _, s := range suggestions {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if strings.Contains(strings.ToLower(s), lower) {
			found = true
		}
		out = append(out, s)
	}
	if !found {
		out = append([]string{name}, out...)
	}
	return out
}

func decodeObject(raw []byte) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if payload == nil {
		return nil, fmt.Errorf("decode payload: %w", ErrNoJSON)
	}
	return payload, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
