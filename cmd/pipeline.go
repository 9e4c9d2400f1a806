package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/mangacat/internal/cache"
	"github.com/lehigh-university-libraries/mangacat/internal/cataloging"
	"github.com/lehigh-university-libraries/mangacat/internal/config"
	"github.com/lehigh-university-libraries/mangacat/internal/covers"
	"github.com/lehigh-university-libraries/mangacat/internal/lookup"
	"github.com/lehigh-university-libraries/mangacat/internal/normalize"
	"github.com/lehigh-university-libraries/mangacat/internal/providers"
	"github.com/lehigh-university-libraries/mangacat/internal/providers/registry"
	"github.com/spf13/cobra"
)

// settings are the flags shared by every command that talks to a provider.
// Unset flags keep the environment value from config.Load.
type settings struct {
	provider    string
	model       string
	cachePath   string
	concurrency int
	retries     int
	minInterval time.Duration
	timeout     time.Duration
}

func (s *settings) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.provider, "provider", "", "LLM provider (deepseek, openai, gemini, ollama)")
	cmd.Flags().StringVar(&s.model, "model", "", "Model name (defaults per provider)")
	cmd.Flags().StringVar(&s.cachePath, "cache", "", "Path to the response cache database")
	cmd.Flags().IntVar(&s.concurrency, "concurrency", 0, "Number of volumes looked up at once")
	cmd.Flags().IntVar(&s.retries, "retries", 0, "Attempts per volume for transient provider errors")
	cmd.Flags().DurationVar(&s.minInterval, "min-interval", 0, "Minimum spacing between provider calls")
	cmd.Flags().DurationVar(&s.timeout, "timeout", 0, "Timeout for a single provider call")
}

func (s *settings) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if s.provider != "" {
		cfg.Provider = s.provider
		cfg.Model = registry.DefaultModel(s.provider)
	}
	if s.model != "" {
		cfg.Model = s.model
	}
	if s.cachePath != "" {
		cfg.CachePath = s.cachePath
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = s.concurrency
	}
	if cmd.Flags().Changed("retries") {
		cfg.Retries = s.retries
	}
	if cmd.Flags().Changed("min-interval") {
		cfg.MinInterval = s.minInterval
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout = s.timeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// pipeline holds the long-lived pieces of a cataloging run
type pipeline struct {
	cfg          *config.Config
	db           *cache.DB
	orchestrator *lookup.Orchestrator
}

// newPipeline fails fast on missing credentials, before the cache is opened
func newPipeline(cfg *config.Config) (*pipeline, error) {
	provider, err := registry.New(cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", cfg.Provider, err)
	}

	db, err := cache.Open(cfg.CachePath)
	if err != nil {
		return nil, err
	}

	gate := providers.NewGate(provider, cfg.MinInterval, cfg.Timeout)
	orchestrator := lookup.New(db, gate, cfg.Model,
		lookup.WithRetryPolicy(lookup.RetryPolicy{Attempts: cfg.Retries, Delay: cfg.RetryDelay}))

	slog.Debug("Pipeline ready",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"cache", cfg.CachePath,
		"interval", cfg.MinInterval,
		"timeout", cfg.Timeout)

	return &pipeline{cfg: cfg, db: db, orchestrator: orchestrator}, nil
}

func (p *pipeline) Close() error {
	return p.db.Close()
}

// service builds the batch service, with cover lookup when enabled
func (p *pipeline) service(ctx context.Context) *cataloging.Service {
	normalizer := normalize.New()
	normalizer.MSRPFloor = p.cfg.MSRPFloor
	normalizer.MSRPCeiling = p.cfg.MSRPCeiling

	opts := []cataloging.Option{
		cataloging.WithConcurrency(p.cfg.Concurrency),
		cataloging.WithNormalizer(normalizer),
		cataloging.WithRecorder(p.db),
	}
	if p.cfg.CoversEnabled {
		opts = append(opts, cataloging.WithCovers(coverFinder(ctx, p.cfg.BooksAPIKey)))
	}
	return cataloging.NewService(p.orchestrator, opts...)
}

func coverFinder(ctx context.Context, apiKey string) covers.Finder {
	chain := covers.Chain{}
	gb, err := covers.NewGoogleBooks(ctx, apiKey)
	if err != nil {
		slog.Warn("Google Books unavailable, using Open Library only", "err", err)
	} else {
		chain = append(chain, gb)
	}
	return append(chain, covers.NewOpenLibrary())
}
