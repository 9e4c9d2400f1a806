// Package cataloging runs a batch of series requests through lookup,
// normalization, cover enrichment and barcode assignment.
package cataloging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/mangacat/internal/barcode"
	"github.com/lehigh-university-libraries/mangacat/internal/covers"
	"github.com/lehigh-university-libraries/mangacat/internal/models"
	"github.com/lehigh-university-libraries/mangacat/internal/normalize"
	"golang.org/x/sync/errgroup"
)

// Lookuper resolves one volume to its raw metadata object
type Lookuper interface {
	Lookup(ctx context.Context, series string, volume int) (map[string]any, bool)
}

// InteractionRecorder logs completed batch runs
type InteractionRecorder interface {
	RecordInteraction(ctx context.Context, query string, recordsFound int) error
}

// Service catalogs batches. It is safe for concurrent use.
type Service struct {
	lookup      Lookuper
	normalizer  *normalize.Normalizer
	covers      covers.Finder
	recorder    InteractionRecorder
	concurrency int
	now         func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithCovers enables cover enrichment through f
func WithCovers(f covers.Finder) Option {
	return func(s *Service) {
		s.covers = f
	}
}

// WithRecorder logs each batch to r
func WithRecorder(r InteractionRecorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// WithConcurrency sets the number of lookup workers
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithNormalizer replaces the default normalizer
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(s *Service) {
		s.normalizer = n
	}
}

func NewService(lookup Lookuper, opts ...Option) *Service {
	s := &Service{
		lookup:      lookup,
		normalizer:  normalize.New(),
		concurrency: 4,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type outcome struct {
	ref    models.VolumeRef
	record models.CatalogRecord
	found  bool
}

// Run catalogs every requested volume. A malformed startBarcode is reported
// before any lookup; an empty one leaves records without barcodes. Volumes
// that cannot be resolved are tallied in Batch.Missing and never abort the
// batch. The returned error is only ever the context's.
func (s *Service) Run(ctx context.Context, requests []models.SeriesRequest, startBarcode string) (*models.Batch, error) {
	if startBarcode != "" {
		if _, err := barcode.Parse(startBarcode); err != nil {
			return nil, err
		}
	}

	batch := &models.Batch{
		ID:           uuid.NewString(),
		Requests:     requests,
		StartBarcode: startBarcode,
		Records:      []models.CatalogRecord{},
		Missing:      []models.VolumeRef{},
		CreatedAt:    s.now(),
	}

	var work []models.VolumeRef
	for _, req := range requests {
		for _, v := range req.Volumes {
			work = append(work, models.VolumeRef{Series: req.Series, Volume: v})
		}
	}
	slog.Info("Starting batch", "batch", batch.ID, "volumes", len(work), "workers", s.concurrency)

	// results are stored by position so output order never depends on
	// which worker finishes first
	results := make([]outcome, len(work))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, ref := range work {
		g.Go(func() error {
			results[i] = s.catalogVolume(gctx, ref)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if r.found {
			batch.Records = append(batch.Records, r.record)
		} else {
			batch.Missing = append(batch.Missing, r.ref)
		}
	}

	if startBarcode != "" && len(batch.Records) > 0 {
		codes, err := barcode.Assign(startBarcode, len(batch.Records))
		if err != nil {
			return nil, err
		}
		for i := range batch.Records {
			batch.Records[i] = batch.Records[i].WithBarcode(codes[i])
		}
	}

	if s.recorder != nil {
		if err := s.recorder.RecordInteraction(ctx, Query(requests), len(batch.Records)); err != nil {
			slog.Warn("Failed to record interaction", "batch", batch.ID, "err", err)
		}
	}

	slog.Info("Finished batch",
		"batch", batch.ID,
		"found", len(batch.Records),
		"missing", len(batch.Missing),
		"warnings", batch.WarningCount())

	return batch, ctx.Err()
}

func (s *Service) catalogVolume(ctx context.Context, ref models.VolumeRef) outcome {
	result := outcome{ref: ref}
	if ctx.Err() != nil {
		return result
	}

	payload, ok := s.lookup.Lookup(ctx, ref.Series, ref.Volume)
	if !ok {
		slog.Warn("Volume not found", "series", ref.Series, "volume", ref.Volume)
		return result
	}

	record, err := s.normalizer.Normalize(payload, ref.Series, ref.Volume)
	if err != nil {
		slog.Warn("Discarding malformed metadata", "series", ref.Series, "volume", ref.Volume, "err", err)
		return result
	}

	if s.covers != nil && record.ISBN13 != "" {
		url, err := s.covers.CoverURL(ctx, record.ISBN13)
		if err != nil {
			slog.Warn("Cover lookup failed", "isbn", record.ISBN13, "err", err)
		}
		record.CoverURL = url
	}

	result.record = record
	result.found = true
	return result
}
