package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/mangacat/internal/cataloging"
	"github.com/lehigh-university-libraries/mangacat/internal/covers"
	"github.com/lehigh-university-libraries/mangacat/internal/export"
	"github.com/lehigh-university-libraries/mangacat/internal/marc"
	"github.com/lehigh-university-libraries/mangacat/internal/models"
	"github.com/spf13/cobra"
)

func newLookupCmd() *cobra.Command {
	var (
		s            settings
		series       []string
		startBarcode string
		output       string
		noCovers     bool
		coversDir    string
		location     string
	)

	cmd := &cobra.Command{
		Use:   "lookup [series] [volumes]",
		Short: "Catalog manga volumes",
		Long: `Looks up metadata for each requested volume, normalizes it, assigns
sequential barcodes and writes the batch.

Volumes are given as a comma separated list of numbers, ranges and omnibus
groups, e.g. "1-5,7,10-12" or "17-18-19". Volumes that cannot be resolved are
reported and skipped; a partial batch is still written.`,
		Example: `  # One series
  mangacat lookup "One Piece" 1-10

  # Several series in one batch, barcodes continue across them
  mangacat lookup --series "Naruto=1-3" --series "Yotsuba&!=1,2" --start-barcode B000100

  # Write MARC records
  mangacat lookup "Berserk" 1-3 --output berserk.mrc`,
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			requests, parseErrs, err := lookupRequests(args, series)
			if err != nil {
				return err
			}
			for _, perr := range parseErrs {
				slog.Warn("Skipping series entry", "err", perr)
			}

			cfg, err := s.load(cmd)
			if err != nil {
				return err
			}
			if noCovers {
				cfg.CoversEnabled = false
			}

			p, err := newPipeline(cfg)
			if err != nil {
				return err
			}
			defer p.Close()

			ctx := cmd.Context()
			start := time.Now()
			batch, runErr := p.service(ctx).Run(ctx, requests, startBarcode)
			if batch == nil {
				return runErr
			}
			if runErr != nil {
				slog.Warn("Batch interrupted, writing partial results", "err", runErr)
			}
			slog.Info("Lookup complete", "duration", time.Since(start).Round(time.Millisecond))

			if coversDir != "" {
				downloadCovers(cmd, batch, coversDir)
			}

			builder := marc.NewBuilder()
			if location != "" {
				builder.Location = location
			}

			if output == "" {
				if err := export.WriteYAML(cmd.OutOrStdout(), batch); err != nil {
					return err
				}
				printSummary(cmd.ErrOrStderr(), batch)
				return runErr
			}

			if err := export.WriteFile(output, batch, builder); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			slog.Info("Batch written", "path", output, "records", len(batch.Records))
			printSummary(cmd.OutOrStdout(), batch)
			return runErr
		},
	}

	s.register(cmd)
	cmd.Flags().StringArrayVar(&series, "series", nil, `Series entry "Name=volumes" (repeatable)`)
	cmd.Flags().StringVar(&startBarcode, "start-barcode", "T000001", "First barcode of the batch (empty to skip barcodes)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (.yaml, .jsonl, .parquet, .mrc, .txt); YAML to stdout when empty")
	cmd.Flags().BoolVar(&noCovers, "no-covers", false, "Skip cover image lookup")
	cmd.Flags().StringVar(&coversDir, "covers-dir", "", "Download cover images into this directory")
	cmd.Flags().StringVar(&location, "location", "", "Holding location for MARC 852 $b")

	return cmd
}

// lookupRequests combines the positional series with any --series entries.
// Entries that fail to parse are returned alongside the ones that did; the
// error is reserved for a batch with nothing left to look up.
func lookupRequests(args []string, entries []string) ([]models.SeriesRequest, []error, error) {
	var (
		requests  []models.SeriesRequest
		parseErrs []error
	)
	switch len(args) {
	case 0:
	case 2:
		req, err := cataloging.NewRequest(args[0], args[1])
		if err != nil {
			parseErrs = append(parseErrs, err)
		} else {
			requests = append(requests, req)
		}
	default:
		return nil, nil, errors.New("expected both a series name and a volume list")
	}

	parsed, errs := cataloging.ParseRequests(entries)
	requests = append(requests, parsed...)
	parseErrs = append(parseErrs, errs...)

	if len(requests) == 0 {
		if len(parseErrs) > 0 {
			return nil, parseErrs, errors.Join(parseErrs...)
		}
		return nil, nil, errors.New(`nothing to look up: pass a series and volumes, or --series "Name=1-5"`)
	}
	return requests, parseErrs, nil
}

func downloadCovers(cmd *cobra.Command, batch *models.Batch, dir string) {
	client := &http.Client{Timeout: 30 * time.Second}
	saved := 0
	for _, rec := range batch.Records {
		if rec.CoverURL == "" {
			continue
		}
		path, err := covers.Download(cmd.Context(), client, rec.CoverURL, dir, rec.ISBN13)
		if err != nil {
			slog.Warn("Failed to download cover", "isbn", rec.ISBN13, "err", err)
			continue
		}
		slog.Debug("Saved cover", "path", path)
		saved++
	}
	slog.Info("Covers downloaded", "dir", dir, "saved", saved)
}

