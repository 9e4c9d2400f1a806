package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/mangacat/internal/cache"
	"github.com/lehigh-university-libraries/mangacat/internal/config"
	"github.com/lehigh-university-libraries/mangacat/internal/lookup"
	"github.com/lehigh-university-libraries/mangacat/internal/volumes"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newCacheCmd() *cobra.Command {
	var cachePath string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clear the response cache",
	}
	cmd.PersistentFlags().StringVar(&cachePath, "cache", "", "Path to the response cache database")

	cmd.AddCommand(newCacheStatsCmd(&cachePath))
	cmd.AddCommand(newCacheClearCmd(&cachePath))

	return cmd
}

func openCache(path string) (*cache.DB, error) {
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		path = cfg.CachePath
	}
	return cache.Open(path)
}

func newCacheStatsCmd(cachePath *string) *cobra.Command {
	var (
		recent int
		asYAML bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache and usage statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openCache(*cachePath)
			if err != nil {
				return err
			}
			defer db.Close()

			stats, err := db.Stats(cmd.Context(), recent)
			if err != nil {
				return err
			}

			if asYAML {
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(stats); err != nil {
					return fmt.Errorf("failed to marshal YAML: %w", err)
				}
				return enc.Close()
			}
			printStats(cmd, stats)
			return nil
		},
	}

	cmd.Flags().IntVar(&recent, "recent", 5, "Number of recent batch runs to show")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print statistics as YAML")
	return cmd
}

func printStats(cmd *cobra.Command, stats *cache.Stats) {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Response cache"))
	b.WriteString("\n")
	row := func(label string, value int) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(statStyle.Render(fmt.Sprint(value)))
		b.WriteString("\n")
	}
	row("API calls", stats.TotalCalls)
	row("Succeeded", stats.SuccessfulCalls)
	row("Failed", stats.FailedCalls)
	row("Cached", stats.CachedEntries)
	row("Batches", stats.Interactions)
	row("Records", stats.RecordsFound)

	for _, sv := range stats.Resolved {
		fmt.Fprintf(&b, "  %s: %s\n", sv.Series, formatVolumeList(sv.Volumes))
	}
	for _, in := range stats.Recent {
		fmt.Fprintf(&b, "  %s  %s (%d found)\n", in.Timestamp.Local().Format("2006-01-02 15:04"), in.Query, in.RecordsFound)
	}
	fmt.Fprint(cmd.OutOrStdout(), b.String())
}

func formatVolumeList(vols []int) string {
	parts := make([]string, len(vols))
	for i, v := range vols {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}

func newCacheClearCmd(cachePath *string) *cobra.Command {
	var (
		series string
		vols   string
		failed bool
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached responses so they are looked up again",
		Example: `  # Retry a volume whose lookup failed
  mangacat cache clear --series "One Piece" --volumes 12

  # Forget every cached failure
  mangacat cache clear --failed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if failed == (series != "") {
				return errors.New("pass either --failed or --series with --volumes")
			}

			db, err := openCache(*cachePath)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			if failed {
				n, err := db.DeleteFailed(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached failures\n", n)
				return nil
			}

			list, err := volumes.Parse(vols)
			if err != nil {
				return err
			}
			removed := 0
			for _, v := range list {
				ok, err := db.Delete(ctx, lookup.Fingerprint(lookup.BuildPrompt(series, v)), v)
				if err != nil {
					return err
				}
				if ok {
					removed++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d of %d cached volumes of %s\n", removed, len(list), series)
			return nil
		},
	}

	cmd.Flags().StringVar(&series, "series", "", "Series name exactly as it was looked up")
	cmd.Flags().StringVar(&vols, "volumes", "", "Volumes to clear, e.g. 1-5,7")
	cmd.Flags().BoolVar(&failed, "failed", false, "Clear every cached failure")
	return cmd
}
