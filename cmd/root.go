package cmd

import (
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "mangacat",
		Short: "Manga volume cataloging with LLM-powered metadata lookup",
		Long: `Mangacat turns a series name and a list of volumes into normalized,
barcoded catalog records.

Metadata for each volume is requested from a generative-text provider,
cached on disk, validated, and exported as YAML, JSON Lines, Parquet or MARC.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			setupLogging(verbose)
		},
	}

	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")

	cmd.AddCommand(newLookupCmd())
	cmd.AddCommand(newSuggestCmd())
	cmd.AddCommand(newCacheCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

func setupLogging(verbose bool) {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})
	slog.SetDefault(slog.New(logger))
}
