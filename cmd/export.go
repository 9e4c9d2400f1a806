package cmd

import (
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/mangacat/internal/export"
	"github.com/lehigh-university-libraries/mangacat/internal/marc"
	"github.com/lehigh-university-libraries/mangacat/internal/models"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var location string

	cmd := &cobra.Command{
		Use:   "export <input> <output>",
		Short: "Convert saved records to another format",
		Long: `Reads records saved as .jsonl, .json or .parquet and writes them in the
format implied by the output extension (.yaml, .jsonl, .parquet, .mrc, .txt).`,
		Example: `  mangacat export batch.parquet batch.mrc`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := export.ReadFile(args[0])
			if err != nil {
				return err
			}

			builder := marc.NewBuilder()
			if location != "" {
				builder.Location = location
			}

			batch := &models.Batch{Records: records, Missing: []models.VolumeRef{}}
			if err := export.WriteFile(args[1], batch, builder); err != nil {
				return fmt.Errorf("failed to write %s: %w", args[1], err)
			}
			slog.Info("Records exported", "input", args[0], "output", args[1], "records", len(records))
			return nil
		},
	}

	cmd.Flags().StringVar(&location, "location", "", "Holding location for MARC 852 $b")
	return cmd
}
