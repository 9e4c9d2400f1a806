// Package export writes cataloged batches to disk and reads saved records
// back.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/mangacat/internal/marc"
	"github.com/lehigh-university-libraries/mangacat/internal/models"
)

// Formats lists the supported output extensions
var Formats = []string{".yaml", ".yml", ".jsonl", ".parquet", ".mrc", ".txt"}

// WriteFile writes batch to path in the format implied by its extension
func WriteFile(path string, batch *models.Batch, builder *marc.Builder) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".parquet" {
		return WriteParquet(path, batch.Records)
	}

	// marc output is validated before the file is created
	if ext == ".mrc" || ext == ".txt" {
		if _, err := BuildMARC(batch.Records, builder); err != nil {
			return err
		}
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	switch ext {
	case ".yaml", ".yml":
		err = WriteYAML(file, batch)
	case ".jsonl":
		err = WriteJSONL(file, batch.Records)
	case ".mrc":
		err = WriteMARC(file, batch.Records, builder)
	case ".txt":
		err = WriteMnemonic(file, batch.Records, builder)
	default:
		err = fmt.Errorf("unsupported file format: %s (supported: %s)", ext, strings.Join(Formats, ", "))
	}
	if err != nil {
		file.Close()
		os.Remove(path)
		return err
	}
	return file.Close()
}

// ReadFile loads records saved as JSON Lines or Parquet
func ReadFile(path string) ([]models.CatalogRecord, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet":
		return ReadParquet(path)
	case ".jsonl", ".json":
		return ReadJSONL(path)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl)", ext)
	}
}
