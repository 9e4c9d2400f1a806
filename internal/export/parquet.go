package export

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lehigh-university-libraries/mangacat/internal/models"
	"github.com/parquet-go/parquet-go"
)

// WriteParquet writes records to a Parquet file at path
func WriteParquet(path string, records []models.CatalogRecord) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := parquet.WriteFile(path, records); err != nil {
		return fmt.Errorf("failed to write parquet: %w", err)
	}
	return nil
}

// ReadParquet loads records from a Parquet file
func ReadParquet(path string) ([]models.CatalogRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}
	slog.Debug("Parquet file opened", "path", path, "num_rows", pf.NumRows())

	reader := parquet.NewGenericReader[models.CatalogRecord](pf)
	defer reader.Close()

	records := make([]models.CatalogRecord, 0, pf.NumRows())
	rows := make([]models.CatalogRecord, 128)
	for {
		n, err := reader.Read(rows)
		records = append(records, rows[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	return records, nil
}
