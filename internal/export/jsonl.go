package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lehigh-university-libraries/mangacat/internal/models"
)

// WriteJSONL writes one record per line
func WriteJSONL(w io.Writer, records []models.CatalogRecord) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to encode record %s volume %d: %w", rec.SeriesName, rec.VolumeNumber, err)
		}
	}
	return nil
}

// ReadJSONL loads records from a JSON Lines file
func ReadJSONL(path string) ([]models.CatalogRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open records file: %w", err)
	}
	defer file.Close()

	var records []models.CatalogRecord
	scanner := bufio.NewScanner(file)

	// descriptions can make for long lines
	const maxCapacity = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec models.CatalogRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading records: %w", err)
	}

	slog.Debug("Finished reading JSONL file", "path", path, "records", len(records))
	return records, nil
}
