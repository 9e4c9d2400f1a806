package export

import (
	"fmt"
	"io"
	"time"

	"github.com/lehigh-university-libraries/mangacat/internal/models"
	"gopkg.in/yaml.v3"
)

// Summary is the tally section of a batch report
type Summary struct {
	Requested int `yaml:"requested"`
	Found     int `yaml:"found"`
	Missing   int `yaml:"missing"`
	Warnings  int `yaml:"warnings"`
}

// Report is the YAML document written for a batch
type Report struct {
	ID        string                 `yaml:"id"`
	CreatedAt string                 `yaml:"created_at"`
	Requests  []models.SeriesRequest `yaml:"requests"`
	Summary   Summary                `yaml:"summary"`
	Missing   []models.VolumeRef     `yaml:"missing,omitempty"`
	Records   []models.CatalogRecord `yaml:"records"`
}

// NewReport summarizes a batch
func NewReport(batch *models.Batch) Report {
	return Report{
		ID:        batch.ID,
		CreatedAt: batch.CreatedAt.Format(time.RFC3339),
		Requests:  batch.Requests,
		Summary: Summary{
			Requested: batch.Requested(),
			Found:     len(batch.Records),
			Missing:   len(batch.Missing),
			Warnings:  batch.WarningCount(),
		},
		Missing: batch.Missing,
		Records: batch.Records,
	}
}

// WriteYAML writes the batch report as YAML
func WriteYAML(w io.Writer, batch *models.Batch) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewReport(batch)); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return enc.Close()
}
