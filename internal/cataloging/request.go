package cataloging

import (
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/mangacat/internal/models"
	"github.com/lehigh-university-libraries/mangacat/internal/volumes"
)

// ParseRequest turns "Series Name=1-5,7" into a SeriesRequest. The series
// name may itself contain '=' only before the last one.
func ParseRequest(entry string) (models.SeriesRequest, error) {
	i := strings.LastIndex(entry, "=")
	if i < 0 {
		return models.SeriesRequest{}, fmt.Errorf("invalid series entry %q (expected \"Series=1-5,7\")", entry)
	}
	return NewRequest(entry[:i], entry[i+1:])
}

// NewRequest parses a volume list for one series
func NewRequest(series, volumeList string) (models.SeriesRequest, error) {
	series = strings.TrimSpace(series)
	if series == "" {
		return models.SeriesRequest{}, fmt.Errorf("series name is required")
	}
	vols, err := volumes.Parse(volumeList)
	if err != nil {
		return models.SeriesRequest{}, fmt.Errorf("%s: %w", series, err)
	}
	return models.SeriesRequest{Series: series, Volumes: vols}, nil
}

// ParseRequests parses every entry. A bad entry is reported without
// dropping the entries that did parse.
func ParseRequests(entries []string) ([]models.SeriesRequest, []error) {
	var (
		requests []models.SeriesRequest
		errs     []error
	)
	for _, entry := range entries {
		req, err := ParseRequest(entry)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		requests = append(requests, req)
	}
	return requests, errs
}

// Query renders requests the way they are written in the interaction log
func Query(requests []models.SeriesRequest) string {
	parts := make([]string, 0, len(requests))
	for _, req := range requests {
		parts = append(parts, fmt.Sprintf("%s %s", req.Series, formatVolumes(req.Volumes)))
	}
	return strings.Join(parts, "; ")
}

// formatVolumes collapses a sorted volume list back into ranges
func formatVolumes(vols []int) string {
	var parts []string
	for i := 0; i < len(vols); {
		j := i
		for j+1 < len(vols) && vols[j+1] == vols[j]+1 {
			j++
		}
		if i == j {
			parts = append(parts, fmt.Sprint(vols[i]))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", vols[i], vols[j]))
		}
		i = j + 1
	}
	return strings.Join(parts, ",")
}
