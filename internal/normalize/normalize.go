// Package normalize turns loosely typed model output for one manga volume
// into a CatalogRecord, recording every degradation as a warning.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/mangacat/internal/models"
)

const (
	DefaultMSRPFloor   = 10.0
	DefaultMSRPCeiling = 30.0

	WarnNoMSRP          = "No MSRP found"
	WarnInvalidMSRP     = "Invalid MSRP format"
	WarnNoCopyrightYear = "Could not extract valid copyright year"
)

// ErrMalformedInput is returned when the raw payload is not a JSON object or
// the volume context is unusable.
var ErrMalformedInput = errors.New("malformed metadata input")

var yearPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:19|20)\d{2}\b`),
	regexp.MustCompile(`\b\d{4}\b`),
}

// Normalizer validates raw metadata objects. It is safe for concurrent use.
type Normalizer struct {
	MSRPFloor   float64
	MSRPCeiling float64
	Now         func() time.Time
}

// New returns a Normalizer with the default MSRP bounds
func New() *Normalizer {
	return &Normalizer{
		MSRPFloor:   DefaultMSRPFloor,
		MSRPCeiling: DefaultMSRPCeiling,
		Now:         time.Now,
	}
}

// NormalizeJSON decodes a JSON object and normalizes it
func (n *Normalizer) NormalizeJSON(data []byte, series string, volume int) (models.CatalogRecord, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.CatalogRecord{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return n.Normalize(raw, series, volume)
}

// Normalize produces a CatalogRecord from a decoded JSON object. series is
// used only when the payload carries no series name of its own.
func (n *Normalizer) Normalize(raw any, series string, volume int) (models.CatalogRecord, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return models.CatalogRecord{}, fmt.Errorf("%w: expected JSON object, got %T", ErrMalformedInput, raw)
	}
	if volume <= 0 {
		return models.CatalogRecord{}, fmt.Errorf("%w: volume number must be positive, got %d", ErrMalformedInput, volume)
	}

	var warnings []string
	warn := func(msg string) { warnings = append(warnings, msg) }

	rawSeries := strings.TrimSpace(toText(obj["series_name"]))
	if rawSeries == "" {
		rawSeries = strings.TrimSpace(series)
	}
	rawTitle := strings.TrimSpace(toText(obj["book_title"]))
	if rawTitle == "" {
		rawTitle = fmt.Sprintf("%s (Volume %d)", rawSeries, volume)
	}

	seriesName := ShiftArticle(rawSeries)
	bookTitle := IncludeSeries(seriesName, ShiftArticle(rawTitle))

	record := models.CatalogRecord{
		SeriesName:          seriesName,
		VolumeNumber:        volume,
		BookTitle:           bookTitle,
		Authors:             normalizeAuthors(obj["authors"]),
		MSRPCost:            n.normalizeMSRP(obj["msrp_cost"], warn),
		ISBN13:              strings.TrimSpace(toText(obj["isbn_13"])),
		PublisherName:       strings.TrimSpace(toText(obj["publisher_name"])),
		CopyrightYear:       n.normalizeYear(obj["copyright_year"], warn),
		Description:         toText(obj["description"]),
		PhysicalDescription: toText(obj["physical_description"]),
		Genres:              normalizeGenres(obj["genres"]),
	}
	record.Warnings = warnings
	if record.Warnings == nil {
		record.Warnings = []string{}
	}

	return record, nil
}

func normalizeAuthors(v any) []string {
	field := coerceTextOrList(v)
	switch {
	case !field.Present:
		return []string{}
	case field.IsList:
		authors := make([]string, 0, len(field.List))
		for _, a := range field.List {
			authors = append(authors, FormatAuthorName(a))
		}
		return authors
	default:
		authors := splitAuthorString(field.Text)
		if authors == nil {
			return []string{}
		}
		return authors
	}
}

func normalizeGenres(v any) []string {
	field := coerceTextOrList(v)
	switch {
	case !field.Present:
		return []string{}
	case field.IsList:
		return field.List
	default:
		return compact(strings.Split(field.Text, ","))
	}
}

func (n *Normalizer) normalizeMSRP(v any, warn func(string)) *float64 {
	if isBlank(v) {
		warn(WarnNoMSRP)
		return nil
	}
	price, ok := toFloat(v)
	if !ok {
		warn(WarnInvalidMSRP)
		return nil
	}

	switch {
	case price < n.MSRPFloor:
		warn(fmt.Sprintf("MSRP $%.2f is below minimum $%.2f (rounded up to $%.2f)", price, n.MSRPFloor, n.MSRPFloor))
		price = n.MSRPFloor
	case price > n.MSRPCeiling:
		warn(fmt.Sprintf("MSRP $%.2f exceeds typical maximum $%.2f", price, n.MSRPCeiling))
	}
	return &price
}

func (n *Normalizer) normalizeYear(v any, warn func(string)) *int {
	text := toText(v)
	maxYear := n.now().Year() + 1

	for _, pattern := range yearPatterns {
		match := pattern.FindString(text)
		if match == "" {
			continue
		}
		year, err := strconv.Atoi(match)
		if err == nil && year >= 1900 && year <= maxYear {
			return &year
		}
	}

	warn(WarnNoCopyrightYear)
	return nil
}

func (n *Normalizer) now() time.Time {
	if n.Now == nil {
		return time.Now()
	}
	return n.Now()
}
