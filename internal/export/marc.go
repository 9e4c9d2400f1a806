package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/lehigh-university-libraries/mangacat/internal/marc"
	"github.com/lehigh-university-libraries/mangacat/internal/models"
)

// BuildMARC converts every record, failing with all rejected records listed
// when any lacks a title or barcode.
func BuildMARC(records []models.CatalogRecord, builder *marc.Builder) ([]*marc.Record, error) {
	if builder == nil {
		builder = marc.NewBuilder()
	}

	out := make([]*marc.Record, 0, len(records))
	var errs []error
	for _, rec := range records {
		r, err := builder.Build(rec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, r)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("rejected %d of %d records: %w", len(errs), len(records), errors.Join(errs...))
	}
	return out, nil
}

// WriteMARC writes records as ISO 2709
func WriteMARC(w io.Writer, records []models.CatalogRecord, builder *marc.Builder) error {
	built, err := BuildMARC(records, builder)
	if err != nil {
		return err
	}
	for _, r := range built {
		data, err := r.Marshal()
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("failed to write MARC record: %w", err)
		}
	}
	return nil
}

// WriteMnemonic writes records as mnemonic text separated by blank lines
func WriteMnemonic(w io.Writer, records []models.CatalogRecord, builder *marc.Builder) error {
	built, err := BuildMARC(records, builder)
	if err != nil {
		return err
	}
	for i, r := range built {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, r.Mnemonic()); err != nil {
			return fmt.Errorf("failed to write MARC record: %w", err)
		}
	}
	return nil
}
