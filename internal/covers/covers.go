// Package covers finds cover art for records that carry an ISBN-13.
package covers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Finder returns a cover image URL for an ISBN, or "" when none is known
type Finder interface {
	CoverURL(ctx context.Context, isbn string) (string, error)
}

// Chain asks each finder in turn and returns the first URL found
type Chain []Finder

// CoverURL implements Finder
func (c Chain) CoverURL(ctx context.Context, isbn string) (string, error) {
	var errs []error
	for _, f := range c {
		url, err := f.CoverURL(ctx, isbn)
		if err != nil {
			slog.Debug("Cover lookup failed", "isbn", isbn, "err", err)
			errs = append(errs, err)
			continue
		}
		if url != "" {
			return url, nil
		}
	}
	return "", errors.Join(errs...)
}

// CleanISBN removes hyphens and spaces
func CleanISBN(isbn string) string {
	return strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(isbn))
}

func validISBN(isbn string) error {
	if len(isbn) != 10 && len(isbn) != 13 {
		return fmt.Errorf("invalid ISBN %q", isbn)
	}
	for _, r := range isbn {
		if (r < '0' || r > '9') && r != 'X' && r != 'x' {
			return fmt.Errorf("invalid ISBN %q", isbn)
		}
	}
	return nil
}
