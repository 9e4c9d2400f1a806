// Package barcode assigns sequential inventory barcodes.
package barcode

import (
	"fmt"
	"regexp"
	"strconv"
)

var barcodePattern = regexp.MustCompile(`^([A-Za-z]*)([0-9]+)$`)

// FormatError reports a starting barcode that is not letters followed by digits
type FormatError struct {
	Barcode string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid barcode format: %q (expected letters followed by digits, e.g. T000001)", e.Barcode)
}

// Barcode is a starting barcode split into its alphabetic prefix and numeric field
type Barcode struct {
	Prefix string
	Number uint64
	Width  int
}

// Parse splits a barcode such as "T000001" into prefix, number and digit width
func Parse(s string) (Barcode, error) {
	m := barcodePattern.FindStringSubmatch(s)
	if m == nil {
		return Barcode{}, &FormatError{Barcode: s}
	}
	n, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil {
		return Barcode{}, &FormatError{Barcode: s}
	}
	return Barcode{Prefix: m[1], Number: n, Width: len(m[2])}, nil
}

// String renders the barcode, zero padded to its width
func (b Barcode) String() string {
	return fmt.Sprintf("%s%0*d", b.Prefix, b.Width, b.Number)
}

// Next returns the barcode offset by n. The numeric field may grow past the
// original width.
func (b Barcode) Next(n int) Barcode {
	b.Number += uint64(n)
	return b
}

// Assign produces count sequential barcodes beginning at start
func Assign(start string, count int) ([]string, error) {
	b, err := Parse(start)
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("barcode count must not be negative: %d", count)
	}

	barcodes := make([]string, 0, count)
	for i := 0; i < count; i++ {
		barcodes = append(barcodes, b.Next(i).String())
	}
	return barcodes, nil
}
