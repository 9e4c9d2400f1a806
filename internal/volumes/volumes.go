// Package volumes parses human-entered volume lists such as "1-5,7,10" or
// the omnibus form "17-18-19" into a flat, sorted list of volume numbers.
package volumes

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// MaxRangeSpan is the largest number of volumes a single "a-b" range may cover
const MaxRangeSpan = 10000

// ParseError reports a segment of a volume list that could not be parsed
type ParseError struct {
	Input   string
	Segment string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid volume segment %q in %q: %v", e.Segment, e.Input, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse turns a comma separated list of volumes, ranges and omnibus groups
// into a deduplicated, ascending list of volume numbers.
//
// A reversed range such as "5-1" contributes no volumes.
func Parse(input string) ([]int, error) {
	seen := make(map[int]struct{})

	for _, segment := range strings.Split(input, ",") {
		segment = strings.TrimSpace(segment)

		values, err := parseSegment(segment)
		if err != nil {
			return nil, &ParseError{Input: input, Segment: segment, Err: err}
		}
		for _, v := range values {
			seen[v] = struct{}{}
		}
	}

	result := make([]int, 0, len(seen))
	for v := range seen {
		result = append(result, v)
	}
	slices.Sort(result)

	return result, nil
}

func parseSegment(segment string) ([]int, error) {
	parts := strings.Split(segment, "-")

	switch len(parts) {
	case 1:
		n, err := parseNumber(parts[0])
		if err != nil {
			return nil, err
		}
		return []int{n}, nil
	case 2:
		start, err := parseNumber(parts[0])
		if err != nil {
			return nil, err
		}
		end, err := parseNumber(parts[1])
		if err != nil {
			return nil, err
		}
		if end >= start && end-start >= MaxRangeSpan {
			return nil, fmt.Errorf("range covers more than %d volumes", MaxRangeSpan)
		}
		var values []int
		for v := start; v <= end; v++ {
			values = append(values, v)
		}
		return values, nil
	default:
		// omnibus: one physical book holding several logical volumes
		values := make([]int, 0, len(parts))
		for _, p := range parts {
			n, err := parseNumber(p)
			if err != nil {
				return nil, err
			}
			values = append(values, n)
		}
		return values, nil
	}
}

func parseNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("not a volume number: %q", s)
	}
	return n, nil
}
