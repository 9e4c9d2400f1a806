package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// textOrList is a loosely typed upstream field that may arrive either as a
// single string or as a list of strings.
type textOrList struct {
	Present bool
	IsList  bool
	Text    string
	List    []string
}

func coerceTextOrList(v any) textOrList {
	switch val := v.(type) {
	case nil:
		return textOrList{}
	case string:
		return textOrList{Present: true, Text: val}
	case []string:
		return textOrList{Present: true, IsList: true, List: compact(val)}
	case []any:
		list := make([]string, 0, len(val))
		for _, item := range val {
			if item == nil {
				continue
			}
			list = append(list, toText(item))
		}
		return textOrList{Present: true, IsList: true, List: compact(list)}
	default:
		return textOrList{Present: true, Text: toText(val)}
	}
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// toText renders a scalar JSON value as text. Whole numbers are rendered
// without a fractional part so ISBNs and years survive numeric encoding.
func toText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// toFloat coerces a price-like value. The second return is false when the
// value is present but cannot be read as a finite number.
func toFloat(v any) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(val)
		s = strings.TrimPrefix(s, "$")
		s = strings.TrimSpace(strings.TrimSuffix(s, "USD"))
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
