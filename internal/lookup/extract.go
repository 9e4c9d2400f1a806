package lookup

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON is returned when a response holds no parseable JSON value
var ErrNoJSON = errors.New("no JSON found in response")

// ExtractJSON returns the first JSON object embedded in text, tolerating
// markdown code fences and surrounding prose.
func ExtractJSON(text string) ([]byte, error) {
	return extract(text, '{', '}')
}

// ExtractJSONArray is ExtractJSON for a top-level array
func ExtractJSONArray(text string) ([]byte, error) {
	return extract(text, '[', ']')
}

func extract(text string, open, close byte) ([]byte, error) {
	text = stripFences(text)

	for start := strings.IndexByte(text, open); start >= 0; {
		if end := matchingClose(text[start:], open, close); end > 0 {
			candidate := text[start : start+end+1]
			if json.Valid([]byte(candidate)) {
				return []byte(candidate), nil
			}
		}
		next := strings.IndexByte(text[start+1:], open)
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, ErrNoJSON
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		// drop the language tag on the fence line
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 && !strings.ContainsAny(rest[:nl], "{[") {
			rest = rest[nl+1:]
		}
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		return strings.TrimSpace(rest)
	}
	return text
}

// matchingClose returns the index of the bracket closing s[0], skipping
// brackets inside string literals, or -1.
func matchingClose(s string, open, close byte) int {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
