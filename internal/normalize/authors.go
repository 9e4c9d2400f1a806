package normalize

import "strings"

// FormatAuthorName renders a single author name in "Last, First" order.
// Names already containing a comma, single names and hyphenated names pass
// through unchanged.
func FormatAuthorName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, ",") {
		return name
	}

	words := strings.Fields(name)
	switch {
	case len(words) == 1:
		return words[0]
	case strings.Contains(name, "-"):
		return name
	case len(words) == 2:
		return words[1] + ", " + words[0]
	default:
		return words[len(words)-1] + ", " + strings.Join(words[:len(words)-1], " ")
	}
}

// FormatAuthorsList joins formatted author names for display and export
func FormatAuthorsList(authors []string) string {
	formatted := make([]string, 0, len(authors))
	for _, a := range authors {
		if f := FormatAuthorName(a); f != "" {
			formatted = append(formatted, f)
		}
	}
	return strings.Join(formatted, "; ")
}

// Surname returns the family name of an author in "Last, First" or natural order
func Surname(author string) string {
	author = strings.TrimSpace(author)
	if i := strings.Index(author, ","); i >= 0 {
		return strings.TrimSpace(author[:i])
	}
	words := strings.Fields(author)
	if len(words) == 0 {
		return ""
	}
	return words[len(words)-1]
}

// splitAuthorString decides whether a comma-bearing author string is one
// "Last, First" name or several names joined by commas.
func splitAuthorString(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if !strings.Contains(s, ", ") {
		if strings.Contains(s, ",") {
			return splitAuthorPieces(s)
		}
		return []string{FormatAuthorName(s)}
	}

	parts := strings.Split(s, ", ")
	if len(parts) == 2 && wordCount(parts[0]) <= 2 && wordCount(parts[1]) <= 2 {
		return []string{s}
	}
	return splitAuthorPieces(s)
}

// splitAuthorPieces splits on commas. An even run of single-word pieces is
// read as consecutive "Last, First" pairs ("Oda, Eiichiro, Kishimoto, Masashi").
func splitAuthorPieces(s string) []string {
	var pieces []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			pieces = append(pieces, p)
		}
	}

	if len(pieces) > 0 && len(pieces)%2 == 0 && allSingleWords(pieces) {
		authors := make([]string, 0, len(pieces)/2)
		for i := 0; i < len(pieces); i += 2 {
			authors = append(authors, pieces[i]+", "+pieces[i+1])
		}
		return authors
	}

	authors := make([]string, 0, len(pieces))
	for _, p := range pieces {
		authors = append(authors, FormatAuthorName(p))
	}
	return authors
}

func allSingleWords(pieces []string) bool {
	for _, p := range pieces {
		if wordCount(p) != 1 {
			return false
		}
	}
	return true
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
