package normalize

import "strings"

var leadingArticles = map[string]bool{"the": true, "a": true, "an": true}

// ShiftArticle moves a leading "The", "A" or "An" to the end of a title for
// catalog sort order: "The Last of the Mohicans" becomes
// "Last of the Mohicans, The". Titles without a leading article, or made of
// the article alone, are returned unchanged.
func ShiftArticle(title string) string {
	words := strings.Fields(title)
	if len(words) < 2 || !leadingArticles[strings.ToLower(words[0])] {
		return title
	}
	article := strings.ToUpper(words[0][:1]) + strings.ToLower(words[0][1:])
	return strings.Join(words[1:], " ") + ", " + article
}

// IncludeSeries prefixes the title with the series name unless the title
// already mentions it (case-insensitive).
func IncludeSeries(series, title string) string {
	if strings.Contains(strings.ToLower(title), strings.ToLower(series)) {
		return title
	}
	if strings.TrimSpace(title) == "" {
		return series
	}
	return series + ": " + title
}
