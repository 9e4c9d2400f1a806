package lookup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// BuildPrompt renders the query sent to the collaborator for one volume.
// The text is also the cache fingerprint source, so any edit here
// invalidates every cached answer.
func BuildPrompt(series string, volume int) string {
	return fmt.Sprintf(`Perform grounded deep research for the manga series "%[1]s" volume %[2]d.
Provide comprehensive information in JSON format with the following fields:

Required fields:
- series_name: The official series name
- volume_number: %[2]d
- book_title: The specific title for this volume (append "(Volume %[2]d)")
- authors: List of authors/artists in "Last, First M." format
- msrp_cost: Manufacturer's Suggested Retail Price in USD
- isbn_13: ISBN-13 for paperback English edition (preferred) or other available edition
- publisher_name: Publisher of the English edition
- copyright_year: 4-digit copyright year
- description: Summary of the book's content and notable reviews
- physical_description: Physical characteristics (pages, dimensions, etc.)
- genres: List of genres/subjects

Format requirements:
- Shift leading articles to end ("The Last of the Mohicans" -> "Last of the Mohicans, The")
- Format author names as "Last, First M."
- Use authoritative sources where possible
- If information is unavailable, use best available data and note any gaps
- Return only valid JSON, no additional text

Example format:
{
  "series_name": "One Piece",
  "volume_number": 1,
  "book_title": "One Piece (Volume 1)",
  "authors": ["Oda, Eiichiro"],
  "msrp_cost": 9.99,
  "isbn_13": "9781569319017",
  "publisher_name": "VIZ Media LLC",
  "copyright_year": 2003,
  "description": "Monkey D. Luffy begins his journey...",
  "physical_description": "208 pages, 5 x 7.5 inches",
  "genres": ["Shonen", "Adventure", "Fantasy"]
}`, series, volume)
}

// BuildSuggestPrompt renders the series-name correction query
func BuildSuggestPrompt(name string) string {
	return fmt.Sprintf(`Given the manga series name "%[1]s", provide 3-5 corrected or alternative names
that are actual manga series.

If "%[1]s" is already a correct manga series name, include it as the first suggestion.
Only include actual manga series names, not unrelated popular series.
If "%[1]s" is misspelled or incomplete, provide the correct full name first.
Prioritize the main series over spinoffs, sequels, or adaptations.
Include recent and ongoing series, not just completed ones.

Return only the names as a JSON list, no additional text.

Example format: ["One Piece", "Naruto", "Bleach"]`, name)
}

// Fingerprint is the hex SHA-256 of the rendered prompt
func Fingerprint(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
