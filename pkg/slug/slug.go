package slug

import (
	"regexp"
	"strings"
)

// separatorRegexp matches runs of whitespace and apostrophes.
var separatorRegexp = regexp.MustCompile(`[\s\v\x{0085}\p{Z}']+`)

// Normalize turns free text into a product slug: surrounding whitespace is
// trimmed, the text is lowercased and every run of whitespace or apostrophes
// becomes a single dash. All other characters are kept as they are.
//
// Normalize is idempotent.
//
// Examples:
//   - "Men's Chill Crew Neck" → "men-s-chill-crew-neck"
//   - "  Kids   Tee " → "kids-tee"
//   - "kids-tee" → "kids-tee"
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return separatorRegexp.ReplaceAllString(s, "-")
}
