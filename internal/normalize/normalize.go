// Package normalize canonicalizes free-text merchant names and addresses
// so that the similarity scorers compare like with like.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/bbalet/stopwords"
	"github.com/kljensen/snowball"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// abbreviations maps common address abbreviations to their expanded form.
// Expansion happens on whole words only, before punctuation is stripped,
// so "St." and "St" both become "street".
var abbreviations = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`\bst\b`), "street"},
	{regexp.MustCompile(`\bave\b`), "avenue"},
	{regexp.MustCompile(`\brd\b`), "road"},
	{regexp.MustCompile(`\bdr\b`), "drive"},
	{regexp.MustCompile(`\bblvd\b`), "boulevard"},
	{regexp.MustCompile(`\bapt\b`), "apartment"},
	{regexp.MustCompile(`\bste\b`), "suite"},
	{regexp.MustCompile(`\bfl\b`), "floor"},
	{regexp.MustCompile(`\bn\b`), "north"},
	{regexp.MustCompile(`\bs\b`), "south"},
	{regexp.MustCompile(`\be\b`), "east"},
	{regexp.MustCompile(`\bw\b`), "west"},
}

var (
	punctuation = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	whitespace  = regexp.MustCompile(`\s+`)

	// diacritics decomposes accented characters and drops the combining marks.
	diacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Address normalizes an address for comparison: lower-case, expanded
// abbreviations, punctuation and repeated whitespace collapsed. Empty input
// normalizes to the empty string, which callers must treat as "no data".
func Address(address string) string {
	if address == "" {
		return ""
	}

	normalized := strings.ToLower(address)

	for _, abbrev := range abbreviations {
		normalized = abbrev.pattern.ReplaceAllString(normalized, abbrev.replacement)
	}

	normalized = punctuation.ReplaceAllString(normalized, " ")
	normalized = whitespace.ReplaceAllString(normalized, " ")

	return strings.TrimSpace(normalized)
}

// Name normalizes a business name for comparison: lower-case, diacritics
// stripped, punctuation and repeated whitespace collapsed.
func Name(name string) string {
	if name == "" {
		return ""
	}

	normalized := strings.ToLower(name)
	normalized = StripDiacritics(normalized)
	normalized = punctuation.ReplaceAllString(normalized, " ")
	normalized = whitespace.ReplaceAllString(normalized, " ")

	return strings.TrimSpace(normalized)
}

// StripDiacritics removes combining marks, mapping e.g. "São" to "Sao".
// Input that cannot be transformed is returned unchanged.
func StripDiacritics(text string) string {
	stripped, _, err := transform.String(diacritics, text)
	if err != nil {
		return text
	}
	return stripped
}

// Keywords extracts the salient search tokens of a free-text query: the
// normalized tokens with stop words removed. Tokens keep their surface form
// so the result can be sent verbatim to a third-party text search.
func Keywords(text string) []string {
	cleaned := stopwords.CleanString(Name(text), "en", false)
	return strings.Fields(cleaned)
}

// Stems reduces text to a set of stemmed keyword tokens for local relevance
// matching. Never used for outbound queries or similarity scoring.
func Stems(text string) map[string]bool {
	stems := make(map[string]bool)
	for _, token := range Keywords(text) {
		stemmed, err := snowball.Stem(token, "english", true)
		if err == nil && stemmed != "" {
			token = stemmed
		}
		stems[token] = true
	}
	return stems
}
