// Package taxid extracts and validates Brazilian company tax identifiers
// (CNPJ) embedded in free text.
package taxid

import "regexp"

var (
	// cnpjPattern matches the canonical grouped CNPJ format
	// XX.XXX.XXX/XXXX-XX with the separators optional.
	cnpjPattern = regexp.MustCompile(`\b\d{2}\.?\d{3}\.?\d{3}/?\d{4}-?\d{2}\b`)

	nonDigits = regexp.MustCompile(`[^0-9]`)
)

// Clean strips every non-digit character from a tax identifier.
func Clean(id string) string {
	if id == "" {
		return ""
	}
	return nonDigits.ReplaceAllString(id, "")
}

// IsValidFormat reports whether the digit-stripped identifier is exactly 14
// digits. No checksum validation is performed.
func IsValidFormat(id string) bool {
	return len(Clean(id)) == 14
}

// ExtractFromText scans text for a grouped CNPJ and returns the first
// candidate that cleans to 14 digits. The second return value is false when
// no identifier is present, which is not an error condition.
func ExtractFromText(text string) (string, bool) {
	if text == "" {
		return "", false
	}

	for _, match := range cnpjPattern.FindAllString(text, -1) {
		cleaned := Clean(match)
		if len(cleaned) == 14 {
			return cleaned, true
		}
	}

	return "", false
}
