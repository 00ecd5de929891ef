package processor

import "strings"

// ExtractMainClaim returns the content up to, not including, the first
// period. Content without a period is returned whole.
func ExtractMainClaim(content string) string {
	claim, _, _ := strings.Cut(content, ".")
	return claim
}
