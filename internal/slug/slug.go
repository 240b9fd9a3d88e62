package slug

import "strings"

// Make derives a URL-safe slug from a display name. The name is lower-cased,
// whitespace runs collapse to a single hyphen, and anything outside
// [a-z0-9-] is dropped. Make is idempotent.
func Make(name string) string {
	joined := strings.Join(strings.Fields(strings.ToLower(name)), "-")

	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, joined)
}
