// Package guide implements the learner-mode guidance engine: it decomposes a
// reference solution into typing steps, tracks a live code buffer against
// them, and locates where on screen the learner's attention should go.
package guide

import (
	"strings"
	"unicode"
)

// Normalize strips all whitespace from s, producing the canonical form used
// for containment checks. The result is never shown to the learner and never
// written back to the buffer.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
