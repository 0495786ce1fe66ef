package guide

import "strings"

// InsertionMarker is the placeholder a lesson's starting code may contain to
// mark where guided code belongs. The locator treats it as an opaque anchor
// string with no understanding of the surrounding language.
const InsertionMarker = "<!-- Write code here -->"

// InsertLine computes the line the guidance UI should point at for the given
// step, counting from zero. The search chain is: the step's context anchor,
// then the insertion marker, then the end of the buffer. Anchor searches are
// leftmost literal substring matches.
func InsertLine(buffer string, step Step) int {
	if buffer == "" {
		return 0
	}

	if ctx := strings.TrimSpace(step.Context); ctx != "" {
		if idx := strings.Index(buffer, ctx); idx >= 0 {
			// Point at the line after the one containing the end of
			// the anchor.
			return strings.Count(buffer[:idx+len(ctx)], "\n") + 1
		}
	}

	if idx := strings.Index(buffer, InsertionMarker); idx >= 0 {
		// Point at the line containing the marker itself.
		return strings.Count(buffer[:idx], "\n")
	}

	return strings.Count(buffer, "\n") + 1
}

// ScrollOffset converts a line index into the pixel offset that centers the
// line in the viewport. Negative results clamp to zero so the caller can
// hand the value straight to the editing surface.
func ScrollOffset(lineIndex, lineHeight, topPadding, viewportHeight int) int {
	offset := topPadding + lineIndex*lineHeight - viewportHeight/2
	if offset < 0 {
		return 0
	}
	return offset
}
