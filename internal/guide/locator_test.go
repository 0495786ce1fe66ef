package guide

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsertLine(t *testing.T) {
	tests := []struct {
		name   string
		buffer string
		step   Step
		want   int
	}{
		{
			name:   "empty buffer inserts at top",
			buffer: "",
			step:   Step{Code: "<h1>Hi</h1>"},
			want:   0,
		},
		{
			name:   "context anchor points after its line",
			buffer: "<body>\n<header>\n</body>",
			step:   Step{Code: "<h1>Hi</h1>", Context: "<header>"},
			want:   2,
		},
		{
			name:   "context is trimmed before searching",
			buffer: "<body>\n<header>\n</body>",
			step:   Step{Code: "<h1>Hi</h1>", Context: "  <header>  "},
			want:   2,
		},
		{
			name:   "missing context falls back to marker",
			buffer: "<body>\n  <!-- Write code here -->\n</body>",
			step:   Step{Code: "<h1>Hi</h1>", Context: "<nav>"},
			want:   1,
		},
		{
			name:   "marker line without context",
			buffer: "<body>\n  <!-- Write code here -->\n</body>",
			step:   Step{Code: "<h1>Hi</h1>"},
			want:   1,
		},
		{
			name:   "no anchor appends at end",
			buffer: "line one\nline two",
			step:   Step{Code: "line three"},
			want:   2,
		},
		{
			name:   "anchor on first line",
			buffer: "<ul>\n</ul>",
			step:   Step{Code: "<li>a</li>", Context: "<ul>"},
			want:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InsertLine(tt.buffer, tt.step))
		})
	}
}

func TestScrollOffset(t *testing.T) {
	tests := []struct {
		name                                          string
		lineIndex, lineHeight, topPadding, viewportHeight, want int
	}{
		{"clamps to zero near top", 10, 24, 24, 600, 0},
		{"centers deep lines", 50, 24, 24, 600, 924},
		{"line zero", 0, 24, 24, 600, 0},
		{"zero viewport", 10, 24, 0, 0, 240},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScrollOffset(tt.lineIndex, tt.lineHeight, tt.topPadding, tt.viewportHeight)
			assert.Equal(t, tt.want, got)
		})
	}
}
