package course

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

// RenderMarkdown converts lesson briefs and step explanations (GFM markdown)
// to HTML for the workspace. Rendering failures fall back to the raw text so
// a bad explanation never blocks the lesson.
func RenderMarkdown(text string) string {
	if text == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return text
	}
	return buf.String()
}
