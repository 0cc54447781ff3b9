package ui

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// completionMarkdown renders model replies. Raw HTML in a reply is dropped
// and dangerous link schemes are neutralised because WithUnsafe is not set.
var completionMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// renderMarkdown converts a completion to HTML. If conversion fails the
// text is shown escaped.
func renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := completionMarkdown.Convert([]byte(src), &buf); err != nil {
		return template.HTML("<p>" + template.HTMLEscapeString(src) + "</p>")
	}
	return template.HTML(buf.String())
}
