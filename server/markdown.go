package server

import (
	"bytes"
	"html"

	"github.com/yuin/goldmark"

	"trpc.group/trpc-go/trpc-agent-go/log"
)

var insightsMarkdown = goldmark.New()

// renderInsightsHTML converts the insights Markdown to HTML for the
// browser. On conversion failure the raw text is escaped and returned
// as-is; insights must never break the response.
func renderInsightsHTML(src string) string {
	var buf bytes.Buffer
	if err := insightsMarkdown.Convert([]byte(src), &buf); err != nil {
		log.Warnf("server: markdown render failed: %v", err)
		return "<p>" + html.EscapeString(src) + "</p>"
	}
	return buf.String()
}
