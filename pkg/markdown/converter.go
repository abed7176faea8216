package markdown

import (
	"strings"

	"github.com/russross/blackfriday/v2"
)

// ToHTML converts a markdown reply to an HTML fragment. Raw HTML in the
// source is dropped rather than passed through.
func ToHTML(markdown string) string {
	if strings.TrimSpace(markdown) == "" {
		return ""
	}

	// The renderer keeps per-document state, so each call gets its own
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.CommonHTMLFlags | blackfriday.SkipHTML,
	})

	html := blackfriday.Run([]byte(markdown),
		blackfriday.WithExtensions(blackfriday.CommonExtensions),
		blackfriday.WithRenderer(renderer),
	)

	return strings.TrimSpace(string(html))
}
