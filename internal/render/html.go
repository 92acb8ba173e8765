package render

import (
	"fmt"
	"regexp"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/KaramelBytes/quickeda-cli/internal/analysis"
)

var sectionRe = regexp.MustCompile(`(?m)^\[([A-Z][^\]\n]*)\]$`)

// HTMLReport renders the Markdown report as a complete HTML page. Bracketed
// section markers become headings so the page has an outline.
func HTMLReport(s *analysis.Summary, opt Options) []byte {
	md := MarkdownReport(s, opt)
	md = sectionRe.ReplaceAllString(md, "## $1\n")
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs | parser.HardLineBreak)
	title := "quickeda report"
	if s.Source != "" {
		title = fmt.Sprintf("quickeda report: %s", s.Source)
	}
	r := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: title,
	})
	return markdown.ToHTML([]byte(md), p, r)
}
