// Package render turns an analysis summary into Markdown, HTML, styled
// terminal text or JSON.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/quickeda-cli/internal/analysis"
	apperrors "github.com/KaramelBytes/quickeda-cli/internal/errors"
	"github.com/KaramelBytes/quickeda-cli/internal/table"
)

// Output formats.
const (
	Markdown = "md"
	HTML     = "html"
	Terminal = "terminal"
	JSON     = "json"
)

// Formats lists the accepted output formats.
var Formats = []string{Markdown, HTML, Terminal, JSON}

// Options carries what a renderer needs besides the summary.
type Options struct {
	// PlotPaths maps plot handle IDs to the files they were saved to.
	PlotPaths map[string]string
	// Table enables distribution sketches in terminal output.
	Table *table.Table
	// MaxCategories caps the frequency rows printed per column; 0 prints all.
	MaxCategories int
}

// CheckFormat rejects formats Write does not know.
func CheckFormat(format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case Markdown, "markdown", HTML, Terminal, JSON:
		return nil
	}
	return apperrors.Configuration("format", format, Formats)
}

// Write renders s in format to w.
func Write(w io.Writer, s *analysis.Summary, format string, opt Options) error {
	var out []byte
	switch strings.ToLower(strings.TrimSpace(format)) {
	case Markdown, "markdown":
		out = []byte(MarkdownReport(s, opt))
	case HTML:
		out = HTMLReport(s, opt)
	case Terminal:
		out = []byte(TerminalReport(s, opt))
	case JSON:
		b, err := JSONReport(s, opt)
		if err != nil {
			return err
		}
		out = append(b, '\n')
	default:
		return apperrors.Configuration("format", format, Formats)
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Ext is the file extension for a format.
func Ext(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case HTML:
		return ".html"
	case JSON:
		return ".json"
	case Terminal:
		return ".txt"
	}
	return ".md"
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
