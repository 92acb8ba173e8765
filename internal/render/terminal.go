package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/KaramelBytes/quickeda-cli/internal/analysis"
	"github.com/KaramelBytes/quickeda-cli/internal/result"
	"github.com/KaramelBytes/quickeda-cli/internal/table"
	"github.com/KaramelBytes/quickeda-cli/internal/viz"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	sectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true).MarginTop(1)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	goodStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

// sketchBins is the histogram resolution of terminal distribution sketches.
const sketchBins = 24

// TerminalReport renders a styled overview with a distribution sketch per
// numeric column when opt.Table is set.
func TerminalReport(s *analysis.Summary, opt Options) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("quickeda: %s", safeName(s.Source))))
	b.WriteString("\n")
	b.WriteString(kv("rows", fmt.Sprint(s.Rows)))
	b.WriteString(kv("columns", fmt.Sprint(len(s.Schema))))
	if s.Target != "" {
		b.WriteString(kv("target", s.Target))
	}
	b.WriteString(kv("backend", s.Backend))

	if s.Univariate != nil {
		b.WriteString(sectionStyle.Render("Columns"))
		b.WriteString("\n")
		for _, e := range s.Univariate.Entries {
			r := e.Result
			b.WriteString(labelStyle.Render(truncate(r.Column(), 13)))
			b.WriteString(dimStyle.Render(fmt.Sprintf("%-12s", r.Kind())))
			b.WriteString(valueStyle.Render(columnLine(r)))
			b.WriteString("\n")
			if r.Kind() == table.Numeric && opt.Table != nil {
				if sk := sketch(opt.Table, r.Column()); sk != "" {
					b.WriteString(dimStyle.Render(sk))
					b.WriteString("\n")
				}
			}
		}
	}
	if s.Bivariate != nil {
		b.WriteString(sectionStyle.Render("Against " + s.Target))
		b.WriteString("\n")
		for _, e := range s.Bivariate.Entries {
			r := e.Result
			b.WriteString(labelStyle.Render(truncate(r.Column(), 13)))
			if r.Marker() != result.Computed {
				b.WriteString(warnStyle.Render(strings.Join(r.Annotations(), "; ")))
				b.WriteString("\n")
				continue
			}
			line := fmt.Sprintf("%-11s p=%s", r.Test(), r.Format(analysis.StatPValue))
			if p, ok := r.Num(analysis.StatPValue); ok && p < analysis.DefaultAlpha {
				b.WriteString(goodStyle.Render(line))
			} else {
				b.WriteString(valueStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}
	if mv := s.Multivariate; mv != nil {
		if mv.VIF != nil {
			b.WriteString(sectionStyle.Render("VIF"))
			b.WriteString("\n")
			for _, e := range mv.VIF.Entries {
				r := e.Result
				if r.Marker() != result.Computed {
					b.WriteString(labelStyle.Render(truncate(r.Column(), 13)) + dimStyle.Render(string(r.Marker())) + "\n")
					continue
				}
				v, _ := r.Num(analysis.StatVIF)
				style := valueStyle
				if v > 10 || math.IsInf(v, 1) {
					style = warnStyle
				}
				b.WriteString(labelStyle.Render(truncate(r.Column(), 13)) + style.Render(result.FormatNum(v)) + "\n")
			}
		}
		if mv.Selection != nil {
			b.WriteString(sectionStyle.Render("Stepwise"))
			b.WriteString("\n")
			b.WriteString(kv("selected", listOrNone(mv.Selection.Features)))
			b.WriteString(kv("steps", fmt.Sprint(len(mv.Selection.History)-1)))
		}
		if mv.Model != nil {
			b.WriteString(kv("R²", result.FormatNum(mv.Model.R2)))
			b.WriteString(kv("AIC", result.FormatNum(mv.Model.AIC)))
		}
	}
	for _, w := range s.Warnings {
		b.WriteString(warnStyle.Render("⚠ " + w))
		b.WriteString("\n")
	}
	return b.String()
}

func kv(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
}

func columnLine(r result.StatResult) string {
	switch r.Kind() {
	case table.Numeric:
		return fmt.Sprintf("mean %s  std %s  min %s  max %s  skew %s",
			r.Format(analysis.StatMean), r.Format(analysis.StatStd), r.Format(analysis.StatMin),
			r.Format(analysis.StatMax), r.Format(analysis.StatSkew))
	case table.Categorical, table.Boolean:
		return fmt.Sprintf("unique %s  mode %s", r.Format(analysis.StatUnique), truncate(r.Format(analysis.StatMode), 24))
	case table.Datetime:
		if !r.Has(analysis.StatMin) {
			return "no timestamps"
		}
		return fmt.Sprintf("%s .. %s  (%s)", r.Format(analysis.StatMin), r.Format(analysis.StatMax), r.Format(analysis.StatGranular))
	}
	return fmt.Sprintf("missing %s", r.Format(analysis.StatMissing))
}

// sketch draws a histogram of the column as an ASCII line graph.
func sketch(t *table.Table, name string) string {
	col, ok := t.Column(name)
	if !ok {
		return ""
	}
	bins := viz.Binned(col.Floats(), sketchBins)
	if len(bins) < 2 {
		return ""
	}
	counts := make([]float64, len(bins))
	for i, bn := range bins {
		counts[i] = float64(bn.Count)
	}
	caption := fmt.Sprintf("%s: %s .. %s", name, result.FormatNum(bins[0].Lo), result.FormatNum(bins[len(bins)-1].Hi))
	return asciigraph.Plot(counts,
		asciigraph.Height(6),
		asciigraph.Width(60),
		asciigraph.Caption(caption),
	)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
