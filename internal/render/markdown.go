package render

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/quickeda-cli/internal/analysis"
	"github.com/KaramelBytes/quickeda-cli/internal/result"
	"github.com/KaramelBytes/quickeda-cli/internal/table"
)

var numericColumns = []string{
	analysis.StatCount, analysis.StatUnique, analysis.StatMean, analysis.StatStd, analysis.StatMin,
	analysis.StatQ25, analysis.StatMedian, analysis.StatQ75, analysis.StatMax,
	analysis.StatSkew, analysis.StatKurtosis, analysis.StatNormalityP, analysis.StatOutliers,
}

// MarkdownReport renders the summary as bracketed Markdown sections.
func MarkdownReport(s *analysis.Summary, opt Options) string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if s.Source != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", s.Source))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", s.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(s.Schema)))
	if s.Target != "" {
		b.WriteString(fmt.Sprintf("Target: %s\n", s.Target))
	}
	b.WriteString(fmt.Sprintf("Run: %s\n\n", s.ID))

	b.WriteString("[SCHEMA]\n")
	for _, c := range s.Schema {
		name := safeName(c.Name)
		if c.Unit != "" {
			name = fmt.Sprintf("%s [%s]", name, c.Unit)
		}
		missPct := 0.0
		if s.Rows > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(s.Rows)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)\n", name, c.Kind, s.Rows-c.Missing, missPct))
	}

	if s.Univariate != nil {
		writeUnivariate(&b, s.Univariate, opt)
	}
	if s.Bivariate != nil {
		writeBivariate(&b, s.Bivariate)
	}
	if mv := s.Multivariate; mv != nil {
		if mv.VIF != nil {
			writeVIF(&b, mv.VIF)
		}
		if mv.Selection != nil {
			writeSelection(&b, mv.Selection)
		}
		if mv.Model != nil {
			writeModel(&b, mv.Model)
		}
	}
	writePlots(&b, s, opt)
	if len(s.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range s.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeUnivariate(b *strings.Builder, rep *analysis.Report, opt Options) {
	numeric, other := rep.Split()
	if len(numeric) > 0 {
		b.WriteString("\n[NUMERIC SUMMARY]\n")
		b.WriteString("| column | " + strings.Join(numericColumns, " | ") + " |\n")
		b.WriteString("|---" + strings.Repeat("|---", len(numericColumns)) + "|\n")
		for _, e := range numeric {
			b.WriteString("| " + safeVal(e.Result.Column()))
			for _, stat := range numericColumns {
				b.WriteString(" | " + e.Result.Format(stat))
			}
			b.WriteString(" |\n")
		}
	}
	var cats, dates, unknown []result.StatResult
	for _, e := range other {
		switch e.Result.Kind() {
		case table.Categorical, table.Boolean:
			cats = append(cats, e.Result)
		case table.Datetime:
			dates = append(dates, e.Result)
		default:
			unknown = append(unknown, e.Result)
		}
	}
	if len(cats) > 0 {
		b.WriteString("\n[CATEGORICAL SUMMARY]\n")
		for _, r := range cats {
			b.WriteString(fmt.Sprintf("- %s: %s, unique=%s, mode=%s; top: ", safeName(r.Column()), r.Kind(),
				r.Format(analysis.StatUnique), safeVal(r.Format(analysis.StatMode))))
			freqs := r.Frequencies()
			if opt.MaxCategories > 0 && len(freqs) > opt.MaxCategories {
				freqs = freqs[:opt.MaxCategories]
			}
			for i, f := range freqs {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d, %.1f%%)", safeVal(f.Value), f.Count, f.Share*100))
			}
			b.WriteString("\n")
		}
	}
	if len(dates) > 0 {
		b.WriteString("\n[DATETIME SUMMARY]\n")
		for _, r := range dates {
			if !r.Has(analysis.StatMin) {
				b.WriteString(fmt.Sprintf("- %s: no parseable timestamps\n", safeName(r.Column())))
				continue
			}
			b.WriteString(fmt.Sprintf("- %s: %s .. %s (span %s, granularity %s)\n", safeName(r.Column()),
				r.Format(analysis.StatMin), r.Format(analysis.StatMax),
				r.Format(analysis.StatSpan), r.Format(analysis.StatGranular)))
		}
	}
	if len(unknown) > 0 {
		b.WriteString("\n[EMPTY COLUMNS]\n")
		for _, r := range unknown {
			b.WriteString(fmt.Sprintf("- %s\n", safeName(r.Column())))
		}
	}
}

func writeBivariate(b *strings.Builder, rep *analysis.Report) {
	b.WriteString(fmt.Sprintf("\n[RELATIONSHIPS WITH %s]\n", safeName(rep.Target)))
	for _, e := range rep.Entries {
		r := e.Result
		cols := r.Columns()
		b.WriteString(fmt.Sprintf("- %s ~ %s: ", safeName(cols[0]), safeName(rep.Target)))
		if r.Marker() != result.Computed {
			b.WriteString(strings.Join(r.Annotations(), "; ") + "\n")
			continue
		}
		switch r.Test() {
		case analysis.TestPearson:
			b.WriteString(fmt.Sprintf("r=%s (p=%s), slope %s, intercept %s, R²=%s, Breusch-Pagan p=%s, White p=%s\n",
				r.Format(analysis.StatR), r.Format(analysis.StatPValue), r.Format(analysis.StatSlope),
				r.Format(analysis.StatIntercept), r.Format(analysis.StatRSquared), r.Format(analysis.StatBPPValue),
				r.Format(analysis.StatWhiteP)))
		case analysis.TestANOVA:
			b.WriteString(fmt.Sprintf("ANOVA F=%s (p=%s) over %s groups\n",
				r.Format(analysis.StatF), r.Format(analysis.StatPValue), r.Format(analysis.StatGroups)))
			for _, g := range r.Groups() {
				b.WriteString(fmt.Sprintf("  • %s (n=%d): mean %s, std %s\n", safeVal(g.Name), g.N,
					result.FormatNum(g.Mean), result.FormatNum(g.Std)))
			}
			for _, c := range r.Comparisons() {
				if c.Significant {
					b.WriteString(fmt.Sprintf("  • %s vs %s differ: t=%s, p=%s < %s\n", safeVal(c.A), safeVal(c.B),
						result.FormatNum(c.T), result.FormatNum(c.PValue), result.FormatNum(c.Threshold)))
				}
			}
		case analysis.TestChiSquare:
			b.WriteString(fmt.Sprintf("chi²=%s (dof %s, p=%s), Cramér's V=%s\n",
				r.Format(analysis.StatChi2), r.Format(analysis.StatDOF), r.Format(analysis.StatPValue),
				r.Format(analysis.StatCramersV)))
		default:
			b.WriteString(strings.Join(r.Annotations(), ", ") + "\n")
		}
	}
}

func writeVIF(b *strings.Builder, rep *analysis.Report) {
	b.WriteString("\n[MULTICOLLINEARITY]\n")
	for _, e := range rep.Entries {
		r := e.Result
		if r.Marker() != result.Computed {
			b.WriteString(fmt.Sprintf("- %s: %s\n", safeName(r.Column()), strings.Join(r.Annotations(), "; ")))
			continue
		}
		b.WriteString(fmt.Sprintf("- %s: VIF=%s (R²=%s, n=%s)\n", safeName(r.Column()),
			r.Format(analysis.StatVIF), r.Format(analysis.StatRSquared), r.Format(analysis.StatN)))
	}
}

func writeSelection(b *strings.Builder, sel *analysis.Selection) {
	b.WriteString("\n[STEPWISE SELECTION]\n")
	b.WriteString(fmt.Sprintf("Direction: %s, criterion: %s, rows: %d\n", sel.Direction, sel.Criterion, sel.Rows))
	b.WriteString(fmt.Sprintf("Selected: %s\n", listOrNone(sel.Features)))
	if len(sel.Excluded) > 0 {
		b.WriteString(fmt.Sprintf("Excluded (non-numeric): %s\n", strings.Join(sel.Excluded, ", ")))
	}
	for _, st := range sel.History {
		what := st.Action
		if st.Feature != "" {
			what += " " + st.Feature
		}
		b.WriteString(fmt.Sprintf("%d. %s -> [%s] score=%s\n", st.Index, what,
			strings.Join(st.Features, ", "), result.FormatNum(st.Score)))
	}
}

func writeModel(b *strings.Builder, m *analysis.ModelSummary) {
	b.WriteString(fmt.Sprintf("\n[MODEL: %s]\n", safeName(m.Target)))
	b.WriteString("| term | estimate | std err | t | p |\n|---|---|---|---|---|\n")
	for _, c := range m.Coefficients {
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n", safeVal(c.Name), result.FormatNum(c.Estimate),
			result.FormatNum(c.StdErr), result.FormatNum(c.T), result.FormatNum(c.PValue)))
	}
	b.WriteString(fmt.Sprintf("n=%d, R²=%s, adj R²=%s, F=%s (p=%s), AIC=%s, BIC=%s\n", m.N,
		result.FormatNum(m.R2), result.FormatNum(m.AdjR2), result.FormatNum(m.F), result.FormatNum(m.FPValue),
		result.FormatNum(m.AIC), result.FormatNum(m.BIC)))
}

func writePlots(b *strings.Builder, s *analysis.Summary, opt Options) {
	var lines []string
	for _, rep := range []*analysis.Report{s.Univariate, s.Bivariate} {
		if rep == nil {
			continue
		}
		for _, h := range rep.Plots() {
			line := fmt.Sprintf("- %s (%s, %s)", h.Title, h.Kind, h.Backend)
			if p, ok := opt.PlotPaths[h.ID]; ok {
				line = fmt.Sprintf("- [%s](%s) (%s, %s)", h.Title, p, h.Kind, h.Backend)
			}
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return
	}
	b.WriteString("\n[PLOTS]\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n")
}

func listOrNone(xs []string) string {
	if len(xs) == 0 {
		return "(none)"
	}
	return strings.Join(xs, ", ")
}
