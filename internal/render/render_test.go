package render

import (
	"bytes"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/quickeda-cli/internal/analysis"
	apperrors "github.com/KaramelBytes/quickeda-cli/internal/errors"
	"github.com/KaramelBytes/quickeda-cli/internal/table"
)

func sampleTable(t *testing.T) *table.Table {
	t.Helper()
	tb, err := table.FromRecords(
		[]string{"dose (mg)", "response", "group", "const", "day"},
		[][]string{
			{"1", "2.1", "a", "5", "2024-01-01"},
			{"2", "3.9", "b", "5", "2024-01-02"},
			{"3", "6.2", "a", "5", "2024-01-03"},
			{"4", "8.1", "b", "5", "2024-01-04"},
			{"5", "9.8", "a", "5", ""},
			{"6", "12.2", "b", "5", "2024-01-06"},
		},
	)
	require.NoError(t, err)
	tb.Name = "trial.csv"
	return tb
}

func sampleSummary(t *testing.T, target string, plot bool) (*analysis.Summary, *table.Table) {
	t.Helper()
	tb := sampleTable(t)
	a, err := analysis.New(tb)
	require.NoError(t, err)
	opt := analysis.DefaultRunOptions()
	opt.Univariate.Plot = plot
	s, err := a.RunAll(target, opt)
	require.NoError(t, err)
	return s, tb
}

func TestMarkdownSections(t *testing.T) {
	s, _ := sampleSummary(t, "response", false)
	md := MarkdownReport(s, Options{})

	for _, sec := range []string{
		"[DATASET SUMMARY]", "[SCHEMA]", "[NUMERIC SUMMARY]", "[CATEGORICAL SUMMARY]",
		"[DATETIME SUMMARY]", "[RELATIONSHIPS WITH response]", "[MULTICOLLINEARITY]",
		"[STEPWISE SELECTION]", "[MODEL: response]",
	} {
		assert.Contains(t, md, sec)
	}
	assert.Contains(t, md, "File: trial.csv")
	assert.Contains(t, md, "Rows: 6")
	assert.Contains(t, md, "- dose [mg]: numeric (non-null 6, missing 0.0%)")
	assert.Contains(t, md, "- day: datetime (non-null 5, missing 16.7%)")
	assert.Contains(t, md, "granularity day")
	assert.Contains(t, md, "- dose ~ response: r=")
	assert.Contains(t, md, ", White p=")
	assert.Contains(t, md, "| column | count | unique | mean |")
	assert.Contains(t, md, "- group ~ response: ANOVA F=")
	assert.Contains(t, md, "| intercept |")
	// const has zero variance: its relationship degrades to NaN in place
	assert.Contains(t, md, "- const ~ response: r=NaN")
}

func TestMarkdownListsPlots(t *testing.T) {
	s, _ := sampleSummary(t, "", true)
	plots := s.Univariate.Plots()
	require.NotEmpty(t, plots)
	md := MarkdownReport(s, Options{PlotPaths: map[string]string{plots[0].ID: "plots/dose.svg"}})
	assert.Contains(t, md, "[PLOTS]")
	assert.Contains(t, md, "(plots/dose.svg)")
}

func TestHTMLReport(t *testing.T) {
	s, _ := sampleSummary(t, "response", false)
	page := string(HTMLReport(s, Options{}))
	assert.Contains(t, page, "<html")
	assert.Contains(t, page, "<title>quickeda report: trial.csv</title>")
	assert.Contains(t, page, "<h2")
	assert.Contains(t, page, "SCHEMA</h2>")
	assert.Contains(t, page, "<table>")
}

func TestTerminalReport(t *testing.T) {
	s, tb := sampleSummary(t, "response", false)
	out := TerminalReport(s, Options{Table: tb})
	assert.Contains(t, out, "trial.csv")
	assert.Contains(t, out, "dose")
	assert.Contains(t, out, "Against response")
	assert.Contains(t, out, "dose: 1 .. 6")
	assert.Contains(t, out, "VIF")
}

func TestJSONReportNullsNonFinite(t *testing.T) {
	s, _ := sampleSummary(t, "response", false)
	raw, err := JSONReport(s, Options{})
	require.NoError(t, err)

	var doc struct {
		ID        string `json:"id"`
		Rows      int    `json:"rows"`
		Bivariate []struct {
			Columns []string            `json:"columns"`
			Values  map[string]*float64 `json:"values"`
			Display map[string]string   `json:"display"`
		} `json:"bivariate"`
		Stepwise *struct {
			Features []string `json:"features"`
		} `json:"stepwise"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, s.ID, doc.ID)
	assert.Equal(t, 6, doc.Rows)
	require.NotNil(t, doc.Stepwise)

	var found bool
	for _, b := range doc.Bivariate {
		if b.Columns[0] != "const" {
			continue
		}
		found = true
		v, ok := b.Values["r"]
		assert.True(t, ok)
		assert.Nil(t, v)
		assert.Equal(t, "NaN", b.Display["r"])
	}
	assert.True(t, found)
}

func TestWriteDispatch(t *testing.T) {
	s, _ := sampleSummary(t, "", false)
	for _, f := range Formats {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, s, f, Options{}), f)
		assert.NotZero(t, buf.Len(), f)
	}
	var buf bytes.Buffer
	err := Write(&buf, s, "pdf", Options{})
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
	assert.True(t, strings.Contains(err.Error(), "pdf"))
	assert.True(t, apperrors.IsConfiguration(CheckFormat("pdf")))
	assert.NoError(t, CheckFormat(" JSON "))
	assert.Equal(t, ".html", Ext(HTML))
	assert.Equal(t, ".md", Ext(Markdown))
}
