package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/KaramelBytes/quickeda-cli/internal/errors"
)

const trialCSV = `a,b,y,grp
1,3,2.1,x
2,1,4.3,z
3,4,5.8,x
4,1,8.2,z
5,5,9.9,x
6,9,12.1,z
7,2,14.2,x
8,6,15.8,z
`

// resetFlags puts every flag of the command tree back to its default so
// values do not leak between invocations.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execCmd runs the root command with args and returns its stdout.
func execCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	cfg = nil
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

// isolate points HOME at a temp dir and returns a CSV fixture inside it.
func isolate(t *testing.T) (home, csv string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	csv = filepath.Join(home, "trial.csv")
	require.NoError(t, os.WriteFile(csv, []byte(trialCSV), 0o644))
	return home, csv
}

func TestCLI_AnalyzeMarkdownToStdout(t *testing.T) {
	_, csv := isolate(t)
	out := runCmd(t, "analyze", csv, "--target", "y")

	assert.Contains(t, out, "File: trial.csv")
	assert.Contains(t, out, "[RELATIONSHIPS WITH y]")
	assert.Contains(t, out, "- a ~ y: r=")
	assert.Contains(t, out, "- grp ~ y: ANOVA F=")
	assert.Contains(t, out, "[STEPWISE SELECTION]")
	assert.Contains(t, out, "[MODEL: y]")
}

func TestCLI_AnalyzeJSONToFile(t *testing.T) {
	home, csv := isolate(t)
	path := filepath.Join(home, "out", "trial.json")
	out := runCmd(t, "analyze", csv, "--format", "json", "--output", path, "--method", "vif")
	assert.Contains(t, out, "✓ Wrote analysis to "+path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc struct {
		Rows   int `json:"rows"`
		Schema []struct {
			Name string `json:"name"`
			Kind string `json:"kind"`
		} `json:"schema"`
		VIF []struct {
			Columns []string `json:"columns"`
		} `json:"vif"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, 8, doc.Rows)
	require.Len(t, doc.Schema, 4)
	assert.Equal(t, "numeric", doc.Schema[0].Kind)
	assert.NotEmpty(t, doc.VIF)
}

func TestCLI_AnalyzeSavesPlotsNextToReport(t *testing.T) {
	home, csv := isolate(t)
	report := filepath.Join(home, "report", "trial.md")
	runCmd(t, "analyze", csv, "--plot", "--backend", "interactive", "--output", report)

	plots, err := filepath.Glob(filepath.Join(home, "report", "plots", "*.html"))
	require.NoError(t, err)
	assert.NotEmpty(t, plots)

	body, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(body), "[PLOTS]")
	assert.Contains(t, string(body), "(plots/distribution-of-a-")
}

func TestCLI_StageCommands(t *testing.T) {
	_, csv := isolate(t)

	out := runCmd(t, "univariate", csv, "--format", "terminal", "--sort-by", "std")
	assert.Contains(t, out, "trial.csv")
	assert.NotContains(t, out, "Against")

	out = runCmd(t, "bivariate", csv, "--target", "grp", "--rank")
	assert.Contains(t, out, "[RELATIONSHIPS WITH grp]")
	assert.NotContains(t, out, "[NUMERIC SUMMARY]")

	out = runCmd(t, "multivariate", csv, "--target", "y", "--method", "stepwise", "--criterion", "bic")
	assert.Contains(t, out, "[STEPWISE SELECTION]")
	assert.NotContains(t, out, "[MULTICOLLINEARITY]")

	out = runCmd(t, "multivariate", csv)
	assert.Contains(t, out, "[MULTICOLLINEARITY]")
}

func TestCLI_Errors(t *testing.T) {
	_, csv := isolate(t)

	_, err := execCmd(t, "bivariate", csv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--target")

	_, err = execCmd(t, "analyze", csv, "--target", "nope")
	assert.True(t, apperrors.IsInvalidTarget(err))

	_, err = execCmd(t, "analyze", csv, "--backend", "bokeh")
	assert.True(t, apperrors.IsConfiguration(err))

	_, err = execCmd(t, "multivariate", csv, "--method", "pca")
	assert.True(t, apperrors.IsConfiguration(err))

	// stepwise needs a numeric target; the dedicated command does not downgrade
	_, err = execCmd(t, "multivariate", csv, "--target", "grp", "--method", "stepwise")
	assert.True(t, apperrors.IsInvalidTarget(err))

	_, err = execCmd(t, "analyze", csv, "--format", "pdf")
	assert.True(t, apperrors.IsConfiguration(err))

	_, err = execCmd(t, "analyze", "--sql", "select 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--dsn")

	_, err = execCmd(t, "analyze", csv, "--delimiter", "|")
	require.Error(t, err)
}

func TestCLI_ConfigSetShow(t *testing.T) {
	home, csv := isolate(t)

	assert.Contains(t, runCmd(t, "config", "set", "format", "json"), "Saved config")
	runCmd(t, "config", "set", "sql_dsn", "postgres://user:secret@db/eda")
	assert.FileExists(t, filepath.Join(home, ".quickeda", "config.yaml"))

	out := runCmd(t, "config", "show")
	assert.Contains(t, out, "format: json")
	assert.Contains(t, out, "sql_dsn: pos****eda")
	assert.NotContains(t, out, "secret")

	_, err := execCmd(t, "config", "set", "criterion", "r2")
	assert.True(t, apperrors.IsConfiguration(err))

	// the saved format now drives analyze
	out = runCmd(t, "analyze", csv)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "{"))
}
