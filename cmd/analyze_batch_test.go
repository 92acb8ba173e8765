package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeBatch_CollidingNamesGetSuffix(t *testing.T) {
	home, _ := isolate(t)

	// Two CSV files with the same basename in different directories
	d1 := filepath.Join(home, "d1")
	d2 := filepath.Join(home, "d2")
	require.NoError(t, os.MkdirAll(d1, 0o755))
	require.NoError(t, os.MkdirAll(d2, 0o755))
	for _, d := range []string{d1, d2} {
		require.NoError(t, os.WriteFile(filepath.Join(d, "metrics.csv"), []byte(trialCSV), 0o644))
	}
	outDir := filepath.Join(home, "summaries")

	out := runCmd(t, "analyze-batch", filepath.Join(home, "d*", "metrics.csv"), "--output-dir", outDir, "--target", "y")
	assert.Contains(t, out, "[1/2] Processing metrics.csv...")
	assert.Contains(t, out, "[2/2] Processing metrics.csv...")

	b1 := filepath.Join(outDir, "metrics.summary.md")
	b2 := filepath.Join(outDir, "metrics__2.summary.md")
	require.FileExists(t, b1)
	require.FileExists(t, b2)
	body, err := os.ReadFile(b2)
	require.NoError(t, err)
	assert.Contains(t, string(body), "[RELATIONSHIPS WITH y]")
}

func TestAnalyzeBatch_QuietJSONAndFailures(t *testing.T) {
	home, csv := isolate(t)
	bad := filepath.Join(home, "notes.pdf")
	require.NoError(t, os.WriteFile(bad, []byte("%PDF"), 0o644))
	outDir := filepath.Join(home, "out")

	_, err := execCmd(t, "analyze-batch", csv, bad, "--output-dir", outDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notes.pdf")

	out, err := execCmd(t, "analyze-batch", csv, bad, "--output-dir", outDir, "--format", "json", "--quiet", "--keep-going")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 file(s) failed")
	assert.Empty(t, out)
	assert.FileExists(t, filepath.Join(outDir, "trial.summary.json"))

	_, err = execCmd(t, "analyze-batch", filepath.Join(home, "*.parquet"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no input files matched")
}

func TestExpandInputsAndUniquePath(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"b.csv", "a.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x\n1\n"), 0o644))
	}
	a, b := filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.csv")
	assert.Equal(t, []string{a, b}, expandInputs([]string{filepath.Join(dir, "*.csv"), a, filepath.Join(dir, "missing.csv")}))

	used := map[string]struct{}{}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.summary.md"), nil, 0o644))
	assert.Equal(t, filepath.Join(dir, "a__2.summary.md"), uniquePath(dir, "a", ".summary.md", used))
	assert.Equal(t, filepath.Join(dir, "a__3.summary.md"), uniquePath(dir, "a", ".summary.md", used))
	assert.Equal(t, filepath.Join(dir, "b.summary.md"), uniquePath(dir, "b", ".summary.md", used))
}
