package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/KaramelBytes/quickeda-cli/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "static", c.Backend)
	assert.Equal(t, "md", c.Format)
	assert.Equal(t, "forward", c.Direction)
	assert.Equal(t, "aic", c.Criterion)
	assert.Equal(t, 1, c.MinFeatures)
	assert.Equal(t, 0.05, c.Alpha)
	assert.Equal(t, 3.5, c.OutlierThreshold)
	assert.Equal(t, 100000, c.MaxRows)
	assert.Equal(t, rune(0), c.DelimiterRune())
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: interactive\ntop_k: 5\ncriterion: bic\n"), 0o644))
	t.Setenv("QUICKEDA_CRITERION", "p_value")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "interactive", c.Backend)
	assert.Equal(t, 5, c.TopK)
	assert.Equal(t, "p_value", c.Criterion)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: ggplot\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
	assert.Contains(t, err.Error(), "ggplot")
}

func TestSetValidatesAndSaveRoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)

	require.NoError(t, c.Set("backend", "Interactive"))
	require.NoError(t, c.Set("sort_by", "unique"))
	require.NoError(t, c.Set("sort_by", "skew"))
	require.NoError(t, c.Set("min_features", "2"))
	require.NoError(t, c.Set("delimiter", "tab"))

	for key, bad := range map[string]string{
		"backend":            "matplotlib",
		"sort_by":            "vibes",
		"min_features":       "-1",
		"alpha":              "1.5",
		"criterion":          "r2",
		"stepwise_direction": "both",
		"method":             "pca",
		"format":             "pdf",
	} {
		err := c.Set(key, bad)
		require.Error(t, err, key)
		assert.Equal(t, apperrors.CodeConfiguration, apperrors.GetCode(err), key)
	}
	assert.True(t, apperrors.IsConfiguration(c.Set("colour", "blue")))

	require.NoError(t, Save(c, ""))
	dir, err := Dir()
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "config.yaml"))

	again, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "interactive", again.Backend)
	assert.Equal(t, "skew", again.SortBy)
	assert.Equal(t, 2, again.MinFeatures)
	assert.Equal(t, '\t', again.DelimiterRune())

	v, ok := again.Get("min_features")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
	_, ok = again.Get("nope")
	assert.False(t, ok)
}
