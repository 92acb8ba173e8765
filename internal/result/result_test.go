package result

import (
	"math"
	"testing"

	"github.com/KaramelBytes/quickeda-cli/internal/table"
	"github.com/stretchr/testify/assert"
)

func TestBuilderKeepsInsertionOrderAndIsolation(t *testing.T) {
	b := NewBuilder(table.Numeric, "x").Num("mean", 2).Label("mode", "3").Num("std", math.NaN())
	r := b.Build()
	b.Num("mean", 99).Num("extra", 1)

	assert.Equal(t, []string{"mean", "mode", "std"}, r.Names())
	v, ok := r.Num("mean")
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)
	assert.False(t, r.Has("extra"))
	assert.Equal(t, "NaN", r.Format("std"))
	assert.Equal(t, []string{"mean=2", "mode=3", "std=NaN"}, r.Annotations())
	assert.Equal(t, "x", r.Column())
}

func TestSkipAnnotatesReason(t *testing.T) {
	r := Skip(table.Categorical, Skipped, "fewer than 2 usable rows", "f", "y")
	assert.Equal(t, Skipped, r.Marker())
	assert.Equal(t, []string{"SKIPPED: fewer than 2 usable rows"}, r.Annotations())
	assert.Equal(t, []string{"f", "y"}, r.Columns())
}

func TestFormatNum(t *testing.T) {
	assert.Equal(t, "+Inf", FormatNum(math.Inf(1)))
	assert.Equal(t, "-Inf", FormatNum(math.Inf(-1)))
	assert.Equal(t, "0.1235", FormatNum(0.123456))
}
