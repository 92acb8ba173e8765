package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigurationNamesAllowedSet(t *testing.T) {
	err := Configuration("sort_by", "bogus", []string{"skew", "mean"})
	assert.Equal(t, CodeConfiguration, err.Code)
	assert.Contains(t, err.Error(), `"bogus"`)
	assert.Contains(t, err.Error(), "mean, skew")
	assert.True(t, IsConfiguration(err))
}

func TestUnknownBackendIsConfigurationClass(t *testing.T) {
	err := UnknownBackend("nope", []string{"static", "interactive"})
	assert.Equal(t, CodeUnknownBackend, GetCode(err))
	assert.True(t, IsConfiguration(err))
	assert.False(t, IsInvalidTarget(err))
}

func TestWrapKeepsCodeThroughFmtWrapping(t *testing.T) {
	base := InvalidTarget("y", "column not found")
	wrapped := fmt.Errorf("bivariate: %w", base)
	assert.True(t, IsInvalidTarget(wrapped))

	again := Wrap(wrapped, "run all")
	assert.Equal(t, CodeInvalidTarget, GetCode(again))

	plain := Wrap(fmt.Errorf("disk"), "load")
	assert.Equal(t, CodeInvalidInput, GetCode(plain))
	assert.Nil(t, Wrap(nil, "x"))
	assert.Equal(t, "UNKNOWN", GetCode(fmt.Errorf("other")))
}
