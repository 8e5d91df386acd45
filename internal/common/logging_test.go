package common

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("warn", &buf)

	logger.Info().Msg("invisible")
	logger.Warn().Str("platform", "BankA").Msg("visible")

	out := buf.String()
	assert.NotContains(t, out, "invisible")
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, `"platform":"BankA"`)
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("bogus", &buf)

	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")

	assert.False(t, strings.Contains(buf.String(), "hidden"))
	assert.True(t, strings.Contains(buf.String(), "shown"))
}

func TestSilentLoggerDiscards(t *testing.T) {
	logger := NewSilentLogger()
	logger.Error().Msg("nothing happens")
}
