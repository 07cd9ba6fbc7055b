package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWriter_JSON(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	require.NoError(t, SetupWriter(&buf, "warn", "json"))

	log.Info().Msg("hidden")
	log.Warn().Str("pipeline", "fx").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"pipeline":"fx"`)
	assert.Contains(t, out, `"level":"warn"`)
}

func TestSetupWriter_BadLevel(t *testing.T) {
	assert.Error(t, SetupWriter(&bytes.Buffer{}, "loud", "json"))
}
