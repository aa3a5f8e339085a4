package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" warning "))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}

func TestNew_WritesServiceAndEnv(t *testing.T) {
	prevGlobal, prevCtx := zlog.Logger, zerolog.DefaultContextLogger
	t.Cleanup(func() {
		zlog.Logger = prevGlobal
		zerolog.DefaultContextLogger = prevCtx
	})

	var buf bytes.Buffer
	log := New(Options{Service: "shopcart", Env: "test", Level: "warn", Output: &buf})

	log.Info().Msg("dropped")
	log.Warn().Int64("user_id", 7).Msg("kept")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["message"])
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "shopcart", line["service"])
	assert.Equal(t, "test", line["env"])
	assert.Equal(t, float64(7), line["user_id"])
	assert.Contains(t, line, "time")
}

func TestNew_SetsGlobalLogger(t *testing.T) {
	prevGlobal, prevCtx := zlog.Logger, zerolog.DefaultContextLogger
	t.Cleanup(func() {
		zlog.Logger = prevGlobal
		zerolog.DefaultContextLogger = prevCtx
	})

	var buf bytes.Buffer
	New(Options{Service: "shopcart", Env: "test", Output: &buf})

	zlog.Info().Msg("from global")
	assert.Contains(t, buf.String(), `"message":"from global"`)
	assert.Contains(t, buf.String(), `"service":"shopcart"`)
}

func TestDiscard(t *testing.T) {
	log := Discard()
	assert.Equal(t, zerolog.Disabled, log.GetLevel())
}
