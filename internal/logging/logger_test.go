package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")
	require.NotNil(t, log)

	log.Info().Msg("router online")
	assert.Contains(t, buf.String(), "router online")
}

func TestNewDefaultWriter(t *testing.T) {
	// nil writer should default to stderr console writer
	log := New(nil, "info")
	require.NotNil(t, log)
}

func TestSub(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug")
	sub := log.Sub("agent.intake")
	require.NotNil(t, sub)

	sub.Info().Msg("pipeline ready")
	output := buf.String()
	assert.Contains(t, output, "pipeline ready")
	assert.Contains(t, output, "agent.intake")
}

func TestSubChain(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug")
	gw := log.Sub("gateway")
	ws := gw.Sub("gateway.ws")

	ws.Info().Msg("client connected")
	output := buf.String()
	assert.Contains(t, output, "client connected")
	assert.Contains(t, output, "gateway.ws")
}

func TestEvent(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")

	log.Event("HANDOFF").
		Str("target", "document-intake").
		Str("sessionId", "s1").
		Send()

	output := buf.String()
	assert.Contains(t, output, `"event":"HANDOFF"`)
	assert.Contains(t, output, `"target":"document-intake"`)
	assert.Contains(t, output, `"level":"info"`)
}

func TestErrorEvent(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")

	log.ErrorEvent("FACT_SAVE_FAILED").
		Str("domainId", "dom_1").
		Send()

	output := buf.String()
	assert.Contains(t, output, `"event":"FACT_SAVE_FAILED"`)
	assert.Contains(t, output, `"level":"error"`)
}

func TestEventRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "error")

	log.Event("DOMAIN_DROPPED").Send()
	assert.Empty(t, buf.String(), "event entries are info level and should be filtered")

	log.ErrorEvent("CONTENT_FETCH_FAILED").Send()
	assert.Contains(t, buf.String(), "CONTENT_FETCH_FAILED")
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")

	log.Debug().Msg("debug msg")
	log.Info().Msg("info msg")
	assert.Empty(t, buf.String(), "debug and info should be filtered at warn level")

	log.Warn().Msg("warn msg")
	assert.Contains(t, buf.String(), "warn msg")

	buf.Reset()
	log.Error().Msg("error msg")
	assert.Contains(t, buf.String(), "error msg")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"silent", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"unknown", zerolog.InfoLevel},
		{"INFO", zerolog.InfoLevel}, // case-sensitive, defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestZerolog(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")
	zl := log.Zerolog()
	assert.NotZero(t, zl)

	zl.Info().Msg("direct zerolog")
	assert.Contains(t, buf.String(), "direct zerolog")
}

func TestSilentLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "silent")

	log.Debug().Msg("should not appear")
	log.Event("SPAN_START").Send()
	log.ErrorEvent("READ_ERROR").Send()

	assert.Empty(t, buf.String())
}
