package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskShortStringUnchanged(t *testing.T) {
	assert.Equal(t, "hello", Mask("hello"))
}

func TestMaskTruncatesLongString(t *testing.T) {
	long := strings.Repeat("x", 500)
	masked := Mask(long)

	assert.Len(t, masked, maskLimit)
	assert.True(t, strings.HasSuffix(masked, "...(truncated)"))
}

func TestSanitizeFiltersSecretKeys(t *testing.T) {
	for _, key := range []string{"apiKey", "GATEWAY_TOKEN", "clientSecret", "password", "credentials"} {
		assert.Equal(t, "[FILTERED]", Sanitize(key, "s3cr3t"), "key %s", key)
	}
	assert.Equal(t, "plain value", Sanitize("description", "plain value"))
}

func TestSpanEmitsStartAndEnd(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")

	traceID, end := Span(log, "turn", "sess-1")
	end()

	require.NotEmpty(t, traceID)
	assert.True(t, strings.HasPrefix(traceID, "sess-1-"))

	output := buf.String()
	assert.Contains(t, output, "SPAN_START")
	assert.Contains(t, output, "SPAN_END")
	assert.Contains(t, output, traceID)
	assert.Contains(t, output, `"span":"turn"`)
}

func TestSpanWithoutSession(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")

	traceID, end := Span(log, "intake", "")
	end()

	assert.NotEmpty(t, traceID)
	assert.NotContains(t, traceID, "sess")
}
