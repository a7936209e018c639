package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureJSON(t *testing.T, level string, detailed bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, InitWithConfig(LogConfig{Level: level, Format: "json", DetailedLogging: detailed, Output: &buf}))
	t.Cleanup(func() { _ = InitWithConfig(LogConfig{}) })
	return &buf
}

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, l := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if l == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(l), &m))
		out = append(out, m)
	}
	return out
}

func TestLevelFiltering(t *testing.T) {
	buf := captureJSON(t, "WARN", false)
	ctx := context.Background()

	Info(ctx, "hidden")
	Warn(ctx, "shown", "code", "6501")

	got := lines(t, buf)
	require.Len(t, got, 1)
	assert.Equal(t, "shown", got[0]["msg"])
	assert.Equal(t, "6501", got[0]["code"])
}

func TestErrorWithErr(t *testing.T) {
	buf := captureJSON(t, "INFO", false)

	ErrorWithErr(context.Background(), "login failed", errors.New("status 503"))

	got := lines(t, buf)
	require.Len(t, got, 1)
	assert.Equal(t, "ERROR", got[0]["level"])
	assert.Equal(t, "status 503", got[0]["error"])
}

func TestOrder(t *testing.T) {
	buf := captureJSON(t, "INFO", false)

	Order(context.Background(), "6501", 100, "1234", "SUBMITTED")

	got := lines(t, buf)
	require.Len(t, got, 1)
	assert.Equal(t, "ORDER", got[0]["type"])
	assert.Equal(t, "6501", got[0]["code"])
	assert.EqualValues(t, 100, got[0]["quantity"])
	assert.Equal(t, "SUBMITTED", got[0]["status"])
}

func TestDetailedLoggingAddsSource(t *testing.T) {
	buf := captureJSON(t, "INFO", true)

	Debug(context.Background(), "detail")

	got := lines(t, buf)
	require.Len(t, got, 1)
	source, ok := got[0]["source"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, source["file"], "logger_test.go")
	assert.True(t, IsDebugEnabled())
}

func TestOperationTimer(t *testing.T) {
	buf := captureJSON(t, "DEBUG", false)

	op := StartOperation(context.Background(), "sbisec.Login", "user_id", "u")
	op.EndWithError(errors.New("boom"))

	got := lines(t, buf)
	require.NotEmpty(t, got)
	last := got[len(got)-1]
	assert.Equal(t, "boom", last["error"])
}
