package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, ln := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if ln == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(ln), &m))
		out = append(out, m)
	}
	return out
}

func TestBuild_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l, done := build(Options{Level: "warn", JSON: true}, zapcore.AddSync(&buf))
	l.Info("dropped")
	l.Warn("kept", zap.String("k", "v"))
	done()

	got := lines(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, "kept", got[0]["msg"])
	assert.Equal(t, "v", got[0]["k"])
	assert.Contains(t, got[0], "ts")
}

func TestBuild_BadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l, done := build(Options{Level: "loud", JSON: true}, zapcore.AddSync(&buf))
	l.Debug("no")
	l.Info("yes")
	done()
	require.Len(t, lines(t, &buf), 1)
}

func TestToWriter(t *testing.T) {
	var buf bytes.Buffer
	l, done := build(Options{Level: "debug", JSON: true}, zapcore.AddSync(&buf))
	w := ToWriter(l, zapcore.WarnLevel)

	n, err := w.Write([]byte("slow sql 250ms\n"))
	require.NoError(t, err)
	assert.Equal(t, len("slow sql 250ms\n"), n)
	done()

	got := lines(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, "slow sql 250ms", got[0]["msg"])
	assert.Equal(t, "warn", got[0]["level"])
}

func TestBuild_RotateWritesFile(t *testing.T) {
	var buf bytes.Buffer
	file := filepath.Join(t.TempDir(), "app.log")
	l, done := build(Options{Level: "info", JSON: true, Rotate: FileRotate{Enable: true, Filename: file}}, zapcore.AddSync(&buf))
	l.Info("to both")
	done()

	assert.FileExists(t, file)
	assert.Len(t, lines(t, &buf), 1)
}
