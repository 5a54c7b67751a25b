package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	require.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	require.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
}

func TestFileOutput(t *testing.T) {
	file := filepath.Join(t.TempDir(), "biscuits.log")

	l := New("info", file)
	l.Debug("hidden")
	l.With("component", "test").Info("config loaded", "id", "cfg-1")
	_ = l.Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	out := string(data)
	require.True(t, strings.Contains(out, `"msg":"config loaded"`), out)
	require.Contains(t, out, `"id":"cfg-1"`)
	require.Contains(t, out, `"component":"test"`)
	require.NotContains(t, out, "hidden")
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("discarded")
	require.NotNil(t, l.GetInstance())
}
