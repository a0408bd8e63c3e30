package logger

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	orig := os.Stdout
	defer func() { os.Stdout = orig }()

	r, w, err := os.Pipe()
	require.NoError(t, err, "failed to create stdout pipe")

	os.Stdout = w
	fn()
	require.NoError(t, w.Close(), "failed to close stdout pipe")

	out, err := io.ReadAll(r)
	require.NoError(t, err, "failed to read stdout pipe")

	return string(out)
}

func TestLogger_parseLevel(t *testing.T) {
	t.Run("valid value", func(t *testing.T) {
		tests := []struct {
			name     string
			input    string
			expected slog.Level
		}{
			{"debug", "debug", slog.LevelDebug},
			{"debug uppercase", "DEBUG", slog.LevelDebug},
			{"info", "info", slog.LevelInfo},
			{"warn", "warn", slog.LevelWarn},
			{"error", "error", slog.LevelError},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := parseLevel(tt.input)

				require.NoError(t, err)
				require.Equal(t, tt.expected, got)
			})
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		_, err := parseLevel("loud")

		require.Error(t, err, "unknown level should not be accepted")
	})
}

func TestLogger_New(t *testing.T) {
	t.Run("prod logs json", func(t *testing.T) {
		out := captureStdout(t, func() {
			l, err := New(EnvProduction, LevelInfo)
			require.NoError(t, err)

			l.Info("session created", "user_id", 42)
		})

		var record map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &record), "prod output should be json")
		require.Equal(t, "session created", record["msg"])
		require.EqualValues(t, 42, record["user_id"])
	})

	t.Run("dev logs text", func(t *testing.T) {
		out := captureStdout(t, func() {
			l, err := New(EnvDevelopment, LevelDebug)
			require.NoError(t, err)

			l.Debug("sweep finished", "removed", 3)
		})

		require.Contains(t, out, "sweep finished")
		require.Contains(t, out, "removed=3")
	})

	t.Run("unknown environment fails", func(t *testing.T) {
		_, err := New("staging", LevelInfo)

		require.Error(t, err)
	})

	t.Run("level filters", func(t *testing.T) {
		out := captureStdout(t, func() {
			l, err := New(EnvDevelopment, LevelError)
			require.NoError(t, err)

			l.Info("should be dropped")
			l.Error("should be kept")
		})

		require.NotContains(t, out, "should be dropped")
		require.Contains(t, out, "should be kept")
	})
}
