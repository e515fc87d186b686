package common

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "INFO", want: slog.LevelInfo},
		{input: "", want: slog.LevelInfo},
		{input: "warn", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetupLogger_WritesToFile(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	logFile := filepath.Join(t.TempDir(), "pipeline.log")
	closer, err := SetupLogger(slog.LevelInfo, "json", logFile)
	require.NoError(t, err)

	slog.Info("hello from test", "record_id", 7)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello from test"`)
	assert.Contains(t, string(data), `"record_id":7`)
}

func TestSetupLogger_RejectsUnknownFormat(t *testing.T) {
	_, err := SetupLogger(slog.LevelInfo, "xml", "")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil)).With("run_id", "run-1")

	err := NewUserError("Queries are not compatible", errors.New("verdict INVALID"))
	LogError(logger, err, "Command failed", Fields{"record_id": 3})

	out := buf.String()
	assert.Contains(t, out, `"level":"ERROR"`)
	assert.Contains(t, out, `"msg":"Command failed"`)
	assert.Contains(t, out, `"run_id":"run-1"`)
	assert.Contains(t, out, `"error":"Queries are not compatible: verdict INVALID"`)
	assert.Contains(t, out, `"user_message":"Queries are not compatible"`)
	assert.Contains(t, out, `"record_id":3`)
}

func TestLogError_DefaultLogger(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))

	LogError(nil, errors.New("connection refused"), "Pipeline error", nil)

	assert.Contains(t, buf.String(), "connection refused")
	assert.NotContains(t, buf.String(), "user_message")
}
