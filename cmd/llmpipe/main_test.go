package main

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/llm-pipeline/internal/common"
)

func TestReportError(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var logs bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))

	t.Run("user error shows only its message", func(t *testing.T) {
		var out bytes.Buffer
		reportError(&out, common.NewUserError("Queries are not compatible", errPreflightRejected))

		assert.Contains(t, out.String(), "Queries are not compatible")
		assert.NotContains(t, out.String(), errPreflightRejected.Error())
		assert.Contains(t, logs.String(), errPreflightRejected.Error())
	})

	t.Run("plain error is printed whole", func(t *testing.T) {
		var out bytes.Buffer
		reportError(&out, errors.New("failed to open source: connection refused"))

		assert.Contains(t, out.String(), "failed to open source: connection refused")
	})
}
