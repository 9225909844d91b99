package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/product-catalog/internal/auth"
	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/pkg/correlationid"
)

func TestEnrichedHandler(t *testing.T) {
	t.Run("Should add correlation and trace ids", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(newHandler(config.Log{Format: config.LogFormatJSON, Level: slog.LevelInfo}, &buf))

		spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    trace.TraceID{1},
			SpanID:     trace.SpanID{2},
			TraceFlags: trace.FlagsSampled,
		})
		ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)
		ctx = correlationid.NewContext(ctx, "corr-1")

		logger.InfoContext(ctx, "hello")

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "corr-1", rec["correlation_id"])
		assert.Equal(t, spanCtx.TraceID().String(), rec["trace_id"])
		assert.Equal(t, spanCtx.SpanID().String(), rec["span_id"])
	})

	t.Run("Should respect the level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(newHandler(config.Log{Format: config.LogFormatText, Level: slog.LevelWarn}, &buf))

		logger.Info("dropped")
		assert.Empty(t, buf.String())

		logger.Warn("kept", slog.String("k", "v"))
		assert.Contains(t, buf.String(), "kept")
		assert.Contains(t, buf.String(), "k=v")
	})
}

func TestPrincipalEnrichment(t *testing.T) {
	t.Run("Should add the authenticated user", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(newHandler(config.Log{Format: config.LogFormatJSON, Level: slog.LevelInfo}, &buf))

		ctx := auth.NewContext(context.Background(), auth.Principal{Subject: "alice", IsActive: true})
		logger.With(slog.String("service", "product")).InfoContext(ctx, "updated")

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "alice", rec["user"])
		assert.Equal(t, "product", rec["service"])
		assert.NotContains(t, rec, "correlation_id")
	})

	t.Run("Should skip anonymous requests", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(newHandler(config.Log{Format: config.LogFormatJSON, Level: slog.LevelInfo}, &buf))

		logger.InfoContext(context.Background(), "listed")
		assert.NotContains(t, buf.String(), `"user"`)
	})
}
