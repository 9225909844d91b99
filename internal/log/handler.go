package log

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/product-catalog/internal/auth"
	"github.com/tuanvumaihuynh/product-catalog/pkg/correlationid"
)

// enricher appends request scoped attributes found in ctx to r.
type enricher func(ctx context.Context, r *slog.Record)

var enrichers = []enricher{
	withCorrelationID,
	withSpan,
	withPrincipal,
}

func withCorrelationID(ctx context.Context, r *slog.Record) {
	if id, ok := correlationid.FromContext(ctx); ok {
		r.AddAttrs(slog.String("correlation_id", id))
	}
}

func withSpan(ctx context.Context, r *slog.Record) {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return
	}
	r.AddAttrs(
		slog.String("trace_id", spanCtx.TraceID().String()),
		slog.String("span_id", spanCtx.SpanID().String()),
	)
}

func withPrincipal(ctx context.Context, r *slog.Record) {
	if p, ok := auth.FromContext(ctx); ok && p.Subject != "" {
		r.AddAttrs(slog.String("user", p.Subject))
	}
}

var _ slog.Handler = contextHandler{}

// contextHandler decorates every record with the enrichers above before
// passing it on.
type contextHandler struct {
	next slog.Handler
}

func (h contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		for _, enrich := range enrichers {
			enrich(ctx, &r)
		}
	}
	return h.next.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{next: h.next.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{next: h.next.WithGroup(name)}
}
