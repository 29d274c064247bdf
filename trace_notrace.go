//go:build notrace

package heliumdb

import (
	"context"
	"log/slog"
	"time"
)

// No-op implementations when built with -tags notrace

// TracingEnabled is false when built with -tags notrace.
const TracingEnabled = false

// Span marks the end of a traced operation.
type Span interface {
	End()
}

type noOpSpan struct{}

func (noOpSpan) End() {}

// SpanInfo holds information about a tracing span
type SpanInfo struct {
	ID       string
	ParentID string
	Name     string
	Start    time.Time
}

var nullLogger = slog.New(slog.DiscardHandler)

func WithTraceLogger(ctx context.Context, _ *slog.Logger) context.Context {
	return ctx
}

func WithSpan(ctx context.Context, _ string) (context.Context, *SpanInfo) {
	return ctx, nil
}

func StartSpan(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, noOpSpan{}
}

func TraceEvent(context.Context, string, ...slog.Attr) {}

func TraceError(context.Context, error, string, ...slog.Attr) {}

func getTraceLogFromContext(context.Context) *slog.Logger {
	return nullLogger
}

func generateSpanID() string {
	return ""
}
