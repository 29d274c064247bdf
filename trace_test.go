package heliumdb

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func debugLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestTraceLogger(t *testing.T) {
	var first, second bytes.Buffer
	ctx := WithTraceLogger(context.Background(), debugLogger(&first))
	ctx = WithTraceLogger(ctx, debugLogger(&second))

	tlog := getTraceLogFromContext(ctx)
	require.NotNil(t, tlog)
	tlog.Debug("hello")

	require.Empty(t, second.String(), `the first logger wins`)
	if TracingEnabled {
		require.Contains(t, first.String(), "hello")
	}

	require.NotPanics(t, func() {
		ctx := context.Background()
		getTraceLogFromContext(ctx).Debug("discarded")
		TraceEvent(ctx, "discarded")
		TraceError(ctx, errors.New("boom"), "discarded")
	})
}

func TestSpans(t *testing.T) {
	if !TracingEnabled {
		t.Skip("built with notrace")
	}

	var buf bytes.Buffer
	ctx := WithTraceLogger(context.Background(), debugLogger(&buf))

	ctx, outer := WithSpan(ctx, "outer")
	require.Len(t, outer.ID, 16)
	require.Empty(t, outer.ParentID)
	require.False(t, outer.Start.IsZero())

	ctx, span := StartSpan(ctx, "inner")
	TraceEvent(ctx, "step", slog.Int("nodes", 3))
	TraceError(ctx, errors.New("boom"), "failed", slog.String("stage", "replay"))
	span.End()

	out := buf.String()
	for _, s := range []string{"START", "END", "inner", "duration", "step", `"nodes":3`, "boom", "replay", "ERROR", outer.ID} {
		require.Contains(t, out, s)
	}

	ids := make(map[string]struct{})
	for range 100 {
		id := generateSpanID()
		require.NotContains(t, ids, id)
		ids[id] = struct{}{}
	}
}

func TestDBLogging(t *testing.T) {
	var buf bytes.Buffer
	d := New(WithLogger(debugLogger(&buf)))
	ctx := context.Background()

	_, err := d.AddDocument(ctx, "doc", strings.NewReader(`<r xmlns:p="urn:p"><a/></r>`))
	require.NoError(t, err)
	_, err = d.Insert(ctx, 1, strings.NewReader(`<p:b/>`))
	require.NoError(t, err)
	_, err = d.Insert(ctx, 1, strings.NewReader(`<a></b>`))
	require.Error(t, err)

	out := buf.String()
	if !TracingEnabled {
		require.Empty(t, out)
		return
	}
	require.Contains(t, out, "document added")
	require.Contains(t, out, "fragment inserted")
	require.Contains(t, out, "parse error")
	require.Contains(t, out, "DB.Insert")
}
