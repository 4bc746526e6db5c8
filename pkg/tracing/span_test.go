package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanTree(t *testing.T) {
	ctx, root := Start(context.Background(), "search", "req-1")
	childCtx, parse := StartChild(ctx, "parse")
	_, inner := StartChild(childCtx, "tokenize")
	inner.End()
	parse.End()
	_, exec := StartChild(ctx, "execute")
	exec.SetAttr("results", 3)
	exec.End()
	root.End()

	assert.Same(t, root, FromContext(ctx))
	require.Len(t, root.Children(), 2)
	assert.Equal(t, "parse", root.Children()[0].Name())
	assert.Equal(t, "req-1", inner.TraceID())
	assert.Len(t, parse.Children(), 1)
}

func TestEndIsIdempotent(t *testing.T) {
	_, s := Start(context.Background(), "op", "t")
	s.End()
	first := s.Duration()
	s.End()
	assert.Equal(t, first, s.Duration())
}

func TestDetachedChild(t *testing.T) {
	_, s := StartChild(context.Background(), "orphan")
	s.End()
	assert.Empty(t, s.TraceID())
	assert.Nil(t, FromContext(context.Background()))
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx, root := Start(context.Background(), "search", "req-9")
	_, child := StartChild(ctx, "execute")
	child.SetAttr("terms", 2)
	child.End()
	root.End()
	root.Log(context.Background(), logger)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "span=search")
	assert.Contains(t, lines[0], "depth=0")
	assert.Contains(t, lines[1], "span=execute")
	assert.Contains(t, lines[1], "trace_id=req-9")
	assert.Contains(t, lines[1], "terms=2")
}
