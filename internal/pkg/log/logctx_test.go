package log

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

// Тесты меняют slog.Default(), поэтому не используют t.Parallel().

func newSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func withDefault(t *testing.T) *slog.Logger {
	t.Helper()
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })

	def := newSilent()
	slog.SetDefault(def)
	return def
}

func TestFrom_Default(t *testing.T) {
	def := withDefault(t)

	require.Equal(t, def, From(context.Background()))

	// Мусор по нашему ключу и nil-логгер игнорируются.
	require.Equal(t, def, From(context.WithValue(context.Background(), ctxKey{}, "not-a-logger")))
	var nilLogger *slog.Logger
	require.Equal(t, def, From(context.WithValue(context.Background(), ctxKey{}, nilLogger)))
}

func TestIntoFrom_ChildShadowsParent(t *testing.T) {
	withDefault(t)

	parentL, childL := newSilent(), newSilent()

	parent := Into(context.Background(), parentL)
	child := Into(parent, childL)

	require.Equal(t, parentL, From(parent))
	require.Equal(t, childL, From(child))
}

func TestInto_KeepsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	child := Into(ctx, newSilent())

	cancel()
	<-child.Done()
	require.ErrorIs(t, child.Err(), context.Canceled)
}

func TestWith_AddsAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := Into(context.Background(), l.With("request_id", "rid-1"))
	ctx = With(ctx, "user_id", "u-42")

	From(ctx).Info("hello")

	out := buf.String()
	require.Contains(t, out, "request_id=rid-1")
	require.Contains(t, out, "user_id=u-42")
	require.Contains(t, out, "msg=hello")
}
