// Package logctx carries a structured zerolog logger in the context so that
// every operation logs with its own exchange and thread ids.
package logctx

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger writing JSON lines to w, or console lines when
// pretty is set.
func New(w io.Writer, level zerolog.Level, pretty bool) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Into stores the logger in the context.
func Into(ctx context.Context, l zerolog.Logger) context.Context {
	return l.WithContext(ctx)
}

// From returns the logger of the context. The disabled logger is returned
// when the context has none.
func From(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// With returns a context whose logger has the key-value pairs as string
// fields. An odd trailing key is ignored.
func With(ctx context.Context, kv ...string) context.Context {
	c := zerolog.Ctx(ctx).With()
	for i := 0; i+1 < len(kv); i += 2 {
		c = c.Str(kv[i], kv[i+1])
	}
	return c.Logger().WithContext(ctx)
}
