package logctx

import (
	"bytes"
	"context"
	"testing"

	"github.com/lainio/err2/assert"
	"github.com/rs/zerolog"
)

func TestWith(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	var buf bytes.Buffer
	ctx := Into(context.Background(), New(&buf, zerolog.DebugLevel, false))
	ctx = With(ctx, "exchange_id", "e1", "thread_id", "t1", "odd")

	From(ctx).Info().Msg("state changed")

	assert.That(bytes.Contains(buf.Bytes(), []byte(`"exchange_id":"e1"`)))
	assert.That(bytes.Contains(buf.Bytes(), []byte(`"thread_id":"t1"`)))
}

func TestFrom_NoLogger(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	l := From(context.Background())
	assert.INotNil(l)
	l.Info().Msg("dropped")
}
