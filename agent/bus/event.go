/*
Package bus carries the state changes of the exchanges to their listeners.
The protocol service emits one StateChanged per transition after the record
is persisted. A revocation notification stored on a holder's record is
emitted as RevocationNotified to the emitters which implement
RevocationEmitter.
*/
package bus

import (
	"context"

	"github.com/findy-network/findy-credex/agent/logctx"
	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
)

// StateChanged is the event of one exchange transition. Record is a copy
// of the persisted record.
type StateChanged struct {
	Record        *data.ExchangeRecord
	PreviousState data.State
}

// Emitter receives the state changes. Emit must not block for long: it's
// called by the goroutine processing the protocol message.
type Emitter interface {
	Emit(ctx context.Context, ev StateChanged)
}

// RevocationNotified is the event of a revocation notification the holder
// has stored. Record is a copy of the persisted record.
type RevocationNotified struct {
	Record *data.ExchangeRecord
}

// RevocationEmitter receives the revocation notifications.
type RevocationEmitter interface {
	EmitRevocation(ctx context.Context, ev RevocationNotified)
}

// Func is an adapter to use plain functions as Emitters.
type Func func(ctx context.Context, ev StateChanged)

func (f Func) Emit(ctx context.Context, ev StateChanged) {
	f(ctx, ev)
}

// Log writes the state changes to the logger of the context.
type Log struct{}

func (Log) Emit(ctx context.Context, ev StateChanged) {
	logctx.From(ctx).Info().
		Str("exchange_id", ev.Record.ID).
		Str("thread_id", ev.Record.ThreadID).
		Str("role", string(ev.Record.Role)).
		Stringer("from", ev.PreviousState).
		Stringer("to", ev.Record.State).
		Msg("exchange state changed")
}

func (Log) EmitRevocation(ctx context.Context, ev RevocationNotified) {
	n := ev.Record.RevocationNotification
	logctx.From(ctx).Warn().
		Str("exchange_id", ev.Record.ID).
		Str("thread_id", ev.Record.ThreadID).
		Time("revoked", n.RevocationDate).
		Str("comment", n.Comment).
		Msg("credential revoked")
}

// Multi emits to all of its emitters in order.
type Multi []Emitter

func (m Multi) Emit(ctx context.Context, ev StateChanged) {
	for _, e := range m {
		e.Emit(ctx, ev)
	}
}

// EmitRevocation emits to the emitters which are RevocationEmitters.
func (m Multi) EmitRevocation(ctx context.Context, ev RevocationNotified) {
	for _, e := range m {
		if r, ok := e.(RevocationEmitter); ok {
			r.EmitRevocation(ctx, ev)
		}
	}
}

// Discard drops the events.
var Discard Emitter = Func(func(context.Context, StateChanged) {})
