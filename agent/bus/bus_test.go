package bus

import (
	"bytes"
	"context"
	"testing"

	"github.com/findy-network/findy-credex/agent/logctx"
	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/lainio/err2/assert"
	"github.com/rs/zerolog"
)

func record(state data.State) *data.ExchangeRecord {
	r := data.NewExchangeRecord("e1", data.V2, data.RoleHolder, "t1", "")
	r.State = state
	return r
}

func TestLog_Emit(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	var buf bytes.Buffer
	ctx := logctx.Into(context.Background(), logctx.New(&buf, zerolog.InfoLevel, false))

	Log{}.Emit(ctx, StateChanged{Record: record(data.StateOfferReceived)})

	assert.That(bytes.Contains(buf.Bytes(), []byte(`"exchange_id":"e1"`)))
	assert.That(bytes.Contains(buf.Bytes(), []byte(`"from":"null"`)))
	assert.That(bytes.Contains(buf.Bytes(), []byte(`"to":"offer-received"`)))
}

func TestMulti_Emit(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	var got []data.State
	f := Func(func(_ context.Context, ev StateChanged) {
		got = append(got, ev.Record.State)
	})
	Multi{f, Discard, f}.Emit(context.Background(), StateChanged{Record: record(data.StateDone)})
	assert.SLen(got, 2)
}

func TestStation(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	s := NewStation()
	ctx := context.Background()
	key := KeyType{ThreadID: "t1", Role: data.RoleHolder}
	ready := s.StartListen(key)

	s.Emit(ctx, StateChanged{Record: record(data.StateRequestSent)})
	select {
	case <-ready:
		t.Fatal("signaled before terminal state")
	default:
	}

	s.Emit(ctx, StateChanged{Record: record(data.StateDone)})
	rec := <-ready
	assert.Equal(rec.State, data.StateDone)

	// only once
	s.Emit(ctx, StateChanged{Record: record(data.StateDone)})
	select {
	case <-ready:
		t.Fatal("signaled twice")
	default:
	}

	other := s.StartListen(KeyType{ThreadID: "t1", Role: data.RoleIssuer})
	s.RmListener(KeyType{ThreadID: "t1", Role: data.RoleIssuer})
	s.Emit(ctx, StateChanged{Record: record(data.StateAbandoned)})
	assert.Equal(len(other), 0)
}

type revoked struct {
	Func
	ids []string
}

func (r *revoked) EmitRevocation(_ context.Context, ev RevocationNotified) {
	r.ids = append(r.ids, ev.Record.ID)
}

func TestMulti_EmitRevocation(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	var buf bytes.Buffer
	ctx := logctx.Into(context.Background(), logctx.New(&buf, zerolog.InfoLevel, false))
	rec := record(data.StateDone)
	rec.RevocationNotification = &data.RevocationNotification{Comment: "key compromised"}

	r := &revoked{Func: func(context.Context, StateChanged) {}}
	Multi{Log{}, NewStation(), r}.EmitRevocation(ctx, RevocationNotified{Record: rec})

	assert.SLen(r.ids, 1)
	assert.Equal(r.ids[0], "e1")
	assert.That(bytes.Contains(buf.Bytes(), []byte(`"comment":"key compromised"`)))
	assert.That(bytes.Contains(buf.Bytes(), []byte("credential revoked")))
}
