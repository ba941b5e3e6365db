package agency

import (
	"context"
	"testing"

	"github.com/findy-network/findy-credex/agent/comm"
	"github.com/findy-network/findy-credex/agent/storage/cfg"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format/indy/memwallet"
	"github.com/lainio/err2/assert"
)

func TestNew(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ledger := memwallet.NewLedger()
	c := Config{Name: "agency-test-new", Endpoint: "https://agent.example.com/a2a/agency-test-new"}
	c.Indy.Issuer = memwallet.New(ledger)
	c.Indy.Ledger = ledger

	count := HandlerCount()
	a, err := New(c)
	assert.NoError(err)
	assert.Equal(HandlerCount(), count+1)
	assert.That(Handler(c.Name) == comm.Receiver(a))
	assert.SLen(a.Registry.Families(), 3)

	assert.NoError(a.Close())
	assert.Equal(HandlerCount(), count)
	assert.That(Handler(c.Name) == nil)
}

func TestNew_Formats(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	// indy is skipped without a wallet
	a, err := New(Config{Name: "agency-test-formats", Formats: []format.Family{format.FamilyIndy, format.FamilySDJWT}})
	assert.NoError(err)
	defer a.Close()
	assert.DeepEqual(a.Registry.Families(), []format.Family{format.FamilySDJWT})

	_, err = New(Config{Name: "agency-test-none", Formats: []format.Family{format.FamilyIndy}})
	assert.Error(err)
	assert.That(Handler("agency-test-none") == nil)

	// the failed agent released its storage: a new open gets a new provider
	st := cfg.AgentStorage{AgentID: "agency-test-none"}
	p1, err := st.Open()
	assert.NoError(err)
	assert.NoError(st.Close())
	p2, err := st.Open()
	assert.NoError(err)
	defer st.Close()
	assert.That(p1 != p2)
}

func TestPair(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	a, b, err := Pair(comm.NewLoopback(), "c1", Config{Name: "pair-a"}, Config{Name: "pair-b"})
	assert.NoError(err)
	defer a.Close()
	defer b.Close()

	assert.Equal(a.Endpoint, "loop://pair-a")
	c, err := a.Connections.Connection(context.Background(), "c1")
	assert.NoError(err)
	assert.Equal(c.Endpoint, b.Endpoint)
	assert.Equal(c.RemoteID, "c1")
	_, trusted := b.issuers[a.KMS.ID()]
	assert.That(trusted)
}
