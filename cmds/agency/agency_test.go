package agency

import (
	"context"
	"testing"

	"github.com/findy-network/findy-credex/agent/agency"
	"github.com/findy-network/findy-credex/agent/comm"
	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/protocol/issuecredential/exchange"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format/sdjwt"
	"github.com/lainio/err2/assert"
)

func TestCmd_Validate(t *testing.T) {
	valid := DefaultValues
	tests := []struct {
		name string
		edit func(c *Cmd)
		ok   bool
	}{
		{"defaults", func(*Cmd) {}, true},
		{"no name", func(c *Cmd) { c.Name = "" }, false},
		{"name with path", func(c *Cmd) { c.Name = "a/b" }, false},
		{"no port", func(c *Cmd) { c.ServerPort = 0 }, false},
		{"bolt without key", func(c *Cmd) { c.StorageBackend = "bolt" }, false},
		{"bolt", func(c *Cmd) {
			c.StorageBackend = "bolt"
			c.StorageKey = "15308490f1e4026284594dd08d31291bc8ef2aeac730d0daf6ff87bb92d4336c"
		}, true},
		{"sqlite", func(c *Cmd) { c.StorageBackend = "sqlite" }, true},
		{"unknown backend", func(c *Cmd) { c.StorageBackend = "redis" }, false},
		{"auto-accept", func(c *Cmd) { c.AutoAccept = "always" }, true},
		{"bad auto-accept", func(c *Cmd) { c.AutoAccept = "maybe" }, false},
		{"formats", func(c *Cmd) { c.Formats = "sdjwt,ldproof" }, true},
		{"bad formats", func(c *Cmd) { c.Formats = "mdoc" }, false},
		{"bad report time", func(c *Cmd) { c.ReportTime = "25:00" }, false},
		{"no report", func(c *Cmd) { c.ReportTime = "" }, true},
		{"indy without key", func(c *Cmd) { c.IndyWallet = "issuer" }, false},
		{"grpc without secret", func(c *Cmd) { c.GRPCPort = 50051 }, false},
		{"grpc", func(c *Cmd) {
			c.GRPCPort = 50051
			c.JWTSecret = "secret"
		}, true},
		{"grpc no auth", func(c *Cmd) {
			c.GRPCPort = 50051
			c.GRPCNoAuth = true
		}, true},
		{"bad grpc port", func(c *Cmd) { c.GRPCPort = -1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()

			c := valid
			tt.edit(&c)
			err := c.Validate()
			if tt.ok {
				assert.NoError(err)
			} else {
				assert.Error(err)
			}
		})
	}
}

func TestCmd_Endpoint(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	c := DefaultValues
	c.Name = "alice"
	assert.Equal(c.Endpoint(), "http://localhost:8080/a2a/alice")
	c.NATSURL = "nats://localhost:4222"
	assert.Equal(c.Endpoint(), "nats://credex.alice")
}

func TestCmd_GRPCConfig(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	c := DefaultValues
	c.Name = "alice"
	c.GRPCPort = 50051
	c.JWTSecret = "secret"
	gc := c.grpcConfig()
	assert.Equal(gc.Port, 50051)
	assert.Equal(gc.DefaultAgent, "alice")
	assert.Equal(gc.JWTSecret, "secret")
	assert.That(!gc.NoAuthorization)
}

func TestPending(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctx := context.Background()

	issuer, holder, err := agency.Pair(comm.NewLoopback(), "c1",
		agency.Config{Name: "pending-issuer", AutoAccept: data.AutoAcceptNever},
		agency.Config{Name: "pending-holder", AutoAccept: data.AutoAcceptNever},
	)
	assert.NoError(err)
	defer issuer.Close()
	defer holder.Close()

	counts, err := Pending(ctx, issuer)
	assert.NoError(err)
	assert.SLen(counts, 0)

	for i := 0; i < 2; i++ {
		_, err = issuer.API.OfferCredential(ctx, data.V2, exchange.OfferOptions{
			ConnectionID: "c1",
			Inputs: []format.Input{sdjwt.Input{
				VCT:    "https://credentials.example.com/member",
				Claims: map[string]any{"member": true},
			}},
		})
		assert.NoError(err)
	}

	counts, err = Pending(ctx, issuer)
	assert.NoError(err)
	assert.DeepEqual(counts, []PendingCount{{State: data.StateOfferSent, Count: 2}})
	counts, err = Pending(ctx, holder)
	assert.NoError(err)
	assert.DeepEqual(counts, []PendingCount{{State: data.StateOfferReceived, Count: 2}})
	assert.NoError(LogPending(ctx, holder))
}
