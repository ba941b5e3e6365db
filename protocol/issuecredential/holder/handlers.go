// Package holder implements the holder side handlers of the inbound
// issue-credential messages.
package holder

import (
	"context"

	"github.com/findy-network/findy-credex/agent/comm"
	"github.com/findy-network/findy-credex/agent/logctx"
	"github.com/findy-network/findy-credex/protocol/issuecredential/autoaccept"
	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/protocol/issuecredential/exchange"
	"github.com/findy-network/findy-credex/std/issuecredential"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

type Handlers struct {
	Service     *exchange.Service
	Coordinator *autoaccept.Coordinator
}

// HandleOffer is protocol function for offer-credential at holder. It
// starts a new exchange when we didn't propose first.
func (h Handlers) HandleOffer(ctx context.Context, packet comm.Packet) (env *comm.Envelope, err error) {
	defer err2.Handle(&err, "credential offer handler")

	msg := packet.Payload.FieldObj().(*issuecredential.Offer)
	rec := try.To1(h.Service.ProcessOffer(ctx, msg, packet.ConnectionID))
	ctx = logctx.With(ctx, "exchange_id", rec.ID, "thread_id", rec.ThreadID)

	if rec.State != data.StateOfferReceived ||
		!h.Coordinator.ShouldAutoRespondToOffer(ctx, rec) {
		logctx.From(ctx).Info().Msg("offer waits for the controller")
		return nil, nil
	}
	out := try.To1(h.Service.AcceptOffer(ctx, exchange.AcceptOfferOptions{RecordID: rec.ID}))
	logctx.From(ctx).Info().Msg("request sent automatically")
	return out.Envelope, nil
}

// HandleCredential stores the issued credentials and acks them when
// auto-accept allows.
func (h Handlers) HandleCredential(ctx context.Context, packet comm.Packet) (env *comm.Envelope, err error) {
	defer err2.Handle(&err, "credential issue handler")

	msg := packet.Payload.FieldObj().(*issuecredential.Issue)
	rec := try.To1(h.Service.ProcessCredential(ctx, msg, packet.ConnectionID))
	ctx = logctx.With(ctx, "exchange_id", rec.ID, "thread_id", rec.ThreadID)

	if !h.Coordinator.ShouldAutoRespondToCredential(ctx, rec) {
		logctx.From(ctx).Info().Msg("credential waits for the controller")
		return nil, nil
	}
	out := try.To1(h.Service.AcceptCredential(ctx, exchange.AcceptCredentialOptions{RecordID: rec.ID}))
	logctx.From(ctx).Info().Msg("credential accepted")
	return out.Envelope, nil
}
