// Package issuer implements the issuer side handlers of the inbound
// issue-credential messages.
package issuer

import (
	"context"

	"github.com/findy-network/findy-credex/agent/comm"
	"github.com/findy-network/findy-credex/agent/logctx"
	"github.com/findy-network/findy-credex/protocol/issuecredential/autoaccept"
	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/protocol/issuecredential/exchange"
	"github.com/findy-network/findy-credex/std/common"
	"github.com/findy-network/findy-credex/std/issuecredential"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Handlers of one protocol version.
type Handlers struct {
	Service     *exchange.Service
	Coordinator *autoaccept.Coordinator
}

// HandleProposal is protocol function for propose-credential at Issuer. The
// offer is sent right away when the auto-accept policy and the formats of
// the proposal allow it.
func (h Handlers) HandleProposal(ctx context.Context, packet comm.Packet) (env *comm.Envelope, err error) {
	defer err2.Handle(&err, "credential propose handler")

	msg := packet.Payload.FieldObj().(*issuecredential.Propose)
	rec := try.To1(h.Service.ProcessProposal(ctx, msg, packet.ConnectionID))
	ctx = withRecord(ctx, rec)

	if rec.State != data.StateProposalReceived ||
		!h.Coordinator.ShouldAutoRespondToProposal(ctx, rec) {
		logctx.From(ctx).Info().Msg("proposal waits for the controller")
		return nil, nil
	}
	out := try.To1(h.Service.AcceptProposal(ctx, exchange.AcceptProposalOptions{RecordID: rec.ID}))
	logctx.From(ctx).Info().Msg("offer sent automatically")
	return out.Envelope, nil
}

// HandleRequest is protocol function for request-credential at Issuer.
func (h Handlers) HandleRequest(ctx context.Context, packet comm.Packet) (env *comm.Envelope, err error) {
	defer err2.Handle(&err, "credential request handler")

	msg := packet.Payload.FieldObj().(*issuecredential.Request)
	rec := try.To1(h.Service.ProcessRequest(ctx, msg, packet.ConnectionID))
	ctx = withRecord(ctx, rec)

	if rec.State != data.StateRequestReceived ||
		!h.Coordinator.ShouldAutoRespondToRequest(ctx, rec) {
		logctx.From(ctx).Info().Msg("request waits for the controller")
		return nil, nil
	}
	out := try.To1(h.Service.AcceptRequest(ctx, exchange.AcceptRequestOptions{RecordID: rec.ID}))
	logctx.From(ctx).Info().Msg("credential issued automatically")
	return out.Envelope, nil
}

// HandleAck ends the exchange. Nothing is sent.
func (h Handlers) HandleAck(ctx context.Context, packet comm.Packet) (env *comm.Envelope, err error) {
	defer err2.Handle(&err, "credential ack handler")

	msg := packet.Payload.FieldObj().(*common.Ack)
	rec := try.To1(h.Service.ProcessAck(ctx, msg, packet.ConnectionID))
	logctx.From(withRecord(ctx, rec)).Info().Msg("exchange done")
	return nil, nil
}

func withRecord(ctx context.Context, rec *data.ExchangeRecord) context.Context {
	return logctx.With(ctx, "exchange_id", rec.ID, "thread_id", rec.ThreadID)
}
