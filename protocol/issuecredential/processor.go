package issuecredential

import (
	"context"

	"github.com/findy-network/findy-credex/agent/comm"
	"github.com/findy-network/findy-credex/agent/didcomm"
	"github.com/findy-network/findy-credex/agent/logctx"
	"github.com/findy-network/findy-credex/agent/pltype"
	"github.com/findy-network/findy-credex/protocol/issuecredential/autoaccept"
	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/protocol/issuecredential/exchange"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format"
	"github.com/findy-network/findy-credex/protocol/issuecredential/holder"
	"github.com/findy-network/findy-credex/protocol/issuecredential/issuer"
	"github.com/findy-network/findy-credex/std/common"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Processor returns the protocol processor of the service's version. Both
// roles are served by the same processor.
func Processor(svc *exchange.Service, c *autoaccept.Coordinator) comm.ProtProc {
	iss := issuer.Handlers{Service: svc, Coordinator: c}
	hold := holder.Handlers{Service: svc, Coordinator: c}
	return comm.ProtProc{
		Handlers: map[string]comm.HandlerFunc{
			pltype.HandlerPropose:       inbound(svc, data.RoleIssuer, iss.HandleProposal),
			pltype.HandlerOffer:         inbound(svc, data.RoleHolder, hold.HandleOffer),
			pltype.HandlerRequest:       inbound(svc, data.RoleIssuer, iss.HandleRequest),
			pltype.HandlerIssue:         inbound(svc, data.RoleHolder, hold.HandleCredential),
			pltype.HandlerACK:           inbound(svc, data.RoleIssuer, iss.HandleAck),
			pltype.HandlerProblemReport: inbound(svc, "", HandleProblemReport(svc)),
		},
	}
}

// HandleProblemReport abandons the exchange the report is about. A problem
// report is never answered.
func HandleProblemReport(svc *exchange.Service) comm.HandlerFunc {
	return func(ctx context.Context, packet comm.Packet) (env *comm.Envelope, err error) {
		defer err2.Handle(&err, "problem report handler")

		msg := packet.Payload.FieldObj().(*common.ProblemReport)
		rec := try.To1(svc.ProcessProblemReport(ctx, msg, packet.ConnectionID))
		logctx.From(ctx).Warn().
			Str("exchange_id", rec.ID).
			Str("thread_id", rec.ThreadID).
			Str("reason", rec.ErrorMessage).
			Msg("exchange abandoned by the other party")
		return nil, nil
	}
}

// inbound converts the message to the version independent form before the
// handler. When the handler fails on the content of the message, the live
// exchange of the thread is abandoned and the problem report is the reply.
func inbound(svc *exchange.Service, role data.Role, h comm.HandlerFunc) comm.HandlerFunc {
	return func(ctx context.Context, packet comm.Packet) (*comm.Envelope, error) {
		wire := packet.Payload
		ctx = logctx.With(ctx, "type", wire.Type(), "connection_id", packet.ConnectionID)

		canonical, err := svc.Version().Inbound(wire)
		if err != nil {
			err = &format.Error{Op: "convert " + wire.Type(), Err: err}
		} else {
			packet.Payload = canonical
			var env *comm.Envelope
			if env, err = h(ctx, packet); err == nil {
				return env, nil
			}
		}
		if role == "" || !format.IsFormatError(err) {
			logctx.From(ctx).Error().Err(err).Msg("inbound message failed")
			return nil, err
		}
		return reject(ctx, svc, role, wire, packet.ConnectionID, err)
	}
}

func reject(ctx context.Context, svc *exchange.Service, role data.Role, in didcomm.MessageHdr,
	connectionID string, cause error,
) (*comm.Envelope, error) {
	log := logctx.From(ctx)
	log.Warn().Err(cause).Msg("inbound message rejected")

	reason := cause.Error()
	if _, err := svc.AbandonThread(ctx, didcomm.ThreadID(in), connectionID, role, reason); err != nil {
		log.Error().Err(err).Msg("abandon thread")
	}
	env, err := svc.ReplyProblem(ctx, in, connectionID, reason)
	if err != nil {
		log.Error().Err(err).Msg("problem report")
		return nil, cause
	}
	if env == nil {
		// no way to tell the other party
		return nil, cause
	}
	return env, nil
}
