package exchange

import (
	"context"

	"github.com/findy-network/findy-credex/agent/comm"
	"github.com/findy-network/findy-credex/agent/didcomm"
	"github.com/findy-network/findy-credex/agent/logctx"
	"github.com/findy-network/findy-credex/protocol/issuecredential/builder"
	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/std/common"
	"github.com/findy-network/findy-credex/std/decorator"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

type ProblemReportOptions struct {
	RecordID    string
	Code        string
	Description string
}

func (s *Service) problemReport(ctx context.Context, rec *data.ExchangeRecord, code, description string) (
	didcomm.MessageHdr, *comm.Envelope, error,
) {
	hdr := common.NewProblemReport(s.builder.ProblemReport(s.buildContext(rec, "", ""), code, description))
	theirs, key, err := s.address(ctx, rec, hdr, false)
	if err != nil {
		return nil, nil, err
	}
	return s.send(rec, hdr, theirs, key)
}

// CreateProblemReport builds a problem report of the exchange. The record
// isn't changed.
func (s *Service) CreateProblemReport(ctx context.Context, o ProblemReportOptions) (out *Outbound, err error) {
	defer err2.Handle(&err, "create problem report")

	rec := try.To1(s.records.GetByID(ctx, o.RecordID))
	try.To(rec.AssertState(nonTerminal...))
	msg, env := try.To2(s.problemReport(ctx, rec, o.Code, o.Description))
	return &Outbound{Record: rec, Message: msg, Envelope: env}, nil
}

var nonTerminal = []data.State{
	data.StateProposalSent,
	data.StateProposalReceived,
	data.StateOfferSent,
	data.StateOfferReceived,
	data.StateRequestSent,
	data.StateRequestReceived,
	data.StateCredentialIssued,
	data.StateCredentialReceived,
}

// ProcessProblemReport abandons the exchange of either role. The
// description of the report is stored to the record.
func (s *Service) ProcessProblemReport(ctx context.Context, msg *common.ProblemReport, connectionID string) (
	rec *data.ExchangeRecord, err error,
) {
	defer err2.Handle(&err, "process problem report")

	thid, _ := threadOf(common.NewProblemReport(msg))
	rec = try.To1(s.locate(ctx, thid, connectionID, ""))
	try.To(assertState(rec, nonTerminal...))

	rec.ErrorMessage = msg.Text()
	try.To(s.commit(ctx, rec, data.StateAbandoned))
	return rec, nil
}

// AbandonThread abandons the live exchange of the thread after a message
// of it could not be processed. No live exchange gives nil.
func (s *Service) AbandonThread(ctx context.Context, threadID, connectionID string, role data.Role,
	reason string,
) (rec *data.ExchangeRecord, err error) {
	defer err2.Handle(&err, "abandon thread %s", threadID)

	rec = try.To1(s.locate(ctx, threadID, connectionID, role))
	if rec == nil || rec.IsTerminal() {
		return nil, nil
	}
	rec.ErrorMessage = reason
	try.To(s.commit(ctx, rec, data.StateAbandoned))
	return rec, nil
}

// ReplyProblem builds the problem report answering an inbound message which
// couldn't be processed. It's addressed by the connection or by the
// ~service of the inbound message; without either the result is nil.
func (s *Service) ReplyProblem(ctx context.Context, in didcomm.MessageHdr, connectionID, description string) (
	*comm.Envelope, error,
) {
	thid, pthid := threadOf(in)
	c := builder.Context{ThreadID: thid, ParentThreadID: pthid}
	hdr := common.NewProblemReport(s.builder.ProblemReport(c, builder.ProblemCodeAbandoned, description))

	var (
		theirs    *decorator.Service
		senderKey string
	)
	if connectionID == "" {
		if theirs = didcomm.ServiceOf(in); theirs == nil {
			return nil, nil
		}
		ours, err := s.ourService(ctx)
		if err != nil {
			logctx.From(ctx).Warn().Err(err).Msg("problem report without our service")
		} else {
			hdr.SetService(ours)
			senderKey = ours.RecipientKeys[0]
		}
	}
	rec := &data.ExchangeRecord{ConnectionID: connectionID}
	_, env, err := s.send(rec, hdr, theirs, senderKey)
	return env, err
}
