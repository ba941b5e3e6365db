package exchange

import (
	"context"

	"github.com/findy-network/findy-credex/agent/utils"
	"github.com/findy-network/findy-credex/protocol/issuecredential/builder"
	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format"
	"github.com/findy-network/findy-credex/std/common"
	"github.com/findy-network/findy-credex/std/issuecredential"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

type OfferOptions struct {
	// ConnectionID is empty for a connection-less exchange.
	ConnectionID   string
	ParentThreadID string
	Inputs         []format.Input
	Comment        string
	GoalCode       string
	AutoAccept     *data.AutoAccept
}

type AcceptProposalOptions struct {
	RecordID string
	// Inputs are optional, the formats derive the offer from the proposal.
	Inputs     []format.Input
	Comment    string
	GoalCode   string
	AutoAccept *data.AutoAccept
}

type NegotiateProposalOptions struct {
	RecordID   string
	Inputs     []format.Input
	Comment    string
	GoalCode   string
	AutoAccept *data.AutoAccept
}

type AcceptRequestOptions struct {
	RecordID   string
	Inputs     []format.Input
	Comment    string
	AutoAccept *data.AutoAccept
}

// ProcessProposal takes the proposal of the holder. It starts a new
// exchange or answers our offer. A proposal delivered again returns the
// record as it is.
func (s *Service) ProcessProposal(ctx context.Context, msg *issuecredential.Propose, connectionID string) (
	rec *data.ExchangeRecord, err error,
) {
	defer err2.Handle(&err, "process proposal")

	hdr := issuecredential.NewPropose(msg)
	thid, pthid := threadOf(hdr)
	rec = try.To1(s.locate(ctx, thid, connectionID, data.RoleIssuer))
	if rec != nil && rec.Proposal != nil && rec.Proposal.ID == msg.ID {
		return rec, nil
	}
	try.To(assertState(rec, data.StateNull, data.StateOfferSent))

	ds := try.To1(s.decodeAll("process proposal", msg, format.Service.DecodeProposal))
	if rec == nil {
		rec = data.NewExchangeRecord(utils.UUID(), s.version.Name, data.RoleIssuer, thid, connectionID)
		rec.ParentThreadID = pthid
	}
	rec.Proposal = msg
	try.To(applyMetadata(rec, ds))

	try.To(s.commit(ctx, rec, data.StateProposalReceived))
	return rec, nil
}

// AcceptProposal offers what the holder proposed.
func (s *Service) AcceptProposal(ctx context.Context, o AcceptProposalOptions) (out *Outbound, err error) {
	defer err2.Handle(&err, "accept proposal")

	rec := try.To1(s.load(ctx, o.RecordID, data.RoleIssuer, data.StateProposalReceived))
	parts := try.To1(s.partsOf("build offer", rec.Proposal, o.Inputs))
	return s.offer(ctx, rec, parts, o.Comment, o.GoalCode, o.AutoAccept)
}

// NegotiateProposal answers the proposal with an offer of other content.
func (s *Service) NegotiateProposal(ctx context.Context, o NegotiateProposalOptions) (out *Outbound, err error) {
	defer err2.Handle(&err, "negotiate proposal")

	rec := try.To1(s.load(ctx, o.RecordID, data.RoleIssuer, data.StateProposalReceived))
	parts := try.To1(s.parts("build offer", o.Inputs))
	return s.offer(ctx, rec, parts, o.Comment, o.GoalCode, o.AutoAccept)
}

// CreateOffer starts the exchange as the issuer.
func (s *Service) CreateOffer(ctx context.Context, o OfferOptions) (out *Outbound, err error) {
	defer err2.Handle(&err, "create offer")

	rec := data.NewExchangeRecord(utils.UUID(), s.version.Name, data.RoleIssuer, "", o.ConnectionID)
	rec.ParentThreadID = o.ParentThreadID
	parts := try.To1(s.parts("build offer", o.Inputs))
	return s.offer(ctx, rec, parts, o.Comment, o.GoalCode, o.AutoAccept)
}

func (s *Service) offer(ctx context.Context, rec *data.ExchangeRecord, parts []builder.Part,
	comment, goalCode string, autoAccept *data.AutoAccept,
) (out *Outbound, err error) {
	defer err2.Handle(&err)

	if autoAccept != nil {
		rec.AutoAccept = autoAccept
	}
	msg := try.To1(s.builder.Offer(ctx, s.buildContext(rec, comment, goalCode), rec, parts))
	initiating := rec.State == data.StateNull
	if initiating {
		rec.ThreadID = msg.Thread.ID
	}

	hdr := issuecredential.NewOffer(msg)
	theirs, key := try.To2(s.address(ctx, rec, hdr, initiating))
	rec.Offer = msg
	wire, env := try.To2(s.send(rec, hdr, theirs, key))

	try.To(s.commit(ctx, rec, data.StateOfferSent))
	return &Outbound{Record: rec, Message: wire, Envelope: env}, nil
}

// ProcessRequest takes the request for our offer.
func (s *Service) ProcessRequest(ctx context.Context, msg *issuecredential.Request, connectionID string) (
	rec *data.ExchangeRecord, err error,
) {
	defer err2.Handle(&err, "process request")

	const op = "process request"
	hdr := issuecredential.NewRequest(msg)
	thid, _ := threadOf(hdr)
	rec = try.To1(s.locate(ctx, thid, connectionID, data.RoleIssuer))
	if rec != nil && rec.Request != nil && rec.Request.ID == msg.ID {
		return rec, nil
	}
	try.To(assertState(rec, data.StateOfferSent))

	ds := try.To1(s.decodeAll(op, msg, format.Service.DecodeRequest))
	for _, d := range ds {
		if _, ok := attachmentOf(rec.Offer, d.service); !ok {
			return nil, format.NotFound(op, string(d.service.Family()))
		}
	}
	rec.Request = msg
	try.To(applyMetadata(rec, ds))

	try.To(s.commit(ctx, rec, data.StateRequestReceived))
	return rec, nil
}

// AcceptRequest issues the requested credentials. The bindings of the
// issued credentials are added to the record.
func (s *Service) AcceptRequest(ctx context.Context, o AcceptRequestOptions) (out *Outbound, err error) {
	defer err2.Handle(&err, "accept request")

	rec := try.To1(s.load(ctx, o.RecordID, data.RoleIssuer, data.StateRequestReceived))
	if o.AutoAccept != nil {
		rec.AutoAccept = o.AutoAccept
	}
	parts := try.To1(s.partsOf("build credential", rec.Request, o.Inputs))
	c := s.buildContext(rec, o.Comment, "")
	c.PleaseAck = s.version.PleaseAck
	msg, bindings := try.To2(s.builder.Credential(ctx, c, rec, parts))

	hdr := issuecredential.NewIssue(msg)
	theirs, key := try.To2(s.address(ctx, rec, hdr, false))
	rec.Credential = msg
	rec.Bindings = bindings
	wire, env := try.To2(s.send(rec, hdr, theirs, key))

	try.To(s.commit(ctx, rec, data.StateCredentialIssued))
	return &Outbound{Record: rec, Message: wire, Envelope: env}, nil
}

// ProcessAck ends the exchange.
func (s *Service) ProcessAck(ctx context.Context, msg *common.Ack, connectionID string) (
	rec *data.ExchangeRecord, err error,
) {
	defer err2.Handle(&err, "process ack")

	thid, _ := threadOf(common.NewAck(msg))
	rec = try.To1(s.locate(ctx, thid, connectionID, data.RoleIssuer))
	try.To(assertState(rec, data.StateCredentialIssued))

	try.To(s.commit(ctx, rec, data.StateDone))
	return rec, nil
}
