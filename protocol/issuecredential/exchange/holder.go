package exchange

import (
	"context"

	"github.com/findy-network/findy-credex/agent/utils"
	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format"
	"github.com/findy-network/findy-credex/std/common"
	"github.com/findy-network/findy-credex/std/issuecredential"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

type ProposalOptions struct {
	// ConnectionID is empty for a connection-less exchange.
	ConnectionID   string
	ParentThreadID string
	Inputs         []format.Input
	Comment        string
	GoalCode       string
	AutoAccept     *data.AutoAccept
}

type AcceptOfferOptions struct {
	RecordID   string
	Inputs     []format.Input
	Comment    string
	AutoAccept *data.AutoAccept
}

type NegotiateOfferOptions struct {
	RecordID   string
	Inputs     []format.Input
	Comment    string
	GoalCode   string
	AutoAccept *data.AutoAccept
}

type DeclineOfferOptions struct {
	RecordID string
	// SendProblemReport tells the issuer why.
	SendProblemReport bool
	Description       string
}

type AcceptCredentialOptions struct {
	RecordID string
}

// CreateProposal starts the exchange as the holder.
func (s *Service) CreateProposal(ctx context.Context, o ProposalOptions) (out *Outbound, err error) {
	defer err2.Handle(&err, "create proposal")

	rec := data.NewExchangeRecord(utils.UUID(), s.version.Name, data.RoleHolder, "", o.ConnectionID)
	rec.ParentThreadID = o.ParentThreadID
	rec.AutoAccept = o.AutoAccept

	parts := try.To1(s.parts("build proposal", o.Inputs))
	msg := try.To1(s.builder.Proposal(ctx, s.buildContext(rec, o.Comment, o.GoalCode), rec, parts))
	rec.ThreadID = msg.Thread.ID

	hdr := issuecredential.NewPropose(msg)
	theirs, key := try.To2(s.address(ctx, rec, hdr, true))
	rec.Proposal = msg
	wire, env := try.To2(s.send(rec, hdr, theirs, key))

	try.To(s.commit(ctx, rec, data.StateProposalSent))
	return &Outbound{Record: rec, Message: wire, Envelope: env}, nil
}

// ProcessOffer takes the offer. An offer delivered again returns the
// record as it is.
func (s *Service) ProcessOffer(ctx context.Context, msg *issuecredential.Offer, connectionID string) (
	rec *data.ExchangeRecord, err error,
) {
	defer err2.Handle(&err, "process offer")

	hdr := issuecredential.NewOffer(msg)
	thid, pthid := threadOf(hdr)
	rec = try.To1(s.locate(ctx, thid, connectionID, data.RoleHolder))
	if rec != nil && rec.Offer != nil && rec.Offer.ID == msg.ID {
		return rec, nil
	}
	try.To(assertState(rec, data.StateNull, data.StateProposalSent))

	ds := try.To1(s.decodeAll("process offer", msg, format.Service.DecodeOffer))
	if rec == nil {
		rec = data.NewExchangeRecord(utils.UUID(), s.version.Name, data.RoleHolder, thid, connectionID)
		rec.ParentThreadID = pthid
	}
	rec.Offer = msg
	try.To(applyMetadata(rec, ds))

	try.To(s.commit(ctx, rec, data.StateOfferReceived))
	return rec, nil
}

// AcceptOffer sends the request for the offered credential.
func (s *Service) AcceptOffer(ctx context.Context, o AcceptOfferOptions) (out *Outbound, err error) {
	defer err2.Handle(&err, "accept offer")

	rec := try.To1(s.load(ctx, o.RecordID, data.RoleHolder, data.StateOfferReceived))
	if o.AutoAccept != nil {
		rec.AutoAccept = o.AutoAccept
	}
	parts := try.To1(s.partsOf("build request", rec.Offer, o.Inputs))
	msg := try.To1(s.builder.Request(ctx, s.buildContext(rec, o.Comment, ""), rec, parts))

	hdr := issuecredential.NewRequest(msg)
	theirs, key := try.To2(s.address(ctx, rec, hdr, false))
	rec.Request = msg
	wire, env := try.To2(s.send(rec, hdr, theirs, key))

	try.To(s.commit(ctx, rec, data.StateRequestSent))
	return &Outbound{Record: rec, Message: wire, Envelope: env}, nil
}

// NegotiateOffer answers the offer with a new proposal on the same thread.
func (s *Service) NegotiateOffer(ctx context.Context, o NegotiateOfferOptions) (out *Outbound, err error) {
	defer err2.Handle(&err, "negotiate offer")

	rec := try.To1(s.load(ctx, o.RecordID, data.RoleHolder, data.StateOfferReceived))
	if o.AutoAccept != nil {
		rec.AutoAccept = o.AutoAccept
	}
	parts := try.To1(s.parts("build proposal", o.Inputs))
	msg := try.To1(s.builder.Proposal(ctx, s.buildContext(rec, o.Comment, o.GoalCode), rec, parts))

	hdr := issuecredential.NewPropose(msg)
	theirs, key := try.To2(s.address(ctx, rec, hdr, false))
	rec.Proposal = msg
	wire, env := try.To2(s.send(rec, hdr, theirs, key))

	try.To(s.commit(ctx, rec, data.StateProposalSent))
	return &Outbound{Record: rec, Message: wire, Envelope: env}, nil
}

// DeclineOffer abandons the exchange. The problem report is sent only when
// asked; then Message and Envelope carry it.
func (s *Service) DeclineOffer(ctx context.Context, o DeclineOfferOptions) (out *Outbound, err error) {
	defer err2.Handle(&err, "decline offer")

	rec := try.To1(s.load(ctx, o.RecordID, data.RoleHolder, data.StateOfferReceived))
	rec.ErrorMessage = o.Description
	out = &Outbound{Record: rec}
	if o.SendProblemReport {
		out.Message, out.Envelope = try.To2(s.problemReport(ctx, rec, "", o.Description))
	}
	try.To(s.commit(ctx, rec, data.StateAbandoned))
	return out, nil
}

// ProcessCredential verifies the credentials against the request and
// stores them. The bindings of the stored credentials are added to the
// record.
func (s *Service) ProcessCredential(ctx context.Context, msg *issuecredential.Issue, connectionID string) (
	rec *data.ExchangeRecord, err error,
) {
	defer err2.Handle(&err, "process credential")

	const op = "process credential"
	hdr := issuecredential.NewIssue(msg)
	thid, _ := threadOf(hdr)
	rec = try.To1(s.locate(ctx, thid, connectionID, data.RoleHolder))
	try.To(assertState(rec, data.StateRequestSent))

	ds := try.To1(s.decodeAll(op, msg, format.Service.DecodeCredential))
	bindings := make([]data.Binding, 0, len(ds))
	for _, d := range ds {
		req, ok := attachmentOf(rec.Request, d.service)
		if !ok {
			return nil, format.NotFound(op, string(d.service.Family()))
		}
		_, cred, _ := issuecredential.AttachmentByFormat(msg, d.service.SupportsFormat)
		offer, _ := attachmentOf(rec.Offer, d.service)
		b, err := d.service.StoreCredential(ctx, format.StoreArgs{
			Record:     rec,
			Offer:      offer,
			Request:    *req,
			Credential: cred,
		})
		if err != nil {
			s.discard(ctx, rec, ds, bindings)
			return nil, format.Errorf(op, string(d.service.Family()), err)
		}
		bindings = append(bindings, b)
	}
	rec.Credential = msg
	rec.Bindings = bindings
	err = applyMetadata(rec, ds)
	if err == nil {
		err = s.commit(ctx, rec, data.StateCredentialReceived)
	}
	if err != nil {
		// the credential stores are not part of the record's transaction
		s.discard(ctx, rec, ds, bindings)
		return nil, err
	}
	return rec, nil
}

// AcceptCredential acks the credential and ends the exchange.
func (s *Service) AcceptCredential(ctx context.Context, o AcceptCredentialOptions) (out *Outbound, err error) {
	defer err2.Handle(&err, "accept credential")

	rec := try.To1(s.load(ctx, o.RecordID, data.RoleHolder, data.StateCredentialReceived))
	hdr := common.NewAck(s.builder.Ack(s.buildContext(rec, "", "")))
	theirs, key := try.To2(s.address(ctx, rec, hdr, false))
	wire, env := try.To2(s.send(rec, hdr, theirs, key))

	try.To(s.commit(ctx, rec, data.StateDone))
	return &Outbound{Record: rec, Message: wire, Envelope: env}, nil
}
