/*
Package issuecredential is the issue-credential protocol of the agent. The
API is used by the controller to start and continue exchanges, and the
processors registered to the dispatcher handle the inbound messages of
both protocol versions. The revocation notifications of the issued indy
credentials are served by the same API.
*/
package issuecredential

import (
	"context"
	"errors"
	"fmt"

	"github.com/findy-network/findy-credex/agent/bus"
	"github.com/findy-network/findy-credex/agent/comm"
	"github.com/findy-network/findy-credex/agent/pltype"
	"github.com/findy-network/findy-credex/protocol/issuecredential/autoaccept"
	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/protocol/issuecredential/exchange"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format"
	"github.com/findy-network/findy-credex/protocol/revocationnotification"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

var ErrUnknownVersion = errors.New("unknown protocol version")

type Config struct {
	Registry *format.Registry
	Records  exchange.Records
	Events   bus.Emitter
	Router   comm.Router
	// Sender delivers the outbound messages of the API calls.
	Sender comm.Sender
	// AutoAccept is the agent default, records can override it.
	AutoAccept data.AutoAccept
	// Versions served, nil serves both 1.0 and 2.0.
	Versions []exchange.Version
}

type API struct {
	services    map[data.Version]*exchange.Service
	coordinator *autoaccept.Coordinator
	revocation  *revocationnotification.Service
	records     exchange.Records
	sender      comm.Sender
}

func NewAPI(c Config) *API {
	versions := c.Versions
	if versions == nil {
		versions = []exchange.Version{exchange.V1, exchange.V2}
	}
	a := &API{
		services:    make(map[data.Version]*exchange.Service, len(versions)),
		coordinator: autoaccept.New(c.Registry, c.AutoAccept),
		records:     c.Records,
		sender:      c.Sender,
	}
	revocations, _ := c.Events.(bus.RevocationEmitter)
	a.revocation = revocationnotification.New(revocationnotification.Config{
		Records:  c.Records,
		Registry: c.Registry,
		Events:   revocations,
	})
	for _, v := range versions {
		a.services[v.Name] = exchange.New(exchange.Config{
			Version:  v,
			Registry: c.Registry,
			Records:  c.Records,
			Events:   c.Events,
			Router:   c.Router,
		})
	}
	return a
}

// Register adds the processors of every served version to the dispatcher.
func (a *API) Register(d *comm.Dispatcher) {
	for _, svc := range a.services {
		d.Add(pltype.ProtocolIssueCredential, svc.Version().Type, Processor(svc, a.coordinator))
	}
	a.revocation.Register(d)
}

// Service returns the protocol service of the version.
func (a *API) Service(v data.Version) (*exchange.Service, error) {
	svc, ok := a.services[v]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVersion, v)
	}
	return svc, nil
}

func (a *API) serviceOf(ctx context.Context, recordID string) (*exchange.Service, error) {
	rec, err := a.records.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return a.Service(rec.ProtocolVersion)
}

// send delivers the outbound message of a committed transition. The record
// is returned also when the delivery fails.
func (a *API) send(ctx context.Context, out *exchange.Outbound) (*exchange.Outbound, error) {
	if out.Envelope == nil || a.sender == nil {
		return out, nil
	}
	if err := comm.Send(ctx, a.sender, out.Envelope); err != nil {
		return out, fmt.Errorf("send %s: %w", out.Envelope, err)
	}
	return out, nil
}

// ProposeCredential starts an exchange as holder. A connection-less
// proposal isn't sent, the caller delivers out.Message.
func (a *API) ProposeCredential(ctx context.Context, v data.Version, o exchange.ProposalOptions) (
	out *exchange.Outbound, err error,
) {
	defer err2.Handle(&err, "propose credential")

	svc := try.To1(a.Service(v))
	return a.send(ctx, try.To1(svc.CreateProposal(ctx, o)))
}

// OfferCredential starts an exchange as issuer. A connection-less offer
// isn't sent, the caller delivers out.Message.
func (a *API) OfferCredential(ctx context.Context, v data.Version, o exchange.OfferOptions) (
	out *exchange.Outbound, err error,
) {
	defer err2.Handle(&err, "offer credential")

	svc := try.To1(a.Service(v))
	return a.send(ctx, try.To1(svc.CreateOffer(ctx, o)))
}

func (a *API) AcceptProposal(ctx context.Context, o exchange.AcceptProposalOptions) (
	out *exchange.Outbound, err error,
) {
	defer err2.Handle(&err, "accept proposal")

	svc := try.To1(a.serviceOf(ctx, o.RecordID))
	return a.send(ctx, try.To1(svc.AcceptProposal(ctx, o)))
}

func (a *API) NegotiateProposal(ctx context.Context, o exchange.NegotiateProposalOptions) (
	out *exchange.Outbound, err error,
) {
	defer err2.Handle(&err, "negotiate proposal")

	svc := try.To1(a.serviceOf(ctx, o.RecordID))
	return a.send(ctx, try.To1(svc.NegotiateProposal(ctx, o)))
}

func (a *API) AcceptOffer(ctx context.Context, o exchange.AcceptOfferOptions) (
	out *exchange.Outbound, err error,
) {
	defer err2.Handle(&err, "accept offer")

	svc := try.To1(a.serviceOf(ctx, o.RecordID))
	return a.send(ctx, try.To1(svc.AcceptOffer(ctx, o)))
}

func (a *API) NegotiateOffer(ctx context.Context, o exchange.NegotiateOfferOptions) (
	out *exchange.Outbound, err error,
) {
	defer err2.Handle(&err, "negotiate offer")

	svc := try.To1(a.serviceOf(ctx, o.RecordID))
	return a.send(ctx, try.To1(svc.NegotiateOffer(ctx, o)))
}

func (a *API) DeclineOffer(ctx context.Context, o exchange.DeclineOfferOptions) (
	out *exchange.Outbound, err error,
) {
	defer err2.Handle(&err, "decline offer")

	svc := try.To1(a.serviceOf(ctx, o.RecordID))
	return a.send(ctx, try.To1(svc.DeclineOffer(ctx, o)))
}

func (a *API) AcceptRequest(ctx context.Context, o exchange.AcceptRequestOptions) (
	out *exchange.Outbound, err error,
) {
	defer err2.Handle(&err, "accept request")

	svc := try.To1(a.serviceOf(ctx, o.RecordID))
	return a.send(ctx, try.To1(svc.AcceptRequest(ctx, o)))
}

func (a *API) AcceptCredential(ctx context.Context, o exchange.AcceptCredentialOptions) (
	out *exchange.Outbound, err error,
) {
	defer err2.Handle(&err, "accept credential")

	svc := try.To1(a.serviceOf(ctx, o.RecordID))
	return a.send(ctx, try.To1(svc.AcceptCredential(ctx, o)))
}

// Continue accepts the step the record waits for with the content already
// negotiated. It returns nil when the other party is due.
func (a *API) Continue(ctx context.Context, rec *data.ExchangeRecord) (*exchange.Outbound, error) {
	switch rec.State {
	case data.StateProposalReceived:
		return a.AcceptProposal(ctx, exchange.AcceptProposalOptions{RecordID: rec.ID})
	case data.StateOfferReceived:
		return a.AcceptOffer(ctx, exchange.AcceptOfferOptions{RecordID: rec.ID})
	case data.StateRequestReceived:
		return a.AcceptRequest(ctx, exchange.AcceptRequestOptions{RecordID: rec.ID})
	case data.StateCredentialReceived:
		return a.AcceptCredential(ctx, exchange.AcceptCredentialOptions{RecordID: rec.ID})
	}
	return nil, nil
}

// SendProblemReport tells the other party about a problem of the exchange.
// The exchange itself continues.
func (a *API) SendProblemReport(ctx context.Context, o exchange.ProblemReportOptions) (
	out *exchange.Outbound, err error,
) {
	defer err2.Handle(&err, "send problem report")

	svc := try.To1(a.serviceOf(ctx, o.RecordID))
	return a.send(ctx, try.To1(svc.CreateProblemReport(ctx, o)))
}

// Abandon ends the exchange and tells the other party with a problem
// report.
func (a *API) Abandon(ctx context.Context, recordID, reason string) (out *exchange.Outbound, err error) {
	defer err2.Handle(&err, "abandon exchange")

	svc := try.To1(a.serviceOf(ctx, recordID))
	out = try.To1(svc.CreateProblemReport(ctx, exchange.ProblemReportOptions{
		RecordID:    recordID,
		Description: reason,
	}))
	rec := out.Record
	out.Record = try.To1(svc.AbandonThread(ctx, rec.ThreadID, rec.ConnectionID, rec.Role, reason))
	return a.send(ctx, out)
}

// NotifyRevocation tells the holder that the indy credential the issuer's
// record issued has been revoked.
func (a *API) NotifyRevocation(ctx context.Context, o revocationnotification.NotifyOptions) (
	env *comm.Envelope, err error,
) {
	defer err2.Handle(&err, "notify revocation")

	env = try.To1(a.revocation.CreateRevocation(ctx, o))
	if a.sender != nil {
		try.To(comm.Send(ctx, a.sender, env))
	}
	return env, nil
}

func (a *API) GetByID(ctx context.Context, recordID string) (*data.ExchangeRecord, error) {
	return a.records.GetByID(ctx, recordID)
}

// FindAllByQuery returns the matching records of all versions.
func (a *API) FindAllByQuery(ctx context.Context, q data.Query) ([]*data.ExchangeRecord, error) {
	return a.records.FindByQuery(ctx, q)
}

func (a *API) GetFormatData(ctx context.Context, recordID string) (fd *exchange.FormatData, err error) {
	defer err2.Handle(&err, "get format data")

	svc := try.To1(a.serviceOf(ctx, recordID))
	return svc.GetFormatData(ctx, recordID)
}
