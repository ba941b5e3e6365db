/*
Package autoaccept decides whether the agent answers an inbound
issue-credential message without asking its controller. The policy of the
record overrides the agent default, and every format of the message must
approve the answer.
*/
package autoaccept

import (
	"context"

	"github.com/findy-network/findy-credex/agent/logctx"
	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format"
	"github.com/findy-network/findy-credex/std/decorator"
	"github.com/findy-network/findy-credex/std/issuecredential"
)

// Compose returns the effective policy: the record's override, else the
// agent default, else Never.
func Compose(record, agent *data.AutoAccept) data.AutoAccept {
	switch {
	case record != nil && *record != "":
		return *record
	case agent != nil && *agent != "":
		return *agent
	}
	return data.AutoAcceptNever
}

// Coordinator asks the formats of the message.
type Coordinator struct {
	Registry     *format.Registry
	AgentDefault *data.AutoAccept
}

func New(r *format.Registry, agentDefault data.AutoAccept) *Coordinator {
	return &Coordinator{Registry: r, AgentDefault: &agentDefault}
}

// Policy is the effective policy of the record.
func (c *Coordinator) Policy(rec *data.ExchangeRecord) data.AutoAccept {
	return Compose(rec.AutoAccept, c.AgentDefault)
}

type question func(s format.Service, ctx context.Context, args format.AutoRespondArgs) bool

func (c *Coordinator) ShouldAutoRespondToProposal(ctx context.Context, rec *data.ExchangeRecord) bool {
	proposal, _, _, _ := rec.Messages()
	return c.decide(ctx, "proposal", rec, proposal, format.Service.ShouldAutoRespondToProposal)
}

func (c *Coordinator) ShouldAutoRespondToOffer(ctx context.Context, rec *data.ExchangeRecord) bool {
	_, offer, _, _ := rec.Messages()
	return c.decide(ctx, "offer", rec, offer, format.Service.ShouldAutoRespondToOffer)
}

func (c *Coordinator) ShouldAutoRespondToRequest(ctx context.Context, rec *data.ExchangeRecord) bool {
	_, _, request, _ := rec.Messages()
	return c.decide(ctx, "request", rec, request, format.Service.ShouldAutoRespondToRequest)
}

func (c *Coordinator) ShouldAutoRespondToCredential(ctx context.Context, rec *data.ExchangeRecord) bool {
	_, _, _, credential := rec.Messages()
	return c.decide(ctx, "credential", rec, credential, format.Service.ShouldAutoRespondToCredential)
}

func (c *Coordinator) decide(ctx context.Context, step string, rec *data.ExchangeRecord,
	msg issuecredential.Formatted, ask question,
) bool {
	log := logctx.From(ctx)
	policy := c.Policy(rec)
	if policy == data.AutoAcceptNever {
		log.Debug().Str("step", step).Msg("auto-accept never")
		return false
	}
	if msg == nil || len(msg.FormatList()) == 0 {
		log.Debug().Str("step", step).Msg("auto-accept: no formats")
		return false
	}
	for _, spec := range msg.FormatList() {
		s, ok := c.Registry.ForFormat(spec.Format)
		if !ok {
			log.Debug().Str("step", step).Str("format", spec.Format).
				Msg("auto-accept: unknown format")
			return false
		}
		if !ask(s, ctx, args(rec, s, policy)) {
			log.Debug().Str("step", step).Str("format", spec.Format).
				Str("policy", string(policy)).Msg("auto-accept refused")
			return false
		}
	}
	log.Debug().Str("step", step).Str("policy", string(policy)).Msg("auto-accept approved")
	return true
}

func args(rec *data.ExchangeRecord, s format.Service, policy data.AutoAccept) format.AutoRespondArgs {
	proposal, offer, request, credential := rec.Messages()
	a := format.AutoRespondArgs{
		Record:     rec,
		Policy:     policy,
		Proposal:   attachment(proposal, s),
		Offer:      attachment(offer, s),
		Request:    attachment(request, s),
		Credential: attachment(credential, s),
	}
	if rec.Proposal != nil {
		a.ProposalPreview = rec.Proposal.CredentialPreview
	}
	if rec.Offer != nil {
		a.OfferPreview = rec.Offer.CredentialPreview
	}
	return a
}

func attachment(m issuecredential.Formatted, s format.Service) *decorator.Attachment {
	if m == nil {
		return nil
	}
	_, a, ok := issuecredential.AttachmentByFormat(m, s.SupportsFormat)
	if !ok {
		return nil
	}
	return &a
}
