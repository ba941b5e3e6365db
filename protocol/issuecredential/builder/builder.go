/*
Package builder assembles the issue-credential messages from the format
services. Every format part adds one formats[] entry and one attachment.
The builder doesn't persist anything, it reads the earlier messages of the
exchange from the record it's given.
*/
package builder

import (
	"context"
	"fmt"

	"github.com/findy-network/findy-credex/agent/pltype"
	"github.com/findy-network/findy-credex/agent/utils"
	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format"
	"github.com/findy-network/findy-credex/std/common"
	"github.com/findy-network/findy-credex/std/decorator"
	"github.com/findy-network/findy-credex/std/issuecredential"
)

// ProblemCodeAbandoned is the problem report code of an abandoned issuance.
const ProblemCodeAbandoned = "issuance-abandoned"

// Part is one format of the message and its optional input.
type Part struct {
	Service format.Service
	Input   format.Input
}

// Context carries the message level fields.
type Context struct {
	ThreadID       string
	ParentThreadID string
	Comment        string
	GoalCode       string
	Preview        *issuecredential.Preview
	PleaseAck      bool
}

// Builder builds canonical (2.0 shaped) messages. MaxFormats of zero means
// no limit.
type Builder struct {
	MaxFormats int
}

func New(maxFormats int) Builder {
	return Builder{MaxFormats: maxFormats}
}

func (b Builder) check(op string, parts []Part) error {
	if len(parts) == 0 {
		return &format.Error{Op: op, Err: format.ErrNoInput}
	}
	if b.MaxFormats > 0 && len(parts) > b.MaxFormats {
		return &format.Error{Op: op, Err: fmt.Errorf("%w: %d > %d",
			format.ErrTooManyFormats, len(parts), b.MaxFormats)}
	}
	seen := make(map[format.Family]bool, len(parts))
	for _, p := range parts {
		f := p.Service.Family()
		if seen[f] {
			return &format.Error{Op: op, Format: string(f),
				Err: fmt.Errorf("%w: family twice", format.ErrTooManyFormats)}
		}
		seen[f] = true
	}
	return nil
}

func (c Context) thread(id string) *decorator.Thread {
	thid := c.ThreadID
	if thid == "" {
		thid = id
	}
	return &decorator.Thread{ID: thid, PID: c.ParentThreadID}
}

// attach gives the attachment its id and the format spec pointing to it.
func attach(a format.Attached) (issuecredential.FormatSpec, decorator.Attachment) {
	a.Attachment.ID = utils.UUID()
	return issuecredential.FormatSpec{AttachID: a.Attachment.ID, Format: a.Format}, a.Attachment
}

// prior returns the attachment of the format from an earlier message.
func prior(m issuecredential.Formatted, s format.Service) (*decorator.Attachment, bool) {
	if m == nil {
		return nil, false
	}
	_, a, ok := issuecredential.AttachmentByFormat(m, s.SupportsFormat)
	if !ok {
		return nil, false
	}
	return &a, true
}

func (b Builder) Proposal(ctx context.Context, c Context, rec *data.ExchangeRecord,
	parts []Part,
) (*issuecredential.Propose, error) {
	const op = "build proposal"
	if err := b.check(op, parts); err != nil {
		return nil, err
	}
	id := utils.UUID()
	msg := &issuecredential.Propose{
		ID:       id,
		Type:     pltype.IssueCredentialPropose,
		Comment:  c.Comment,
		GoalCode: c.GoalCode,
		Thread:   c.thread(id),
	}
	var preview *issuecredential.Preview
	for _, p := range parts {
		prev, a, err := p.Service.BuildProposal(ctx, format.ProposalArgs{Record: rec, Input: p.Input})
		if err != nil {
			return nil, format.Errorf(op, string(p.Service.Family()), err)
		}
		if preview == nil {
			preview = prev
		}
		spec, att := attach(a)
		msg.Formats = append(msg.Formats, spec)
		msg.FiltersAttach = append(msg.FiltersAttach, att)
	}
	msg.CredentialPreview = previewOr(preview, c.Preview)
	return msg, nil
}

func (b Builder) Offer(ctx context.Context, c Context, rec *data.ExchangeRecord,
	parts []Part,
) (*issuecredential.Offer, error) {
	const op = "build offer"
	if err := b.check(op, parts); err != nil {
		return nil, err
	}
	id := utils.UUID()
	msg := &issuecredential.Offer{
		ID:       id,
		Type:     pltype.IssueCredentialOffer,
		Comment:  c.Comment,
		GoalCode: c.GoalCode,
		Thread:   c.thread(id),
	}
	proposal, _, _, _ := rec.Messages()
	var preview *issuecredential.Preview
	for _, p := range parts {
		args := format.OfferArgs{Record: rec, Input: p.Input}
		args.Proposal, _ = prior(proposal, p.Service)
		prev, a, err := p.Service.BuildOffer(ctx, args)
		if err != nil {
			return nil, format.Errorf(op, string(p.Service.Family()), err)
		}
		if preview == nil {
			preview = prev
		}
		spec, att := attach(a)
		msg.Formats = append(msg.Formats, spec)
		msg.OffersAttach = append(msg.OffersAttach, att)
	}
	msg.CredentialPreview = previewOr(preview, c.Preview)
	return msg, nil
}

func (b Builder) Request(ctx context.Context, c Context, rec *data.ExchangeRecord,
	parts []Part,
) (*issuecredential.Request, error) {
	const op = "build request"
	if err := b.check(op, parts); err != nil {
		return nil, err
	}
	id := utils.UUID()
	msg := &issuecredential.Request{
		ID:       id,
		Type:     pltype.IssueCredentialRequest,
		Comment:  c.Comment,
		GoalCode: c.GoalCode,
		Thread:   c.thread(id),
	}
	_, offer, _, _ := rec.Messages()
	for _, p := range parts {
		o, ok := prior(offer, p.Service)
		if !ok {
			return nil, format.NotFound(op, string(p.Service.Family()))
		}
		a, err := p.Service.BuildRequest(ctx, format.RequestArgs{Record: rec, Offer: *o, Input: p.Input})
		if err != nil {
			return nil, format.Errorf(op, string(p.Service.Family()), err)
		}
		spec, att := attach(a)
		msg.Formats = append(msg.Formats, spec)
		msg.RequestsAttach = append(msg.RequestsAttach, att)
	}
	return msg, nil
}

// Credential builds the issue-credential message and returns the bindings
// of the issued credentials.
func (b Builder) Credential(ctx context.Context, c Context, rec *data.ExchangeRecord, parts []Part) (
	*issuecredential.Issue, []data.Binding, error,
) {
	const op = "build credential"
	if err := b.check(op, parts); err != nil {
		return nil, nil, err
	}
	id := utils.UUID()
	msg := &issuecredential.Issue{
		ID:      id,
		Type:    pltype.IssueCredentialIssue,
		Comment: c.Comment,
		Thread:  c.thread(id),
	}
	if c.PleaseAck {
		msg.PleaseAck = &decorator.PleaseAck{On: []string{"OUTCOME"}}
	}
	_, offer, request, _ := rec.Messages()
	bindings := make([]data.Binding, 0, len(parts))
	for _, p := range parts {
		f := string(p.Service.Family())
		o, ok := prior(offer, p.Service)
		if !ok {
			return nil, nil, format.NotFound(op, f)
		}
		r, ok := prior(request, p.Service)
		if !ok {
			return nil, nil, format.NotFound(op, f)
		}
		issued, err := p.Service.BuildCredential(ctx, format.CredentialArgs{
			Record:  rec,
			Offer:   *o,
			Request: *r,
			Input:   p.Input,
		})
		if err != nil {
			return nil, nil, format.Errorf(op, f, err)
		}
		spec, att := attach(issued.Attached)
		msg.Formats = append(msg.Formats, spec)
		msg.CredentialsAttach = append(msg.CredentialsAttach, att)
		bindings = append(bindings, data.Binding{Family: f, RecordID: issued.RecordID})
	}
	return msg, bindings, nil
}

func (b Builder) Ack(c Context) *common.Ack {
	id := utils.UUID()
	return &common.Ack{
		ID:     id,
		Type:   pltype.IssueCredentialACK,
		Status: common.AckStatusOK,
		Thread: c.thread(id),
	}
}

func (b Builder) ProblemReport(c Context, code, description string) *common.ProblemReport {
	id := utils.UUID()
	if code == "" {
		code = ProblemCodeAbandoned
	}
	return &common.ProblemReport{
		ID:          id,
		Type:        pltype.IssueCredentialProblemReport,
		Description: common.Description{Code: code, Message: description},
		Thread:      c.thread(id),
	}
}

func previewOr(p, fallback *issuecredential.Preview) *issuecredential.Preview {
	if p != nil {
		if p.Type == "" {
			p.Type = pltype.IssueCredentialPreview
		}
		return p
	}
	return fallback
}
