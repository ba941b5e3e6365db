package v1

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/findy-network/findy-credex/agent/didcomm"
	"github.com/findy-network/findy-credex/agent/pltype"
	"github.com/findy-network/findy-credex/std/common"
	"github.com/findy-network/findy-credex/std/decorator"
	"github.com/findy-network/findy-credex/std/issuecredential"
)

var (
	ErrFormatCount = errors.New("1.0 messages carry exactly one attachment")
	ErrFormat      = errors.New("format not supported by 1.0")
	ErrMessage     = errors.New("not an issue-credential message")
)

// Up converts a 1.0 message to the version independent form. Acks and
// problem reports are shared by both versions and returned as is.
func Up(m didcomm.MessageHdr) (didcomm.MessageHdr, error) {
	switch msg := m.FieldObj().(type) {
	case *Propose:
		p := &issuecredential.Propose{
			ID:                msg.ID,
			Type:              msg.Type,
			Comment:           msg.Comment,
			CredentialPreview: msg.CredentialProposal,
			Thread:            msg.Thread,
			Service:           msg.Service,
		}
		filter, err := json.Marshal(msg.Filter)
		if err != nil {
			return nil, err
		}
		p.Formats = []issuecredential.FormatSpec{{AttachID: AttachIDFilter, Format: FormatCredFilter}}
		p.FiltersAttach = []decorator.Attachment{decorator.NewBase64Attachment(AttachIDFilter, filter)}
		return issuecredential.NewPropose(p), nil
	case *Offer:
		specs, err := upSpecs(msg.OffersAttach, FormatCredAbstract)
		if err != nil {
			return nil, err
		}
		return issuecredential.NewOffer(&issuecredential.Offer{
			ID:                msg.ID,
			Type:              msg.Type,
			Comment:           msg.Comment,
			CredentialPreview: msg.CredentialPreview,
			Formats:           specs,
			OffersAttach:      msg.OffersAttach,
			Thread:            msg.Thread,
			Service:           msg.Service,
		}), nil
	case *Request:
		specs, err := upSpecs(msg.RequestsAttach, FormatCredReq)
		if err != nil {
			return nil, err
		}
		return issuecredential.NewRequest(&issuecredential.Request{
			ID:             msg.ID,
			Type:           msg.Type,
			Comment:        msg.Comment,
			Formats:        specs,
			RequestsAttach: msg.RequestsAttach,
			Thread:         msg.Thread,
			Service:        msg.Service,
		}), nil
	case *Issue:
		specs, err := upSpecs(msg.CredentialsAttach, FormatCred)
		if err != nil {
			return nil, err
		}
		return issuecredential.NewIssue(&issuecredential.Issue{
			ID:                msg.ID,
			Type:              msg.Type,
			Comment:           msg.Comment,
			Formats:           specs,
			CredentialsAttach: msg.CredentialsAttach,
			PleaseAck:         msg.PleaseAck,
			Thread:            msg.Thread,
			Service:           msg.Service,
		}), nil
	case *common.Ack, *common.ProblemReport:
		return m, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrMessage, m.Type())
}

func upSpecs(attachments []decorator.Attachment, format string) ([]issuecredential.FormatSpec, error) {
	if len(attachments) != 1 {
		return nil, ErrFormatCount
	}
	return []issuecredential.FormatSpec{{AttachID: attachments[0].ID, Format: format}}, nil
}

// Down converts a version independent message to its 1.0 form. Only
// messages with a single indy attachment can be converted.
func Down(m didcomm.MessageHdr) (didcomm.MessageHdr, error) {
	switch msg := m.FieldObj().(type) {
	case *issuecredential.Propose:
		a, err := single(msg, FormatCredFilter)
		if err != nil {
			return nil, err
		}
		p := &Propose{
			ID:                 msg.ID,
			Type:               pltype.IssueCredentialV1Propose,
			Comment:            msg.Comment,
			CredentialProposal: v1Preview(msg.CredentialPreview),
			Thread:             msg.Thread,
			Service:            msg.Service,
		}
		if err := a.Unmarshal(&p.Filter); err != nil {
			return nil, err
		}
		return NewPropose(p), nil
	case *issuecredential.Offer:
		a, err := single(msg, FormatCredAbstract)
		if err != nil {
			return nil, err
		}
		return NewOffer(&Offer{
			ID:                msg.ID,
			Type:              pltype.IssueCredentialV1Offer,
			Comment:           msg.Comment,
			CredentialPreview: v1Preview(msg.CredentialPreview),
			OffersAttach:      []decorator.Attachment{a},
			Thread:            msg.Thread,
			Service:           msg.Service,
		}), nil
	case *issuecredential.Request:
		a, err := single(msg, FormatCredReq)
		if err != nil {
			return nil, err
		}
		return NewRequest(&Request{
			ID:             msg.ID,
			Type:           pltype.IssueCredentialV1Request,
			Comment:        msg.Comment,
			RequestsAttach: []decorator.Attachment{a},
			Thread:         msg.Thread,
			Service:        msg.Service,
		}), nil
	case *issuecredential.Issue:
		a, err := single(msg, FormatCred)
		if err != nil {
			return nil, err
		}
		return NewIssue(&Issue{
			ID:                msg.ID,
			Type:              pltype.IssueCredentialV1Issue,
			Comment:           msg.Comment,
			CredentialsAttach: []decorator.Attachment{a},
			PleaseAck:         msg.PleaseAck,
			Thread:            msg.Thread,
			Service:           msg.Service,
		}), nil
	case *common.Ack:
		msg.Type = pltype.IssueCredentialV1ACK
		return m, nil
	case *common.ProblemReport:
		msg.Type = pltype.IssueCredentialV1ProblemReport
		return m, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrMessage, m.Type())
}

func single(f issuecredential.Formatted, format string) (decorator.Attachment, error) {
	specs := f.FormatList()
	if len(specs) != 1 {
		return decorator.Attachment{}, ErrFormatCount
	}
	if specs[0].Format != format {
		return decorator.Attachment{}, fmt.Errorf("%w: %s", ErrFormat, specs[0].Format)
	}
	a, found := issuecredential.Attachment(f, specs[0])
	if !found {
		return decorator.Attachment{}, fmt.Errorf("attachment %s: %w",
			specs[0].AttachID, decorator.ErrNoData)
	}
	return a, nil
}

func v1Preview(p *issuecredential.Preview) *issuecredential.Preview {
	if p == nil {
		return nil
	}
	return &issuecredential.Preview{
		Type:       pltype.IssueCredentialV1Preview,
		Attributes: p.Attributes,
	}
}
