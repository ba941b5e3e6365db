package exchange

import (
	"context"

	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format"
	"github.com/findy-network/findy-credex/std/issuecredential"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// FormatData is the decoded view of the stored messages per format family.
type FormatData struct {
	ProposalPreview *issuecredential.Preview         `json:"proposalPreview,omitempty" yaml:"proposalPreview,omitempty"`
	OfferPreview    *issuecredential.Preview         `json:"offerPreview,omitempty" yaml:"offerPreview,omitempty"`
	Proposal        map[format.Family]format.Payload `json:"proposal,omitempty" yaml:"proposal,omitempty"`
	Offer           map[format.Family]format.Payload `json:"offer,omitempty" yaml:"offer,omitempty"`
	Request         map[format.Family]format.Payload `json:"request,omitempty" yaml:"request,omitempty"`
	Credential      map[format.Family]format.Payload `json:"credential,omitempty" yaml:"credential,omitempty"`
}

func (s *Service) GetByID(ctx context.Context, id string) (*data.ExchangeRecord, error) {
	return s.records.GetByID(ctx, id)
}

// FindByQuery returns the records of this protocol version matching q.
func (s *Service) FindByQuery(ctx context.Context, q data.Query) ([]*data.ExchangeRecord, error) {
	q.ProtocolVersion = s.version.Name
	return s.records.FindByQuery(ctx, q)
}

// GetFormatData decodes every stored message of the exchange.
func (s *Service) GetFormatData(ctx context.Context, recordID string) (fd *FormatData, err error) {
	defer err2.Handle(&err, "format data %s", recordID)

	rec := try.To1(s.records.GetByID(ctx, recordID))
	proposal, offer, request, credential := rec.Messages()
	fd = &FormatData{}
	if rec.Proposal != nil {
		fd.ProposalPreview = rec.Proposal.CredentialPreview
		fd.Proposal = try.To1(s.decodeMap(proposal, format.Service.DecodeProposal))
	}
	if rec.Offer != nil {
		fd.OfferPreview = rec.Offer.CredentialPreview
		fd.Offer = try.To1(s.decodeMap(offer, format.Service.DecodeOffer))
	}
	if request != nil {
		fd.Request = try.To1(s.decodeMap(request, format.Service.DecodeRequest))
	}
	if credential != nil {
		fd.Credential = try.To1(s.decodeMap(credential, format.Service.DecodeCredential))
	}
	return fd, nil
}

func (s *Service) decodeMap(m issuecredential.Formatted, decode decodeFunc) (map[format.Family]format.Payload, error) {
	ds, err := s.decodeAll("format data", m, decode)
	if err != nil {
		return nil, err
	}
	out := make(map[format.Family]format.Payload, len(ds))
	for _, d := range ds {
		out[d.service.Family()] = d.payload
	}
	return out, nil
}
