package indy

import (
	"context"
	"errors"

	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format"
	"github.com/findy-network/findy-credex/std/decorator"
)

var (
	errNoIssuer      = errors.New("indy issuer not configured")
	errNoHolder      = errors.New("indy holder not configured")
	errMissingIDs    = errors.New("credential definition id missing")
	errNoRequestMeta = errors.New("request metadata missing")
	errNoDelete      = errors.New("indy holder can't delete credentials")
)

func (s *Service) ShouldAutoRespondToProposal(_ context.Context, args format.AutoRespondArgs) bool {
	switch args.Policy {
	case data.AutoAcceptAlways:
		return true
	case data.AutoAcceptContentApproved:
		return args.ProposalPreview.Equal(args.OfferPreview) &&
			s.proposalMatchesOffer(args.Proposal, args.Offer)
	}
	return false
}

func (s *Service) ShouldAutoRespondToOffer(_ context.Context, args format.AutoRespondArgs) bool {
	switch args.Policy {
	case data.AutoAcceptAlways:
		return true
	case data.AutoAcceptContentApproved:
		return args.OfferPreview.Equal(args.ProposalPreview) &&
			s.proposalMatchesOffer(args.Proposal, args.Offer)
	}
	return false
}

func (s *Service) ShouldAutoRespondToRequest(_ context.Context, args format.AutoRespondArgs) bool {
	switch args.Policy {
	case data.AutoAcceptAlways:
		return true
	case data.AutoAcceptContentApproved:
		if args.Offer == nil || args.Request == nil {
			return false
		}
		offer, err1 := s.DecodeOffer(*args.Offer)
		req, err2 := s.DecodeRequest(*args.Request)
		return err1 == nil && err2 == nil &&
			offer.(*Offer).CredDefID == req.(*Request).CredDefID
	}
	return false
}

func (s *Service) ShouldAutoRespondToCredential(_ context.Context, args format.AutoRespondArgs) bool {
	switch args.Policy {
	case data.AutoAcceptAlways:
		return true
	case data.AutoAcceptContentApproved:
		if args.Credential == nil || args.OfferPreview == nil {
			return false
		}
		p, err := s.DecodeCredential(*args.Credential)
		if err != nil {
			return false
		}
		return valuesMatch(p.(*Credential).Values, args.OfferPreview.Values())
	}
	return false
}

func (s *Service) proposalMatchesOffer(proposal, offer *decorator.Attachment) bool {
	if proposal == nil || offer == nil {
		return false
	}
	f, err1 := s.DecodeProposal(*proposal)
	o, err2 := s.DecodeOffer(*offer)
	return err1 == nil && err2 == nil && f.(*Filter).CredDefID == o.(*Offer).CredDefID
}

func valuesMatch(values map[string]AttrValue, expected map[string]string) bool {
	if len(values) != len(expected) {
		return false
	}
	for name, raw := range expected {
		v, ok := values[name]
		if !ok || v.Raw != raw || v.Encoded != EncodeValue(raw) {
			return false
		}
	}
	return true
}
