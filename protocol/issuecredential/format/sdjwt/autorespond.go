package sdjwt

import (
	"context"
	"reflect"

	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format"
	"github.com/findy-network/findy-credex/std/decorator"
)

func (s *Service) offers(a, b *decorator.Attachment) (x, y *Offer, ok bool) {
	if a == nil || b == nil {
		return nil, nil, false
	}
	pa, err := s.DecodeOffer(*a)
	if err != nil {
		return nil, nil, false
	}
	pb, err := s.DecodeOffer(*b)
	if err != nil {
		return nil, nil, false
	}
	return pa.(*Offer), pb.(*Offer), true
}

func (s *Service) sameOffer(a, b *decorator.Attachment) bool {
	x, y, ok := s.offers(a, b)
	return ok && x.VCT == y.VCT && reflect.DeepEqual(x.Claims, y.Claims)
}

func (s *Service) ShouldAutoRespondToProposal(_ context.Context, args format.AutoRespondArgs) bool {
	switch args.Policy {
	case data.AutoAcceptAlways:
		return true
	case data.AutoAcceptContentApproved:
		return s.sameOffer(args.Proposal, args.Offer)
	}
	return false
}

func (s *Service) ShouldAutoRespondToOffer(_ context.Context, args format.AutoRespondArgs) bool {
	switch args.Policy {
	case data.AutoAcceptAlways:
		return true
	case data.AutoAcceptContentApproved:
		return s.sameOffer(args.Proposal, args.Offer)
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
		o, err := s.DecodeOffer(*args.Offer)
		if err != nil {
			return false
		}
		r, err := s.DecodeRequest(*args.Request)
		if err != nil {
			return false
		}
		return o.(*Offer).VCT == r.(*Request).VCT
	}
	return false
}

func (s *Service) ShouldAutoRespondToCredential(_ context.Context, args format.AutoRespondArgs) bool {
	switch args.Policy {
	case data.AutoAcceptAlways:
		return true
	case data.AutoAcceptContentApproved:
		if args.Offer == nil || args.Credential == nil {
			return false
		}
		c, err := s.DecodeCredential(*args.Credential)
		if err != nil {
			return false
		}
		return s.matchesOffer(c.(*Credential), *args.Offer) == nil
	}
	return false
}
