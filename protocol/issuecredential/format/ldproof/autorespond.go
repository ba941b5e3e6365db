package ldproof

import (
	"context"
	"errors"
	"reflect"

	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format"
	"github.com/findy-network/findy-credex/std/decorator"
)

var (
	errNoSigner     = errors.New("ldproof signer not configured")
	errNoWallet     = errors.New("ldproof verifier or credential store not configured")
	errNoCredential = errors.New("detail has no credential")
)

// sameDetail compares the decoded attachments, not their encodings.
func (s *Service) sameDetail(a, b *decorator.Attachment) bool {
	if a == nil || b == nil {
		return false
	}
	da, err1 := decodeDetail("compare", FormatDetail, *a)
	db, err2 := decodeDetail("compare", FormatDetail, *b)
	return err1 == nil && err2 == nil && reflect.DeepEqual(da, db)
}

func (s *Service) ShouldAutoRespondToProposal(_ context.Context, args format.AutoRespondArgs) bool {
	switch args.Policy {
	case data.AutoAcceptAlways:
		return true
	case data.AutoAcceptContentApproved:
		return s.sameDetail(args.Proposal, args.Offer)
	}
	return false
}

func (s *Service) ShouldAutoRespondToOffer(_ context.Context, args format.AutoRespondArgs) bool {
	switch args.Policy {
	case data.AutoAcceptAlways:
		return true
	case data.AutoAcceptContentApproved:
		return s.sameDetail(args.Proposal, args.Offer)
	}
	return false
}

func (s *Service) ShouldAutoRespondToRequest(_ context.Context, args format.AutoRespondArgs) bool {
	switch args.Policy {
	case data.AutoAcceptAlways:
		return true
	case data.AutoAcceptContentApproved:
		return s.sameDetail(args.Offer, args.Request)
	}
	return false
}

// ShouldAutoRespondToCredential checks the credential against the request
// with every policy except Never.
func (s *Service) ShouldAutoRespondToCredential(_ context.Context, args format.AutoRespondArgs) bool {
	if args.Policy == data.AutoAcceptNever || args.Policy == "" {
		return false
	}
	if args.Credential == nil || args.Request == nil {
		return false
	}
	c, err := s.DecodeCredential(*args.Credential)
	if err != nil {
		return false
	}
	r, err := s.DecodeRequest(*args.Request)
	if err != nil {
		return false
	}
	return matchesRequest(c.(*Credential), r.(*Detail)) == nil
}
