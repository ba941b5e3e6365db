package sdjwt_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/findy-network/findy-credex/agent/kms"
	"github.com/findy-network/findy-credex/agent/storage/mem"
	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format/sdjwt"
	"github.com/findy-network/findy-credex/std/decorator"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

const vct = "https://credentials.example.com/identity"

var claims = map[string]any{"given_name": "Alice", "age": 42.0}

type parties struct {
	issuer, holder *sdjwt.Service
	store          *format.Store
}

func newParties() parties {
	issuerKMS := try.To1(kms.New("did:example:issuer"))
	holderKMS := try.To1(kms.New("did:example:holder"))
	store := try.To1(format.NewStore(mem.New()))
	return parties{
		issuer: sdjwt.New(sdjwt.Config{Signer: issuerKMS}),
		holder: sdjwt.New(sdjwt.Config{
			Holder:  holderKMS,
			Issuers: sdjwt.StaticIssuers{issuerKMS.ID(): issuerKMS.PublicKey()},
			Store:   store,
		}),
		store: store,
	}
}

func TestOfferRoundTrip(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	p := newParties()

	rec := data.NewExchangeRecord("1", data.V2, data.RoleIssuer, "th", "")
	_, att, err := p.issuer.BuildOffer(context.Background(), format.OfferArgs{
		Record: rec, Input: sdjwt.Input{VCT: vct, Claims: claims},
	})
	assert.NoError(err)
	assert.Equal(att.Format, sdjwt.Format)

	got, err := p.issuer.DecodeOffer(att.Attachment)
	assert.NoError(err)
	assert.DeepEqual(*got.(*sdjwt.Offer), sdjwt.Offer{VCT: vct, Issuer: "did:example:issuer", Claims: claims})
}

func TestIssueAndStore(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	p := newParties()
	ctx := context.Background()

	irec := data.NewExchangeRecord("i", data.V2, data.RoleIssuer, "th", "")
	hrec := data.NewExchangeRecord("h", data.V2, data.RoleHolder, "th", "")

	_, offer, err := p.issuer.BuildOffer(ctx, format.OfferArgs{Record: irec, Input: sdjwt.Input{VCT: vct, Claims: claims}})
	assert.NoError(err)
	req, err := p.holder.BuildRequest(ctx, format.RequestArgs{Record: hrec, Offer: offer.Attachment})
	assert.NoError(err)

	issued, err := p.issuer.BuildCredential(ctx, format.CredentialArgs{
		Record: irec, Offer: offer.Attachment, Request: req.Attachment,
	})
	assert.NoError(err)
	raw := try.To1(issued.Attachment.Bytes())
	assert.That(strings.HasSuffix(string(raw), "~"))
	assert.Equal(strings.Count(string(raw), "~"), len(claims)+1)

	cp, err := p.holder.DecodeCredential(issued.Attachment)
	assert.NoError(err)
	cred := cp.(*sdjwt.Credential)
	assert.Equal(cred.VCT, vct)
	assert.DeepEqual(cred.Claims, claims)

	args := format.AutoRespondArgs{Policy: data.AutoAcceptContentApproved, Offer: &offer.Attachment, Credential: &issued.Attachment}
	assert.That(p.holder.ShouldAutoRespondToCredential(ctx, args))

	b, err := p.holder.StoreCredential(ctx, format.StoreArgs{
		Record: hrec, Offer: &offer.Attachment, Request: req.Attachment, Credential: issued.Attachment,
	})
	assert.NoError(err)
	assert.Equal(b.Family, string(format.FamilySDJWT))
	assert.Equal(b.RecordID, issued.RecordID)
	stored := try.To1(p.store.Get(ctx, format.FamilySDJWT, b.RecordID))
	assert.Equal(string(stored), string(raw))
}

func TestTamperedDisclosure(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	p := newParties()
	ctx := context.Background()

	rec := data.NewExchangeRecord("i", data.V2, data.RoleIssuer, "th", "")
	_, offer, _ := p.issuer.BuildOffer(ctx, format.OfferArgs{Record: rec, Input: sdjwt.Input{VCT: vct, Claims: claims}})
	req, _ := p.holder.BuildRequest(ctx, format.RequestArgs{Record: rec, Offer: offer.Attachment})
	issued, _ := p.issuer.BuildCredential(ctx, format.CredentialArgs{Record: rec, Offer: offer.Attachment, Request: req.Attachment})
	raw := string(try.To1(issued.Attachment.Bytes()))

	// WyJzYWx0IiwiYWdlIiwxOF0 is ["salt","age",18]
	forged := raw + "WyJzYWx0IiwiYWdlIiwxOF0~"
	_, err := p.holder.DecodeCredential(decorator.NewBase64Attachment("", []byte(forged)))
	assert.That(errors.Is(err, format.ErrMalformed))

	_, err = p.holder.DecodeCredential(decorator.NewBase64Attachment("", []byte("no-tilde")))
	assert.That(errors.Is(err, format.ErrMalformed))
}

func TestUntrustedIssuer(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	p := newParties()
	ctx := context.Background()

	rogue := sdjwt.New(sdjwt.Config{Signer: try.To1(kms.New("did:example:issuer"))})
	rec := data.NewExchangeRecord("i", data.V2, data.RoleIssuer, "th", "")
	_, offer, _ := rogue.BuildOffer(ctx, format.OfferArgs{Record: rec, Input: sdjwt.Input{VCT: vct, Claims: claims}})
	req, _ := p.holder.BuildRequest(ctx, format.RequestArgs{Record: rec, Offer: offer.Attachment})
	issued, err := rogue.BuildCredential(ctx, format.CredentialArgs{Record: rec, Offer: offer.Attachment, Request: req.Attachment})
	assert.NoError(err)

	_, err = p.holder.StoreCredential(ctx, format.StoreArgs{Record: rec, Request: req.Attachment, Credential: issued.Attachment})
	assert.Error(err)
	assert.That(format.IsFormatError(err))
}

func TestAutoRespondToProposal(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	p := newParties()
	ctx := context.Background()

	rec := data.NewExchangeRecord("i", data.V2, data.RoleIssuer, "th", "")
	_, prop, _ := p.holder.BuildProposal(ctx, format.ProposalArgs{Record: rec, Input: sdjwt.Input{VCT: vct, Claims: claims}})
	_, same, _ := p.issuer.BuildOffer(ctx, format.OfferArgs{Record: rec, Proposal: &prop.Attachment})
	_, other, _ := p.issuer.BuildOffer(ctx, format.OfferArgs{Record: rec, Input: sdjwt.Input{VCT: vct, Claims: map[string]any{"age": 18}}})

	args := format.AutoRespondArgs{Policy: data.AutoAcceptContentApproved, Proposal: &prop.Attachment, Offer: &same.Attachment}
	assert.That(p.issuer.ShouldAutoRespondToProposal(ctx, args))
	args.Offer = &other.Attachment
	assert.ThatNot(p.issuer.ShouldAutoRespondToProposal(ctx, args))
	args.Policy = data.AutoAcceptNever
	args.Offer = &same.Attachment
	assert.ThatNot(p.issuer.ShouldAutoRespondToProposal(ctx, args))
}

func TestPlainClaims(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	p := newParties()
	ctx := context.Background()

	rec := data.NewExchangeRecord("i", data.V2, data.RoleIssuer, "th", "")
	_, offer, _ := p.issuer.BuildOffer(ctx, format.OfferArgs{Record: rec, Input: sdjwt.Input{
		VCT: vct, Claims: claims, Disclosable: []string{"given_name"},
	}})
	req, _ := p.holder.BuildRequest(ctx, format.RequestArgs{Record: rec, Offer: offer.Attachment})
	issued, err := p.issuer.BuildCredential(ctx, format.CredentialArgs{Record: rec, Offer: offer.Attachment, Request: req.Attachment})
	assert.NoError(err)

	cp, err := p.holder.DecodeCredential(issued.Attachment)
	assert.NoError(err)
	cred := cp.(*sdjwt.Credential)
	assert.SLen(cred.Disclosures, 1)
	assert.DeepEqual(cred.Claims, claims)
}
