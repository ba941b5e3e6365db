package v1

import (
	"errors"
	"testing"

	"github.com/findy-network/findy-credex/agent/didcomm"
	"github.com/findy-network/findy-credex/agent/pltype"
	"github.com/findy-network/findy-credex/std/decorator"
	"github.com/findy-network/findy-credex/std/issuecredential"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

var legacyOffer = `{
  "@type": "did:sov:BzCbsNYhMrjHiqZDTUASHg;spec/issue-credential/1.0/offer-credential",
  "@id": "5b3e1d46-2b7c-4b0e-bd8f-0d5c0f8f6a11",
  "comment": "credential offer",
  "credential_preview": {
    "@type": "did:sov:BzCbsNYhMrjHiqZDTUASHg;spec/issue-credential/1.0/credential-preview",
    "attributes": [ { "name": "email", "value": "alice@example.com" } ]
  },
  "offers~attach": [
    {
      "@id": "libindy-cred-offer-0",
      "mime-type": "application/json",
      "data": { "base64": "eyJjcmVkX2RlZl9pZCI6ImNkIn0=" }
    }
  ]
}`

func TestUp_Offer(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	msg := try.To1(didcomm.Creator.NewMessage([]byte(legacyOffer)))
	_, isV1 := msg.FieldObj().(*Offer)
	assert.That(isV1)

	up := try.To1(Up(msg))
	offer, ok := up.FieldObj().(*issuecredential.Offer)
	assert.That(ok)
	assert.SLen(offer.Formats, 1)
	assert.Equal(offer.Formats[0], issuecredential.FormatSpec{AttachID: AttachIDOffer, Format: FormatCredAbstract})
	assert.Equal(didcomm.ThreadID(up), "5b3e1d46-2b7c-4b0e-bd8f-0d5c0f8f6a11")
}

func TestPropose_RoundTrip(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	org := NewPropose(&Propose{
		ID:   "p1",
		Type: pltype.IssueCredentialV1Propose,
		CredentialProposal: &issuecredential.Preview{
			Attributes: []issuecredential.Attribute{{Name: "email", Value: "a@b.c"}},
		},
		Filter: Filter{CredDefID: "cd:1", SchemaID: "s:1"},
	})

	up := try.To1(Up(org))
	p := up.FieldObj().(*issuecredential.Propose)
	assert.Equal(p.Formats[0].Format, FormatCredFilter)

	down := try.To1(Down(up))
	back := down.FieldObj().(*Propose)
	assert.Equal(back.Type, pltype.IssueCredentialV1Propose)
	assert.Equal(back.Filter, org.Filter)
	assert.That(back.CredentialProposal.Equal(org.CredentialProposal))
}

func TestDown_Errors(t *testing.T) {
	two := issuecredential.NewOffer(&issuecredential.Offer{
		ID: "o1",
		Formats: []issuecredential.FormatSpec{
			{AttachID: "a", Format: FormatCredAbstract},
			{AttachID: "b", Format: "aries/ld-proof-vc-detail@v1.0"},
		},
	})
	ld := issuecredential.NewOffer(&issuecredential.Offer{
		ID:           "o2",
		Formats:      []issuecredential.FormatSpec{{AttachID: "b", Format: "aries/ld-proof-vc-detail@v1.0"}},
		OffersAttach: []decorator.Attachment{decorator.NewBase64Attachment("b", []byte("{}"))},
	})
	missing := issuecredential.NewOffer(&issuecredential.Offer{
		ID:      "o3",
		Formats: []issuecredential.FormatSpec{{AttachID: "x", Format: FormatCredAbstract}},
	})
	tests := []struct {
		name string
		msg  didcomm.MessageHdr
		want error
	}{
		{"two formats", two, ErrFormatCount},
		{"not indy", ld, ErrFormat},
		{"no attachment", missing, decorator.ErrNoData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()
			_, err := Down(tt.msg)
			assert.That(errors.Is(err, tt.want))
		})
	}
}
