package issuecredential

import (
	"testing"

	"github.com/findy-network/findy-credex/agent/didcomm"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

var offerJSON = `{
  "@type": "https://didcomm.org/issue-credential/2.0/offer-credential",
  "@id": "7a3c4e6b-1f9d-4d36-9a2a-5f7d0a1b2c3d",
  "comment": "driver license",
  "credential_preview": {
    "@type": "https://didcomm.org/issue-credential/2.0/credential-preview",
    "attributes": [
      { "name": "name", "value": "Alice" },
      { "name": "age", "value": "28" }
    ]
  },
  "formats": [
    { "attach_id": "indy", "format": "hlindy/cred-abstract@v2.0" },
    { "attach_id": "ld", "format": "aries/ld-proof-vc-detail@v1.0" }
  ],
  "offers~attach": [
    { "@id": "indy", "mime-type": "application/json", "data": { "base64": "eyJjcmVkX2RlZl9pZCI6ImNkIn0=" } },
    { "@id": "ld", "mime-type": "application/json", "data": { "json": { "credential": {}, "options": {} } } }
  ],
  "~service": {
    "recipientKeys": ["8HH5gYEeNc3z7PYXmd54d4x6qAfCNrqQqEB3nS7Zfu7K"],
    "serviceEndpoint": "https://issuer.example.com"
  }
}`

func TestOffer_ReadJSON(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	msg := try.To1(didcomm.Creator.NewMessage([]byte(offerJSON)))
	assert.Equal(msg.ID(), "7a3c4e6b-1f9d-4d36-9a2a-5f7d0a1b2c3d")
	assert.Equal(didcomm.ThreadID(msg), msg.ID())

	offer, ok := msg.FieldObj().(*Offer)
	assert.That(ok)
	assert.SLen(offer.Formats, 2)
	assert.Equal(offer.CredentialPreview.Values()["age"], "28")

	a, found := Attachment(offer, offer.Formats[0])
	assert.That(found)
	var indy map[string]string
	assert.NoError(a.Unmarshal(&indy))
	assert.Equal(indy["cred_def_id"], "cd")

	spec, ld, found := AttachmentByFormat(offer, func(f string) bool {
		return f == "aries/ld-proof-vc-detail@v1.0"
	})
	assert.That(found)
	assert.Equal(spec.AttachID, "ld")
	assert.NotEmpty(string(ld.Data.JSON))

	s := didcomm.ServiceOf(msg)
	assert.INotNil(s)
	assert.Equal(s.ServiceEndpoint, "https://issuer.example.com")
}

func TestImpl_JSONRoundTrip(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	req := NewRequest(&Request{
		ID:      "req-1",
		Type:    "https://didcomm.org/issue-credential/2.0/request-credential",
		Formats: []FormatSpec{{AttachID: "0", Format: "vc+sd-jwt"}},
	})
	assert.Equal(req.Thread().ID, "req-1")

	msg := try.To1(didcomm.Creator.NewMessage(req.JSON()))
	got, ok := msg.FieldObj().(*Request)
	assert.That(ok)
	assert.DeepEqual(got.Formats, req.Formats)
}

func TestPreview_Equal(t *testing.T) {
	a := &Preview{Attributes: []Attribute{{Name: "a", Value: "1"}, {Name: "b", Value: "2"}}}
	tests := []struct {
		name  string
		other *Preview
		want  bool
	}{
		{"same order", &Preview{Attributes: []Attribute{{Name: "a", Value: "1"}, {Name: "b", Value: "2"}}}, true},
		{"other order", &Preview{Attributes: []Attribute{{Name: "b", Value: "2"}, {Name: "a", Value: "1", MimeType: "text/plain"}}}, true},
		{"value differs", &Preview{Attributes: []Attribute{{Name: "a", Value: "1"}, {Name: "b", Value: "3"}}}, false},
		{"missing", &Preview{Attributes: []Attribute{{Name: "a", Value: "1"}}}, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()
			assert.Equal(a.Equal(tt.other), tt.want)
		})
	}
}
