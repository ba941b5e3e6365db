package data

import (
	"errors"
	"testing"

	"github.com/findy-network/findy-credex/std/issuecredential"
	"github.com/lainio/err2/assert"
)

func TestAssertState(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	r := NewExchangeRecord("1", V1, RoleIssuer, "th", "")
	r.State = StateOfferSent
	assert.NoError(r.AssertState(StateProposalReceived, StateOfferSent))

	err := r.AssertState(StateRequestReceived)
	var se *StateError
	assert.That(errors.As(err, &se))
	assert.Equal(se.RecordID, "1")
	assert.Equal(err.Error(), "exchange 1: state offer-sent, expected request-received")

	assert.NoError(r.AssertRole(RoleIssuer))
	assert.Error(r.AssertRole(RoleHolder))
}

func TestClone(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	r := NewExchangeRecord("1", V2, RoleHolder, "th", "conn")
	r.Offer = &issuecredential.Offer{
		ID: "o1",
		CredentialPreview: &issuecredential.Preview{
			Attributes: []issuecredential.Attribute{{Name: "name", Value: "Alice"}},
		},
	}
	assert.NoError(r.Metadata.Set("_indy/credential", map[string]string{"schema_id": "s1"}))

	c := r.Clone()
	c.Offer.CredentialPreview.Attributes[0].Value = "Bob"
	c.Metadata["other"] = nil
	assert.Equal(r.Offer.CredentialPreview.Attributes[0].Value, "Alice")
	_, ok := r.Metadata["other"]
	assert.ThatNot(ok)

	var meta map[string]string
	found, err := c.Metadata.Get("_indy/credential", &meta)
	assert.NoError(err)
	assert.That(found)
	assert.Equal(meta["schema_id"], "s1")
}

func TestParseAutoAccept(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	a, err := ParseAutoAccept("Always")
	assert.NoError(err)
	assert.Equal(a, AutoAcceptAlways)
	a, err = ParseAutoAccept("contentApproved")
	assert.NoError(err)
	assert.Equal(a, AutoAcceptContentApproved)
	_, err = ParseAutoAccept("sometimes")
	assert.Error(err)
}

func TestBinding(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	r := NewExchangeRecord("1", V2, RoleHolder, "th", "")
	r.Bindings = append(r.Bindings, Binding{Family: "indy", RecordID: "cred1"})
	b, ok := r.Binding("indy")
	assert.That(ok)
	assert.Equal(b.RecordID, "cred1")
	_, ok = r.Binding("ldproof")
	assert.ThatNot(ok)
}
