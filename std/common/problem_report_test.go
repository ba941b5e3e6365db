package common

import (
	"testing"

	"github.com/findy-network/findy-credex/agent/didcomm"
	"github.com/stretchr/testify/assert"
)

var problemJSON = `
{
  "@type": "https://didcomm.org/issue-credential/2.0/problem-report",
  "@id": "8e59230b-47e4-4abb-a5cc-28d1b09f0e96",
  "~thread": {
    "thid": "8225993b-73f9-404c-804b-139bd03893dc"
  },
  "description": { "code": "issuance-abandoned", "en": "offer declined" }
}`

var legacyJSON = `
{
  "@type": "did:sov:BzCbsNYhMrjHiqZDTUASHg;spec/issue-credential/1.0/problem-report",
  "@id": "8e59230b-47e4-4abb-a5cc-28d1b09f0e97",
  "~thread": {
    "thid": "8225993b-73f9-404c-804b-139bd03893dd"
  },
  "description": { "code": "e.msg.invalid" },
  "explain-ltxt": "Error deserializing message: CredentialAck schema validation failed"
}`

func TestProblemReport_ReadJSON(t *testing.T) {
	msg, err := didcomm.Creator.NewMessage([]byte(problemJSON))
	assert.NoError(t, err)

	assert.Equal(t, "8e59230b-47e4-4abb-a5cc-28d1b09f0e96", msg.ID())
	assert.Equal(t, "8225993b-73f9-404c-804b-139bd03893dc", didcomm.ThreadID(msg))

	pr, ok := msg.FieldObj().(*ProblemReport)
	assert.True(t, ok)
	assert.Equal(t, "issuance-abandoned", pr.Description.Code)
	assert.Equal(t, "issuance-abandoned: offer declined", pr.Text())
}

func TestProblemReport_Legacy(t *testing.T) {
	msg, err := didcomm.Creator.NewMessage([]byte(legacyJSON))
	assert.NoError(t, err)

	pr, ok := msg.FieldObj().(*ProblemReport)
	assert.True(t, ok)
	assert.NotEmpty(t, pr.ExplainLongTxt)
	assert.Contains(t, pr.Text(), "schema validation failed")
}

func TestProblemReport_Unknown(t *testing.T) {
	_, err := didcomm.Creator.NewMessage([]byte(`{"@type":"https://didcomm.org/nope/1.0/x"}`))
	assert.ErrorIs(t, err, didcomm.ErrUnknownType)
}
