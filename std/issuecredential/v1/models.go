/*
Package v1 implements the Aries issue-credential 1.0 messages. The 1.0
protocol carries exactly one indy credential attachment per message and it
has no formats array. Up and Down convert the messages to and from the
version independent form of package issuecredential.
*/
package v1

import (
	"github.com/findy-network/findy-credex/std/decorator"
	"github.com/findy-network/findy-credex/std/issuecredential"
)

// Indy attachment formats. The 1.0 protocol implies them, 2.0 names them in
// the formats array.
const (
	FormatCredFilter   = "hlindy/cred-filter@v2.0"
	FormatCredAbstract = "hlindy/cred-abstract@v2.0"
	FormatCredReq      = "hlindy/cred-req@v2.0"
	FormatCred         = "hlindy/cred@v2.0"
)

const (
	AttachIDOffer   = "libindy-cred-offer-0"
	AttachIDRequest = "libindy-cred-request-0"
	AttachIDCred    = "libindy-cred-0"
	AttachIDFilter  = "libindy-cred-filter-0"
)

// Propose is the 1.0 propose-credential. The indy filter is flattened to
// the message.
type Propose struct {
	ID                 string                   `json:"@id,omitempty"`
	Type               string                   `json:"@type,omitempty"`
	Comment            string                   `json:"comment,omitempty"`
	CredentialProposal *issuecredential.Preview `json:"credential_proposal,omitempty"`
	Filter

	Thread  *decorator.Thread  `json:"~thread,omitempty"`
	Service *decorator.Service `json:"~service,omitempty"`
}

// Filter is the indy credential filter. It's the propose-credential content
// in 1.0 and the hlindy/cred-filter@v2.0 attachment in 2.0.
type Filter struct {
	SchemaIssuerDid string `json:"schema_issuer_did,omitempty"`
	SchemaID        string `json:"schema_id,omitempty"`
	SchemaName      string `json:"schema_name,omitempty"`
	SchemaVersion   string `json:"schema_version,omitempty"`
	CredDefID       string `json:"cred_def_id,omitempty"`
	IssuerDid       string `json:"issuer_did,omitempty"`
}

// Offer is the 1.0 offer-credential.
type Offer struct {
	ID                string                   `json:"@id,omitempty"`
	Type              string                   `json:"@type,omitempty"`
	Comment           string                   `json:"comment,omitempty"`
	CredentialPreview *issuecredential.Preview `json:"credential_preview,omitempty"`
	OffersAttach      []decorator.Attachment   `json:"offers~attach"`

	Thread  *decorator.Thread  `json:"~thread,omitempty"`
	Service *decorator.Service `json:"~service,omitempty"`
}

// Request is the 1.0 request-credential.
type Request struct {
	ID             string                 `json:"@id,omitempty"`
	Type           string                 `json:"@type,omitempty"`
	Comment        string                 `json:"comment,omitempty"`
	RequestsAttach []decorator.Attachment `json:"requests~attach"`

	Thread  *decorator.Thread  `json:"~thread,omitempty"`
	Service *decorator.Service `json:"~service,omitempty"`
}

// Issue is the 1.0 issue-credential.
type Issue struct {
	ID                string                 `json:"@id,omitempty"`
	Type              string                 `json:"@type,omitempty"`
	Comment           string                 `json:"comment,omitempty"`
	CredentialsAttach []decorator.Attachment `json:"credentials~attach"`

	PleaseAck *decorator.PleaseAck `json:"~please_ack,omitempty"`
	Thread    *decorator.Thread    `json:"~thread,omitempty"`
	Service   *decorator.Service   `json:"~service,omitempty"`
}
