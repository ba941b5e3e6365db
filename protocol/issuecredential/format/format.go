/*
Package format is the plugin contract of the credential encodings. Every
encoding (indy, JSON-LD with linked data proof, SD-JWT) implements Service
and is registered to the Registry at startup. The protocol services never
switch over the formats: they only ask the registry.
*/
package format

import (
	"context"

	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/std/decorator"
	"github.com/findy-network/findy-credex/std/issuecredential"
)

// Family names the credential encoding. It's also the family of the
// bindings the format's credential storage creates.
type Family string

const (
	FamilyIndy    Family = "indy"
	FamilyLDProof Family = "ldproof"
	FamilySDJWT   Family = "sdjwt"
)

// Input is the format specific input of a build operation, e.g. the cred
// def id and attribute values of indy.
type Input interface {
	Family() Family
}

// Payload is a decoded format attachment.
type Payload any

// Attached is the output of a build: the wire format identifier and the
// attachment. The builder assigns the attach id.
type Attached struct {
	Format     string
	Attachment decorator.Attachment
}

// Issued is the issuer side output of BuildCredential. RecordID identifies
// the issued credential and becomes the issuer's binding.
type Issued struct {
	Attached
	RecordID string
}

type ProposalArgs struct {
	Record *data.ExchangeRecord
	Input  Input
}

type OfferArgs struct {
	Record *data.ExchangeRecord
	// Proposal is the attachment of this format in the received proposal,
	// nil when the issuer offers first.
	Proposal *decorator.Attachment
	Input    Input
}

type RequestArgs struct {
	Record *data.ExchangeRecord
	Offer  decorator.Attachment
	Input  Input
}

type CredentialArgs struct {
	Record  *data.ExchangeRecord
	Offer   decorator.Attachment
	Request decorator.Attachment
	Input   Input
}

type StoreArgs struct {
	Record     *data.ExchangeRecord
	Offer      *decorator.Attachment
	Request    decorator.Attachment
	Credential decorator.Attachment
}

// AutoRespondArgs carries the attachments of this format from the
// messages of the exchange. Absent ones are nil.
type AutoRespondArgs struct {
	Record     *data.ExchangeRecord
	Policy     data.AutoAccept
	Proposal   *decorator.Attachment
	Offer      *decorator.Attachment
	Request    *decorator.Attachment
	Credential *decorator.Attachment

	ProposalPreview *issuecredential.Preview
	OfferPreview    *issuecredential.Preview
}

// Service is one credential encoding.
type Service interface {
	Family() Family
	SupportsFormat(id string) bool

	BuildProposal(ctx context.Context, args ProposalArgs) (*issuecredential.Preview, Attached, error)
	BuildOffer(ctx context.Context, args OfferArgs) (*issuecredential.Preview, Attached, error)
	BuildRequest(ctx context.Context, args RequestArgs) (Attached, error)
	BuildCredential(ctx context.Context, args CredentialArgs) (Issued, error)

	DecodeProposal(a decorator.Attachment) (Payload, error)
	DecodeOffer(a decorator.Attachment) (Payload, error)
	DecodeRequest(a decorator.Attachment) (Payload, error)
	DecodeCredential(a decorator.Attachment) (Payload, error)

	// ApplyMetadata writes the format's view of the payload to the record
	// metadata.
	ApplyMetadata(p Payload, rec *data.ExchangeRecord) error

	// StoreCredential verifies the received credential against the request
	// and stores it.
	StoreCredential(ctx context.Context, args StoreArgs) (data.Binding, error)

	ShouldAutoRespondToProposal(ctx context.Context, args AutoRespondArgs) bool
	ShouldAutoRespondToOffer(ctx context.Context, args AutoRespondArgs) bool
	ShouldAutoRespondToRequest(ctx context.Context, args AutoRespondArgs) bool
	ShouldAutoRespondToCredential(ctx context.Context, args AutoRespondArgs) bool
}

// Discarder is implemented by the formats which can remove a credential
// they have stored. The credentials of a transition which fails to persist
// are discarded.
type Discarder interface {
	DiscardCredential(ctx context.Context, b data.Binding) error
}
