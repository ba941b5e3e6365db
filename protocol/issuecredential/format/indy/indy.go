/*
Package indy is the Hyperledger Indy (anoncreds) credential format. The
cryptography is done by the Issuer and Holder collaborators, e.g. the
libindy adapter of package libindy. The format itself handles the
attachments and the exchange record metadata.
*/
package indy

import (
	"context"
	"encoding/json"

	"github.com/findy-network/findy-credex/agent/pltype"
	"github.com/findy-network/findy-credex/agent/utils"
	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format"
	"github.com/findy-network/findy-credex/std/decorator"
	"github.com/findy-network/findy-credex/std/issuecredential"
	v1 "github.com/findy-network/findy-credex/std/issuecredential/v1"
)

const (
	FormatFilter   = v1.FormatCredFilter
	FormatAbstract = v1.FormatCredAbstract
	FormatRequest  = v1.FormatCredReq
	FormatCred     = v1.FormatCred
)

const (
	MetadataCredential = "_indy/credential"
	MetadataRequest    = "_indy/request"
)

// Filter is the proposal attachment.
type Filter = v1.Filter

// Offer is the cred-abstract attachment, the libindy credential offer.
type Offer struct {
	SchemaID            string          `json:"schema_id"`
	CredDefID           string          `json:"cred_def_id"`
	Nonce               string          `json:"nonce,omitempty"`
	KeyCorrectnessProof json.RawMessage `json:"key_correctness_proof,omitempty"`
}

// Request is the libindy credential request.
type Request struct {
	ProverDID                 string          `json:"prover_did,omitempty"`
	CredDefID                 string          `json:"cred_def_id"`
	BlindedMS                 json.RawMessage `json:"blinded_ms,omitempty"`
	BlindedMSCorrectnessProof json.RawMessage `json:"blinded_ms_correctness_proof,omitempty"`
	Nonce                     string          `json:"nonce,omitempty"`
}

// Credential is the libindy credential.
type Credential struct {
	SchemaID                  string               `json:"schema_id"`
	CredDefID                 string               `json:"cred_def_id"`
	RevRegID                  *string              `json:"rev_reg_id,omitempty"`
	Values                    map[string]AttrValue `json:"values"`
	Signature                 json.RawMessage      `json:"signature,omitempty"`
	SignatureCorrectnessProof json.RawMessage      `json:"signature_correctness_proof,omitempty"`
}

// AttrValue is a credential value in both forms.
type AttrValue struct {
	Raw     string `json:"raw"`
	Encoded string `json:"encoded"`
}

// CredentialMetadata is stored under MetadataCredential. The revocation
// ids are known after the credential is received.
type CredentialMetadata struct {
	SchemaID               string `json:"schemaId,omitempty"`
	CredDefID              string `json:"credentialDefinitionId,omitempty"`
	RevocationRegistryID   string `json:"revocationRegistryId,omitempty"`
	CredentialRevocationID string `json:"credentialRevocationId,omitempty"`
}

// RequestMetadata is stored under MetadataRequest by the holder.
type RequestMetadata struct {
	Metadata json.RawMessage `json:"metadata"`
	CredDef  json.RawMessage `json:"credDef"`
}

// Issuer is the issuer's side of the anoncreds library.
type Issuer interface {
	CreateOffer(ctx context.Context, credDefID string) (offer string, err error)
	CreateCredential(ctx context.Context, offer, request string,
		values map[string]AttrValue) (credential, revocationID string, err error)
}

// Holder is the holder's side of the anoncreds library.
type Holder interface {
	CreateRequest(ctx context.Context, proverDID, offer, credDef string) (request, metadata string, err error)
	StoreCredential(ctx context.Context, metadata, credential, credDef string) (id string, err error)
}

// CredentialDeleter is implemented by the holders which can remove a
// stored credential.
type CredentialDeleter interface {
	DeleteCredential(ctx context.Context, id string) error
}

// Ledger reads the credential definitions.
type Ledger interface {
	CredDef(ctx context.Context, id string) (string, error)
}

// Input of the indy builds. Filter is used in proposals only. Attributes
// are the credential preview.
type Input struct {
	CredDefID  string
	Filter     *Filter
	Attributes []issuecredential.Attribute
}

func (Input) Family() format.Family { return format.FamilyIndy }

type Config struct {
	Issuer    Issuer
	Holder    Holder
	Ledger    Ledger
	ProverDID string
}

type Service struct {
	Config
}

var _ format.Service = (*Service)(nil)

// New returns the indy format. A party which only holds credentials can
// leave Issuer nil and vice versa.
func New(c Config) *Service {
	return &Service{Config: c}
}

func (s *Service) Family() format.Family { return format.FamilyIndy }

func (s *Service) SupportsFormat(id string) bool {
	switch id {
	case FormatFilter, FormatAbstract, FormatRequest, FormatCred:
		return true
	}
	return false
}

func input(in format.Input) (Input, bool) {
	switch i := in.(type) {
	case Input:
		return i, true
	case *Input:
		if i != nil {
			return *i, true
		}
	}
	return Input{}, false
}

func preview(attrs []issuecredential.Attribute) *issuecredential.Preview {
	if len(attrs) == 0 {
		return nil
	}
	return &issuecredential.Preview{
		Type:       pltype.IssueCredentialPreview,
		Attributes: attrs,
	}
}

func (s *Service) BuildProposal(_ context.Context, args format.ProposalArgs) (
	*issuecredential.Preview, format.Attached, error,
) {
	in, ok := input(args.Input)
	if !ok {
		return nil, format.Attached{}, &format.Error{Op: "build proposal", Format: FormatFilter, Err: format.ErrNoInput}
	}
	filter := Filter{CredDefID: in.CredDefID}
	if in.Filter != nil {
		filter = *in.Filter
		if filter.CredDefID == "" {
			filter.CredDefID = in.CredDefID
		}
	}
	d, err := json.Marshal(filter)
	if err != nil {
		return nil, format.Attached{}, format.Errorf("build proposal", FormatFilter, err)
	}
	return preview(in.Attributes), format.Attached{
		Format:     FormatFilter,
		Attachment: decorator.NewBase64Attachment("", d),
	}, nil
}

func (s *Service) BuildOffer(ctx context.Context, args format.OfferArgs) (
	*issuecredential.Preview, format.Attached, error,
) {
	const op = "build offer"

	in, _ := input(args.Input)
	if in.CredDefID == "" && args.Proposal != nil {
		var filter Filter
		if err := args.Proposal.Unmarshal(&filter); err != nil {
			return nil, format.Attached{}, format.Malformed(op, FormatFilter, err)
		}
		in.CredDefID = filter.CredDefID
	}
	if len(in.Attributes) == 0 && args.Record != nil && args.Record.Proposal != nil &&
		args.Record.Proposal.CredentialPreview != nil {
		in.Attributes = args.Record.Proposal.CredentialPreview.Attributes
	}
	if in.CredDefID == "" || len(in.Attributes) == 0 {
		return nil, format.Attached{}, &format.Error{Op: op, Format: FormatAbstract, Err: format.ErrNoInput}
	}
	if s.Issuer == nil {
		return nil, format.Attached{}, &format.Error{Op: op, Format: FormatAbstract, Err: errNoIssuer}
	}
	offer, err := s.Issuer.CreateOffer(ctx, in.CredDefID)
	if err != nil {
		return nil, format.Attached{}, format.Errorf(op, FormatAbstract, err)
	}
	return preview(in.Attributes), format.Attached{
		Format:     FormatAbstract,
		Attachment: decorator.NewBase64Attachment("", []byte(offer)),
	}, nil
}

func (s *Service) BuildRequest(ctx context.Context, args format.RequestArgs) (format.Attached, error) {
	const op = "build request"

	if s.Holder == nil || s.Ledger == nil {
		return format.Attached{}, &format.Error{Op: op, Format: FormatRequest, Err: errNoHolder}
	}
	offerData, err := args.Offer.Bytes()
	if err != nil {
		return format.Attached{}, format.Malformed(op, FormatAbstract, err)
	}
	var offer Offer
	if err := json.Unmarshal(offerData, &offer); err != nil {
		return format.Attached{}, format.Malformed(op, FormatAbstract, err)
	}
	credDef, err := s.Ledger.CredDef(ctx, offer.CredDefID)
	if err != nil {
		return format.Attached{}, format.Errorf(op, FormatRequest, err)
	}
	req, meta, err := s.Holder.CreateRequest(ctx, s.ProverDID, string(offerData), credDef)
	if err != nil {
		return format.Attached{}, format.Errorf(op, FormatRequest, err)
	}
	if err := args.Record.Metadata.Set(MetadataRequest, RequestMetadata{
		Metadata: json.RawMessage(meta),
		CredDef:  json.RawMessage(credDef),
	}); err != nil {
		return format.Attached{}, format.Errorf(op, FormatRequest, err)
	}
	return format.Attached{
		Format:     FormatRequest,
		Attachment: decorator.NewBase64Attachment("", []byte(req)),
	}, nil
}

func (s *Service) BuildCredential(ctx context.Context, args format.CredentialArgs) (format.Issued, error) {
	const op = "build credential"

	if s.Issuer == nil {
		return format.Issued{}, &format.Error{Op: op, Format: FormatCred, Err: errNoIssuer}
	}
	in, _ := input(args.Input)
	attrs := in.Attributes
	if len(attrs) == 0 && args.Record.Offer != nil && args.Record.Offer.CredentialPreview != nil {
		attrs = args.Record.Offer.CredentialPreview.Attributes
	}
	if len(attrs) == 0 {
		return format.Issued{}, &format.Error{Op: op, Format: FormatCred, Err: format.ErrNoInput}
	}
	offer, err := args.Offer.Bytes()
	if err != nil {
		return format.Issued{}, format.Malformed(op, FormatAbstract, err)
	}
	req, err := args.Request.Bytes()
	if err != nil {
		return format.Issued{}, format.Malformed(op, FormatRequest, err)
	}
	cred, revID, err := s.Issuer.CreateCredential(ctx, string(offer), string(req), EncodeValues(attrs))
	if err != nil {
		return format.Issued{}, format.Errorf(op, FormatCred, err)
	}
	if revID == "" {
		revID = utils.UUID()
	}
	return format.Issued{
		Attached: format.Attached{
			Format:     FormatCred,
			Attachment: decorator.NewBase64Attachment("", []byte(cred)),
		},
		RecordID: revID,
	}, nil
}

func (s *Service) DecodeProposal(a decorator.Attachment) (format.Payload, error) {
	var f Filter
	if err := a.Unmarshal(&f); err != nil {
		return nil, format.Malformed("decode proposal", FormatFilter, err)
	}
	return &f, nil
}

func (s *Service) DecodeOffer(a decorator.Attachment) (format.Payload, error) {
	var o Offer
	if err := a.Unmarshal(&o); err != nil {
		return nil, format.Malformed("decode offer", FormatAbstract, err)
	}
	if o.CredDefID == "" || o.SchemaID == "" {
		return nil, format.Malformed("decode offer", FormatAbstract, errMissingIDs)
	}
	return &o, nil
}

func (s *Service) DecodeRequest(a decorator.Attachment) (format.Payload, error) {
	var r Request
	if err := a.Unmarshal(&r); err != nil {
		return nil, format.Malformed("decode request", FormatRequest, err)
	}
	if r.CredDefID == "" {
		return nil, format.Malformed("decode request", FormatRequest, errMissingIDs)
	}
	return &r, nil
}

func (s *Service) DecodeCredential(a decorator.Attachment) (format.Payload, error) {
	var c Credential
	if err := a.Unmarshal(&c); err != nil {
		return nil, format.Malformed("decode credential", FormatCred, err)
	}
	if c.CredDefID == "" || len(c.Values) == 0 {
		return nil, format.Malformed("decode credential", FormatCred, errMissingIDs)
	}
	return &c, nil
}

func (s *Service) ApplyMetadata(p format.Payload, rec *data.ExchangeRecord) error {
	switch v := p.(type) {
	case *Offer:
		return rec.Metadata.Set(MetadataCredential, CredentialMetadata{
			SchemaID:  v.SchemaID,
			CredDefID: v.CredDefID,
		})
	case *Credential:
		regID, revID, ok := v.RevocationIDs()
		if ok {
			rec.SetTag(data.TagRevocationRegistryID, regID)
			rec.SetTag(data.TagCredentialRevocationID, revID)
		}
		return rec.Metadata.Set(MetadataCredential, CredentialMetadata{
			SchemaID:               v.SchemaID,
			CredDefID:              v.CredDefID,
			RevocationRegistryID:   regID,
			CredentialRevocationID: revID,
		})
	}
	return nil
}

// RevocationIDs returns the revocation registry id and the credential's
// index in it. ok is false for a credential which can't be revoked.
func (c *Credential) RevocationIDs() (regID, revID string, ok bool) {
	if c.RevRegID == nil || *c.RevRegID == "" {
		return "", "", false
	}
	var sig struct {
		R *struct {
			I json.Number `json:"i"`
		} `json:"r_credential"`
	}
	if err := json.Unmarshal(c.Signature, &sig); err != nil || sig.R == nil || sig.R.I == "" {
		return "", "", false
	}
	return *c.RevRegID, sig.R.I.String(), true
}

func (s *Service) StoreCredential(ctx context.Context, args format.StoreArgs) (data.Binding, error) {
	const op = "store credential"

	if s.Holder == nil {
		return data.Binding{}, &format.Error{Op: op, Format: FormatCred, Err: errNoHolder}
	}
	p, err := s.DecodeCredential(args.Credential)
	if err != nil {
		return data.Binding{}, err
	}
	cred := p.(*Credential)
	p, err = s.DecodeRequest(args.Request)
	if err != nil {
		return data.Binding{}, err
	}
	if req := p.(*Request); req.CredDefID != cred.CredDefID {
		return data.Binding{}, &format.Error{Op: op, Format: FormatCred, Err: format.ErrMismatch}
	}
	var meta RequestMetadata
	found, err := args.Record.Metadata.Get(MetadataRequest, &meta)
	if err != nil || !found {
		return data.Binding{}, &format.Error{Op: op, Format: FormatCred, Err: errNoRequestMeta}
	}
	raw, _ := args.Credential.Bytes()
	id, err := s.Holder.StoreCredential(ctx, string(meta.Metadata), string(raw), string(meta.CredDef))
	if err != nil {
		return data.Binding{}, format.Errorf(op, FormatCred, err)
	}
	return data.Binding{Family: string(format.FamilyIndy), RecordID: id}, nil
}

func (s *Service) DiscardCredential(ctx context.Context, b data.Binding) error {
	d, ok := s.Holder.(CredentialDeleter)
	if !ok {
		return &format.Error{Op: "discard credential", Format: FormatCred, Err: errNoDelete}
	}
	return d.DeleteCredential(ctx, b.RecordID)
}
