/*
Package ldproof is the W3C JSON-LD credential format with a linked data
proof. The offer and request carry the credential detail: the credential
without proof and the proof options. The issued credential carries the
proof. JSON-LD context loading isn't done, the signing input is the
canonical JSON of the credential and the proof options.
*/
package ldproof

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/findy-network/findy-credex/agent/utils"
	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format"
	"github.com/findy-network/findy-credex/std/decorator"
	"github.com/findy-network/findy-credex/std/issuecredential"
	"github.com/mr-tron/base58"
)

const (
	FormatDetail = "aries/ld-proof-vc-detail@v1.0"
	FormatVC     = "aries/ld-proof-vc@v1.0"
)

const (
	ProofTypeEd25519         = "Ed25519Signature2018"
	PurposeAssertionMethod   = "assertionMethod"
	MetadataCredential       = "_ldproof/credential"
	multibaseBase58BTCPrefix = "z"
)

// Options are the requested proof options.
type Options struct {
	ProofPurpose string `json:"proofPurpose"`
	ProofType    string `json:"proofType"`
	Created      string `json:"created,omitempty"`
	Domain       string `json:"domain,omitempty"`
	Challenge    string `json:"challenge,omitempty"`
}

// Detail is the proposal, offer and request attachment.
type Detail struct {
	Credential map[string]any `json:"credential"`
	Options    Options        `json:"options"`
}

// Proof is the linked data proof of the issued credential.
type Proof struct {
	Type               string `json:"type"`
	Created            string `json:"created"`
	ProofPurpose       string `json:"proofPurpose"`
	VerificationMethod string `json:"verificationMethod"`
	Domain             string `json:"domain,omitempty"`
	Challenge          string `json:"challenge,omitempty"`
	ProofValue         string `json:"proofValue,omitempty"`
}

// Credential is the issued credential split to the body and the proof.
type Credential struct {
	Body  map[string]any
	Proof Proof
}

func (c Credential) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(c.Body)+1)
	for k, v := range c.Body {
		m[k] = v
	}
	m["proof"] = c.Proof
	return json.Marshal(m)
}

func (c *Credential) UnmarshalJSON(d []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(d, &m); err != nil {
		return err
	}
	proof, ok := m["proof"]
	if !ok {
		return fmt.Errorf("credential has no proof")
	}
	if err := json.Unmarshal(proof, &c.Proof); err != nil {
		return fmt.Errorf("proof: %w", err)
	}
	delete(m, "proof")
	body, _ := json.Marshal(m)
	c.Body = nil
	return json.Unmarshal(body, &c.Body)
}

// ID is the credential id or empty.
func (c Credential) ID() string {
	id, _ := c.Body["id"].(string)
	return id
}

// Signer signs with the issuer's key.
type Signer interface {
	Sign(ctx context.Context, data []byte) (sig []byte, verificationMethod string, err error)
}

// Verifier verifies with the key of the verification method.
type Verifier interface {
	Verify(ctx context.Context, verificationMethod string, data, sig []byte) error
}

// Input of the ldproof builds.
type Input struct {
	Detail
}

func (Input) Family() format.Family { return format.FamilyLDProof }

type Config struct {
	Signer   Signer
	Verifier Verifier
	Store    format.CredentialStore
}

type Service struct {
	Config
}

var _ format.Service = (*Service)(nil)

func New(c Config) *Service {
	return &Service{Config: c}
}

func (s *Service) Family() format.Family { return format.FamilyLDProof }

func (s *Service) SupportsFormat(id string) bool {
	return id == FormatDetail || id == FormatVC
}

func input(in format.Input) (Detail, bool) {
	switch i := in.(type) {
	case Input:
		return i.Detail, i.Credential != nil
	case *Input:
		if i != nil {
			return i.Detail, i.Credential != nil
		}
	}
	return Detail{}, false
}

func detailAttached(op string, d Detail) (format.Attached, error) {
	if d.Options.ProofType == "" {
		d.Options.ProofType = ProofTypeEd25519
	}
	if d.Options.ProofPurpose == "" {
		d.Options.ProofPurpose = PurposeAssertionMethod
	}
	b, err := json.Marshal(d)
	if err != nil {
		return format.Attached{}, format.Errorf(op, FormatDetail, err)
	}
	return format.Attached{
		Format:     FormatDetail,
		Attachment: decorator.NewBase64Attachment("", b),
	}, nil
}

func (s *Service) BuildProposal(_ context.Context, args format.ProposalArgs) (
	*issuecredential.Preview, format.Attached, error,
) {
	d, ok := input(args.Input)
	if !ok {
		return nil, format.Attached{}, &format.Error{Op: "build proposal", Format: FormatDetail, Err: format.ErrNoInput}
	}
	a, err := detailAttached("build proposal", d)
	return nil, a, err
}

func (s *Service) BuildOffer(_ context.Context, args format.OfferArgs) (
	*issuecredential.Preview, format.Attached, error,
) {
	const op = "build offer"

	d, ok := input(args.Input)
	if !ok && args.Proposal != nil {
		p, err := s.DecodeProposal(*args.Proposal)
		if err != nil {
			return nil, format.Attached{}, err
		}
		d, ok = *p.(*Detail), true
	}
	if !ok {
		return nil, format.Attached{}, &format.Error{Op: op, Format: FormatDetail, Err: format.ErrNoInput}
	}
	a, err := detailAttached(op, d)
	return nil, a, err
}

// BuildRequest requests the offered credential as is unless the input
// has another detail.
func (s *Service) BuildRequest(_ context.Context, args format.RequestArgs) (format.Attached, error) {
	d, ok := input(args.Input)
	if !ok {
		p, err := s.DecodeOffer(args.Offer)
		if err != nil {
			return format.Attached{}, err
		}
		d = *p.(*Detail)
	}
	return detailAttached("build request", d)
}

func (s *Service) BuildCredential(ctx context.Context, args format.CredentialArgs) (format.Issued, error) {
	const op = "build credential"

	if s.Signer == nil {
		return format.Issued{}, &format.Error{Op: op, Format: FormatVC, Err: errNoSigner}
	}
	p, err := s.DecodeRequest(args.Request)
	if err != nil {
		return format.Issued{}, err
	}
	req := p.(*Detail)
	created := req.Options.Created
	if created == "" {
		created = time.Now().UTC().Format(time.RFC3339)
	}
	proof := Proof{
		Type:         req.Options.ProofType,
		Created:      created,
		ProofPurpose: req.Options.ProofPurpose,
		Domain:       req.Options.Domain,
		Challenge:    req.Options.Challenge,
	}
	sig, vm, err := s.Signer.Sign(ctx, signingInput(req.Credential, proof))
	if err != nil {
		return format.Issued{}, format.Errorf(op, FormatVC, err)
	}
	proof.VerificationMethod = vm
	proof.ProofValue = multibaseBase58BTCPrefix + base58.Encode(sig)

	cred := Credential{Body: req.Credential, Proof: proof}
	b, err := json.Marshal(cred)
	if err != nil {
		return format.Issued{}, format.Errorf(op, FormatVC, err)
	}
	id := cred.ID()
	if id == "" {
		id = utils.UUID()
	}
	return format.Issued{
		Attached: format.Attached{
			Format:     FormatVC,
			Attachment: decorator.NewBase64Attachment("", b),
		},
		RecordID: id,
	}, nil
}

// signingInput is the canonical JSON of the credential and the proof
// without its value. encoding/json sorts the map keys.
func signingInput(body map[string]any, proof Proof) []byte {
	proof.ProofValue = ""
	proof.VerificationMethod = ""
	d, _ := json.Marshal(map[string]any{"credential": body, "proof": proof})
	return d
}

func decodeDetail(op, f string, a decorator.Attachment) (format.Payload, error) {
	var d Detail
	if err := a.Unmarshal(&d); err != nil {
		return nil, format.Malformed(op, f, err)
	}
	if d.Credential == nil {
		return nil, format.Malformed(op, f, errNoCredential)
	}
	return &d, nil
}

func (s *Service) DecodeProposal(a decorator.Attachment) (format.Payload, error) {
	return decodeDetail("decode proposal", FormatDetail, a)
}

func (s *Service) DecodeOffer(a decorator.Attachment) (format.Payload, error) {
	return decodeDetail("decode offer", FormatDetail, a)
}

func (s *Service) DecodeRequest(a decorator.Attachment) (format.Payload, error) {
	return decodeDetail("decode request", FormatDetail, a)
}

func (s *Service) DecodeCredential(a decorator.Attachment) (format.Payload, error) {
	var c Credential
	if err := a.Unmarshal(&c); err != nil {
		return nil, format.Malformed("decode credential", FormatVC, err)
	}
	return &c, nil
}

func (s *Service) ApplyMetadata(p format.Payload, rec *data.ExchangeRecord) error {
	if c, ok := p.(*Credential); ok {
		return rec.Metadata.Set(MetadataCredential, map[string]string{
			"id":                 c.ID(),
			"verificationMethod": c.Proof.VerificationMethod,
		})
	}
	return nil
}

func (s *Service) StoreCredential(ctx context.Context, args format.StoreArgs) (data.Binding, error) {
	const op = "store credential"

	p, err := s.DecodeCredential(args.Credential)
	if err != nil {
		return data.Binding{}, err
	}
	cred := p.(*Credential)
	p, err = s.DecodeRequest(args.Request)
	if err != nil {
		return data.Binding{}, err
	}
	if err := matchesRequest(cred, p.(*Detail)); err != nil {
		return data.Binding{}, &format.Error{Op: op, Format: FormatVC, Err: err}
	}
	if s.Verifier == nil || s.Store == nil {
		return data.Binding{}, &format.Error{Op: op, Format: FormatVC, Err: errNoWallet}
	}
	sig, err := base58.Decode(trimMultibase(cred.Proof.ProofValue))
	if err != nil {
		return data.Binding{}, format.Malformed(op, FormatVC, err)
	}
	if err := s.Verifier.Verify(ctx, cred.Proof.VerificationMethod,
		signingInput(cred.Body, cred.Proof), sig); err != nil {
		return data.Binding{}, format.Errorf(op, FormatVC, err)
	}
	id := cred.ID()
	if id == "" {
		id = utils.UUID()
	}
	raw, _ := args.Credential.Bytes()
	if err := s.Store.Put(ctx, format.FamilyLDProof, id, raw); err != nil {
		return data.Binding{}, err
	}
	return data.Binding{Family: string(format.FamilyLDProof), RecordID: id}, nil
}

func (s *Service) DiscardCredential(ctx context.Context, b data.Binding) error {
	if s.Store == nil {
		return errNoWallet
	}
	return s.Store.Delete(ctx, format.FamilyLDProof, b.RecordID)
}

func trimMultibase(v string) string {
	if len(v) > 0 && v[:1] == multibaseBase58BTCPrefix {
		return v[1:]
	}
	return v
}

// matchesRequest checks the received credential is the requested one.
func matchesRequest(c *Credential, req *Detail) error {
	o := req.Options
	switch {
	case o.Created != "" && c.Proof.Created != o.Created:
		return fmt.Errorf("%w: proof created", format.ErrMismatch)
	case c.Proof.Domain != o.Domain:
		return fmt.Errorf("%w: proof domain", format.ErrMismatch)
	case c.Proof.Challenge != o.Challenge:
		return fmt.Errorf("%w: proof challenge", format.ErrMismatch)
	case c.Proof.Type != o.ProofType:
		return fmt.Errorf("%w: proof type", format.ErrMismatch)
	case c.Proof.ProofPurpose != o.ProofPurpose:
		return fmt.Errorf("%w: proof purpose", format.ErrMismatch)
	case !reflect.DeepEqual(c.Body, req.Credential):
		return fmt.Errorf("%w: credential body", format.ErrMismatch)
	}
	return nil
}
