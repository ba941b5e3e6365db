/*
Package sdjwt is the selective disclosure JWT credential format. The issuer
signs an EdDSA JWT carrying the sha-256 digests of the claim disclosures and
the holder's key in cnf. The issued credential is the compact form
<jws>~<disclosure>~...~. Claims not named disclosable in the offer are
plain JWT claims.
*/
package sdjwt

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/findy-network/findy-credex/agent/utils"
	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format"
	"github.com/findy-network/findy-credex/std/decorator"
	"github.com/findy-network/findy-credex/std/issuecredential"
	"github.com/golang-jwt/jwt/v5"
)

const (
	Format = "vc+sd-jwt"

	MetadataCredential = "_sdjwt/credential"

	hashAlg = "sha-256"
)

// Offer is the proposal and offer attachment: the credential type and the
// claims to issue.
type Offer struct {
	VCT    string         `json:"vct"`
	Issuer string         `json:"iss,omitempty"`
	Claims map[string]any `json:"claims"`
	// Disclosable names the selectively disclosable claims, empty means
	// all of them.
	Disclosable []string `json:"disclosable,omitempty"`
}

func (o *Offer) disclosable(name string) bool {
	if len(o.Disclosable) == 0 {
		return true
	}
	for _, n := range o.Disclosable {
		if n == name {
			return true
		}
	}
	return false
}

// Request binds the credential to the holder's key.
type Request struct {
	VCT       string `json:"vct"`
	Holder    string `json:"holder"`
	HolderKey string `json:"holder_key"`
}

// Credential is the decoded compact SD-JWT.
type Credential struct {
	Compact     string
	Issuer      string
	VCT         string
	Claims      map[string]any
	Disclosures []string
}

// Signer is the issuer's key. agent/kms satisfies it.
type Signer interface {
	ID() string
	SigningKey() ed25519.PrivateKey
}

// HolderKey is the key the credential is bound to.
type HolderKey interface {
	ID() string
	PublicKey() ed25519.PublicKey
}

// Issuers resolves the verification key of the issuer.
type Issuers interface {
	IssuerKey(ctx context.Context, iss string) (ed25519.PublicKey, error)
}

// StaticIssuers is a fixed set of trusted issuers.
type StaticIssuers map[string]ed25519.PublicKey

func (s StaticIssuers) IssuerKey(_ context.Context, iss string) (ed25519.PublicKey, error) {
	k, ok := s[iss]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUntrusted, iss)
	}
	return k, nil
}

// Input of the sdjwt builds. Claims are needed for the proposal and offer
// unless the offer comes from a proposal.
type Input struct {
	VCT         string
	Claims      map[string]any
	Disclosable []string
}

func (Input) Family() format.Family { return format.FamilySDJWT }

type Config struct {
	Signer  Signer
	Holder  HolderKey
	Issuers Issuers
	Store   format.CredentialStore
}

type Service struct {
	Config
}

var _ format.Service = (*Service)(nil)

func New(c Config) *Service {
	return &Service{Config: c}
}

func (s *Service) Family() format.Family { return format.FamilySDJWT }

func (s *Service) SupportsFormat(id string) bool {
	return id == Format
}

func input(in format.Input) (Input, bool) {
	switch i := in.(type) {
	case Input:
		return i, i.VCT != ""
	case *Input:
		if i != nil {
			return *i, i.VCT != ""
		}
	}
	return Input{}, false
}

func jsonAttached(op string, v any) (format.Attached, error) {
	a, err := decorator.NewJSONAttachment("", v)
	if err != nil {
		return format.Attached{}, format.Errorf(op, Format, err)
	}
	return format.Attached{Format: Format, Attachment: a}, nil
}

func (s *Service) BuildProposal(_ context.Context, args format.ProposalArgs) (
	*issuecredential.Preview, format.Attached, error,
) {
	in, ok := input(args.Input)
	if !ok {
		return nil, format.Attached{}, &format.Error{Op: "build proposal", Format: Format, Err: format.ErrNoInput}
	}
	a, err := jsonAttached("build proposal", Offer{VCT: in.VCT, Claims: in.Claims, Disclosable: in.Disclosable})
	return nil, a, err
}

func (s *Service) BuildOffer(_ context.Context, args format.OfferArgs) (
	*issuecredential.Preview, format.Attached, error,
) {
	const op = "build offer"

	var o Offer
	if in, ok := input(args.Input); ok {
		o = Offer{VCT: in.VCT, Claims: in.Claims, Disclosable: in.Disclosable}
	} else if args.Proposal != nil {
		p, err := s.DecodeProposal(*args.Proposal)
		if err != nil {
			return nil, format.Attached{}, err
		}
		o = *p.(*Offer)
	} else {
		return nil, format.Attached{}, &format.Error{Op: op, Format: Format, Err: format.ErrNoInput}
	}
	if s.Signer != nil {
		o.Issuer = s.Signer.ID()
	}
	a, err := jsonAttached(op, o)
	return nil, a, err
}

func (s *Service) BuildRequest(_ context.Context, args format.RequestArgs) (format.Attached, error) {
	const op = "build request"

	if s.Holder == nil {
		return format.Attached{}, &format.Error{Op: op, Format: Format, Err: errNoHolder}
	}
	p, err := s.DecodeOffer(args.Offer)
	if err != nil {
		return format.Attached{}, err
	}
	return jsonAttached(op, Request{
		VCT:       p.(*Offer).VCT,
		Holder:    s.Holder.ID(),
		HolderKey: utils.EncodeB64(s.Holder.PublicKey()),
	})
}

func (s *Service) BuildCredential(_ context.Context, args format.CredentialArgs) (format.Issued, error) {
	const op = "build credential"

	if s.Signer == nil {
		return format.Issued{}, &format.Error{Op: op, Format: Format, Err: errNoSigner}
	}
	p, err := s.DecodeOffer(args.Offer)
	if err != nil {
		return format.Issued{}, err
	}
	offer := p.(*Offer)
	p, err = s.DecodeRequest(args.Request)
	if err != nil {
		return format.Issued{}, err
	}
	req := p.(*Request)
	if req.VCT != offer.VCT {
		return format.Issued{}, &format.Error{Op: op, Format: Format, Err: fmt.Errorf("%w: vct", format.ErrMismatch)}
	}

	names := make([]string, 0, len(offer.Claims))
	for n := range offer.Claims {
		names = append(names, n)
	}
	sort.Strings(names)
	disclosures := make([]string, 0, len(names))
	digests := make([]string, 0, len(names))
	plain := jwt.MapClaims{}
	for _, n := range names {
		if !offer.disclosable(n) {
			plain[n] = offer.Claims[n]
			continue
		}
		d, err := disclosure(utils.NewNonceStr(), n, offer.Claims[n])
		if err != nil {
			return format.Issued{}, format.Errorf(op, Format, err)
		}
		disclosures = append(disclosures, d)
		digests = append(digests, digest(d))
	}
	sort.Strings(digests)

	id := utils.UUID()
	claims := jwt.MapClaims{
		"jti":     id,
		"iss":     s.Signer.ID(),
		"sub":     req.Holder,
		"vct":     offer.VCT,
		"iat":     jwt.NewNumericDate(now()),
		"_sd":     digests,
		"_sd_alg": hashAlg,
		"cnf": map[string]any{"jwk": map[string]string{
			"kty": "OKP",
			"crv": "Ed25519",
			"x":   req.HolderKey,
		}},
	}
	for n, v := range plain {
		if !reserved[n] {
			claims[n] = v
		}
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	tok.Header["typ"] = Format
	jws, err := tok.SignedString(s.Signer.SigningKey())
	if err != nil {
		return format.Issued{}, format.Errorf(op, Format, err)
	}
	return format.Issued{
		Attached: format.Attached{
			Format:     Format,
			Attachment: decorator.NewBase64Attachment("", []byte(compact(jws, disclosures))),
		},
		RecordID: id,
	}, nil
}

func (s *Service) decodeOffer(op string, a decorator.Attachment) (format.Payload, error) {
	var o Offer
	if err := a.Unmarshal(&o); err != nil {
		return nil, format.Malformed(op, Format, err)
	}
	if o.VCT == "" {
		return nil, format.Malformed(op, Format, errNoVCT)
	}
	return &o, nil
}

func (s *Service) DecodeProposal(a decorator.Attachment) (format.Payload, error) {
	return s.decodeOffer("decode proposal", a)
}

func (s *Service) DecodeOffer(a decorator.Attachment) (format.Payload, error) {
	return s.decodeOffer("decode offer", a)
}

func (s *Service) DecodeRequest(a decorator.Attachment) (format.Payload, error) {
	var r Request
	if err := a.Unmarshal(&r); err != nil {
		return nil, format.Malformed("decode request", Format, err)
	}
	if r.VCT == "" || r.HolderKey == "" {
		return nil, format.Malformed("decode request", Format, errNoHolderKey)
	}
	return &r, nil
}

// DecodeCredential parses the compact form without checking the signature
// and checks every disclosure has its digest in the JWT.
func (s *Service) DecodeCredential(a decorator.Attachment) (format.Payload, error) {
	const op = "decode credential"

	b, err := a.Bytes()
	if err != nil {
		return nil, format.Malformed(op, Format, err)
	}
	jws, disclosures, err := split(string(b))
	if err != nil {
		return nil, format.Malformed(op, Format, err)
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(jws, claims); err != nil {
		return nil, format.Malformed(op, Format, err)
	}
	c, err := reveal(string(b), claims, disclosures)
	if err != nil {
		return nil, format.Malformed(op, Format, err)
	}
	return c, nil
}

func (s *Service) ApplyMetadata(p format.Payload, rec *data.ExchangeRecord) error {
	if c, ok := p.(*Credential); ok {
		return rec.Metadata.Set(MetadataCredential, map[string]string{
			"iss": c.Issuer,
			"vct": c.VCT,
		})
	}
	return nil
}

func (s *Service) StoreCredential(ctx context.Context, args format.StoreArgs) (data.Binding, error) {
	const op = "store credential"

	if s.Issuers == nil || s.Store == nil || s.Holder == nil {
		return data.Binding{}, &format.Error{Op: op, Format: Format, Err: errNoWallet}
	}
	p, err := s.DecodeCredential(args.Credential)
	if err != nil {
		return data.Binding{}, err
	}
	cred := p.(*Credential)
	key, err := s.Issuers.IssuerKey(ctx, cred.Issuer)
	if err != nil {
		return data.Binding{}, format.Errorf(op, Format, err)
	}
	jws, _, _ := split(cred.Compact)
	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(jws, claims, func(*jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}))
	if err != nil {
		return data.Binding{}, format.Errorf(op, Format, err)
	}
	if err := s.boundToHolder(claims); err != nil {
		return data.Binding{}, &format.Error{Op: op, Format: Format, Err: err}
	}
	if args.Offer != nil {
		if err := s.matchesOffer(cred, *args.Offer); err != nil {
			return data.Binding{}, &format.Error{Op: op, Format: Format, Err: err}
		}
	}
	id, _ := claims["jti"].(string)
	if id == "" {
		id = utils.UUID()
	}
	if err := s.Store.Put(ctx, format.FamilySDJWT, id, []byte(cred.Compact)); err != nil {
		return data.Binding{}, err
	}
	return data.Binding{Family: string(format.FamilySDJWT), RecordID: id}, nil
}

func (s *Service) DiscardCredential(ctx context.Context, b data.Binding) error {
	if s.Store == nil {
		return errNoWallet
	}
	return s.Store.Delete(ctx, format.FamilySDJWT, b.RecordID)
}

func (s *Service) boundToHolder(claims jwt.MapClaims) error {
	cnf, _ := claims["cnf"].(map[string]any)
	jwk, _ := cnf["jwk"].(map[string]any)
	x, _ := jwk["x"].(string)
	if x != utils.EncodeB64(s.Holder.PublicKey()) {
		return fmt.Errorf("%w: holder key", format.ErrMismatch)
	}
	return nil
}

func (s *Service) matchesOffer(c *Credential, offerAtt decorator.Attachment) error {
	p, err := s.DecodeOffer(offerAtt)
	if err != nil {
		return err
	}
	o := p.(*Offer)
	if o.VCT != c.VCT {
		return fmt.Errorf("%w: vct", format.ErrMismatch)
	}
	if !reflect.DeepEqual(normalize(o.Claims), c.Claims) {
		return fmt.Errorf("%w: claims", format.ErrMismatch)
	}
	return nil
}

// normalize gives the claims their decoded JSON types.
func normalize(claims map[string]any) map[string]any {
	d, _ := json.Marshal(claims)
	m := map[string]any{}
	_ = json.Unmarshal(d, &m)
	return m
}
