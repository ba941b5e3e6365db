/*
Package kms holds the signing keys of the agent. Linked data proofs are
signed with a tink ED25519 keyset, the public keysets of other parties are
trusted by their verification method id. SD-JWT credentials are signed with
a plain ed25519 key pair, because the JWS library needs the key itself.
*/
package kms

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"

	"github.com/google/tink/go/keyset"
	"github.com/google/tink/go/signature"
	"github.com/google/tink/go/tink"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/mr-tron/base58"
)

var ErrUnknownKey = errors.New("unknown verification method")

// KMS signs with the agent's own keys and verifies with the trusted ones.
type KMS struct {
	l sync.RWMutex

	id       string
	handle   *keyset.Handle
	signer   tink.Signer
	verifier map[string]tink.Verifier

	edPub  ed25519.PublicKey
	edPriv ed25519.PrivateKey
}

// New creates fresh keys. The id is used as the DID part of the
// verification method, e.g. did:example:issuer.
func New(id string) (k *KMS, err error) {
	defer err2.Handle(&err, "new kms")

	h := try.To1(keyset.NewHandle(signature.ED25519KeyTemplate()))
	s := try.To1(signature.NewSigner(h))
	pub, priv := try.To2(ed25519.GenerateKey(rand.Reader))

	k = &KMS{
		id:       id,
		handle:   h,
		signer:   s,
		verifier: make(map[string]tink.Verifier),
		edPub:    pub,
		edPriv:   priv,
	}
	pubH := try.To1(h.Public())
	k.verifier[k.VerificationMethod()] = try.To1(signature.NewVerifier(pubH))
	return k, nil
}

// VerificationMethod is the id of the tink signing key.
func (k *KMS) VerificationMethod() string {
	return fmt.Sprintf("%s#key-%d", k.id, k.handle.KeysetInfo().GetPrimaryKeyId())
}

// Sign signs the data with the tink keyset.
func (k *KMS) Sign(_ context.Context, data []byte) (sig []byte, vm string, err error) {
	sig, err = k.signer.Sign(data)
	return sig, k.VerificationMethod(), err
}

// Verify checks the signature with the key of the verification method.
func (k *KMS) Verify(_ context.Context, vm string, data, sig []byte) error {
	k.l.RLock()
	v, ok := k.verifier[vm]
	k.l.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, vm)
	}
	return v.Verify(sig, data)
}

// PublicKeyset exports the public part of the tink keyset as JSON.
func (k *KMS) PublicKeyset() (d []byte, err error) {
	defer err2.Handle(&err, "export public keyset")

	pub := try.To1(k.handle.Public())
	buf := new(bytes.Buffer)
	try.To(pub.WriteWithNoSecrets(keyset.NewJSONWriter(buf)))
	return buf.Bytes(), nil
}

// Trust adds the public keyset of the verification method.
func (k *KMS) Trust(vm string, publicKeyset []byte) (err error) {
	defer err2.Handle(&err, "trust %s", vm)

	h := try.To1(keyset.ReadWithNoSecrets(keyset.NewJSONReader(bytes.NewReader(publicKeyset))))
	v := try.To1(signature.NewVerifier(h))

	k.l.Lock()
	defer k.l.Unlock()
	k.verifier[vm] = v
	return nil
}

// SigningKey is the ed25519 key for the JWS signatures.
func (k *KMS) SigningKey() ed25519.PrivateKey {
	return k.edPriv
}

// PublicKey is the ed25519 key for the JWS verification.
func (k *KMS) PublicKey() ed25519.PublicKey {
	return k.edPub
}

// Verkey is the base58 form of the ed25519 public key, the format of the
// recipient keys in ~service blocks.
func (k *KMS) Verkey() string {
	return base58.Encode(k.edPub)
}

// ID returns the DID the keys belong to.
func (k *KMS) ID() string {
	return k.id
}
