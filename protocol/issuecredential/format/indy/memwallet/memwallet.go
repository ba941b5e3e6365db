/*
Package memwallet is an in-memory stand-in of the anoncreds library for the
demo command and the tests. It produces payloads of the right shape and
checks their linkage, but it doesn't do any anoncreds cryptography.
*/
package memwallet

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/findy-network/findy-credex/agent/utils"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format/indy"
)

var (
	ErrNoCredDef = errors.New("credential definition not found")
	ErrLinkage   = errors.New("offer and request don't match")
	ErrNoCred    = errors.New("credential not found")
)

// Ledger is a shared registry of credential definitions.
type Ledger struct {
	l        sync.RWMutex
	credDefs map[string]credDef
}

type credDef struct {
	ID       string `json:"id"`
	SchemaID string `json:"schemaId"`
	Type     string `json:"type"`
	Tag      string `json:"tag"`
}

func NewLedger() *Ledger {
	return &Ledger{credDefs: make(map[string]credDef)}
}

// AddCredDef writes a credential definition and returns its id.
func (l *Ledger) AddCredDef(issuerDID, schemaID, tag string) string {
	l.l.Lock()
	defer l.l.Unlock()

	id := fmt.Sprintf("%s:3:CL:%d:%s", issuerDID, len(l.credDefs)+1, tag)
	l.credDefs[id] = credDef{ID: id, SchemaID: schemaID, Type: "CL", Tag: tag}
	return id
}

func (l *Ledger) CredDef(_ context.Context, id string) (string, error) {
	l.l.RLock()
	defer l.l.RUnlock()

	cd, ok := l.credDefs[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoCredDef, id)
	}
	d, err := json.Marshal(cd)
	return string(d), err
}

// Wallet is one party's anoncreds wallet.
type Wallet struct {
	l      sync.Mutex
	ledger *Ledger
	revID  int
	creds  map[string]string
}

var (
	_ indy.Issuer = (*Wallet)(nil)
	_ indy.Holder = (*Wallet)(nil)

	_ indy.CredentialDeleter = (*Wallet)(nil)
)

func New(l *Ledger) *Wallet {
	return &Wallet{ledger: l, creds: make(map[string]string)}
}

func (w *Wallet) CreateOffer(ctx context.Context, credDefID string) (string, error) {
	d, err := w.ledger.CredDef(ctx, credDefID)
	if err != nil {
		return "", err
	}
	var cd credDef
	if err := json.Unmarshal([]byte(d), &cd); err != nil {
		return "", err
	}
	o, err := json.Marshal(indy.Offer{
		SchemaID:  cd.SchemaID,
		CredDefID: credDefID,
		Nonce:     utils.NewNonceStr(),
	})
	return string(o), err
}

func (w *Wallet) CreateRequest(_ context.Context, proverDID, offer, credDef string) (string, string, error) {
	var o indy.Offer
	if err := json.Unmarshal([]byte(offer), &o); err != nil {
		return "", "", err
	}
	var cd struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(credDef), &cd); err != nil {
		return "", "", err
	}
	if cd.ID != o.CredDefID {
		return "", "", ErrLinkage
	}
	blinded, _ := json.Marshal(map[string]string{"u": digest(proverDID, o.Nonce)})
	r, err := json.Marshal(indy.Request{
		ProverDID: proverDID,
		CredDefID: o.CredDefID,
		BlindedMS: blinded,
		Nonce:     utils.NewNonceStr(),
	})
	if err != nil {
		return "", "", err
	}
	meta, err := json.Marshal(map[string]string{"offer_nonce": o.Nonce})
	return string(r), string(meta), err
}

func (w *Wallet) CreateCredential(_ context.Context, offer, request string,
	values map[string]indy.AttrValue,
) (string, string, error) {
	var o indy.Offer
	var r indy.Request
	if err := json.Unmarshal([]byte(offer), &o); err != nil {
		return "", "", err
	}
	if err := json.Unmarshal([]byte(request), &r); err != nil {
		return "", "", err
	}
	if o.CredDefID != r.CredDefID {
		return "", "", ErrLinkage
	}
	w.l.Lock()
	w.revID++
	index := w.revID
	w.l.Unlock()

	regID := RevRegID(o.CredDefID)
	sig, _ := json.Marshal(map[string]any{
		"p":            digest(r.Nonce, o.CredDefID),
		"r_credential": map[string]int{"i": index},
	})
	c, err := json.Marshal(indy.Credential{
		SchemaID:  o.SchemaID,
		CredDefID: o.CredDefID,
		RevRegID:  &regID,
		Values:    values,
		Signature: sig,
	})
	if err != nil {
		return "", "", err
	}
	return string(c), strconv.Itoa(index), nil
}

func (w *Wallet) StoreCredential(_ context.Context, metadata, credential, credDef string) (string, error) {
	var c indy.Credential
	if err := json.Unmarshal([]byte(credential), &c); err != nil {
		return "", err
	}
	var cd struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(credDef), &cd); err != nil {
		return "", err
	}
	if cd.ID != c.CredDefID {
		return "", ErrLinkage
	}
	id := utils.UUID()
	w.l.Lock()
	w.creds[id] = credential
	w.l.Unlock()
	return id, nil
}

// Credential returns the stored credential.
func (w *Wallet) Credential(id string) (string, bool) {
	w.l.Lock()
	defer w.l.Unlock()
	c, ok := w.creds[id]
	return c, ok
}

// Len returns the number of stored credentials.
func (w *Wallet) Len() int {
	w.l.Lock()
	defer w.l.Unlock()
	return len(w.creds)
}

// DeleteCredential removes the stored credential.
func (w *Wallet) DeleteCredential(_ context.Context, id string) error {
	w.l.Lock()
	defer w.l.Unlock()
	if _, ok := w.creds[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNoCred, id)
	}
	delete(w.creds, id)
	return nil
}

// RevRegID returns the id of the default revocation registry of the
// credential definition.
func RevRegID(credDefID string) string {
	did, _, _ := strings.Cut(credDefID, ":")
	return fmt.Sprintf("%s:4:%s:CL_ACCUM:default", did, credDefID)
}

func digest(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
