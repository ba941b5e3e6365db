/*
Package libindy implements the indy format collaborators with libindy
through findy-wrapper-go. The wallet and pool handles are opened by the
host agent.
*/
package libindy

import (
	"context"
	"encoding/json"

	"github.com/findy-network/findy-credex/protocol/issuecredential/format/indy"
	"github.com/findy-network/findy-wrapper-go"
	"github.com/findy-network/findy-wrapper-go/anoncreds"
	"github.com/findy-network/findy-wrapper-go/dto"
	"github.com/findy-network/findy-wrapper-go/ledger"
	"github.com/findy-network/findy-wrapper-go/pool"
	"github.com/findy-network/findy-wrapper-go/wallet"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Wallet binds the open libindy handles of an agent.
type Wallet struct {
	Handle       int
	Pool         int
	DID          string
	MasterSecret string
}

var (
	_ indy.Issuer = (*Wallet)(nil)
	_ indy.Holder = (*Wallet)(nil)
	_ indy.Ledger = (*Wallet)(nil)
)

// OpenConfig names the wallet and the ledger pool of the agent. The wallet
// key is a raw key.
type OpenConfig struct {
	WalletName   string
	WalletKey    string
	PoolName     string
	DID          string
	MasterSecret string
}

// Open opens the wallet and the ledger connection.
func Open(ctx context.Context, c OpenConfig) (w *Wallet, err error) {
	defer err2.Handle(&err, "libindy open %s", c.WalletName)

	glog.V(3).Infoln("opening wallet:", c.WalletName)
	cfg := wallet.Config{ID: c.WalletName}
	creds := wallet.Credentials{Key: c.WalletKey, KeyDerivationMethod: "RAW"}
	w = &Wallet{
		Handle:       try.To1(wait(ctx, wallet.Open(cfg, creds))).Handle(),
		DID:          c.DID,
		MasterSecret: c.MasterSecret,
	}
	defer err2.Handle(&err, func(err error) error {
		<-wallet.Close(w.Handle)
		return err
	})
	w.Pool = try.To1(wait(ctx, pool.OpenLedger(c.PoolName))).Handle()
	return w, nil
}

// Close closes the handles Open opened.
func (w *Wallet) Close() error {
	r := <-pool.CloseLedger(w.Pool)
	if err := (<-wallet.Close(w.Handle)).Err(); err != nil {
		return err
	}
	return r.Err()
}

func wait(ctx context.Context, ch findy.Channel) (dto.Result, error) {
	select {
	case r := <-ch:
		return r, r.Err()
	case <-ctx.Done():
		return dto.Result{}, ctx.Err()
	}
}

func (w *Wallet) CreateOffer(ctx context.Context, credDefID string) (offer string, err error) {
	defer err2.Handle(&err, "libindy create offer")

	r := try.To1(wait(ctx, anoncreds.IssuerCreateCredentialOffer(w.Handle, credDefID)))
	return r.Str1(), nil
}

func (w *Wallet) CreateCredential(ctx context.Context, offer, request string,
	values map[string]indy.AttrValue,
) (credential, revocationID string, err error) {
	defer err2.Handle(&err, "libindy create credential")

	v := try.To1(json.Marshal(values))
	r := try.To1(wait(ctx, anoncreds.IssuerCreateCredential(w.Handle, offer, request,
		string(v), findy.NullString, findy.NullHandle)))
	return r.Str1(), r.Str2(), nil
}

func (w *Wallet) CreateRequest(ctx context.Context, proverDID, offer, credDef string) (
	request, metadata string, err error,
) {
	defer err2.Handle(&err, "libindy create request")

	if proverDID == "" {
		proverDID = w.DID
	}
	r := try.To1(wait(ctx, anoncreds.ProverCreateCredentialReq(w.Handle, proverDID,
		offer, credDef, w.MasterSecret)))
	return r.Str1(), r.Str2(), nil
}

func (w *Wallet) StoreCredential(ctx context.Context, metadata, credential, credDef string) (id string, err error) {
	defer err2.Handle(&err, "libindy store credential")

	r := try.To1(wait(ctx, anoncreds.ProverStoreCredential(w.Handle, findy.NullString,
		metadata, credential, credDef, findy.NullString)))
	return r.Str1(), nil
}

func (w *Wallet) CredDef(_ context.Context, id string) (credDef string, err error) {
	defer err2.Handle(&err, "libindy read cred def")

	_, credDef, err = ledger.ReadCredDef(w.Pool, w.DID, id)
	return credDef, err
}
