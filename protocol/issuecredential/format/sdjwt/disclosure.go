package sdjwt

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/findy-network/findy-credex/agent/utils"
	"github.com/golang-jwt/jwt/v5"
)

var (
	errNoSigner    = errors.New("sdjwt signer not configured")
	errNoHolder    = errors.New("sdjwt holder key not configured")
	errNoWallet    = errors.New("sdjwt issuers, holder key or credential store not configured")
	errUntrusted   = errors.New("untrusted issuer")
	errNoVCT       = errors.New("vct missing")
	errNoHolderKey = errors.New("vct or holder key missing")
	errCompact     = errors.New("not a compact sd-jwt")
	errDigest      = errors.New("disclosure digest not in the jwt")
	errDisclosure  = errors.New("malformed disclosure")
)

var now = time.Now

// reserved are the JWT claims which aren't credential claims.
var reserved = map[string]bool{
	"jti": true, "iss": true, "sub": true, "vct": true, "iat": true,
	"exp": true, "nbf": true, "cnf": true, "_sd": true, "_sd_alg": true,
}

func disclosure(salt, name string, value any) (string, error) {
	d, err := json.Marshal([]any{salt, name, value})
	if err != nil {
		return "", err
	}
	return utils.EncodeB64(d), nil
}

func digest(disclosure string) string {
	h := sha256.Sum256([]byte(disclosure))
	return utils.EncodeB64(h[:])
}

func compact(jws string, disclosures []string) string {
	var b strings.Builder
	b.WriteString(jws)
	b.WriteByte('~')
	for _, d := range disclosures {
		b.WriteString(d)
		b.WriteByte('~')
	}
	return b.String()
}

func split(c string) (jws string, disclosures []string, err error) {
	parts := strings.Split(c, "~")
	if len(parts) < 2 || parts[0] == "" || parts[len(parts)-1] != "" {
		return "", nil, errCompact
	}
	return parts[0], parts[1 : len(parts)-1], nil
}

// reveal builds the credential from the plain claims and the disclosures.
func reveal(c string, claims jwt.MapClaims, disclosures []string) (*Credential, error) {
	sd := map[string]bool{}
	if list, ok := claims["_sd"].([]any); ok {
		for _, v := range list {
			if s, ok := v.(string); ok {
				sd[s] = true
			}
		}
	}
	cred := &Credential{
		Compact:     c,
		Claims:      map[string]any{},
		Disclosures: disclosures,
	}
	cred.Issuer, _ = claims["iss"].(string)
	cred.VCT, _ = claims["vct"].(string)
	for n, v := range claims {
		if !reserved[n] {
			cred.Claims[n] = v
		}
	}
	for _, d := range disclosures {
		if !sd[digest(d)] {
			return nil, errDigest
		}
		raw, err := utils.DecodeB64(d)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errDisclosure, err)
		}
		var triple []any
		if err := json.Unmarshal(raw, &triple); err != nil || len(triple) != 3 {
			return nil, errDisclosure
		}
		name, ok := triple[1].(string)
		if !ok {
			return nil, errDisclosure
		}
		cred.Claims[name] = triple[2]
	}
	return cred, nil
}
