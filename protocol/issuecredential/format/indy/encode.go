package indy

import (
	"crypto/sha256"
	"math"
	"math/big"
	"strconv"

	"github.com/findy-network/findy-credex/std/issuecredential"
)

// EncodeValue encodes a raw attribute value the way the anoncreds
// signatures need it: 32-bit integers as is, everything else as the
// decimal form of its sha256 digest.
func EncodeValue(raw string) string {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil &&
		i >= math.MinInt32 && i <= math.MaxInt32 && strconv.FormatInt(i, 10) == raw {
		return raw
	}
	h := sha256.Sum256([]byte(raw))
	return new(big.Int).SetBytes(h[:]).String()
}

// EncodeValues returns the credential values of the preview attributes.
func EncodeValues(attrs []issuecredential.Attribute) map[string]AttrValue {
	values := make(map[string]AttrValue, len(attrs))
	for _, a := range attrs {
		values[a.Name] = AttrValue{Raw: a.Value, Encoded: EncodeValue(a.Value)}
	}
	return values
}
