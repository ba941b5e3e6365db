package kms

import (
	"context"
	"errors"
	"testing"

	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
	"github.com/mr-tron/base58"
)

func TestSignVerify(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctx := context.Background()

	issuer := try.To1(New("did:example:issuer"))
	holder := try.To1(New("did:example:holder"))

	data := []byte("credential")
	sig, vm, err := issuer.Sign(ctx, data)
	assert.NoError(err)
	assert.SNotEmpty(sig)
	assert.Equal(vm, issuer.VerificationMethod())

	assert.NoError(issuer.Verify(ctx, vm, data, sig))

	err = holder.Verify(ctx, vm, data, sig)
	assert.That(errors.Is(err, ErrUnknownKey))

	pub, err := issuer.PublicKeyset()
	assert.NoError(err)
	assert.NoError(holder.Trust(vm, pub))
	assert.NoError(holder.Verify(ctx, vm, data, sig))
	assert.Error(holder.Verify(ctx, vm, []byte("tampered"), sig))
}

func TestVerkey(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	k := try.To1(New("did:example:a"))
	raw, err := base58.Decode(k.Verkey())
	assert.NoError(err)
	assert.SLen(raw, 32)
	assert.SLen(k.SigningKey(), 64)
}
