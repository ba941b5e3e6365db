package utils

import (
	"testing"

	"github.com/lainio/err2/assert"
)

func TestB64(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	data := []byte(`["salt","given_name","Alice"]`)
	s := EncodeB64(data)
	got, err := DecodeB64(s)
	assert.NoError(err)
	assert.DeepEqual(got, data)

	got, err = DecodeB64("e30=")
	assert.NoError(err)
	assert.Equal(string(got), "{}")
}

func TestUUID(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	a, b := UUID(), UUID()
	assert.NotEqual(a, b)
	assert.Equal(len(a), 36)
	assert.NotEmpty(NewNonceStr())
}

func TestSettings(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	assert.Equal(Settings.Timeout(), HTTPReqTimeout)
	Settings.SetVersionInfo("test 0.1")
	assert.Equal(Settings.VersionInfo(), "test 0.1")
}
