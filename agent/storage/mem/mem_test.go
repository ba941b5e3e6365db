package mem

import (
	"testing"

	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	p := New()
	s, err := p.OpenStore("test")
	require.NoError(t, err)

	require.NoError(t, s.Put("k1", []byte("v1"), storage.Tag{Name: "role", Value: "holder"}))
	require.NoError(t, s.Put("k2", []byte("v2"), storage.Tag{Name: "role", Value: "issuer"}))
	require.Error(t, s.Put("", []byte("v")))

	v, err := s.Get("k1")
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), v)

	_, err = s.Get("missing")
	require.ErrorIs(t, err, storage.ErrDataNotFound)

	it, err := s.Query("role:issuer")
	require.NoError(t, err)
	more, err := it.Next()
	require.NoError(t, err)
	require.True(t, more)
	k, err := it.Key()
	require.NoError(t, err)
	require.Equal(t, "k2", k)
	more, _ = it.Next()
	require.False(t, more)

	require.NoError(t, s.Delete("k1"))
	_, err = s.Get("k1")
	require.ErrorIs(t, err, storage.ErrDataNotFound)
}

func TestProviderConfig(t *testing.T) {
	p := New()
	_, err := p.GetStoreConfig("test")
	require.ErrorIs(t, err, storage.ErrStoreNotFound)

	_, err = p.OpenStore("test")
	require.NoError(t, err)
	require.NoError(t, p.SetStoreConfig("test", storage.StoreConfiguration{TagNames: []string{"a"}}))
	c, err := p.GetStoreConfig("test")
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, c.TagNames)
	require.Len(t, p.GetOpenStores(), 1)
}
