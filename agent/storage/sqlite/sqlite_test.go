package sqlite

import (
	"testing"

	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	p, err := Open(":memory:")
	require.NoError(t, err)
	defer p.Close()

	s, err := p.OpenStore("exchange")
	require.NoError(t, err)

	require.NoError(t, s.Put("a", []byte("1"),
		storage.Tag{Name: "threadId", Value: "t1"}, storage.Tag{Name: "role", Value: "holder"}))
	require.NoError(t, s.Put("b", []byte("2"),
		storage.Tag{Name: "threadId", Value: "t1"}, storage.Tag{Name: "role", Value: "issuer"}))
	require.NoError(t, s.Put("c", []byte("3"), storage.Tag{Name: "threadId", Value: "t2"}))

	v, err := s.Get("b")
	require.NoError(t, err)
	require.Equal(t, []byte("2"), v)

	it, err := s.Query("threadId:t1")
	require.NoError(t, err)
	n, _ := it.TotalItems()
	require.Equal(t, 2, n)

	it, err = s.Query("threadId:t1&&role:issuer")
	require.NoError(t, err)
	more, err := it.Next()
	require.NoError(t, err)
	require.True(t, more)
	k, _ := it.Key()
	require.Equal(t, "b", k)
	tags, _ := it.Tags()
	require.Len(t, tags, 2)

	// replacing the value replaces the tags
	require.NoError(t, s.Put("b", []byte("22"), storage.Tag{Name: "threadId", Value: "t3"}))
	it, err = s.Query("threadId:t1&&role:issuer")
	require.NoError(t, err)
	more, _ = it.Next()
	require.False(t, more)

	require.NoError(t, s.Delete("a"))
	_, err = s.Get("a")
	require.ErrorIs(t, err, storage.ErrDataNotFound)
	_, err = s.GetTags("a")
	require.ErrorIs(t, err, storage.ErrDataNotFound)
}

func TestStoresAreSeparate(t *testing.T) {
	p, err := Open(":memory:")
	require.NoError(t, err)
	defer p.Close()

	s1, _ := p.OpenStore("one")
	s2, _ := p.OpenStore("two")
	require.NoError(t, s1.Put("k", []byte("1")))
	_, err = s2.Get("k")
	require.ErrorIs(t, err, storage.ErrDataNotFound)
	require.Len(t, p.GetOpenStores(), 2)
}
