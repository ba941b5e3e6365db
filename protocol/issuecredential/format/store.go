package format

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// CredentialStoreName is the store name of the received credentials.
const CredentialStoreName = "credentials"

const tagFamily = "family"

var ErrCredentialNotFound = errors.New("credential not found")

// CredentialStore keeps the credentials the holder has received. The
// formats which don't have their own wallet store through it.
type CredentialStore interface {
	Put(ctx context.Context, family Family, id string, credential []byte) error
	Get(ctx context.Context, family Family, id string) ([]byte, error)
	Delete(ctx context.Context, family Family, id string) error
}

// Store is the CredentialStore over a storage provider.
type Store struct {
	store storage.Store
}

func NewStore(p storage.Provider) (s *Store, err error) {
	defer err2.Handle(&err, "open credential store")

	store := try.To1(p.OpenStore(CredentialStoreName))
	try.To(p.SetStoreConfig(CredentialStoreName, storage.StoreConfiguration{
		TagNames: []string{tagFamily},
	}))
	return &Store{store: store}, nil
}

func key(family Family, id string) string {
	return string(family) + "/" + id
}

func (s *Store) Put(_ context.Context, family Family, id string, credential []byte) error {
	return s.store.Put(key(family, id), credential,
		storage.Tag{Name: tagFamily, Value: string(family)})
}

func (s *Store) Get(_ context.Context, family Family, id string) ([]byte, error) {
	d, err := s.store.Get(key(family, id))
	if errors.Is(err, storage.ErrDataNotFound) {
		return nil, fmt.Errorf("%s %s: %w", family, id, ErrCredentialNotFound)
	}
	return d, err
}

func (s *Store) Delete(_ context.Context, family Family, id string) error {
	return s.store.Delete(key(family, id))
}

// List returns the ids of the credentials of the family.
func (s *Store) List(_ context.Context, family Family) (ids []string, err error) {
	defer err2.Handle(&err, "list %s credentials", family)

	it := try.To1(s.store.Query(tagFamily + ":" + string(family)))
	defer it.Close()
	prefix := len(key(family, ""))
	for try.To1(it.Next()) {
		k := try.To1(it.Key())
		ids = append(ids, k[prefix:])
	}
	return ids, nil
}
