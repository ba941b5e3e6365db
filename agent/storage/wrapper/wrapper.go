// Package wrapper is the encrypted bolt backend of the spi/storage provider.
// Every store is a bucket. Values are stored as cbor encoded entries which
// carry the key and tags too, because the bucket keys are hashes.
package wrapper

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/findy-network/findy-common-go/crypto"
	"github.com/findy-network/findy-common-go/crypto/db"
	"github.com/findy-network/findy-credex/agent/storage/api"
	"github.com/fxamacker/cbor/v2"
	"github.com/golang/glog"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

const level7 = 7

type Config struct {
	Key       string
	FileName  string
	FilePath  string
	BucketIDs []string
}

type StorageProvider struct {
	l sync.RWMutex

	conf    Config
	db      db.Handle
	buckets map[string]*bucket
	configs map[string]storage.StoreConfiguration
	cipher  *crypto.Cipher
}

func New(config Config) *StorageProvider {
	s := &StorageProvider{
		conf:    config,
		buckets: make(map[string]*bucket),
		configs: make(map[string]storage.StoreConfiguration),
	}

	var bucketKey byte
	for _, name := range s.conf.BucketIDs {
		s.buckets[name] = newBucket(s, bucketKey)
		bucketKey++
	}

	return s
}

func (s *StorageProvider) Init() (err error) {
	defer err2.Handle(&err, "bolt storage open")

	s.l.Lock()
	defer s.l.Unlock()

	if s.db != nil {
		glog.Warningf("skipping storage provider initialization for %s, already open", s.conf.FileName)
		return nil
	}

	if s.conf.Key != "" {
		k := try.To1(hex.DecodeString(s.conf.Key))
		s.cipher = crypto.NewCipher(k)
	}

	path := "."
	if s.conf.FilePath != "" {
		path = s.conf.FilePath
	}
	filename := filepath.Join(path, s.conf.FileName+".bolt")

	if len(s.conf.BucketIDs) == 0 {
		return fmt.Errorf("no buckets specified")
	}

	mgdBuckets := make([][]byte, 0, len(s.conf.BucketIDs))
	var bucketKey byte
	for range s.conf.BucketIDs {
		mgdBuckets = append(mgdBuckets, []byte{bucketKey})
		bucketKey++
	}

	// this will not open the file handle to db, just initializes it
	s.db = db.New(db.Cfg{
		Filename:   filename,
		Buckets:    mgdBuckets,
		BackupName: filename + "_backup",
	})
	return nil
}

func (s *StorageProvider) ID() string {
	return s.conf.FileName
}

func (s *StorageProvider) OpenStore(name string) (storage.Store, error) {
	glog.V(level7).Infoln("StorageProvider::OpenStore", s.ID(), name)

	if b, ok := s.buckets[name]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("store %s: %w", name, storage.ErrStoreNotFound)
}

func (s *StorageProvider) SetStoreConfig(name string, config storage.StoreConfiguration) error {
	glog.V(level7).Infoln("StorageProvider::SetStoreConfig", name)

	s.l.Lock()
	defer s.l.Unlock()

	if _, ok := s.buckets[name]; !ok {
		return fmt.Errorf("store %s: %w", name, storage.ErrStoreNotFound)
	}
	s.configs[name] = config
	return nil
}

func (s *StorageProvider) GetStoreConfig(name string) (storage.StoreConfiguration, error) {
	s.l.RLock()
	defer s.l.RUnlock()

	c, ok := s.configs[name]
	if !ok {
		return storage.StoreConfiguration{}, fmt.Errorf("store %s: %w", name, storage.ErrStoreNotFound)
	}
	return c, nil
}

func (s *StorageProvider) GetOpenStores() []storage.Store {
	stores := make([]storage.Store, 0, len(s.buckets))
	for _, b := range s.buckets {
		stores = append(stores, b)
	}
	return stores
}

func (s *StorageProvider) Close() (err error) {
	defer err2.Handle(&err, "bolt storage close")

	s.l.Lock()
	defer s.l.Unlock()

	if s.db == nil {
		glog.Warningf("skipping storage provider close for %s, already closed", s.conf.FileName)
		return nil
	}

	try.To(s.db.Close())
	s.db = nil
	return nil
}

func (s *StorageProvider) addData(bucketID byte, e api.Entry) (err error) {
	defer err2.Handle(&err)

	value := try.To1(cbor.Marshal(e))

	s.l.RLock()
	defer s.l.RUnlock()

	if s.db == nil {
		return errClosed
	}
	return s.db.AddKeyValueToBucket([]byte{bucketID},
		&db.Data{
			Data: value,
			Read: s.encrypt,
		},
		&db.Data{
			Data: []byte(e.Key),
			Read: s.hash,
		},
	)
}

var errClosed = errors.New("bolt storage is not open")

func keepAll(v []byte) []byte { return v }

func (s *StorageProvider) hash(key []byte) (k []byte) {
	if s.cipher != nil {
		h := md5.Sum(key)
		return h[:]
	}
	return append(key[:0:0], key...)
}

func (s *StorageProvider) encrypt(value []byte) (k []byte) {
	if s.cipher != nil {
		return s.cipher.TryEncrypt(value)
	}
	return append(value[:0:0], value...)
}

func (s *StorageProvider) decrypt(value []byte) (k []byte) {
	if s.cipher != nil {
		return s.cipher.TryDecrypt(value)
	}
	return append(value[:0:0], value...)
}

func (s *StorageProvider) getData(bucketID byte, key string) (e api.Entry, found bool, err error) {
	defer err2.Handle(&err)

	s.l.RLock()
	defer s.l.RUnlock()

	if s.db == nil {
		return e, false, errClosed
	}
	var value []byte
	found = try.To1(s.db.GetKeyValueFromBucket([]byte{bucketID},
		&db.Data{
			Data: []byte(key),
			Read: s.hash,
		},
		&db.Data{
			Write: s.decrypt,
			Use: func(d []byte) interface{} {
				value = d
				return nil
			},
		}))
	if !found || len(value) == 0 {
		return e, false, nil
	}
	try.To(cbor.Unmarshal(value, &e))
	return e, true, nil
}

func (s *StorageProvider) deleteData(bucketID byte, key string) (err error) {
	s.l.RLock()
	defer s.l.RUnlock()

	if s.db == nil {
		return errClosed
	}
	return s.db.RmKeyValueFromBucket([]byte{bucketID}, &db.Data{
		Data: []byte(key),
		Read: s.hash,
	})
}

func (s *StorageProvider) getAll(bucketID byte) (entries []api.Entry, err error) {
	defer err2.Handle(&err)

	s.l.RLock()
	defer s.l.RUnlock()

	if s.db == nil {
		return nil, errClosed
	}
	values := try.To1(s.db.GetAllValuesFromBucket([]byte{bucketID}, s.decrypt, keepAll))
	entries = make([]api.Entry, 0, len(values))
	for _, v := range values {
		var e api.Entry
		try.To(cbor.Unmarshal(v, &e))
		entries = append(entries, e)
	}
	return entries, nil
}
