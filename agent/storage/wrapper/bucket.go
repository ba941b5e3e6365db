package wrapper

import (
	"errors"
	"sort"

	"github.com/findy-network/findy-credex/agent/storage/api"
	"github.com/golang/glog"
	"github.com/hyperledger/aries-framework-go/spi/storage"
)

type bucket struct {
	bucketID byte
	owner    *StorageProvider
}

func newBucket(owner *StorageProvider, bucketID byte) *bucket {
	return &bucket{
		owner:    owner,
		bucketID: bucketID,
	}
}

// Put stores the key + value pair along with the (optional) tags.
// If key is empty or value is nil, then an error will be returned.
func (b *bucket) Put(key string, value []byte, tags ...storage.Tag) (err error) {
	glog.V(level7).Infoln("bucket::Put", key, tags)

	if key == "" || value == nil {
		return errors.New("key and value are mandatory")
	}
	return b.owner.addData(b.bucketID, api.Entry{Key: key, Value: value, Tags: tags})
}

// Get fetches the value associated with the given key.
// If key cannot be found, then an error wrapping ErrDataNotFound will be returned.
func (b *bucket) Get(key string) (data []byte, err error) {
	glog.V(level7).Infoln("bucket::Get", key)

	e, found, err := b.owner.getData(b.bucketID, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, storage.ErrDataNotFound
	}
	return e.Value, nil
}

func (b *bucket) GetTags(key string) ([]storage.Tag, error) {
	glog.V(level7).Infoln("bucket::GetTags", key)

	e, found, err := b.owner.getData(b.bucketID, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, storage.ErrDataNotFound
	}
	return e.Tags, nil
}

func (b *bucket) GetBulk(keys ...string) ([][]byte, error) {
	glog.V(level7).Infoln("bucket::GetBulk", keys)

	values := make([][]byte, len(keys))
	for i, k := range keys {
		v, err := b.Get(k)
		if err != nil && !errors.Is(err, storage.ErrDataNotFound) {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// Query scans the bucket. The bolt store has no tag index, which is fine
// for the record counts of one agent.
func (b *bucket) Query(expression string, _ ...storage.QueryOption) (storage.Iterator, error) {
	glog.V(level7).Infoln("bucket::Query", expression)

	q, err := api.ParseQuery(expression)
	if err != nil {
		return nil, err
	}
	all, err := b.owner.getAll(b.bucketID)
	if err != nil {
		return nil, err
	}
	var entries []api.Entry
	for _, e := range all {
		if q.Match(e.Tags) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return api.NewIterator(entries), nil
}

// Delete deletes the key + value pair (and all tags) associated with key.
func (b *bucket) Delete(key string) error {
	glog.V(level7).Infoln("bucket::Delete", key)

	return b.owner.deleteData(b.bucketID, key)
}

func (b *bucket) Batch(operations []storage.Operation) error {
	glog.V(level7).Infoln("bucket::Batch", len(operations))

	for _, op := range operations {
		var err error
		if op.Value == nil {
			err = b.Delete(op.Key)
		} else {
			err = b.Put(op.Key, op.Value, op.Tags...)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Flush is a no-op: every write is committed by its own bolt transaction.
func (b *bucket) Flush() error {
	return nil
}

// Close closes this store object. The provider handles closing the db file.
func (b *bucket) Close() error {
	glog.V(level7).Infoln("bucket::Close")
	return nil
}
