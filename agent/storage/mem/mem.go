// Package mem is an in-memory spi/storage provider for tests and the demo.
package mem

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/findy-network/findy-credex/agent/storage/api"
	"github.com/golang/glog"
	"github.com/hyperledger/aries-framework-go/spi/storage"
)

type Provider struct {
	l       sync.RWMutex
	stores  map[string]*Store
	configs map[string]storage.StoreConfiguration
}

func New() *Provider {
	return &Provider{
		stores:  make(map[string]*Store),
		configs: make(map[string]storage.StoreConfiguration),
	}
}

func (p *Provider) OpenStore(name string) (storage.Store, error) {
	p.l.Lock()
	defer p.l.Unlock()

	if s, ok := p.stores[name]; ok {
		return s, nil
	}
	glog.V(7).Infoln("mem::OpenStore", name)
	s := &Store{name: name, data: make(map[string]api.Entry)}
	p.stores[name] = s
	return s, nil
}

func (p *Provider) SetStoreConfig(name string, config storage.StoreConfiguration) error {
	p.l.Lock()
	defer p.l.Unlock()

	if _, ok := p.stores[name]; !ok {
		return fmt.Errorf("store %s: %w", name, storage.ErrStoreNotFound)
	}
	p.configs[name] = config
	return nil
}

func (p *Provider) GetStoreConfig(name string) (storage.StoreConfiguration, error) {
	p.l.RLock()
	defer p.l.RUnlock()

	c, ok := p.configs[name]
	if !ok {
		return storage.StoreConfiguration{}, fmt.Errorf("store %s: %w", name, storage.ErrStoreNotFound)
	}
	return c, nil
}

func (p *Provider) GetOpenStores() []storage.Store {
	p.l.RLock()
	defer p.l.RUnlock()

	stores := make([]storage.Store, 0, len(p.stores))
	for _, s := range p.stores {
		stores = append(stores, s)
	}
	return stores
}

func (p *Provider) Close() error {
	p.l.Lock()
	defer p.l.Unlock()

	p.stores = make(map[string]*Store)
	return nil
}

// Store keeps entries in a map. Query results are sorted by key.
type Store struct {
	l    sync.RWMutex
	name string
	data map[string]api.Entry
}

func (s *Store) Put(key string, value []byte, tags ...storage.Tag) error {
	if key == "" || value == nil {
		return errors.New("key and value are mandatory")
	}
	s.l.Lock()
	defer s.l.Unlock()

	s.data[key] = api.Entry{
		Key:   key,
		Value: append([]byte{}, value...),
		Tags:  api.CopyTags(tags),
	}
	return nil
}

func (s *Store) Get(key string) ([]byte, error) {
	s.l.RLock()
	defer s.l.RUnlock()

	e, ok := s.data[key]
	if !ok {
		return nil, storage.ErrDataNotFound
	}
	return append([]byte{}, e.Value...), nil
}

func (s *Store) GetTags(key string) ([]storage.Tag, error) {
	s.l.RLock()
	defer s.l.RUnlock()

	e, ok := s.data[key]
	if !ok {
		return nil, storage.ErrDataNotFound
	}
	return api.CopyTags(e.Tags), nil
}

func (s *Store) GetBulk(keys ...string) ([][]byte, error) {
	values := make([][]byte, len(keys))
	for i, k := range keys {
		v, err := s.Get(k)
		if err != nil && !errors.Is(err, storage.ErrDataNotFound) {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func (s *Store) Query(expression string, _ ...storage.QueryOption) (storage.Iterator, error) {
	q, err := api.ParseQuery(expression)
	if err != nil {
		return nil, err
	}
	s.l.RLock()
	defer s.l.RUnlock()

	var entries []api.Entry
	for _, e := range s.data {
		if q.Match(e.Tags) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return api.NewIterator(entries), nil
}

func (s *Store) Delete(key string) error {
	s.l.Lock()
	defer s.l.Unlock()

	delete(s.data, key)
	return nil
}

func (s *Store) Batch(operations []storage.Operation) error {
	for _, op := range operations {
		var err error
		if op.Value == nil {
			err = s.Delete(op.Key)
		} else {
			err = s.Put(op.Key, op.Value, op.Tags...)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Flush() error { return nil }

func (s *Store) Close() error { return nil }
