// Package sqlite is a spi/storage provider on a single SQLite database file.
// All stores share one table, tags are kept in an indexed side table.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/findy-network/findy-credex/agent/storage/api"
	"github.com/golang/glog"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	store TEXT NOT NULL,
	key TEXT NOT NULL,
	value BLOB NOT NULL,
	PRIMARY KEY (store, key)
);
CREATE TABLE IF NOT EXISTS tags (
	store TEXT NOT NULL,
	key TEXT NOT NULL,
	name TEXT NOT NULL,
	value TEXT NOT NULL,
	FOREIGN KEY (store, key) REFERENCES entries(store, key) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_tags ON tags(store, name, value);
`

type Provider struct {
	l       sync.RWMutex
	db      *sql.DB
	stores  map[string]*Store
	configs map[string]storage.StoreConfiguration
}

// Open opens or creates the database. Use ":memory:" for a throwaway one.
func Open(path string) (p *Provider, err error) {
	defer err2.Handle(&err, "open sqlite storage %s", path)

	db := try.To1(sql.Open("sqlite", path))
	if path == ":memory:" {
		// every connection would get its own memory database
		db.SetMaxOpenConns(1)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema: %w", err)
	}
	return &Provider{
		db:      db,
		stores:  make(map[string]*Store),
		configs: make(map[string]storage.StoreConfiguration),
	}, nil
}

func (p *Provider) OpenStore(name string) (storage.Store, error) {
	p.l.Lock()
	defer p.l.Unlock()

	if name == "" {
		return nil, errors.New("store name is mandatory")
	}
	if s, ok := p.stores[name]; ok {
		return s, nil
	}
	glog.V(7).Infoln("sqlite::OpenStore", name)
	s := &Store{name: strings.ToLower(name), db: p.db}
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
	return p.db.Close()
}

type Store struct {
	name string
	db   *sql.DB
}

func (s *Store) Put(key string, value []byte, tags ...storage.Tag) (err error) {
	defer err2.Handle(&err, "sqlite put %s/%s", s.name, key)

	if key == "" || value == nil {
		return errors.New("key and value are mandatory")
	}
	tx := try.To1(s.db.Begin())
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	try.To1(tx.Exec(`INSERT INTO entries(store, key, value) VALUES(?, ?, ?)
		ON CONFLICT(store, key) DO UPDATE SET value = excluded.value`, s.name, key, value))
	try.To1(tx.Exec(`DELETE FROM tags WHERE store = ? AND key = ?`, s.name, key))
	for _, t := range tags {
		try.To1(tx.Exec(`INSERT INTO tags(store, key, name, value) VALUES(?, ?, ?, ?)`,
			s.name, key, t.Name, t.Value))
	}
	return tx.Commit()
}

func (s *Store) Get(key string) (value []byte, err error) {
	err = s.db.QueryRow(`SELECT value FROM entries WHERE store = ? AND key = ?`,
		s.name, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrDataNotFound
	}
	return value, err
}

func (s *Store) GetTags(key string) (tags []storage.Tag, err error) {
	defer err2.Handle(&err, "sqlite tags %s/%s", s.name, key)

	if _, err := s.Get(key); err != nil {
		return nil, err
	}
	rows := try.To1(s.db.Query(`SELECT name, value FROM tags WHERE store = ? AND key = ?`,
		s.name, key))
	defer rows.Close()
	for rows.Next() {
		var t storage.Tag
		try.To(rows.Scan(&t.Name, &t.Value))
		tags = append(tags, t)
	}
	return tags, rows.Err()
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

// Query selects the entries by joining the tag table once per term.
func (s *Store) Query(expression string, _ ...storage.QueryOption) (it storage.Iterator, err error) {
	defer err2.Handle(&err, "sqlite query %s", expression)

	q := try.To1(api.ParseQuery(expression))

	var b strings.Builder
	args := []any{}
	b.WriteString(`SELECT e.key, e.value FROM entries e`)
	for i, term := range q {
		fmt.Fprintf(&b, ` JOIN tags t%d ON t%d.store = e.store AND t%d.key = e.key AND t%d.name = ?`,
			i, i, i, i)
		args = append(args, term.Name)
		if term.Value != "" {
			fmt.Fprintf(&b, ` AND t%d.value = ?`, i)
			args = append(args, term.Value)
		}
	}
	b.WriteString(` WHERE e.store = ? ORDER BY e.key`)
	args = append(args, s.name)

	rows := try.To1(s.db.Query(b.String(), args...))
	defer rows.Close()

	var entries []api.Entry
	for rows.Next() {
		var e api.Entry
		try.To(rows.Scan(&e.Key, &e.Value))
		entries = append(entries, e)
	}
	try.To(rows.Err())
	for i := range entries {
		entries[i].Tags = try.To1(s.GetTags(entries[i].Key))
	}
	return api.NewIterator(entries), nil
}

func (s *Store) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM entries WHERE store = ? AND key = ?`, s.name, key)
	return err
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
