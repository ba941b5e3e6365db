package data

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// StoreName is the name of the store the records are kept in.
const StoreName = "credential_exchange"

const (
	tagThreadID        = "threadId"
	tagConnectionID    = "connectionId"
	tagRole            = "role"
	tagState           = "state"
	tagProtocolVersion = "protocolVersion"
)

// The revocation ids of a received indy credential.
const (
	TagRevocationRegistryID   = "anonCredsRevocationRegistryId"
	TagCredentialRevocationID = "anonCredsCredentialRevocationId"
)

var (
	ErrNotFound  = errors.New("exchange record not found")
	ErrDuplicate = errors.New("multiple exchange records found")
	ErrConflict  = errors.New("exchange record was updated concurrently")
	ErrImmutable = errors.New("role and protocol version of the exchange cannot change")
)

// Query selects records by their tags. Empty fields don't restrict the
// result, except ConnectionID when MatchConnection is set: then the
// connection id must be equal, empty meaning connection-less.
type Query struct {
	ThreadID        string
	ConnectionID    string
	MatchConnection bool
	Role            Role
	State           State
	ProtocolVersion Version

	// Tags must all be set on the record with equal values.
	Tags map[string]string
}

// ByThread is the correlation query of an exchange: thread, connection and
// role.
func ByThread(threadID, connectionID string, role Role) Query {
	return Query{
		ThreadID:        threadID,
		ConnectionID:    connectionID,
		MatchConnection: true,
		Role:            role,
	}
}

func (q Query) String() string {
	return fmt.Sprintf("thread=%s connection=%s role=%s", q.ThreadID, q.ConnectionID, q.Role)
}

func (q Query) expression() string {
	var terms []string
	add := func(name, value string) {
		if value != "" {
			terms = append(terms, name+":"+value)
		}
	}
	add(tagThreadID, q.ThreadID)
	add(tagConnectionID, q.ConnectionID)
	add(tagRole, string(q.Role))
	add(tagState, string(q.State))
	add(tagProtocolVersion, string(q.ProtocolVersion))
	for _, name := range sortedKeys(q.Tags) {
		add(name, q.Tags[name])
	}
	if len(terms) == 0 {
		// every record has a role
		return tagRole
	}
	return strings.Join(terms, "&&")
}

func (q Query) match(r *ExchangeRecord) bool {
	return (q.ThreadID == "" || q.ThreadID == r.ThreadID) &&
		(!q.MatchConnection || q.ConnectionID == r.ConnectionID) &&
		(q.ConnectionID == "" || q.ConnectionID == r.ConnectionID) &&
		(q.Role == "" || q.Role == r.Role) &&
		(q.State == "" || q.State == r.State) &&
		(q.ProtocolVersion == "" || q.ProtocolVersion == r.ProtocolVersion) &&
		q.matchTags(r)
}

func (q Query) matchTags(r *ExchangeRecord) bool {
	for name, value := range q.Tags {
		if v, ok := r.Tags[name]; !ok || v != value {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NotFoundError is returned when a lookup has no result.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %v", e.What, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// DuplicateError is returned when a single record lookup matches more than
// one record. It's a data integrity problem which is never resolved by
// picking one of them.
type DuplicateError struct {
	Query Query
	IDs   []string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Query, ErrDuplicate, strings.Join(e.IDs, ","))
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicate
}

// Repository stores exchange records to the aries storage provider. It is
// the only writer of the records: Update checks the record version so that
// a lost update fails with ErrConflict instead of overwriting.
type Repository struct {
	store storage.Store
	locks keyLocks
	em    cbor.EncMode
}

// NewRepository opens the exchange record store of the provider.
func NewRepository(p storage.Provider) (r *Repository, err error) {
	defer err2.Handle(&err, "open exchange repository")

	store := try.To1(p.OpenStore(StoreName))
	try.To(p.SetStoreConfig(StoreName, storage.StoreConfiguration{
		TagNames: []string{tagThreadID, tagConnectionID, tagRole, tagState,
			tagProtocolVersion, TagRevocationRegistryID, TagCredentialRevocationID},
	}))
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	em := try.To1(opts.EncMode())

	return &Repository{store: store, em: em, locks: keyLocks{m: make(map[string]*keyLock)}}, nil
}

// Save stores a new record. It fails with DuplicateError if a non-terminal
// record with the same thread, connection and role exists.
func (r *Repository) Save(ctx context.Context, rec *ExchangeRecord) (err error) {
	defer err2.Handle(&err, "save exchange")

	q := ByThread(rec.ThreadID, rec.ConnectionID, rec.Role)
	unlock := r.locks.lock(q.expression())
	defer unlock()

	existing := try.To1(r.FindByQuery(ctx, q))
	var live []string
	for _, e := range existing {
		if !e.IsTerminal() {
			live = append(live, e.ID)
		}
	}
	if len(live) > 0 {
		return &DuplicateError{Query: q, IDs: live}
	}

	rec.Version = 1
	return r.put(rec)
}

// Update stores the record if nobody has updated it since it was read.
func (r *Repository) Update(ctx context.Context, rec *ExchangeRecord) (err error) {
	defer err2.Handle(&err, "update exchange %s", rec.ID)

	unlock := r.locks.lock(rec.ID)
	defer unlock()

	stored, err := r.GetByID(ctx, rec.ID)
	if err != nil {
		return err
	}
	if stored.Version != rec.Version {
		return fmt.Errorf("%w: version %d, stored %d", ErrConflict, rec.Version, stored.Version)
	}
	if stored.Role != rec.Role || stored.ProtocolVersion != rec.ProtocolVersion {
		return ErrImmutable
	}
	rec.Version++
	if err := r.put(rec); err != nil {
		rec.Version--
		return err
	}
	return nil
}

func (r *Repository) put(rec *ExchangeRecord) error {
	d, err := r.em.Marshal(rec)
	if err != nil {
		return err
	}
	return r.store.Put(rec.ID, d, tags(rec)...)
}

func tags(rec *ExchangeRecord) []storage.Tag {
	t := []storage.Tag{
		{Name: tagThreadID, Value: rec.ThreadID},
		{Name: tagRole, Value: string(rec.Role)},
		{Name: tagState, Value: string(rec.State)},
		{Name: tagProtocolVersion, Value: string(rec.ProtocolVersion)},
	}
	if rec.ConnectionID != "" {
		t = append(t, storage.Tag{Name: tagConnectionID, Value: rec.ConnectionID})
	}
	for _, name := range sortedKeys(rec.Tags) {
		t = append(t, storage.Tag{Name: name, Value: rec.Tags[name]})
	}
	return t
}

// GetByID returns the record or NotFoundError.
func (r *Repository) GetByID(_ context.Context, id string) (rec *ExchangeRecord, err error) {
	d, err := r.store.Get(id)
	if errors.Is(err, storage.ErrDataNotFound) {
		return nil, &NotFoundError{What: "exchange " + id}
	} else if err != nil {
		return nil, fmt.Errorf("get exchange %s: %w", id, err)
	}
	return decode(d)
}

// GetSingleByQuery returns the only record matching the query. It fails
// with NotFoundError or DuplicateError.
func (r *Repository) GetSingleByQuery(ctx context.Context, q Query) (*ExchangeRecord, error) {
	recs, err := r.FindByQuery(ctx, q)
	if err != nil {
		return nil, err
	}
	switch len(recs) {
	case 0:
		return nil, &NotFoundError{What: q.String()}
	case 1:
		return recs[0], nil
	}
	ids := make([]string, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
	}
	return nil, &DuplicateError{Query: q, IDs: ids}
}

// FindByQuery returns all records matching the query.
func (r *Repository) FindByQuery(ctx context.Context, q Query) (recs []*ExchangeRecord, err error) {
	defer err2.Handle(&err, "find exchanges %s", q)

	it := try.To1(r.store.Query(q.expression()))
	defer it.Close()

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		more := try.To1(it.Next())
		if !more {
			break
		}
		rec := try.To1(decode(try.To1(it.Value())))
		// tag query cannot express the empty connection id
		if q.match(rec) {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

func decode(d []byte) (*ExchangeRecord, error) {
	var rec ExchangeRecord
	if err := cbor.Unmarshal(d, &rec); err != nil {
		return nil, fmt.Errorf("decode exchange: %w", err)
	}
	if rec.Metadata == nil {
		rec.Metadata = make(Metadata)
	}
	return &rec, nil
}

type keyLock struct {
	sync.Mutex
	refs int
}

type keyLocks struct {
	l sync.Mutex
	m map[string]*keyLock
}

func (k *keyLocks) lock(key string) (unlock func()) {
	k.l.Lock()
	kl, ok := k.m[key]
	if !ok {
		kl = &keyLock{}
		k.m[key] = kl
	}
	kl.refs++
	k.l.Unlock()

	kl.Lock()
	return func() {
		kl.Unlock()
		k.l.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(k.m, key)
		}
		k.l.Unlock()
	}
}
