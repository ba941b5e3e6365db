package data

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/findy-network/findy-credex/agent/storage/mem"
	"github.com/findy-network/findy-credex/std/issuecredential"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

func newRepo() *Repository {
	return try.To1(NewRepository(mem.New()))
}

func TestRepository_SaveGet(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctx := context.Background()
	repo := newRepo()

	r := NewExchangeRecord("rec1", V2, RoleHolder, "th1", "conn1")
	r.State = StateProposalSent
	r.Proposal = &issuecredential.Propose{ID: "th1", Comment: "hi"}
	assert.NoError(repo.Save(ctx, r))
	assert.Equal(r.Version, uint64(1))

	got, err := repo.GetByID(ctx, "rec1")
	assert.NoError(err)
	assert.Equal(got.State, StateProposalSent)
	assert.Equal(got.Proposal.Comment, "hi")
	assert.Equal(got.CreatedAt.Unix(), r.CreatedAt.Unix())

	_, err = repo.GetByID(ctx, "missing")
	assert.That(errors.Is(err, ErrNotFound))
}

func TestRepository_Duplicate(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctx := context.Background()
	repo := newRepo()

	r := NewExchangeRecord("rec1", V2, RoleIssuer, "th1", "conn1")
	r.State = StateProposalReceived
	assert.NoError(repo.Save(ctx, r))

	dup := NewExchangeRecord("rec2", V2, RoleIssuer, "th1", "conn1")
	dup.State = StateProposalReceived
	err := repo.Save(ctx, dup)
	assert.That(errors.Is(err, ErrDuplicate))

	// other role on the same thread is another party's record
	other := NewExchangeRecord("rec3", V2, RoleHolder, "th1", "conn1")
	assert.NoError(repo.Save(ctx, other))

	// a terminal record doesn't block a new one
	r.State = StateAbandoned
	assert.NoError(repo.Update(ctx, r))
	assert.NoError(repo.Save(ctx, dup))

	// but single lookups see both
	_, err = repo.GetSingleByQuery(ctx, ByThread("th1", "conn1", RoleIssuer))
	var de *DuplicateError
	assert.That(errors.As(err, &de))
	assert.SLen(de.IDs, 2)
}

func TestRepository_Update(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctx := context.Background()
	repo := newRepo()

	r := NewExchangeRecord("rec1", V1, RoleHolder, "th1", "")
	r.State = StateOfferReceived
	assert.NoError(repo.Save(ctx, r))

	stale := r.Clone()

	_, err := r.MoveTo(StateRequestSent)
	assert.NoError(err)
	assert.NoError(repo.Update(ctx, r))
	assert.Equal(r.Version, uint64(2))

	_, err = stale.MoveTo(StateProposalSent)
	assert.NoError(err)
	err = repo.Update(ctx, stale)
	assert.That(errors.Is(err, ErrConflict))

	changed := r.Clone()
	changed.Role = RoleIssuer
	assert.That(errors.Is(repo.Update(ctx, changed), ErrImmutable))

	got, err := repo.GetByID(ctx, "rec1")
	assert.NoError(err)
	assert.Equal(got.State, StateRequestSent)
}

func TestRepository_Query(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctx := context.Background()
	repo := newRepo()

	for _, r := range []*ExchangeRecord{
		NewExchangeRecord("a", V2, RoleHolder, "th1", ""),
		NewExchangeRecord("b", V2, RoleHolder, "th1", "conn1"),
		NewExchangeRecord("c", V1, RoleIssuer, "th2", "conn1"),
	} {
		assert.NoError(repo.Save(ctx, r))
	}

	got, err := repo.GetSingleByQuery(ctx, ByThread("th1", "", RoleHolder))
	assert.NoError(err)
	assert.Equal(got.ID, "a")

	got, err = repo.GetSingleByQuery(ctx, ByThread("th1", "conn1", RoleHolder))
	assert.NoError(err)
	assert.Equal(got.ID, "b")

	_, err = repo.GetSingleByQuery(ctx, ByThread("th1", "conn1", RoleIssuer))
	assert.That(errors.Is(err, ErrNotFound))

	all, err := repo.FindByQuery(ctx, Query{ConnectionID: "conn1"})
	assert.NoError(err)
	assert.SLen(all, 2)

	all, err = repo.FindByQuery(ctx, Query{ProtocolVersion: V1})
	assert.NoError(err)
	assert.SLen(all, 1)
	assert.Equal(all[0].ID, "c")
}

func TestRepository_ConcurrentSave(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctx := context.Background()
	repo := newRepo()

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := NewExchangeRecord(string(rune('a'+i)), V2, RoleIssuer, "th", "conn")
			r.State = StateProposalReceived
			errs[i] = repo.Save(ctx, r)
		}(i)
	}
	wg.Wait()

	saved := 0
	for _, err := range errs {
		if err == nil {
			saved++
		} else {
			assert.That(errors.Is(err, ErrDuplicate))
		}
	}
	assert.Equal(saved, 1)
}

func TestRepository_QueryTags(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctx := context.Background()
	repo := newRepo()

	const regID = "Iss:4:Iss:3:CL:1:default:CL_ACCUM:default"
	for i, revID := range []string{"1", "2"} {
		r := NewExchangeRecord("rec"+revID, V2, RoleHolder, "th"+revID, "conn1")
		r.State = StateDone
		r.SetTag(TagRevocationRegistryID, regID)
		r.SetTag(TagCredentialRevocationID, revID)
		assert.NoError(repo.Save(ctx, r), i)
	}
	plain := NewExchangeRecord("rec3", V2, RoleHolder, "th3", "conn1")
	assert.NoError(repo.Save(ctx, plain))

	recs, err := repo.FindByQuery(ctx, Query{Tags: map[string]string{
		TagRevocationRegistryID:   regID,
		TagCredentialRevocationID: "2",
	}})
	assert.NoError(err)
	assert.SLen(recs, 1)
	assert.Equal(recs[0].ID, "rec2")

	recs, err = repo.FindByQuery(ctx, Query{Tags: map[string]string{TagRevocationRegistryID: regID}})
	assert.NoError(err)
	assert.SLen(recs, 2)

	rec, err := repo.GetSingleByQuery(ctx, Query{
		ConnectionID: "conn1", MatchConnection: true,
		Tags: map[string]string{TagCredentialRevocationID: "1"},
	})
	assert.NoError(err)
	assert.Equal(rec.Tags[TagRevocationRegistryID], regID)

	_, err = repo.GetSingleByQuery(ctx, Query{Tags: map[string]string{TagCredentialRevocationID: "3"}})
	assert.That(errors.Is(err, ErrNotFound))
}
