// Package records lists the exchange records of an agent's storage.
package records

import (
	"context"
	"errors"
	"io"

	"github.com/findy-network/findy-credex/agent/storage/cfg"
	"github.com/findy-network/findy-credex/cmds"
	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

type Cmd struct {
	Name           string
	StorageBackend string
	StoragePath    string
	StorageKey     string

	ThreadID string
	Role     string
	State    string
}

func (c Cmd) Validate() error {
	if c.Name == "" {
		return errors.New("agent name cannot be empty")
	}
	if c.StorageBackend == "" || cfg.Backend(c.StorageBackend) == cfg.BackendMemory {
		return errors.New("records are listed from bolt or sqlite storage")
	}
	switch data.Role(c.Role) {
	case "", data.RoleHolder, data.RoleIssuer:
	default:
		return errors.New("role is holder or issuer")
	}
	return nil
}

func (c Cmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "list records")

	st := cfg.AgentStorage{
		Backend:  cfg.Backend(c.StorageBackend),
		AgentID:  c.Name,
		AgentKey: c.StorageKey,
		FilePath: c.StoragePath,
		Stores:   []string{data.StoreName},
	}
	p := try.To1(st.Open())
	defer func() {
		if cErr := st.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()
	repo := try.To1(data.NewRepository(p))

	recs := try.To1(repo.FindByQuery(context.Background(), data.Query{
		ThreadID: c.ThreadID,
		Role:     data.Role(c.Role),
		State:    data.State(c.State),
	}))
	r = cmds.NewRecords(recs)
	cmds.WriteYAML(w, r)
	return r, nil
}
