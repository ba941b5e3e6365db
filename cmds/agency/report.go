package agency

import (
	"context"
	"sort"

	"github.com/findy-network/findy-credex/agent/agency"
	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// PendingCount is the number of live exchanges in one state.
type PendingCount struct {
	State data.State
	Count int
}

// Pending counts the exchanges of the agent which haven't ended.
func Pending(ctx context.Context, a *agency.Agent) (counts []PendingCount, err error) {
	defer err2.Handle(&err, "pending exchanges")

	recs := try.To1(a.API.FindAllByQuery(ctx, data.Query{}))
	m := make(map[data.State]int)
	for _, r := range recs {
		if !r.IsTerminal() {
			m[r.State]++
		}
	}
	for s, n := range m {
		counts = append(counts, PendingCount{State: s, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].State < counts[j].State })
	return counts, nil
}

// LogPending writes the pending exchange counts to the log.
func LogPending(ctx context.Context, a *agency.Agent) error {
	counts, err := Pending(ctx, a)
	if err != nil {
		return err
	}
	if len(counts) == 0 {
		glog.V(1).Infoln("no pending exchanges:", a.Name)
		return nil
	}
	for _, c := range counts {
		glog.Infof("%s: %d exchanges in state %s", a.Name, c.Count, c.State)
	}
	return nil
}
