package agency

import (
	"sync"

	"github.com/findy-network/findy-credex/agent/comm"
	"github.com/golang/glog"
)

// handlers are the receivers of the agents of this process by agent name.
// The inbound transports look them up by the endpoint path.
var handlers = struct {
	sync.RWMutex
	m map[string]comm.Receiver
}{
	m: make(map[string]comm.Receiver),
}

func AddHandler(name string, r comm.Receiver) {
	handlers.Lock()
	defer handlers.Unlock()
	if _, exists := handlers.m[name]; exists {
		glog.Warningln("replacing handler of agent:", name)
	}
	handlers.m[name] = r
}

func RmHandler(name string) {
	handlers.Lock()
	defer handlers.Unlock()
	delete(handlers.m, name)
}

// Handler returns the receiver of the agent, nil if the agent isn't in
// this agency.
func Handler(name string) comm.Receiver {
	handlers.RLock()
	defer handlers.RUnlock()
	return handlers.m[name]
}

func HandlerCount() int {
	handlers.RLock()
	defer handlers.RUnlock()
	return len(handlers.m)
}
