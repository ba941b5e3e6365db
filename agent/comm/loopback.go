package comm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// LoopbackScheme is the endpoint scheme of the in-process transport.
const LoopbackScheme = "loop"

// Loopback delivers the wire envelopes to the receivers of the same
// process. Delivery is synchronous.
type Loopback struct {
	l         sync.RWMutex
	receivers map[string]Receiver
}

func NewLoopback() *Loopback {
	return &Loopback{receivers: make(map[string]Receiver)}
}

// Listen binds the endpoint to the receiver.
func (lb *Loopback) Listen(endpoint string, r Receiver) {
	lb.l.Lock()
	defer lb.l.Unlock()
	lb.receivers[endpoint] = r
}

func (lb *Loopback) Deliver(ctx context.Context, endpoint string, w *Wire) error {
	lb.l.RLock()
	r, ok := lb.receivers[endpoint]
	lb.l.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoTransport, endpoint)
	}
	d, err := json.Marshal(w)
	if err != nil {
		return err
	}
	return Unwrap(ctx, r, d)
}
