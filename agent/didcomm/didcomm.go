/*
Package didcomm offers the interfaces for the DIDComm messages handled by the
agent and a factory registry which decodes inbound JSON to the concrete
message types by their type URI.

Every protocol version registers its closed set of message types to the
Creator in the init() of the package defining them.
*/
package didcomm

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/findy-network/findy-credex/agent/pltype"
	"github.com/findy-network/findy-credex/std/decorator"
)

var (
	ErrUnknownType = errors.New("unknown message type")
	ErrNoType      = errors.New("message has no @type")
)

// MessageHdr is the base interface for all protocol messages. It has the
// minimum needed to handle inbound and outbound protocol messages.
type MessageHdr interface {
	ID() string
	Type() string
	SetID(id string)
	SetType(t string)

	JSON() []byte
	Thread() *decorator.Thread
	FieldObj() interface{}
}

// ServiceHolder is implemented by messages which can carry the ~service
// decorator for connection-less exchanges.
type ServiceHolder interface {
	Service() *decorator.Service
	SetService(s *decorator.Service)
}

// Factor creates a message from its JSON.
type Factor interface {
	NewMessage(data []byte) (MessageHdr, error)
}

// FactorFunc is an adapter to use plain functions as Factors.
type FactorFunc func(data []byte) (MessageHdr, error)

func (f FactorFunc) NewMessage(data []byte) (MessageHdr, error) {
	return f(data)
}

// Creator is the registry of all known message types.
var Creator = &Factors{factors: make(map[string]Factor)}

// Factors maps normalized type URIs to their factors.
type Factors struct {
	l       sync.RWMutex
	factors map[string]Factor
}

// Add registers the factor for the type URI. The URI is normalized to its
// didcomm.org form, which means the legacy prefix is accepted as well.
func (f *Factors) Add(t string, factor Factor) {
	f.l.Lock()
	defer f.l.Unlock()
	f.factors[pltype.Normalize(t)] = factor
}

// Known tells if the type URI has a registered factor.
func (f *Factors) Known(t string) bool {
	f.l.RLock()
	defer f.l.RUnlock()
	_, ok := f.factors[pltype.Normalize(t)]
	return ok
}

// NewMessage decodes data to the registered message type. The @type field
// of the message selects the factor.
func (f *Factors) NewMessage(data []byte) (MessageHdr, error) {
	var hdr struct {
		Type string `json:"@type"`
	}
	if err := json.Unmarshal(data, &hdr); err != nil {
		return nil, fmt.Errorf("message header: %w", err)
	}
	if hdr.Type == "" {
		return nil, ErrNoType
	}
	f.l.RLock()
	factor, ok := f.factors[pltype.Normalize(hdr.Type)]
	f.l.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, hdr.Type)
	}
	return factor.NewMessage(data)
}

// ThreadID returns the thread id of the message which is the message id
// when the message starts the thread.
func ThreadID(m MessageHdr) string {
	if th := m.Thread(); th != nil && th.ID != "" {
		return th.ID
	}
	return m.ID()
}

// ParentThreadID returns the pthid of the message or empty string.
func ParentThreadID(m MessageHdr) string {
	if th := m.Thread(); th != nil {
		return th.PID
	}
	return ""
}

// ServiceOf returns the ~service block of the message if it has one.
func ServiceOf(m MessageHdr) *decorator.Service {
	if sh, ok := m.(ServiceHolder); ok {
		return sh.Service()
	}
	return nil
}
