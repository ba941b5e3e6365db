package bus

import (
	"context"
	"sync"

	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/golang/glog"
)

// KeyType identifies the exchange of one party.
type KeyType struct {
	ThreadID string
	Role     data.Role
}

func (k KeyType) String() string {
	return string(k.Role) + "|" + k.ThreadID
}

// Ready is signaled once with the terminal record.
type Ready chan *data.ExchangeRecord

func newReady() Ready {
	return make(Ready, 1) // We need a buffered channel
}

// Station is an Emitter which tells the listeners when their exchange has
// reached Done or Abandoned.
type Station struct {
	channels map[KeyType]Ready
	lk       sync.Mutex
}

func NewStation() *Station {
	return &Station{channels: make(map[KeyType]Ready)}
}

// StartListen returns the channel which gets the terminal record of the
// exchange.
func (s *Station) StartListen(key KeyType) <-chan *data.ExchangeRecord {
	s.lk.Lock()
	defer s.lk.Unlock()

	c := newReady()
	s.channels[key] = c
	return c
}

// RmListener removes the listener without signaling it.
func (s *Station) RmListener(key KeyType) {
	s.lk.Lock()
	defer s.lk.Unlock()
	delete(s.channels, key)
}

func (s *Station) Emit(_ context.Context, ev StateChanged) {
	if !ev.Record.IsTerminal() {
		return
	}
	key := KeyType{ThreadID: ev.Record.ThreadID, Role: ev.Record.Role}

	s.lk.Lock()
	c, found := s.channels[key]
	if !found {
		s.lk.Unlock()
		return
	}
	// we broadcast the ready-info only once
	delete(s.channels, key)
	s.lk.Unlock()

	glog.V(3).Infoln("exchange ready:", key, ev.Record.State)
	c <- ev.Record
}
