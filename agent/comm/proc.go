package comm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/findy-network/findy-credex/agent/didcomm"
	"github.com/findy-network/findy-credex/agent/pltype"
	"github.com/golang/glog"
)

var ErrNoHandler = errors.New("no handler for message type")

// Packet is an inbound protocol message. ConnectionID is empty for
// connection-less messages.
type Packet struct {
	Payload      didcomm.MessageHdr
	ConnectionID string
}

// HandlerFunc is func type for protocol message handlers. The returned
// envelope, when not nil, is the reply the dispatcher sends.
type HandlerFunc func(ctx context.Context, packet Packet) (*Envelope, error)

// ProtHandler is an interface for whole protocol version. Where HandlerFunc
// is handler for protocol message, the protocol handler is whole protocol
// group, all of the same message family and version.
type ProtHandler interface {
	Process(ctx context.Context, packet Packet) (*Envelope, error)
}

// ProtProc is a protocol processor. Instances of it are the actual protocol
// handlers: declare the message handlers by message name, e.g.
// offer-credential, and add the processor to the Dispatcher.
type ProtProc struct {
	Handlers map[string]HandlerFunc
}

// Process delivers the protocol message to the handler of its name.
func (p ProtProc) Process(ctx context.Context, packet Packet) (*Envelope, error) {
	mt, _ := pltype.Parse(packet.Payload.Type())
	handler, ok := p.Handlers[mt.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, packet.Payload.Type())
	}
	return handler(ctx, packet)
}

// Dispatcher is the two level processor of the inbound messages. The first
// level selects the protocol by family and version of the message type and
// the second level, ProtProc, the message handler. Messages are decoded by
// the factories registered to the Creator.
type Dispatcher struct {
	Sender  Sender
	Creator *didcomm.Factors

	l            sync.RWMutex
	protHandlers map[string]ProtHandler
}

func NewDispatcher(s Sender) *Dispatcher {
	return &Dispatcher{
		Sender:       s,
		Creator:      didcomm.Creator,
		protHandlers: make(map[string]ProtHandler),
	}
}

func protocolKey(protocol, version string) string {
	return protocol + "/" + version
}

// Add registers the protocol handler of the protocol version.
func (d *Dispatcher) Add(protocol, version string, proc ProtHandler) {
	d.l.Lock()
	defer d.l.Unlock()
	d.protHandlers[protocolKey(protocol, version)] = proc
}

// Receive implements Receiver. It decodes the message, processes it and
// sends the reply the handler returns.
func (d *Dispatcher) Receive(ctx context.Context, connectionID string, data []byte) error {
	msg, err := d.Creator.NewMessage(data)
	if err != nil {
		return err
	}
	return d.Dispatch(ctx, Packet{Payload: msg, ConnectionID: connectionID})
}

// Dispatch processes a decoded message and sends the reply.
func (d *Dispatcher) Dispatch(ctx context.Context, packet Packet) error {
	glog.V(1).Infoln("PROTOCOL type", packet.Payload.Type())

	env, err := d.process(ctx, packet)
	if err != nil {
		return err
	}
	if env == nil {
		return nil
	}
	glog.V(3).Infoln("reply", env)
	return Send(ctx, d.Sender, env)
}

func (d *Dispatcher) process(ctx context.Context, packet Packet) (*Envelope, error) {
	mt, ok := pltype.Parse(packet.Payload.Type())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, packet.Payload.Type())
	}
	d.l.RLock()
	handler, ok := d.protHandlers[protocolKey(mt.Protocol, mt.Version)]
	d.l.RUnlock()
	if !ok {
		glog.Errorf("No handler in processor for Type: %s", packet.Payload.Type())
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, packet.Payload.Type())
	}
	return handler.Process(ctx, packet)
}
