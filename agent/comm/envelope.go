/*
Package comm delivers the outbound protocol messages and receives the
inbound ones. DIDComm packing is not done here: the message travels in a
Wire envelope which names the connection the receiver knows the sender by,
or the sender key of a connection-less exchange.
*/
package comm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/findy-network/findy-credex/agent/didcomm"
	"github.com/findy-network/findy-credex/std/decorator"
)

var (
	ErrNoAddress         = errors.New("no connection and no service block")
	ErrUnknownConnection = errors.New("unknown connection")
	ErrNoTransport       = errors.New("no transport for endpoint")
)

// Envelope is an addressed outbound message. Either ConnectionID or Service
// is set.
type Envelope struct {
	Payload      didcomm.MessageHdr
	ConnectionID string
	Service      *decorator.Service
	SenderKey    string
}

func (e *Envelope) String() string {
	if e.ConnectionID != "" {
		return fmt.Sprintf("%s to connection %s", e.Payload.Type(), e.ConnectionID)
	}
	if e.Service != nil {
		return fmt.Sprintf("%s to %s", e.Payload.Type(), e.Service.ServiceEndpoint)
	}
	return e.Payload.Type()
}

// Sender delivers the envelopes.
type Sender interface {
	SendMessage(ctx context.Context, env *Envelope) error
	SendMessageToService(ctx context.Context, env *Envelope) error
}

// Send delivers the envelope by its connection or by its service block.
func Send(ctx context.Context, s Sender, env *Envelope) error {
	switch {
	case env == nil:
		return nil
	case env.ConnectionID != "":
		return s.SendMessage(ctx, env)
	case env.Service != nil:
		return s.SendMessageToService(ctx, env)
	}
	return &AddressingError{Err: ErrNoAddress}
}

// AddressingError is returned when a reply cannot be addressed.
type AddressingError struct {
	RecordID string
	Err      error
}

func (e *AddressingError) Error() string {
	if e.RecordID == "" {
		return fmt.Sprintf("addressing: %v", e.Err)
	}
	return fmt.Sprintf("exchange %s addressing: %v", e.RecordID, e.Err)
}

func (e *AddressingError) Unwrap() error {
	return e.Err
}

// Wire is the transport envelope of a message.
type Wire struct {
	ConnectionID string          `json:"connection_id,omitempty"`
	SenderKey    string          `json:"sender_key,omitempty"`
	Message      json.RawMessage `json:"message"`
}

// Receiver takes the inbound messages. connectionID is empty for
// connection-less messages.
type Receiver interface {
	Receive(ctx context.Context, connectionID string, data []byte) error
}

// ReceiverFunc is an adapter to use plain functions as Receivers.
type ReceiverFunc func(ctx context.Context, connectionID string, data []byte) error

func (f ReceiverFunc) Receive(ctx context.Context, connectionID string, data []byte) error {
	return f(ctx, connectionID, data)
}

// Unwrap decodes the wire envelope and passes its message to r.
func Unwrap(ctx context.Context, r Receiver, data []byte) error {
	var w Wire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("wire envelope: %w", err)
	}
	if len(w.Message) == 0 {
		return fmt.Errorf("wire envelope: %w", decorator.ErrNoData)
	}
	return r.Receive(ctx, w.ConnectionID, w.Message)
}
