package comm

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/findy-network/findy-credex/std/decorator"
	"github.com/golang/glog"
)

// Routing is how our agent is reached in connection-less exchanges.
type Routing struct {
	Endpoints    []string `json:"endpoints" yaml:"endpoints"`
	RecipientKey string   `json:"recipientKey" yaml:"recipientKey"`
	RoutingKeys  []string `json:"routingKeys,omitempty" yaml:"routingKeys,omitempty"`
}

// Service builds our ~service block from the first endpoint.
func (r Routing) Service() (*decorator.Service, error) {
	if len(r.Endpoints) == 0 {
		return nil, decorator.ErrNoEndpoint
	}
	s := &decorator.Service{
		RecipientKeys:   []string{r.RecipientKey},
		RoutingKeys:     r.RoutingKeys,
		ServiceEndpoint: r.Endpoints[0],
	}
	return s, s.Validate()
}

// Router gives the routing of our agent.
type Router interface {
	Routing(ctx context.Context) (Routing, error)
}

// StaticRouter is a Router of a fixed configuration.
type StaticRouter Routing

func (r StaticRouter) Routing(context.Context) (Routing, error) {
	return Routing(r), nil
}

// Connection is the transport view of a pairwise connection.
type Connection struct {
	ID       string `json:"id" yaml:"id"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	// RemoteID is the id the other end knows the connection by.
	RemoteID string `json:"remoteId" yaml:"remoteId"`
}

// Connections resolves the connections of the agent. Connection
// establishment is done by the host agent.
type Connections interface {
	Connection(ctx context.Context, id string) (Connection, error)
}

// StaticConnections is an in-memory connection table.
type StaticConnections struct {
	l     sync.RWMutex
	conns map[string]Connection
}

func NewStaticConnections(conns ...Connection) *StaticConnections {
	s := &StaticConnections{conns: make(map[string]Connection)}
	for _, c := range conns {
		s.Add(c)
	}
	return s
}

func (s *StaticConnections) Add(c Connection) {
	s.l.Lock()
	defer s.l.Unlock()
	s.conns[c.ID] = c
}

func (s *StaticConnections) Connection(_ context.Context, id string) (Connection, error) {
	s.l.RLock()
	defer s.l.RUnlock()
	c, ok := s.conns[id]
	if !ok {
		return Connection{}, fmt.Errorf("%w: %s", ErrUnknownConnection, id)
	}
	return c, nil
}

// Transport delivers the wire envelope to the endpoint.
type Transport interface {
	Deliver(ctx context.Context, endpoint string, w *Wire) error
}

// Outbound is the Sender of the agent. It resolves the endpoint and picks
// the transport by the endpoint's URL scheme.
type Outbound struct {
	Connections Connections

	l          sync.RWMutex
	transports map[string]Transport
}

func NewOutbound(c Connections) *Outbound {
	return &Outbound{Connections: c, transports: make(map[string]Transport)}
}

// Register sets the transport of the URL schemes.
func (o *Outbound) Register(t Transport, schemes ...string) {
	o.l.Lock()
	defer o.l.Unlock()
	for _, s := range schemes {
		o.transports[s] = t
	}
}

func (o *Outbound) SendMessage(ctx context.Context, env *Envelope) error {
	if env.ConnectionID == "" || o.Connections == nil {
		return &AddressingError{Err: ErrNoAddress}
	}
	c, err := o.Connections.Connection(ctx, env.ConnectionID)
	if err != nil {
		return &AddressingError{Err: err}
	}
	return o.deliver(ctx, c.Endpoint, &Wire{
		ConnectionID: c.RemoteID,
		Message:      env.Payload.JSON(),
	})
}

func (o *Outbound) SendMessageToService(ctx context.Context, env *Envelope) error {
	if env.Service == nil {
		return &AddressingError{Err: ErrNoAddress}
	}
	if err := env.Service.Validate(); err != nil {
		return &AddressingError{Err: err}
	}
	return o.deliver(ctx, env.Service.ServiceEndpoint, &Wire{
		SenderKey: env.SenderKey,
		Message:   env.Payload.JSON(),
	})
}

func (o *Outbound) deliver(ctx context.Context, endpoint string, w *Wire) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return &AddressingError{Err: err}
	}
	o.l.RLock()
	t, ok := o.transports[u.Scheme]
	o.l.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoTransport, endpoint)
	}
	glog.V(3).Infoln("deliver to", endpoint)
	return t.Deliver(ctx, endpoint, w)
}
