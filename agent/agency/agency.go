/*
Package agency assembles in-process agents. An agent has its own storage,
keys, credential formats, issue-credential API and the dispatcher of its
inbound messages. The agents of the process are registered by name so that
the inbound transports can find their receivers.
*/
package agency

import (
	"context"
	"errors"
	"fmt"

	"github.com/findy-network/findy-credex/agent/bus"
	"github.com/findy-network/findy-credex/agent/comm"
	"github.com/findy-network/findy-credex/agent/kms"
	"github.com/findy-network/findy-credex/agent/storage/cfg"
	"github.com/findy-network/findy-credex/protocol/issuecredential"
	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format/indy"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format/ldproof"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format/sdjwt"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

var ErrNoFormats = errors.New("no credential formats")

type Config struct {
	Name string
	// Endpoint is where the agent is reached, it's also the endpoint of
	// our ~service blocks.
	Endpoint   string
	Storage    cfg.AgentStorage
	AutoAccept data.AutoAccept
	// Formats lists the enabled families, nil enables all.
	Formats []format.Family
	// Indy binds the anoncreds wallet and ledger. The format is enabled only
	// when a wallet is set.
	Indy indy.Config
	// Events gets the state changes in addition to the log and the station.
	Events bus.Emitter
}

// Agent is the assembled agent.
type Agent struct {
	Name        string
	Endpoint    string
	KMS         *kms.KMS
	Records     *data.Repository
	Credentials *format.Store
	Registry    *format.Registry
	API         *issuecredential.API
	Dispatcher  *comm.Dispatcher
	Outbound    *comm.Outbound
	Connections *comm.StaticConnections
	Station     *bus.Station

	storage cfg.AgentStorage
	issuers sdjwt.StaticIssuers
}

// New builds the agent and registers it to the agency.
func New(c Config) (a *Agent, err error) {
	defer err2.Handle(&err, "new agent %s", c.Name)

	st := c.Storage
	if st.AgentID == "" {
		st.AgentID = c.Name
	}
	st.Stores = []string{data.StoreName, format.CredentialStoreName}
	p := try.To1(st.Open())
	defer err2.Handle(&err, func(err error) error {
		if cErr := st.Close(); cErr != nil {
			glog.Errorln("close storage:", cErr)
		}
		return err
	})

	a = &Agent{
		Name:        c.Name,
		Endpoint:    c.Endpoint,
		KMS:         try.To1(kms.New(c.Name)),
		Records:     try.To1(data.NewRepository(p)),
		Credentials: try.To1(format.NewStore(p)),
		Connections: comm.NewStaticConnections(),
		Station:     bus.NewStation(),
		storage:     st,
		issuers:     make(sdjwt.StaticIssuers),
	}
	a.issuers[a.KMS.ID()] = a.KMS.PublicKey()
	a.Registry = try.To1(a.formats(c))

	a.Outbound = comm.NewOutbound(a.Connections)
	a.Outbound.Register(&comm.HTTPSender{}, "http", "https")

	events := bus.Multi{bus.Log{}, a.Station}
	if c.Events != nil {
		events = append(events, c.Events)
	}
	a.API = issuecredential.NewAPI(issuecredential.Config{
		Registry: a.Registry,
		Records:  a.Records,
		Events:   events,
		Router: comm.StaticRouter{
			Endpoints:    []string{c.Endpoint},
			RecipientKey: a.KMS.Verkey(),
		},
		Sender:     a.Outbound,
		AutoAccept: c.AutoAccept,
	})
	a.Dispatcher = comm.NewDispatcher(a.Outbound)
	a.API.Register(a.Dispatcher)

	AddHandler(a.Name, a)
	glog.V(1).Infoln("agent ready:", a.Name, a.Endpoint)
	return a, nil
}

func (a *Agent) formats(c Config) (*format.Registry, error) {
	enabled := func(f format.Family) bool {
		if c.Formats == nil {
			return true
		}
		for _, e := range c.Formats {
			if e == f {
				return true
			}
		}
		return false
	}
	var services []format.Service
	if enabled(format.FamilyIndy) && (c.Indy.Issuer != nil || c.Indy.Holder != nil) {
		services = append(services, indy.New(c.Indy))
	}
	if enabled(format.FamilyLDProof) {
		services = append(services, ldproof.New(ldproof.Config{
			Signer:   a.KMS,
			Verifier: a.KMS,
			Store:    a.Credentials,
		}))
	}
	if enabled(format.FamilySDJWT) {
		services = append(services, sdjwt.New(sdjwt.Config{
			Signer:  a.KMS,
			Holder:  a.KMS,
			Issuers: a.issuers,
			Store:   a.Credentials,
		}))
	}
	if len(services) == 0 {
		return nil, ErrNoFormats
	}
	return format.NewRegistry(services...), nil
}

// Receive implements comm.Receiver.
func (a *Agent) Receive(ctx context.Context, connectionID string, data []byte) error {
	return a.Dispatcher.Receive(ctx, connectionID, data)
}

// Trust accepts the credentials the other agent signs.
func (a *Agent) Trust(issuer *Agent) (err error) {
	defer err2.Handle(&err, "%s trust %s", a.Name, issuer.Name)

	keyset := try.To1(issuer.KMS.PublicKeyset())
	try.To(a.KMS.Trust(issuer.KMS.VerificationMethod(), keyset))
	a.issuers[issuer.KMS.ID()] = issuer.KMS.PublicKey()
	return nil
}

// Listen binds the agent to the loopback transport. The endpoint of the
// agent must be of the loopback scheme.
func (a *Agent) Listen(lb *comm.Loopback) {
	lb.Listen(a.Endpoint, a)
	a.Outbound.Register(lb, comm.LoopbackScheme)
}

// Wait returns the channel which gets the record of the exchange when it
// has ended.
func (a *Agent) Wait(threadID string, role data.Role) <-chan *data.ExchangeRecord {
	return a.Station.StartListen(bus.KeyType{ThreadID: threadID, Role: role})
}

// StopWait removes the listener of Wait without signaling it.
func (a *Agent) StopWait(threadID string, role data.Role) {
	a.Station.RmListener(bus.KeyType{ThreadID: threadID, Role: role})
}

// Close unregisters the agent and closes its storage.
func (a *Agent) Close() error {
	RmHandler(a.Name)
	return a.storage.Close()
}

// Connect adds the connection between the agents to both of them. The
// agents know the connection by the same id.
func Connect(a, b *Agent, id string) {
	a.Connections.Add(comm.Connection{ID: id, Endpoint: b.Endpoint, RemoteID: id})
	b.Connections.Add(comm.Connection{ID: id, Endpoint: a.Endpoint, RemoteID: id})
}

// Pair builds two agents on the loopback transport with a connection
// between them and mutual trust.
func Pair(lb *comm.Loopback, connectionID string, ca, cb Config) (a, b *Agent, err error) {
	defer err2.Handle(&err, "agent pair")

	if ca.Endpoint == "" {
		ca.Endpoint = fmt.Sprintf("%s://%s", comm.LoopbackScheme, ca.Name)
	}
	if cb.Endpoint == "" {
		cb.Endpoint = fmt.Sprintf("%s://%s", comm.LoopbackScheme, cb.Name)
	}
	a = try.To1(New(ca))
	b = try.To1(New(cb))
	a.Listen(lb)
	b.Listen(lb)
	Connect(a, b, connectionID)
	try.To(a.Trust(b))
	try.To(b.Trust(a))
	return a, b, nil
}
