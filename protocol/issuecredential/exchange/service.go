/*
Package exchange is the protocol service of the issue-credential protocol.
There is one Service per protocol version. The create operations build the
next outbound message, the process operations take the inbound ones, and
both move the exchange record forward.

Every transition is persisted exactly once and after the write the state
change is emitted. Everything that can fail, the state assertion, the
format builds and decodes and the reply addressing, runs before the write.
*/
package exchange

import (
	"context"
	"errors"
	"fmt"

	"github.com/findy-network/findy-credex/agent/bus"
	"github.com/findy-network/findy-credex/agent/comm"
	"github.com/findy-network/findy-credex/agent/didcomm"
	"github.com/findy-network/findy-credex/agent/logctx"
	"github.com/findy-network/findy-credex/protocol/issuecredential/builder"
	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format"
	"github.com/findy-network/findy-credex/std/decorator"
	"github.com/findy-network/findy-credex/std/issuecredential"
)

var (
	ErrVersion  = errors.New("exchange is of another protocol version")
	ErrNoRouter = errors.New("no routing for connection-less exchange")
)

// Records is the persistence of the exchange records.
type Records interface {
	Save(ctx context.Context, rec *data.ExchangeRecord) error
	Update(ctx context.Context, rec *data.ExchangeRecord) error
	GetByID(ctx context.Context, id string) (*data.ExchangeRecord, error)
	FindByQuery(ctx context.Context, q data.Query) ([]*data.ExchangeRecord, error)
}

type Config struct {
	Version  Version
	Registry *format.Registry
	Records  Records
	// Events is optional.
	Events bus.Emitter
	// Router is needed for connection-less exchanges only.
	Router comm.Router
}

type Service struct {
	version  Version
	registry *format.Registry
	records  Records
	events   bus.Emitter
	router   comm.Router
	builder  builder.Builder
}

func New(c Config) *Service {
	events := c.Events
	if events == nil {
		events = bus.Discard
	}
	return &Service{
		version:  c.Version,
		registry: c.Registry,
		records:  c.Records,
		events:   events,
		router:   c.Router,
		builder:  builder.New(c.Version.MaxFormats),
	}
}

func (s *Service) Version() Version {
	return s.version
}

// Outbound is the result of a create operation. Envelope is nil when the
// message starts a connection-less exchange and the caller delivers it out
// of band.
type Outbound struct {
	Record   *data.ExchangeRecord
	Message  didcomm.MessageHdr
	Envelope *comm.Envelope
}

func withRecord(ctx context.Context, rec *data.ExchangeRecord) context.Context {
	return logctx.With(ctx,
		"exchange_id", rec.ID,
		"thread_id", rec.ThreadID,
		"role", string(rec.Role))
}

// load reads the record of a create operation and checks its role, version
// and state.
func (s *Service) load(ctx context.Context, id string, role data.Role, states ...data.State) (
	*data.ExchangeRecord, error,
) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := rec.AssertRole(role); err != nil {
		return nil, err
	}
	if rec.ProtocolVersion != s.version.Name {
		return nil, fmt.Errorf("exchange %s: %w", rec.ID, ErrVersion)
	}
	if err := rec.AssertState(states...); err != nil {
		return nil, err
	}
	return rec, nil
}

// locate finds the record of an inbound message. The live record wins; if
// the thread has only terminal records the latest of them is returned so
// that the state assertion rejects the message. No record gives nil.
func (s *Service) locate(ctx context.Context, threadID, connectionID string, role data.Role) (
	*data.ExchangeRecord, error,
) {
	q := data.ByThread(threadID, connectionID, role)
	recs, err := s.records.FindByQuery(ctx, q)
	if err != nil {
		return nil, err
	}
	var (
		live   []*data.ExchangeRecord
		latest *data.ExchangeRecord
	)
	for _, r := range recs {
		if !r.IsTerminal() {
			live = append(live, r)
		}
		if latest == nil || r.UpdatedAt.After(latest.UpdatedAt) {
			latest = r
		}
	}
	switch len(live) {
	case 0:
		if latest != nil && latest.ProtocolVersion != s.version.Name {
			return nil, fmt.Errorf("exchange %s: %w", latest.ID, ErrVersion)
		}
		return latest, nil
	case 1:
		if live[0].ProtocolVersion != s.version.Name {
			return nil, fmt.Errorf("exchange %s: %w", live[0].ID, ErrVersion)
		}
		return live[0], nil
	}
	ids := make([]string, len(live))
	for i, r := range live {
		ids[i] = r.ID
	}
	return nil, &data.DuplicateError{Query: q, IDs: ids}
}

// assertState is AssertState which accepts a missing record when Null is
// one of the expected states.
func assertState(rec *data.ExchangeRecord, expected ...data.State) error {
	if rec != nil {
		return rec.AssertState(expected...)
	}
	for _, s := range expected {
		if s == data.StateNull {
			return nil
		}
	}
	return &data.StateError{Current: data.StateNull, Expected: expected}
}

// commit moves the record, persists it and emits the change. It's the
// last step of every transition.
func (s *Service) commit(ctx context.Context, rec *data.ExchangeRecord, to data.State) error {
	prev, err := rec.MoveTo(to)
	if err != nil {
		return err
	}
	if prev == data.StateNull {
		err = s.records.Save(ctx, rec)
	} else {
		err = s.records.Update(ctx, rec)
	}
	if err != nil {
		rec.State = prev
		return err
	}
	ctx = withRecord(ctx, rec)
	logctx.From(ctx).Debug().
		Stringer("from", prev).
		Stringer("to", to).
		Msg("exchange persisted")
	s.events.Emit(ctx, bus.StateChanged{Record: rec.Clone(), PreviousState: prev})
	return nil
}

// resolve returns the format service of the family if the version allows
// it.
func (s *Service) resolve(op string, f format.Family) (format.Service, error) {
	if !s.version.Allows(f) {
		return nil, &format.Error{Op: op, Format: string(f),
			Err: fmt.Errorf("%w by %s", format.ErrUnsupported, s.version.Name)}
	}
	return s.registry.MustGet(f)
}

// resolveFormat returns the service of a wire format identifier.
func (s *Service) resolveFormat(op, id string) (format.Service, error) {
	svc, ok := s.registry.ForFormat(id)
	if !ok {
		return nil, &format.Error{Op: op, Format: id, Err: format.ErrUnsupported}
	}
	return s.resolve(op, svc.Family())
}

// parts maps the caller's inputs to the builder parts.
func (s *Service) parts(op string, inputs []format.Input) ([]builder.Part, error) {
	parts := make([]builder.Part, 0, len(inputs))
	for _, in := range inputs {
		if in == nil {
			continue
		}
		svc, err := s.resolve(op, in.Family())
		if err != nil {
			return nil, err
		}
		parts = append(parts, builder.Part{Service: svc, Input: in})
	}
	return parts, nil
}

// partsOf answers with the formats of a received message. An input of the
// same family overrides the default the format derives from the message.
func (s *Service) partsOf(op string, m issuecredential.Formatted, inputs []format.Input) (
	[]builder.Part, error,
) {
	byFamily := make(map[format.Family]format.Input, len(inputs))
	for _, in := range inputs {
		if in != nil {
			byFamily[in.Family()] = in
		}
	}
	if m == nil {
		return nil, &format.Error{Op: op, Err: format.ErrAttachmentNotFound}
	}
	parts := make([]builder.Part, 0, len(m.FormatList()))
	for _, spec := range m.FormatList() {
		svc, err := s.resolveFormat(op, spec.Format)
		if err != nil {
			return nil, err
		}
		parts = append(parts, builder.Part{Service: svc, Input: byFamily[svc.Family()]})
	}
	return parts, nil
}

type decodeFunc func(svc format.Service, a decorator.Attachment) (format.Payload, error)

type decoded struct {
	service format.Service
	payload format.Payload
}

// decodeAll decodes every format attachment of an inbound message.
func (s *Service) decodeAll(op string, m issuecredential.Formatted, decode decodeFunc) ([]decoded, error) {
	specs := m.FormatList()
	if len(specs) == 0 {
		return nil, &format.Error{Op: op, Err: format.ErrAttachmentNotFound}
	}
	if s.version.MaxFormats > 0 && len(specs) > s.version.MaxFormats {
		return nil, &format.Error{Op: op, Err: format.ErrTooManyFormats}
	}
	out := make([]decoded, 0, len(specs))
	for _, spec := range specs {
		svc, err := s.resolveFormat(op, spec.Format)
		if err != nil {
			return nil, err
		}
		a, found := issuecredential.Attachment(m, spec)
		if !found {
			return nil, format.NotFound(op, spec.Format)
		}
		p, err := decode(svc, a)
		if err != nil {
			return nil, format.Errorf(op, spec.Format, err)
		}
		out = append(out, decoded{service: svc, payload: p})
	}
	return out, nil
}

func applyMetadata(rec *data.ExchangeRecord, ds []decoded) error {
	for _, d := range ds {
		if err := d.service.ApplyMetadata(d.payload, rec); err != nil {
			return format.Errorf("apply metadata", string(d.service.Family()), err)
		}
	}
	return nil
}

// attachmentOf returns the attachment of the format service from a stored
// message.
func attachmentOf(m issuecredential.Formatted, svc format.Service) (*decorator.Attachment, bool) {
	if m == nil {
		return nil, false
	}
	_, a, ok := issuecredential.AttachmentByFormat(m, svc.SupportsFormat)
	if !ok {
		return nil, false
	}
	return &a, true
}

// receivedService is the ~service of the most recent message we got.
func receivedService(rec *data.ExchangeRecord) *decorator.Service {
	if rec.Role == data.RoleIssuer {
		return firstService(serviceOf(rec.Request), serviceOf(rec.Proposal))
	}
	return firstService(serviceOf(rec.Credential), serviceOf(rec.Offer))
}

// sentService is the ~service of the most recent message we sent.
func sentService(rec *data.ExchangeRecord) *decorator.Service {
	if rec.Role == data.RoleIssuer {
		return firstService(serviceOf(rec.Credential), serviceOf(rec.Offer))
	}
	return firstService(serviceOf(rec.Request), serviceOf(rec.Proposal))
}

func serviceOf(m any) *decorator.Service {
	switch msg := m.(type) {
	case *issuecredential.Propose:
		if msg != nil {
			return msg.Service
		}
	case *issuecredential.Offer:
		if msg != nil {
			return msg.Service
		}
	case *issuecredential.Request:
		if msg != nil {
			return msg.Service
		}
	case *issuecredential.Issue:
		if msg != nil {
			return msg.Service
		}
	}
	return nil
}

func firstService(ss ...*decorator.Service) *decorator.Service {
	for _, s := range ss {
		if s != nil {
			return s
		}
	}
	return nil
}

// address resolves the reply address of a connection-less exchange and
// attaches our ~service to the message. The record's messages are read
// before the new message is stored to it.
func (s *Service) address(ctx context.Context, rec *data.ExchangeRecord, m didcomm.ServiceHolder,
	initiating bool,
) (theirs *decorator.Service, senderKey string, err error) {
	if rec.ConnectionID != "" {
		return nil, "", nil
	}
	theirs = receivedService(rec)
	if theirs == nil && !initiating {
		return nil, "", &comm.AddressingError{RecordID: rec.ID, Err: comm.ErrNoAddress}
	}
	ours := sentService(rec)
	if ours == nil {
		if ours, err = s.ourService(ctx); err != nil {
			return nil, "", &comm.AddressingError{RecordID: rec.ID, Err: err}
		}
	}
	m.SetService(ours.Clone())
	return theirs.Clone(), ours.RecipientKeys[0], nil
}

func (s *Service) ourService(ctx context.Context) (*decorator.Service, error) {
	if s.router == nil {
		return nil, ErrNoRouter
	}
	r, err := s.router.Routing(ctx)
	if err != nil {
		return nil, err
	}
	return r.Service()
}

// send converts the message to the wire form of the version and addresses
// the envelope.
func (s *Service) send(rec *data.ExchangeRecord, m didcomm.MessageHdr,
	theirs *decorator.Service, senderKey string,
) (didcomm.MessageHdr, *comm.Envelope, error) {
	wire, err := s.version.wire(m)
	if err != nil {
		return nil, nil, &format.Error{Op: "convert " + m.Type(), Err: err}
	}
	switch {
	case rec.ConnectionID != "":
		return wire, &comm.Envelope{Payload: wire, ConnectionID: rec.ConnectionID}, nil
	case theirs != nil:
		return wire, &comm.Envelope{Payload: wire, Service: theirs, SenderKey: senderKey}, nil
	}
	return wire, nil, nil
}

func (s *Service) buildContext(rec *data.ExchangeRecord, comment, goalCode string) builder.Context {
	return builder.Context{
		ThreadID:       rec.ThreadID,
		ParentThreadID: rec.ParentThreadID,
		Comment:        comment,
		GoalCode:       goalCode,
		Preview:        latestPreview(rec),
	}
}

// latestPreview returns the credential preview of the latest proposal or
// offer of the record. The formats which don't produce a preview keep the
// one already negotiated.
func latestPreview(rec *data.ExchangeRecord) *issuecredential.Preview {
	var proposal, offer *issuecredential.Preview
	if rec.Proposal != nil {
		proposal = rec.Proposal.CredentialPreview
	}
	if rec.Offer != nil {
		offer = rec.Offer.CredentialPreview
	}
	switch rec.State {
	case data.StateProposalSent, data.StateProposalReceived:
		if proposal != nil {
			return proposal
		}
	}
	if offer != nil {
		return offer
	}
	return proposal
}

// discard removes the credentials stored by a transition which failed to
// persist. The bindings are in the order of the decoded formats.
func (s *Service) discard(ctx context.Context, rec *data.ExchangeRecord, ds []decoded, bindings []data.Binding) {
	for i, b := range bindings {
		d, ok := ds[i].service.(format.Discarder)
		if !ok {
			continue
		}
		if err := d.DiscardCredential(ctx, b); err != nil {
			logctx.From(withRecord(ctx, rec)).Warn().Err(err).
				Str("format", b.Family).
				Str("credential", b.RecordID).
				Msg("discard credential")
		}
	}
}

func threadOf(m didcomm.MessageHdr) (threadID, parentThreadID string) {
	return didcomm.ThreadID(m), didcomm.ParentThreadID(m)
}
