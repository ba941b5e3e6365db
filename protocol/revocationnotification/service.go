/*
Package revocationnotification is the revocation-notification protocol of
the agent, versions 1.0 and 2.0. The issuer tells the holder that an indy
credential it issued has been revoked. The holder finds the exchange of the
credential by its revocation ids, stores the notification on the record and
emits RevocationNotified.
*/
package revocationnotification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/findy-network/findy-credex/agent/bus"
	"github.com/findy-network/findy-credex/agent/comm"
	"github.com/findy-network/findy-credex/agent/logctx"
	"github.com/findy-network/findy-credex/agent/pltype"
	"github.com/findy-network/findy-credex/agent/utils"
	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format/indy"
	"github.com/findy-network/findy-credex/std/issuecredential"
	rn "github.com/findy-network/findy-credex/std/revocationnotification"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

var (
	ErrNotRevocable = errors.New("credential of the exchange can't be revoked")
	ErrNoConnection = errors.New("revocation notification needs a connection")
)

// Records is the part of the exchange repository the protocol uses.
type Records interface {
	GetByID(ctx context.Context, id string) (*data.ExchangeRecord, error)
	FindByQuery(ctx context.Context, q data.Query) ([]*data.ExchangeRecord, error)
	Update(ctx context.Context, rec *data.ExchangeRecord) error
}

type Config struct {
	Records  Records
	Registry *format.Registry
	Events   bus.RevocationEmitter
}

type Service struct {
	records  Records
	registry *format.Registry
	events   bus.RevocationEmitter
	now      func() time.Time
}

func New(c Config) *Service {
	return &Service{
		records:  c.Records,
		registry: c.Registry,
		events:   c.Events,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// NotifyOptions selects the issued credential and the protocol version of
// the notification.
type NotifyOptions struct {
	RecordID string
	// Version is 1.0 or 2.0, empty means 2.0.
	Version string
	Comment string
}

// CreateRevocation builds the revocation notification of the credential
// the issuer's record issued. The exchange must be connection based.
func (s *Service) CreateRevocation(ctx context.Context, o NotifyOptions) (env *comm.Envelope, err error) {
	defer err2.Handle(&err, "create revocation notification")

	rec := try.To1(s.records.GetByID(ctx, o.RecordID))
	try.To(rec.AssertRole(data.RoleIssuer))
	if rec.ConnectionID == "" {
		return nil, &comm.AddressingError{RecordID: rec.ID, Err: ErrNoConnection}
	}
	regID, revID := try.To2(s.revocationIDs(rec))

	msg := &rn.Revoke{ID: utils.UUID(), Comment: o.Comment}
	switch o.Version {
	case pltype.V1:
		msg.Type = pltype.RevocationNotificationV1Revoke
		msg.ThreadID = rn.V1ThreadID(regID, revID)
	case pltype.V2, "":
		msg.Type = pltype.RevocationNotificationRevoke
		msg.RevocationFormat = rn.FormatIndyAnonCreds
		msg.CredentialID = rn.V2CredentialID(regID, revID)
	default:
		return nil, fmt.Errorf("protocol version %q", o.Version)
	}
	return &comm.Envelope{Payload: rn.NewRevoke(msg), ConnectionID: rec.ConnectionID}, nil
}

// revocationIDs decodes the issued indy credential of the record.
func (s *Service) revocationIDs(rec *data.ExchangeRecord) (regID, revID string, err error) {
	svc, ok := s.registry.Get(format.FamilyIndy)
	if !ok || rec.Credential == nil {
		return "", "", ErrNotRevocable
	}
	_, a, ok := issuecredential.AttachmentByFormat(rec.Credential, svc.SupportsFormat)
	if !ok {
		return "", "", ErrNotRevocable
	}
	p, err := svc.DecodeCredential(a)
	if err != nil {
		return "", "", err
	}
	cred, ok := p.(*indy.Credential)
	if !ok {
		return "", "", ErrNotRevocable
	}
	regID, revID, ok = cred.RevocationIDs()
	if !ok {
		return "", "", ErrNotRevocable
	}
	return regID, revID, nil
}

// ProcessRevocation stores the notification on the holder's record of the
// revoked credential. The record must be of the same connection.
func (s *Service) ProcessRevocation(ctx context.Context, regID, revID, comment, connectionID string) (
	rec *data.ExchangeRecord, err error,
) {
	defer err2.Handle(&err, "process revocation notification")

	q := data.Query{
		ConnectionID:    connectionID,
		MatchConnection: true,
		Role:            data.RoleHolder,
		Tags: map[string]string{
			data.TagRevocationRegistryID:   regID,
			data.TagCredentialRevocationID: revID,
		},
	}
	recs := try.To1(s.records.FindByQuery(ctx, q))
	switch len(recs) {
	case 0:
		return nil, &data.NotFoundError{What: "credential " + rn.V2CredentialID(regID, revID)}
	case 1:
		rec = recs[0]
	default:
		ids := make([]string, len(recs))
		for i, r := range recs {
			ids[i] = r.ID
		}
		return nil, &data.DuplicateError{Query: q, IDs: ids}
	}
	rec.RevocationNotification = &data.RevocationNotification{
		RevocationDate: s.now(),
		Comment:        comment,
	}
	rec.UpdatedAt = s.now()
	try.To(s.records.Update(ctx, rec))

	if s.events != nil {
		s.events.EmitRevocation(ctx, bus.RevocationNotified{Record: rec.Clone()})
	}
	return rec, nil
}

// Processor returns the protocol processor of the version.
func (s *Service) Processor(version string) comm.ProtProc {
	return comm.ProtProc{
		Handlers: map[string]comm.HandlerFunc{
			pltype.HandlerRevoke: s.handleRevoke(version),
		},
	}
}

// Register adds the processors of both versions to the dispatcher.
func (s *Service) Register(d *comm.Dispatcher) {
	for _, v := range []string{pltype.V1, pltype.V2} {
		d.Add(pltype.ProtocolRevocationNotification, v, s.Processor(v))
	}
}

// handleRevoke is protocol function for revoke at holder. A notification
// about a credential we don't have is only logged.
func (s *Service) handleRevoke(version string) comm.HandlerFunc {
	return func(ctx context.Context, packet comm.Packet) (env *comm.Envelope, err error) {
		defer err2.Handle(&err, "revocation notification handler")

		msg := packet.Payload.FieldObj().(*rn.Revoke)
		ctx = logctx.With(ctx, "type", msg.Type, "connection_id", packet.ConnectionID)

		var regID, revID string
		if version == pltype.V1 {
			regID, revID = try.To2(rn.ParseV1ThreadID(msg.ThreadID))
		} else {
			regID, revID = try.To2(rn.ParseV2CredentialID(msg.RevocationFormat, msg.CredentialID))
		}
		rec, err := s.ProcessRevocation(ctx, regID, revID, msg.Comment, packet.ConnectionID)
		if errors.Is(err, data.ErrNotFound) {
			logctx.From(ctx).Warn().
				Str("revocation_registry_id", regID).
				Str("credential_revocation_id", revID).
				Msg("revocation notification of unknown credential")
			return nil, nil
		}
		try.To(err)
		logctx.From(ctx).Info().
			Str("exchange_id", rec.ID).
			Msg("revocation notification stored")
		return nil, nil
	}
}
