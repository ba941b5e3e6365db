package server

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	pb "github.com/findy-network/findy-common-go/grpc/agency/v1"
	"github.com/findy-network/findy-common-go/jwt"
	"github.com/findy-network/findy-credex/agent/agency"
	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/protocol/issuecredential/exchange"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format/indy"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format/sdjwt"
	"github.com/findy-network/findy-credex/std/issuecredential"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	errNoAgent      = status.Error(codes.Unauthenticated, "agent is not in this agency")
	errNotIssuing   = status.Error(codes.Unimplemented, "only issue credential protocol is served")
	errNoCredential = status.Error(codes.InvalidArgument, "credential definition or type missing")
	errRole         = status.Error(codes.InvalidArgument, "role must be initiator or addressee")
	errAction       = status.Error(codes.InvalidArgument, "resume state must be ACK or NACK")
	errRunning      = status.Error(codes.FailedPrecondition, "exchange is still running")
)

type protocolService struct {
	pb.UnimplementedProtocolServiceServer
	defaultAgent string
}

// ca returns the agent of the call.
func (s *protocolService) ca(ctx context.Context) (*agency.Agent, error) {
	name := user(ctx)
	if name == "" {
		name = s.defaultAgent
	}
	a, ok := agency.Handler(name).(*agency.Agent)
	if !ok {
		return nil, errNoAgent
	}
	glog.V(3).Infoln("agent:", name)
	return a, nil
}

// user returns the JWT user of the call, jwt.User panics without one.
func user(ctx context.Context) string {
	u, _ := ctx.Value(jwt.UserCtxKey("UserKey")).(string)
	return u
}

// Start begins the exchange: the initiator offers and the addressee
// proposes. The protocol id is the id of our exchange record.
func (s *protocolService) Start(ctx context.Context, p *pb.Protocol) (pid *pb.ProtocolID, err error) {
	defer err2.Handle(&err, "start protocol")

	a := try.To1(s.ca(ctx))
	rec := try.To1(start(ctx, a, p))
	glog.V(1).Infoln(a.Name, "-agent started exchange:", rec.ID)
	return protocolID(rec), nil
}

func start(ctx context.Context, a *agency.Agent, p *pb.Protocol) (rec *data.ExchangeRecord, err error) {
	defer err2.Handle(&err)

	if p.GetTypeID() != pb.Protocol_ISSUE_CREDENTIAL {
		return nil, errNotIssuing
	}
	inputs := try.To1(inputsOf(p.GetIssueCredential()))
	var out *exchange.Outbound
	switch p.GetRole() {
	case pb.Protocol_INITIATOR:
		out = try.To1(a.API.OfferCredential(ctx, data.V2, exchange.OfferOptions{
			ConnectionID:   p.GetConnectionID(),
			ParentThreadID: p.GetPrevThreadID(),
			Inputs:         inputs,
		}))
	case pb.Protocol_ADDRESSEE:
		out = try.To1(a.API.ProposeCredential(ctx, data.V2, exchange.ProposalOptions{
			ConnectionID:   p.GetConnectionID(),
			ParentThreadID: p.GetPrevThreadID(),
			Inputs:         inputs,
		}))
	default:
		return nil, errRole
	}
	return out.Record, nil
}

// inputsOf maps the issuing message to the format input. An indy
// credential definition id selects the indy format, other ids are the
// SD-JWT credential type.
func inputsOf(m *pb.Protocol_IssueCredentialMsg) (inputs []format.Input, err error) {
	defer err2.Handle(&err)

	if m.GetCredDefID() == "" {
		return nil, errNoCredential
	}
	var attrs []issuecredential.Attribute
	if list := m.GetAttributes(); list != nil {
		for _, a := range list.GetAttributes() {
			attrs = append(attrs, issuecredential.Attribute{Name: a.GetName(), Value: a.GetValue()})
		}
	} else if js := m.GetAttributesJSON(); js != "" {
		if err := json.Unmarshal([]byte(js), &attrs); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "attributes JSON: %v", err)
		}
	}
	if strings.Contains(m.GetCredDefID(), ":3:CL:") {
		return []format.Input{indy.Input{CredDefID: m.GetCredDefID(), Attributes: attrs}}, nil
	}
	claims := make(map[string]any, len(attrs))
	for _, a := range attrs {
		claims[a.Name] = a.Value
	}
	return []format.Input{sdjwt.Input{VCT: m.GetCredDefID(), Claims: claims}}, nil
}

func record(ctx context.Context, a *agency.Agent, id string) (*data.ExchangeRecord, error) {
	rec, err := a.API.GetByID(ctx, id)
	if errors.Is(err, data.ErrNotFound) {
		return nil, status.Error(codes.NotFound, err.Error())
	}
	return rec, err
}

func protocolID(rec *data.ExchangeRecord) *pb.ProtocolID {
	role := pb.Protocol_ADDRESSEE
	if rec.Role == data.RoleIssuer {
		role = pb.Protocol_INITIATOR
	}
	return &pb.ProtocolID{
		TypeID:           pb.Protocol_ISSUE_CREDENTIAL,
		Role:             role,
		ID:               rec.ID,
		NotificationTime: rec.UpdatedAt.UnixNano(),
	}
}

// stateOf maps the exchange state to the protocol state.
func stateOf(rec *data.ExchangeRecord) pb.ProtocolState_State {
	switch rec.State {
	case data.StateDone:
		return pb.ProtocolState_OK
	case data.StateAbandoned:
		return pb.ProtocolState_ERR
	case data.StateProposalReceived, data.StateOfferReceived,
		data.StateRequestReceived, data.StateCredentialReceived:
		return pb.ProtocolState_WAIT_ACTION
	}
	return pb.ProtocolState_RUNNING
}

func protocolState(rec *data.ExchangeRecord) *pb.ProtocolState {
	return &pb.ProtocolState{
		ProtocolID: protocolID(rec),
		State:      stateOf(rec),
		Info:       rec.ErrorMessage,
	}
}

func (s *protocolService) Status(ctx context.Context, id *pb.ProtocolID) (ps *pb.ProtocolStatus, err error) {
	defer err2.Handle(&err, "protocol status")

	a := try.To1(s.ca(ctx))
	rec := try.To1(record(ctx, a, id.GetID()))

	st := &pb.ProtocolStatus_IssueCredentialStatus{}
	var meta indy.CredentialMetadata
	if found, _ := rec.Metadata.Get(indy.MetadataCredential, &meta); found {
		st.CredDefID = meta.CredDefID
		st.SchemaID = meta.SchemaID
	}
	if p := previewOf(rec); p != nil {
		st.Attributes = &pb.Protocol_IssuingAttributes{}
		for _, attr := range p.Attributes {
			st.Attributes.Attributes = append(st.Attributes.Attributes,
				&pb.Protocol_IssuingAttributes_Attribute{Name: attr.Name, Value: attr.Value})
		}
	}
	return &pb.ProtocolStatus{
		State:     protocolState(rec),
		Timestamp: rec.UpdatedAt.UnixNano(),
		Status:    &pb.ProtocolStatus_IssueCredential{IssueCredential: st},
	}, nil
}

func previewOf(rec *data.ExchangeRecord) *issuecredential.Preview {
	if rec.Offer != nil && rec.Offer.CredentialPreview != nil {
		return rec.Offer.CredentialPreview
	}
	if rec.Proposal != nil {
		return rec.Proposal.CredentialPreview
	}
	return nil
}

// Resume continues an exchange waiting for our action. ACK accepts the
// step and NACK ends the exchange with a problem report.
func (s *protocolService) Resume(ctx context.Context, st *pb.ProtocolState) (pid *pb.ProtocolID, err error) {
	defer err2.Handle(&err, "resume protocol")

	a := try.To1(s.ca(ctx))
	rec := try.To1(record(ctx, a, st.GetProtocolID().GetID()))
	switch st.GetState() {
	case pb.ProtocolState_ACK:
		out := try.To1(a.API.Continue(ctx, rec))
		if out == nil {
			return nil, status.Errorf(codes.FailedPrecondition, "exchange %s is in state %s", rec.ID, rec.State)
		}
		rec = out.Record
	case pb.ProtocolState_NACK:
		rec = try.To1(decline(ctx, a, rec, st.GetInfo()))
	default:
		return nil, errAction
	}
	glog.V(1).Infoln(a.Name, "-agent resumed exchange:", rec.ID, rec.State)
	return protocolID(rec), nil
}

func decline(ctx context.Context, a *agency.Agent, rec *data.ExchangeRecord, reason string) (
	*data.ExchangeRecord, error,
) {
	if reason == "" {
		reason = "declined"
	}
	var out *exchange.Outbound
	var err error
	if rec.State == data.StateOfferReceived {
		out, err = a.API.DeclineOffer(ctx, exchange.DeclineOfferOptions{
			RecordID: rec.ID, SendProblemReport: true, Description: reason,
		})
	} else {
		out, err = a.API.Abandon(ctx, rec.ID, reason)
	}
	if err != nil {
		return nil, err
	}
	return out.Record, nil
}

// Release tells that the caller is done with an ended exchange.
func (s *protocolService) Release(ctx context.Context, id *pb.ProtocolID) (pid *pb.ProtocolID, err error) {
	defer err2.Handle(&err, "release protocol")

	a := try.To1(s.ca(ctx))
	rec := try.To1(record(ctx, a, id.GetID()))
	if !rec.IsTerminal() {
		return nil, errRunning
	}
	return protocolID(rec), nil
}

// Run starts the exchange and streams its states until it has ended.
func (s *protocolService) Run(p *pb.Protocol, server pb.ProtocolService_RunServer) (err error) {
	defer err2.Handle(&err, func(err error) error {
		glog.Errorf("grpc run error: %s", err)
		st := &pb.ProtocolState{
			Info:  err.Error(),
			State: pb.ProtocolState_ERR,
		}
		if err := server.Send(st); err != nil {
			glog.Errorln("error sending response:", err)
		}
		return err
	})

	ctx := server.Context()
	a := try.To1(s.ca(ctx))
	rec := try.To1(start(ctx, a, p))
	glog.V(1).Infoln(a.Name, "-agent runs exchange:", rec.ID)

	ready := a.Wait(rec.ThreadID, rec.Role)
	// the exchange may have ended before we listened
	rec = try.To1(a.API.GetByID(ctx, rec.ID))
	if !rec.IsTerminal() {
		try.To(server.Send(protocolState(rec)))
		select {
		case rec = <-ready:
		case <-ctx.Done():
			a.StopWait(rec.ThreadID, rec.Role)
			return ctx.Err()
		}
	} else {
		a.StopWait(rec.ThreadID, rec.Role)
	}
	glog.V(1).Infoln("exchange ended:", rec.ID, rec.State)
	try.To(server.Send(protocolState(rec)))
	return nil
}
