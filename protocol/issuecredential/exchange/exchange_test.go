package exchange_test

import (
	"context"
	"errors"
	"testing"

	"github.com/findy-network/findy-credex/agent/bus"
	"github.com/findy-network/findy-credex/agent/comm"
	"github.com/findy-network/findy-credex/agent/comm/commmock"
	"github.com/findy-network/findy-credex/agent/didcomm"
	"github.com/findy-network/findy-credex/agent/kms"
	"github.com/findy-network/findy-credex/agent/pltype"
	"github.com/findy-network/findy-credex/agent/storage/mem"
	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/protocol/issuecredential/exchange"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format/indy"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format/indy/memwallet"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format/ldproof"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format/sdjwt"
	"github.com/findy-network/findy-credex/std/common"
	"github.com/findy-network/findy-credex/std/decorator"
	"github.com/findy-network/findy-credex/std/issuecredential"
	v1 "github.com/findy-network/findy-credex/std/issuecredential/v1"
	"github.com/golang/mock/gomock"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

const vct = "https://credentials.example.com/identity"

var attrs = []issuecredential.Attribute{
	{Name: "name", Value: "Alice"},
	{Name: "age", Value: "42"},
}

func detail() ldproof.Detail {
	return ldproof.Detail{
		Credential: map[string]any{
			"@context":          []any{"https://www.w3.org/2018/credentials/v1"},
			"id":                "urn:uuid:7f1c-credential",
			"type":              []any{"VerifiableCredential"},
			"issuer":            "did:example:issuer",
			"issuanceDate":      "2024-01-01T00:00:00Z",
			"credentialSubject": map[string]any{"id": "did:example:holder", "name": "Alice"},
		},
		Options: ldproof.Options{ProofType: ldproof.ProofTypeEd25519},
	}
}

type party struct {
	v1, v2  *exchange.Service
	repo    *data.Repository
	records *failingRecords
	key     *kms.KMS
	events  []bus.StateChanged
}

// failingRecords fails the updates which move a record to failState.
type failingRecords struct {
	*data.Repository
	failState data.State
}

func (r *failingRecords) Update(ctx context.Context, rec *data.ExchangeRecord) error {
	if r.failState != data.StateNull && rec.State == r.failState {
		return data.ErrConflict
	}
	return r.Repository.Update(ctx, rec)
}

func (p *party) emit(_ context.Context, ev bus.StateChanged) {
	p.events = append(p.events, ev)
}

type world struct {
	issuer, holder *party
	credDefID      string
	store          *format.Store
	wallet         *memwallet.Wallet
}

func newParty(id, endpoint string, registry func(k *kms.KMS) *format.Registry) *party {
	p := &party{
		repo: try.To1(data.NewRepository(mem.New())),
		key:  try.To1(kms.New(id)),
	}
	p.records = &failingRecords{Repository: p.repo}
	router := comm.StaticRouter{Endpoints: []string{endpoint}, RecipientKey: p.key.Verkey()}
	r := registry(p.key)
	for _, v := range []exchange.Version{exchange.V1, exchange.V2} {
		svc := exchange.New(exchange.Config{
			Version:  v,
			Registry: r,
			Records:  p.records,
			Events:   bus.Func(p.emit),
			Router:   router,
		})
		if v.Name == data.V1 {
			p.v1 = svc
		} else {
			p.v2 = svc
		}
	}
	return p
}

func newWorld() *world {
	ledger := memwallet.NewLedger()
	w := &world{credDefID: ledger.AddCredDef("IssuerDID", "IssuerDID:2:identity:1.0", "default")}
	store := try.To1(format.NewStore(mem.New()))
	w.store = store
	w.wallet = memwallet.New(ledger)

	w.issuer = newParty("did:example:issuer", "https://issuer.example.com", func(k *kms.KMS) *format.Registry {
		return format.NewRegistry(
			indy.New(indy.Config{Issuer: memwallet.New(ledger), Ledger: ledger}),
			ldproof.New(ldproof.Config{Signer: k}),
			sdjwt.New(sdjwt.Config{Signer: k}),
		)
	})
	issuerKey := w.issuer.key
	w.holder = newParty("did:example:holder", "https://holder.example.com", func(k *kms.KMS) *format.Registry {
		try.To(k.Trust(issuerKey.VerificationMethod(), try.To1(issuerKey.PublicKeyset())))
		return format.NewRegistry(
			indy.New(indy.Config{Holder: w.wallet, Ledger: ledger, ProverDID: "HolderDID"}),
			ldproof.New(ldproof.Config{Verifier: k, Store: store}),
			sdjwt.New(sdjwt.Config{
				Holder:  k,
				Issuers: sdjwt.StaticIssuers{issuerKey.ID(): issuerKey.PublicKey()},
				Store:   store,
			}),
		)
	})
	return w
}

func (w *world) inputs() []format.Input {
	return []format.Input{
		indy.Input{CredDefID: w.credDefID, Attributes: attrs},
		ldproof.Input{Detail: detail()},
		sdjwt.Input{VCT: vct, Claims: map[string]any{"given_name": "Alice"}},
	}
}

// relay returns the version independent form of an outbound message as
// the other party decodes it.
func relay(m didcomm.MessageHdr) any {
	wire := try.To1(didcomm.Creator.NewMessage(m.JSON()))
	if mt, _ := pltype.Parse(wire.Type()); mt.Version == pltype.V1 {
		wire = try.To1(v1.Up(wire))
	}
	return wire.FieldObj()
}

func families(bs []data.Binding) []string {
	fs := make([]string, len(bs))
	for i, b := range bs {
		fs[i] = b.Family
	}
	return fs
}

func TestExchange_MultiFormat(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctx := context.Background()
	w := newWorld()
	issuer, holder := w.issuer.v2, w.holder.v2

	out, err := holder.CreateProposal(ctx, exchange.ProposalOptions{
		ConnectionID: "h-conn", ParentThreadID: "invitation-1", Inputs: w.inputs(),
	})
	assert.NoError(err)
	assert.Equal(out.Record.State, data.StateProposalSent)
	assert.Equal(out.Envelope.ConnectionID, "h-conn")
	hid := out.Record.ID

	proposal := relay(out.Message).(*issuecredential.Propose)
	assert.SLen(proposal.Formats, 3)
	assert.SLen(proposal.FiltersAttach, 3)
	assert.Equal(proposal.Thread.PID, "invitation-1")

	irec, err := issuer.ProcessProposal(ctx, proposal, "i-conn")
	assert.NoError(err)
	assert.Equal(irec.State, data.StateProposalReceived)
	assert.Equal(irec.ParentThreadID, "invitation-1")
	fd, err := issuer.GetFormatData(ctx, irec.ID)
	assert.NoError(err)
	assert.Equal(len(fd.Proposal), 3)

	out, err = issuer.AcceptProposal(ctx, exchange.AcceptProposalOptions{RecordID: irec.ID})
	assert.NoError(err)
	assert.Equal(out.Envelope.ConnectionID, "i-conn")
	offer := relay(out.Message).(*issuecredential.Offer)
	assert.Equal(offer.Thread.ID, proposal.Thread.ID)

	hrec, err := holder.ProcessOffer(ctx, offer, "h-conn")
	assert.NoError(err)
	assert.Equal(hrec.ID, hid)
	assert.Equal(hrec.State, data.StateOfferReceived)

	out, err = holder.AcceptOffer(ctx, exchange.AcceptOfferOptions{RecordID: hid})
	assert.NoError(err)
	irec, err = issuer.ProcessRequest(ctx, relay(out.Message).(*issuecredential.Request), "i-conn")
	assert.NoError(err)
	assert.Equal(irec.State, data.StateRequestReceived)

	out, err = issuer.AcceptRequest(ctx, exchange.AcceptRequestOptions{RecordID: irec.ID})
	assert.NoError(err)
	assert.Equal(out.Record.State, data.StateCredentialIssued)
	issue := relay(out.Message).(*issuecredential.Issue)
	assert.INotNil(issue.PleaseAck)

	hrec, err = holder.ProcessCredential(ctx, issue, "h-conn")
	assert.NoError(err)
	assert.Equal(hrec.State, data.StateCredentialReceived)

	out, err = holder.AcceptCredential(ctx, exchange.AcceptCredentialOptions{RecordID: hid})
	assert.NoError(err)
	assert.Equal(out.Record.State, data.StateDone)
	assert.Equal(out.Message.Type(), pltype.IssueCredentialACK)

	irec, err = issuer.ProcessAck(ctx, relay(out.Message).(*common.Ack), "i-conn")
	assert.NoError(err)
	assert.Equal(irec.State, data.StateDone)

	hrec = try.To1(holder.GetByID(ctx, hid))
	assert.DeepEqual(families(hrec.Bindings), families(irec.Bindings))
	assert.DeepEqual(families(hrec.Bindings), []string{"indy", "ldproof", "sdjwt"})

	assert.SLen(w.holder.events, 5)
	assert.SLen(w.issuer.events, 5)
	assert.Equal(w.holder.events[0].PreviousState, data.StateNull)
	assert.Equal(w.issuer.events[4].PreviousState, data.StateCredentialIssued)
	assert.Equal(w.issuer.events[4].Record.State, data.StateDone)
}

func TestExchange_CreateTwice(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctx := context.Background()
	w := newWorld()

	out := try.To1(w.issuer.v2.CreateOffer(ctx, exchange.OfferOptions{
		ConnectionID: "i-conn", Inputs: w.inputs()[1:2],
	}))
	hrec := try.To1(w.holder.v2.ProcessOffer(ctx, relay(out.Message).(*issuecredential.Offer), "h-conn"))

	_, err := w.holder.v2.AcceptOffer(ctx, exchange.AcceptOfferOptions{RecordID: hrec.ID})
	assert.NoError(err)
	_, err = w.holder.v2.AcceptOffer(ctx, exchange.AcceptOfferOptions{RecordID: hrec.ID})
	var stateErr *data.StateError
	assert.That(errors.As(err, &stateErr))
	assert.Equal(stateErr.Current, data.StateRequestSent)

	_, err = w.issuer.v2.AcceptProposal(ctx, exchange.AcceptProposalOptions{RecordID: out.Record.ID})
	assert.That(errors.As(err, &stateErr))
}

func TestExchange_DuplicateProposal(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctx := context.Background()
	w := newWorld()

	out := try.To1(w.holder.v2.CreateProposal(ctx, exchange.ProposalOptions{
		ConnectionID: "h-conn", Inputs: w.inputs()[2:],
	}))
	proposal := relay(out.Message).(*issuecredential.Propose)

	first, err := w.issuer.v2.ProcessProposal(ctx, proposal, "i-conn")
	assert.NoError(err)
	second, err := w.issuer.v2.ProcessProposal(ctx, relay(out.Message).(*issuecredential.Propose), "i-conn")
	assert.NoError(err)
	assert.Equal(second.ID, first.ID)

	recs, err := w.issuer.v2.FindByQuery(ctx, data.Query{ThreadID: proposal.Thread.ID})
	assert.NoError(err)
	assert.SLen(recs, 1)
	assert.SLen(w.issuer.events, 1)
}

func TestExchange_Connectionless(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctx := context.Background()
	w := newWorld()

	out, err := w.holder.v2.CreateProposal(ctx, exchange.ProposalOptions{Inputs: w.inputs()[:1]})
	assert.NoError(err)
	assert.That(out.Envelope == nil)
	proposal := relay(out.Message).(*issuecredential.Propose)
	assert.INotNil(proposal.Service)
	assert.Equal(proposal.Service.ServiceEndpoint, "https://holder.example.com")
	assert.DeepEqual(proposal.Service.RecipientKeys, []string{w.holder.key.Verkey()})

	irec := try.To1(w.issuer.v2.ProcessProposal(ctx, proposal, ""))
	out, err = w.issuer.v2.AcceptProposal(ctx, exchange.AcceptProposalOptions{RecordID: irec.ID})
	assert.NoError(err)
	env := out.Envelope
	assert.INotNil(env)
	assert.Equal(env.ConnectionID, "")
	assert.Equal(env.Service.ServiceEndpoint, "https://holder.example.com")
	assert.Equal(env.SenderKey, w.issuer.key.Verkey())

	offer := relay(out.Message).(*issuecredential.Offer)
	assert.Equal(offer.Service.ServiceEndpoint, "https://issuer.example.com")

	hrec := try.To1(w.holder.v2.ProcessOffer(ctx, offer, ""))
	assert.Equal(hrec.Offer.Service.ServiceEndpoint, "https://issuer.example.com")

	out, err = w.holder.v2.AcceptOffer(ctx, exchange.AcceptOfferOptions{RecordID: hrec.ID})
	assert.NoError(err)
	assert.Equal(out.Envelope.Service.ServiceEndpoint, "https://issuer.example.com")
	assert.Equal(out.Envelope.SenderKey, w.holder.key.Verkey())
	// our service block is reused from the proposal
	assert.DeepEqual(relay(out.Message).(*issuecredential.Request).Service, proposal.Service)
}

func TestExchange_RouterFromMock(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	w := newWorld()

	kA := w.holder.key.Verkey()
	router := commmock.NewMockRouter(ctrl)
	router.EXPECT().Routing(gomock.Any()).Return(comm.Routing{
		Endpoints: []string{"https://a"}, RecipientKey: kA,
	}, nil)
	holder := exchange.New(exchange.Config{
		Version:  exchange.V2,
		Registry: format.NewRegistry(sdjwt.New(sdjwt.Config{})),
		Records:  w.holder.repo,
		Router:   router,
	})

	out, err := holder.CreateProposal(ctx, exchange.ProposalOptions{Inputs: w.inputs()[2:]})
	assert.NoError(err)
	p := out.Record.Proposal
	assert.DeepEqual(*p.Service, decorator.Service{
		ServiceEndpoint: "https://a",
		RecipientKeys:   []string{kA},
		RoutingKeys:     []string{},
	})
}

func TestExchange_AddressingError(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctx := context.Background()
	w := newWorld()

	out := try.To1(w.holder.v2.CreateProposal(ctx, exchange.ProposalOptions{
		ConnectionID: "h-conn", Inputs: w.inputs()[:1],
	}))
	// delivered without the connection and without ~service
	irec := try.To1(w.issuer.v2.ProcessProposal(ctx, relay(out.Message).(*issuecredential.Propose), ""))

	_, err := w.issuer.v2.AcceptProposal(ctx, exchange.AcceptProposalOptions{RecordID: irec.ID})
	var aErr *comm.AddressingError
	assert.That(errors.As(err, &aErr))
	assert.Equal(aErr.RecordID, irec.ID)

	stored := try.To1(w.issuer.v2.GetByID(ctx, irec.ID))
	assert.Equal(stored.State, data.StateProposalReceived)
	assert.That(stored.Offer == nil)
	assert.SLen(w.issuer.events, 1)
}

func TestExchange_V1(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctx := context.Background()
	w := newWorld()
	issuer, holder := w.issuer.v1, w.holder.v1

	indyIn := w.inputs()[0]
	_, err := holder.CreateProposal(ctx, exchange.ProposalOptions{
		ConnectionID: "h", Inputs: []format.Input{indyIn, indyIn},
	})
	assert.That(format.IsFormatError(err))
	assert.That(errors.Is(err, format.ErrTooManyFormats))

	_, err = holder.CreateProposal(ctx, exchange.ProposalOptions{ConnectionID: "h", Inputs: w.inputs()[1:2]})
	assert.That(errors.Is(err, format.ErrUnsupported))

	out := try.To1(holder.CreateProposal(ctx, exchange.ProposalOptions{ConnectionID: "h", Inputs: w.inputs()[:1]}))
	assert.Equal(out.Message.Type(), pltype.IssueCredentialV1Propose)

	irec := try.To1(issuer.ProcessProposal(ctx, relay(out.Message).(*issuecredential.Propose), "i"))
	assert.Equal(irec.ProtocolVersion, data.V1)
	out = try.To1(issuer.AcceptProposal(ctx, exchange.AcceptProposalOptions{RecordID: irec.ID}))
	assert.Equal(out.Message.Type(), pltype.IssueCredentialV1Offer)

	hrec := try.To1(holder.ProcessOffer(ctx, relay(out.Message).(*issuecredential.Offer), "h"))
	out = try.To1(holder.AcceptOffer(ctx, exchange.AcceptOfferOptions{RecordID: hrec.ID}))
	try.To1(issuer.ProcessRequest(ctx, relay(out.Message).(*issuecredential.Request), "i"))
	out = try.To1(issuer.AcceptRequest(ctx, exchange.AcceptRequestOptions{RecordID: irec.ID}))
	assert.Equal(out.Message.Type(), pltype.IssueCredentialV1Issue)

	try.To1(holder.ProcessCredential(ctx, relay(out.Message).(*issuecredential.Issue), "h"))
	out = try.To1(holder.AcceptCredential(ctx, exchange.AcceptCredentialOptions{RecordID: hrec.ID}))
	assert.Equal(out.Message.Type(), pltype.IssueCredentialV1ACK)

	irec = try.To1(issuer.ProcessAck(ctx, relay(out.Message).(*common.Ack), "i"))
	assert.Equal(irec.State, data.StateDone)
	assert.DeepEqual(families(irec.Bindings), []string{"indy"})

	// a 2.0 service doesn't continue a 1.0 exchange
	_, err = w.holder.v2.AcceptCredential(ctx, exchange.AcceptCredentialOptions{RecordID: hrec.ID})
	assert.That(errors.Is(err, exchange.ErrVersion))
}

func TestExchange_MalformedOffer(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctx := context.Background()
	w := newWorld()

	out := try.To1(w.issuer.v2.CreateOffer(ctx, exchange.OfferOptions{
		ConnectionID: "i-conn", Inputs: w.inputs()[1:2],
	}))
	offer := relay(out.Message).(*issuecredential.Offer)
	offer.OffersAttach[0].Data = decorator.AttachmentData{Base64: "bm90IGpzb24="}

	_, err := w.holder.v2.ProcessOffer(ctx, offer, "h-conn")
	assert.That(format.IsFormatError(err))
	assert.That(errors.Is(err, format.ErrMalformed))
	assert.SLen(w.holder.events, 0)

	offer.OffersAttach[0].ID = "other"
	_, err = w.holder.v2.ProcessOffer(ctx, offer, "h-conn")
	assert.That(errors.Is(err, format.ErrAttachmentNotFound))
}

func TestExchange_OutOfOrder(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctx := context.Background()
	w := newWorld()

	_, err := w.issuer.v2.ProcessAck(ctx, &common.Ack{ID: "a", Thread: &decorator.Thread{ID: "nope"}}, "i-conn")
	var stateErr *data.StateError
	assert.That(errors.As(err, &stateErr))
	assert.Equal(stateErr.Current, data.StateNull)
}

func TestExchange_NegotiateAndDecline(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctx := context.Background()
	w := newWorld()
	issuer, holder := w.issuer.v2, w.holder.v2

	out := try.To1(issuer.CreateOffer(ctx, exchange.OfferOptions{ConnectionID: "i", Inputs: w.inputs()[2:]}))
	hrec := try.To1(holder.ProcessOffer(ctx, relay(out.Message).(*issuecredential.Offer), "h"))

	counter := sdjwt.Input{VCT: vct, Claims: map[string]any{"given_name": "Alicia"}}
	out = try.To1(holder.NegotiateOffer(ctx, exchange.NegotiateOfferOptions{
		RecordID: hrec.ID, Inputs: []format.Input{counter},
	}))
	assert.Equal(out.Record.State, data.StateProposalSent)
	proposal := relay(out.Message).(*issuecredential.Propose)
	assert.Equal(proposal.Thread.ID, hrec.ThreadID)

	irec := try.To1(issuer.ProcessProposal(ctx, proposal, "i"))
	assert.Equal(irec.State, data.StateProposalReceived)
	out = try.To1(issuer.NegotiateProposal(ctx, exchange.NegotiateProposalOptions{
		RecordID: irec.ID, Inputs: w.inputs()[2:],
	}))
	hrec = try.To1(holder.ProcessOffer(ctx, relay(out.Message).(*issuecredential.Offer), "h"))
	assert.Equal(hrec.State, data.StateOfferReceived)

	out = try.To1(holder.DeclineOffer(ctx, exchange.DeclineOfferOptions{
		RecordID: hrec.ID, SendProblemReport: true, Description: "no thanks",
	}))
	assert.Equal(out.Record.State, data.StateAbandoned)
	assert.Equal(out.Envelope.ConnectionID, "h")

	pr := relay(out.Message).(*common.ProblemReport)
	irec = try.To1(issuer.ProcessProblemReport(ctx, pr, "i"))
	assert.Equal(irec.State, data.StateAbandoned)
	assert.Equal(irec.ErrorMessage, "issuance-abandoned: no thanks")

	_, err := issuer.ProcessProblemReport(ctx, pr, "i")
	var stateErr *data.StateError
	assert.That(errors.As(err, &stateErr))
}

func TestExchange_ReplyProblem(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctx := context.Background()
	w := newWorld()

	out := try.To1(w.holder.v2.CreateProposal(ctx, exchange.ProposalOptions{Inputs: w.inputs()[2:]}))
	env, err := w.issuer.v2.ReplyProblem(ctx, out.Message, "", "bad")
	assert.NoError(err)
	assert.Equal(env.Service.ServiceEndpoint, "https://holder.example.com")
	assert.Equal(env.SenderKey, w.issuer.key.Verkey())
	assert.Equal(didcomm.ThreadID(env.Payload), out.Record.ThreadID)

	env, err = w.issuer.v1.ReplyProblem(ctx, out.Message, "c1", "bad")
	assert.NoError(err)
	assert.Equal(env.ConnectionID, "c1")
	assert.Equal(env.Payload.Type(), pltype.IssueCredentialV1ProblemReport)

	hrec, err := w.holder.v2.AbandonThread(ctx, out.Record.ThreadID, "", data.RoleHolder, "bad")
	assert.NoError(err)
	assert.Equal(hrec.State, data.StateAbandoned)
}

func TestExchange_CredentialDiscardedWhenNotPersisted(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctx := context.Background()
	w := newWorld()
	issuer, holder := w.issuer.v2, w.holder.v2

	out := try.To1(issuer.CreateOffer(ctx, exchange.OfferOptions{ConnectionID: "i", Inputs: w.inputs()}))
	hrec := try.To1(holder.ProcessOffer(ctx, relay(out.Message).(*issuecredential.Offer), "h"))
	out = try.To1(holder.AcceptOffer(ctx, exchange.AcceptOfferOptions{RecordID: hrec.ID}))
	irec := try.To1(issuer.ProcessRequest(ctx, relay(out.Message).(*issuecredential.Request), "i"))
	out = try.To1(issuer.AcceptRequest(ctx, exchange.AcceptRequestOptions{RecordID: irec.ID}))
	issue := relay(out.Message).(*issuecredential.Issue)

	w.holder.records.failState = data.StateCredentialReceived
	_, err := holder.ProcessCredential(ctx, issue, "h")
	assert.That(errors.Is(err, data.ErrConflict))

	for _, f := range []format.Family{format.FamilyLDProof, format.FamilySDJWT} {
		ids, err := w.store.List(ctx, f)
		assert.NoError(err)
		assert.SLen(ids, 0)
	}
	assert.Equal(w.wallet.Len(), 0)
	hrec = try.To1(holder.GetByID(ctx, hrec.ID))
	assert.Equal(hrec.State, data.StateRequestSent)
	assert.SLen(hrec.Bindings, 0)
	assert.SLen(w.holder.events, 2)

	// the issuer's retry is stored normally
	w.holder.records.failState = data.StateNull
	hrec, err = holder.ProcessCredential(ctx, issue, "h")
	assert.NoError(err)
	assert.SLen(hrec.Bindings, 3)
	assert.Equal(w.wallet.Len(), 1)
	ids := try.To1(w.store.List(ctx, format.FamilySDJWT))
	assert.SLen(ids, 1)
}

func TestExchange_OfferKeepsProposedPreview(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctx := context.Background()
	w := newWorld()
	issuer, holder := w.issuer.v2, w.holder.v2

	out := try.To1(holder.CreateProposal(ctx, exchange.ProposalOptions{ConnectionID: "h", Inputs: w.inputs()[:1]}))
	proposal := relay(out.Message).(*issuecredential.Propose)
	assert.NotNil(proposal.CredentialPreview)

	irec := try.To1(issuer.ProcessProposal(ctx, proposal, "i"))
	out = try.To1(issuer.NegotiateProposal(ctx, exchange.NegotiateProposalOptions{
		RecordID: irec.ID, Inputs: w.inputs()[2:],
	}))
	offer := relay(out.Message).(*issuecredential.Offer)
	assert.SLen(offer.Formats, 1)
	assert.NotNil(offer.CredentialPreview)
	assert.That(offer.CredentialPreview.Equal(proposal.CredentialPreview))
}
