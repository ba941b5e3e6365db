package builder

import (
	"context"
	"errors"
	"testing"

	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format/formatmock"
	"github.com/findy-network/findy-credex/std/decorator"
	"github.com/findy-network/findy-credex/std/issuecredential"
	"github.com/golang/mock/gomock"
	"github.com/lainio/err2/assert"
)

var preview = &issuecredential.Preview{Attributes: []issuecredential.Attribute{{Name: "name", Value: "Alice"}}}

func attached(f string) format.Attached {
	return format.Attached{Format: f, Attachment: decorator.NewBase64Attachment("", []byte(`{"f":"`+f+`"}`))}
}

func mockService(ctrl *gomock.Controller, family format.Family, formatID string) *formatmock.MockService {
	m := formatmock.NewMockService(ctrl)
	m.EXPECT().Family().Return(family).AnyTimes()
	m.EXPECT().SupportsFormat(gomock.Any()).DoAndReturn(func(id string) bool {
		return id == formatID
	}).AnyTimes()
	return m
}

func TestProposal_MultiFormat(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	indy := mockService(ctrl, format.FamilyIndy, "f-indy")
	indy.EXPECT().BuildProposal(ctx, gomock.Any()).Return(nil, attached("f-indy"), nil)
	ld := mockService(ctrl, format.FamilyLDProof, "f-ld")
	ld.EXPECT().BuildProposal(ctx, gomock.Any()).Return(preview, attached("f-ld"), nil)

	rec := data.NewExchangeRecord("1", data.V2, data.RoleHolder, "", "")
	msg, err := New(0).Proposal(ctx, Context{ParentThreadID: "p", GoalCode: "g"}, rec,
		[]Part{{Service: indy}, {Service: ld}})
	assert.NoError(err)
	assert.SLen(msg.Formats, 2)
	assert.SLen(msg.FiltersAttach, 2)
	assert.NotEqual(msg.FiltersAttach[0].ID, msg.FiltersAttach[1].ID)
	for i, spec := range msg.Formats {
		assert.Equal(spec.AttachID, msg.FiltersAttach[i].ID)
	}
	assert.Equal(msg.Thread.ID, msg.ID)
	assert.Equal(msg.Thread.PID, "p")
	assert.Equal(msg.GoalCode, "g")
	assert.That(msg.CredentialPreview.Equal(preview))
}

func TestProposal_TooManyFormats(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctrl := gomock.NewController(t)

	indy := mockService(ctrl, format.FamilyIndy, "f-indy")
	ld := mockService(ctrl, format.FamilyLDProof, "f-ld")
	rec := data.NewExchangeRecord("1", data.V1, data.RoleHolder, "", "")

	_, err := New(1).Proposal(context.Background(), Context{}, rec, []Part{{Service: indy}, {Service: ld}})
	assert.That(errors.Is(err, format.ErrTooManyFormats))
	assert.That(format.IsFormatError(err))

	_, err = New(0).Proposal(context.Background(), Context{}, rec, []Part{{Service: indy}, {Service: indy}})
	assert.That(errors.Is(err, format.ErrTooManyFormats))

	_, err = New(0).Proposal(context.Background(), Context{}, rec, nil)
	assert.That(errors.Is(err, format.ErrNoInput))
}

func TestOffer_UsesProposalAndContextPreview(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	proposalAtt := decorator.NewBase64Attachment("a1", []byte(`{}`))
	rec := data.NewExchangeRecord("1", data.V2, data.RoleIssuer, "th", "")
	rec.Proposal = &issuecredential.Propose{
		Formats:       []issuecredential.FormatSpec{{AttachID: "a1", Format: "f-ld"}},
		FiltersAttach: []decorator.Attachment{proposalAtt},
	}
	ld := mockService(ctrl, format.FamilyLDProof, "f-ld")
	ld.EXPECT().BuildOffer(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, args format.OfferArgs) (*issuecredential.Preview, format.Attached, error) {
			assert.INotNil(args.Proposal)
			assert.Equal(args.Proposal.ID, "a1")
			return nil, attached("f-ld"), nil
		})

	msg, err := New(0).Offer(ctx, Context{ThreadID: "th", Preview: preview}, rec, []Part{{Service: ld}})
	assert.NoError(err)
	assert.Equal(msg.Thread.ID, "th")
	assert.NotEqual(msg.ID, "th")
	assert.That(msg.CredentialPreview == preview)
}

func TestRequest_OfferAttachmentMissing(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctrl := gomock.NewController(t)

	rec := data.NewExchangeRecord("1", data.V2, data.RoleHolder, "th", "")
	rec.Offer = &issuecredential.Offer{}
	indy := mockService(ctrl, format.FamilyIndy, "f-indy")

	_, err := New(0).Request(context.Background(), Context{ThreadID: "th"}, rec, []Part{{Service: indy}})
	assert.That(errors.Is(err, format.ErrAttachmentNotFound))
}

func TestCredential_Bindings(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	rec := data.NewExchangeRecord("1", data.V2, data.RoleIssuer, "th", "")
	rec.Offer = &issuecredential.Offer{
		Formats:      []issuecredential.FormatSpec{{AttachID: "o", Format: "f-indy"}},
		OffersAttach: []decorator.Attachment{decorator.NewBase64Attachment("o", []byte(`{}`))},
	}
	rec.Request = &issuecredential.Request{
		Formats:        []issuecredential.FormatSpec{{AttachID: "r", Format: "f-indy"}},
		RequestsAttach: []decorator.Attachment{decorator.NewBase64Attachment("r", []byte(`{}`))},
	}
	indy := mockService(ctrl, format.FamilyIndy, "f-indy")
	indy.EXPECT().BuildCredential(ctx, gomock.Any()).Return(format.Issued{Attached: attached("f-indy"), RecordID: "cred-1"}, nil)

	msg, bindings, err := New(1).Credential(ctx, Context{ThreadID: "th", PleaseAck: true}, rec, []Part{{Service: indy}})
	assert.NoError(err)
	assert.INotNil(msg.PleaseAck)
	assert.DeepEqual(bindings, []data.Binding{{Family: string(format.FamilyIndy), RecordID: "cred-1"}})
}

func TestProblemReport(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	pr := New(0).ProblemReport(Context{ThreadID: "th"}, "", "bad")
	assert.Equal(pr.Description.Code, ProblemCodeAbandoned)
	assert.Equal(pr.Thread.ID, "th")
	ack := New(0).Ack(Context{ThreadID: "th"})
	assert.Equal(ack.Thread.ID, "th")
}
