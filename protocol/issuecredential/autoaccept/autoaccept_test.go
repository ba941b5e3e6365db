package autoaccept

import (
	"context"
	"testing"

	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format/formatmock"
	"github.com/findy-network/findy-credex/std/decorator"
	"github.com/findy-network/findy-credex/std/issuecredential"
	"github.com/golang/mock/gomock"
	"github.com/lainio/err2/assert"
)

func policy(a data.AutoAccept) *data.AutoAccept { return &a }

func TestCompose(t *testing.T) {
	tests := []struct {
		name          string
		record, agent *data.AutoAccept
		want          data.AutoAccept
	}{
		{"record wins", policy(data.AutoAcceptNever), policy(data.AutoAcceptAlways), data.AutoAcceptNever},
		{"agent default", nil, policy(data.AutoAcceptContentApproved), data.AutoAcceptContentApproved},
		{"empty record", policy(""), policy(data.AutoAcceptAlways), data.AutoAcceptAlways},
		{"none", nil, nil, data.AutoAcceptNever},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()
			assert.Equal(Compose(tt.record, tt.agent), tt.want)
		})
	}
}

func mockService(ctrl *gomock.Controller, family format.Family, formatID string) *formatmock.MockService {
	m := formatmock.NewMockService(ctrl)
	m.EXPECT().Family().Return(family).AnyTimes()
	m.EXPECT().SupportsFormat(gomock.Any()).DoAndReturn(func(id string) bool {
		return id == formatID
	}).AnyTimes()
	return m
}

func offerRecord(formats ...string) *data.ExchangeRecord {
	rec := data.NewExchangeRecord("1", data.V2, data.RoleHolder, "th", "c")
	rec.Offer = &issuecredential.Offer{}
	for i, f := range formats {
		id := string(rune('a' + i))
		rec.Offer.Formats = append(rec.Offer.Formats, issuecredential.FormatSpec{AttachID: id, Format: f})
		rec.Offer.OffersAttach = append(rec.Offer.OffersAttach, decorator.NewBase64Attachment(id, []byte(`{}`)))
	}
	return rec
}

func TestAlwaysWithRefusingFormat(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	yes := mockService(ctrl, format.FamilyIndy, "f-indy")
	yes.EXPECT().ShouldAutoRespondToOffer(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, args format.AutoRespondArgs) bool {
			assert.Equal(args.Policy, data.AutoAcceptAlways)
			assert.INotNil(args.Offer)
			assert.Equal(args.Offer.ID, "a")
			return true
		}).AnyTimes()
	no := mockService(ctrl, format.FamilyLDProof, "f-ld")
	no.EXPECT().ShouldAutoRespondToOffer(ctx, gomock.Any()).Return(false)

	c := New(format.NewRegistry(yes, no), data.AutoAcceptAlways)
	assert.ThatNot(c.ShouldAutoRespondToOffer(ctx, offerRecord("f-indy", "f-ld")))
}

func TestAllFormatsApprove(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	a := mockService(ctrl, format.FamilyIndy, "f-indy")
	a.EXPECT().ShouldAutoRespondToOffer(ctx, gomock.Any()).Return(true)
	b := mockService(ctrl, format.FamilySDJWT, "f-sd")
	b.EXPECT().ShouldAutoRespondToOffer(ctx, gomock.Any()).Return(true)

	c := New(format.NewRegistry(a, b), data.AutoAcceptContentApproved)
	assert.That(c.ShouldAutoRespondToOffer(ctx, offerRecord("f-indy", "f-sd")))
}

func TestNeverAndUnknown(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	// the formats are not asked at all
	s := mockService(ctrl, format.FamilyIndy, "f-indy")
	c := New(format.NewRegistry(s), data.AutoAcceptAlways)

	rec := offerRecord("f-indy")
	rec.AutoAccept = policy(data.AutoAcceptNever)
	assert.ThatNot(c.ShouldAutoRespondToOffer(ctx, rec))

	assert.ThatNot(c.ShouldAutoRespondToOffer(ctx, offerRecord("f-unknown")))
	assert.ThatNot(c.ShouldAutoRespondToOffer(ctx, offerRecord()))
	assert.ThatNot(c.ShouldAutoRespondToRequest(ctx, offerRecord("f-indy")))
}

func TestPreviewsPassed(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	prev := &issuecredential.Preview{Attributes: []issuecredential.Attribute{{Name: "n", Value: "v"}}}
	rec := offerRecord("f-indy")
	rec.Offer.CredentialPreview = prev
	rec.Proposal = &issuecredential.Propose{CredentialPreview: prev}

	s := mockService(ctrl, format.FamilyIndy, "f-indy")
	s.EXPECT().ShouldAutoRespondToOffer(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, args format.AutoRespondArgs) bool {
			return args.Proposal == nil && args.OfferPreview == prev && args.ProposalPreview == prev
		})
	c := New(format.NewRegistry(s), data.AutoAcceptContentApproved)
	assert.That(c.ShouldAutoRespondToOffer(ctx, rec))
}
