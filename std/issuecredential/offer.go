package issuecredential

import (
	"encoding/json"

	"github.com/findy-network/findy-common-go/dto"
	"github.com/findy-network/findy-credex/agent/didcomm"
	"github.com/findy-network/findy-credex/agent/pltype"
	"github.com/findy-network/findy-credex/std/decorator"
)

var OfferCreator = didcomm.FactorFunc(func(data []byte) (didcomm.MessageHdr, error) {
	return NewOfferMsg(data)
})

func init() {
	didcomm.Creator.Add(pltype.IssueCredentialOffer, OfferCreator)
}

func NewOffer(m *Offer) *OfferImpl {
	p := &OfferImpl{Offer: m}
	p.checkThread()
	return p
}

func NewOfferMsg(data []byte) (*OfferImpl, error) {
	var m Offer
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return NewOffer(&m), nil
}

// MARK: Helpers

func (p *OfferImpl) checkThread() {
	p.Offer.Thread = decorator.CheckThread(p.Offer.Thread, p.Offer.ID)
}

// MARK: Struct
type OfferImpl struct {
	*Offer
}

func (p *OfferImpl) ID() string {
	return p.Offer.ID
}

func (p *OfferImpl) Type() string {
	return p.Offer.Type
}

func (p *OfferImpl) SetID(id string) {
	p.Offer.ID = id
}

func (p *OfferImpl) SetType(t string) {
	p.Offer.Type = t
}

func (p *OfferImpl) JSON() []byte {
	return dto.ToJSONBytes(p.Offer)
}

func (p *OfferImpl) Thread() *decorator.Thread {
	return p.Offer.Thread
}

func (p *OfferImpl) Service() *decorator.Service {
	return p.Offer.Service
}

func (p *OfferImpl) SetService(s *decorator.Service) {
	p.Offer.Service = s
}

func (p *OfferImpl) FieldObj() interface{} {
	return p.Offer
}
