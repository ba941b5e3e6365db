package v1

import (
	"encoding/json"

	"github.com/findy-network/findy-common-go/dto"
	"github.com/findy-network/findy-credex/agent/didcomm"
	"github.com/findy-network/findy-credex/agent/pltype"
	"github.com/findy-network/findy-credex/std/decorator"
)

func init() {
	didcomm.Creator.Add(pltype.IssueCredentialV1Propose, ProposeCreator)
	didcomm.Creator.Add(pltype.IssueCredentialV1Offer, OfferCreator)
	didcomm.Creator.Add(pltype.IssueCredentialV1Request, RequestCreator)
	didcomm.Creator.Add(pltype.IssueCredentialV1Issue, IssueCreator)
}

var ProposeCreator = didcomm.FactorFunc(func(data []byte) (didcomm.MessageHdr, error) {
	return NewProposeMsg(data)
})

func NewPropose(m *Propose) *ProposeImpl {
	p := &ProposeImpl{Propose: m}
	p.Propose.Thread = decorator.CheckThread(p.Propose.Thread, p.Propose.ID)
	return p
}

func NewProposeMsg(data []byte) (*ProposeImpl, error) {
	var m Propose
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return NewPropose(&m), nil
}

type ProposeImpl struct {
	*Propose
}

func (p *ProposeImpl) ID() string                      { return p.Propose.ID }
func (p *ProposeImpl) Type() string                    { return p.Propose.Type }
func (p *ProposeImpl) SetID(id string)                 { p.Propose.ID = id }
func (p *ProposeImpl) SetType(t string)                { p.Propose.Type = t }
func (p *ProposeImpl) JSON() []byte                    { return dto.ToJSONBytes(p.Propose) }
func (p *ProposeImpl) Thread() *decorator.Thread       { return p.Propose.Thread }
func (p *ProposeImpl) Service() *decorator.Service     { return p.Propose.Service }
func (p *ProposeImpl) SetService(s *decorator.Service) { p.Propose.Service = s }
func (p *ProposeImpl) FieldObj() interface{}           { return p.Propose }

var OfferCreator = didcomm.FactorFunc(func(data []byte) (didcomm.MessageHdr, error) {
	return NewOfferMsg(data)
})

func NewOffer(m *Offer) *OfferImpl {
	p := &OfferImpl{Offer: m}
	p.Offer.Thread = decorator.CheckThread(p.Offer.Thread, p.Offer.ID)
	return p
}

func NewOfferMsg(data []byte) (*OfferImpl, error) {
	var m Offer
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return NewOffer(&m), nil
}

type OfferImpl struct {
	*Offer
}

func (p *OfferImpl) ID() string                      { return p.Offer.ID }
func (p *OfferImpl) Type() string                    { return p.Offer.Type }
func (p *OfferImpl) SetID(id string)                 { p.Offer.ID = id }
func (p *OfferImpl) SetType(t string)                { p.Offer.Type = t }
func (p *OfferImpl) JSON() []byte                    { return dto.ToJSONBytes(p.Offer) }
func (p *OfferImpl) Thread() *decorator.Thread       { return p.Offer.Thread }
func (p *OfferImpl) Service() *decorator.Service     { return p.Offer.Service }
func (p *OfferImpl) SetService(s *decorator.Service) { p.Offer.Service = s }
func (p *OfferImpl) FieldObj() interface{}           { return p.Offer }

var RequestCreator = didcomm.FactorFunc(func(data []byte) (didcomm.MessageHdr, error) {
	return NewRequestMsg(data)
})

func NewRequest(m *Request) *RequestImpl {
	p := &RequestImpl{Request: m}
	p.Request.Thread = decorator.CheckThread(p.Request.Thread, p.Request.ID)
	return p
}

func NewRequestMsg(data []byte) (*RequestImpl, error) {
	var m Request
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return NewRequest(&m), nil
}

type RequestImpl struct {
	*Request
}

func (p *RequestImpl) ID() string                      { return p.Request.ID }
func (p *RequestImpl) Type() string                    { return p.Request.Type }
func (p *RequestImpl) SetID(id string)                 { p.Request.ID = id }
func (p *RequestImpl) SetType(t string)                { p.Request.Type = t }
func (p *RequestImpl) JSON() []byte                    { return dto.ToJSONBytes(p.Request) }
func (p *RequestImpl) Thread() *decorator.Thread       { return p.Request.Thread }
func (p *RequestImpl) Service() *decorator.Service     { return p.Request.Service }
func (p *RequestImpl) SetService(s *decorator.Service) { p.Request.Service = s }
func (p *RequestImpl) FieldObj() interface{}           { return p.Request }

var IssueCreator = didcomm.FactorFunc(func(data []byte) (didcomm.MessageHdr, error) {
	return NewIssueMsg(data)
})

func NewIssue(m *Issue) *IssueImpl {
	p := &IssueImpl{Issue: m}
	p.Issue.Thread = decorator.CheckThread(p.Issue.Thread, p.Issue.ID)
	return p
}

func NewIssueMsg(data []byte) (*IssueImpl, error) {
	var m Issue
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return NewIssue(&m), nil
}

type IssueImpl struct {
	*Issue
}

func (p *IssueImpl) ID() string                      { return p.Issue.ID }
func (p *IssueImpl) Type() string                    { return p.Issue.Type }
func (p *IssueImpl) SetID(id string)                 { p.Issue.ID = id }
func (p *IssueImpl) SetType(t string)                { p.Issue.Type = t }
func (p *IssueImpl) JSON() []byte                    { return dto.ToJSONBytes(p.Issue) }
func (p *IssueImpl) Thread() *decorator.Thread       { return p.Issue.Thread }
func (p *IssueImpl) Service() *decorator.Service     { return p.Issue.Service }
func (p *IssueImpl) SetService(s *decorator.Service) { p.Issue.Service = s }
func (p *IssueImpl) FieldObj() interface{}           { return p.Issue }
