package issuecredential

import (
	"encoding/json"

	"github.com/findy-network/findy-common-go/dto"
	"github.com/findy-network/findy-credex/agent/didcomm"
	"github.com/findy-network/findy-credex/agent/pltype"
	"github.com/findy-network/findy-credex/std/decorator"
)

var RequestCreator = didcomm.FactorFunc(func(data []byte) (didcomm.MessageHdr, error) {
	return NewRequestMsg(data)
})

func init() {
	didcomm.Creator.Add(pltype.IssueCredentialRequest, RequestCreator)
}

func NewRequest(m *Request) *RequestImpl {
	p := &RequestImpl{Request: m}
	p.checkThread()
	return p
}

func NewRequestMsg(data []byte) (*RequestImpl, error) {
	var m Request
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return NewRequest(&m), nil
}

// MARK: Helpers

func (p *RequestImpl) checkThread() {
	p.Request.Thread = decorator.CheckThread(p.Request.Thread, p.Request.ID)
}

// MARK: Struct
type RequestImpl struct {
	*Request
}

func (p *RequestImpl) ID() string {
	return p.Request.ID
}

func (p *RequestImpl) Type() string {
	return p.Request.Type
}

func (p *RequestImpl) SetID(id string) {
	p.Request.ID = id
}

func (p *RequestImpl) SetType(t string) {
	p.Request.Type = t
}

func (p *RequestImpl) JSON() []byte {
	return dto.ToJSONBytes(p.Request)
}

func (p *RequestImpl) Thread() *decorator.Thread {
	return p.Request.Thread
}

func (p *RequestImpl) Service() *decorator.Service {
	return p.Request.Service
}

func (p *RequestImpl) SetService(s *decorator.Service) {
	p.Request.Service = s
}

func (p *RequestImpl) FieldObj() interface{} {
	return p.Request
}
