package issuecredential

import (
	"encoding/json"

	"github.com/findy-network/findy-common-go/dto"
	"github.com/findy-network/findy-credex/agent/didcomm"
	"github.com/findy-network/findy-credex/agent/pltype"
	"github.com/findy-network/findy-credex/std/decorator"
)

var ProposeCreator = didcomm.FactorFunc(func(data []byte) (didcomm.MessageHdr, error) {
	return NewProposeMsg(data)
})

func init() {
	didcomm.Creator.Add(pltype.IssueCredentialPropose, ProposeCreator)
}

func NewPropose(m *Propose) *ProposeImpl {
	p := &ProposeImpl{Propose: m}
	p.checkThread()
	return p
}

func NewProposeMsg(data []byte) (*ProposeImpl, error) {
	var m Propose
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return NewPropose(&m), nil
}

// MARK: Helpers

func (p *ProposeImpl) checkThread() {
	p.Propose.Thread = decorator.CheckThread(p.Propose.Thread, p.Propose.ID)
}

// MARK: Struct
type ProposeImpl struct {
	*Propose
}

func (p *ProposeImpl) ID() string {
	return p.Propose.ID
}

func (p *ProposeImpl) Type() string {
	return p.Propose.Type
}

func (p *ProposeImpl) SetID(id string) {
	p.Propose.ID = id
}

func (p *ProposeImpl) SetType(t string) {
	p.Propose.Type = t
}

func (p *ProposeImpl) JSON() []byte {
	return dto.ToJSONBytes(p.Propose)
}

func (p *ProposeImpl) Thread() *decorator.Thread {
	return p.Propose.Thread
}

func (p *ProposeImpl) Service() *decorator.Service {
	return p.Propose.Service
}

func (p *ProposeImpl) SetService(s *decorator.Service) {
	p.Propose.Service = s
}

func (p *ProposeImpl) FieldObj() interface{} {
	return p.Propose
}
