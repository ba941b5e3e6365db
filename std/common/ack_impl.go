package common

import (
	"encoding/json"

	"github.com/findy-network/findy-common-go/dto"
	"github.com/findy-network/findy-credex/agent/didcomm"
	"github.com/findy-network/findy-credex/agent/pltype"
	"github.com/findy-network/findy-credex/std/decorator"
)

var AckCreator = didcomm.FactorFunc(func(data []byte) (didcomm.MessageHdr, error) {
	return NewAckMsg(data)
})

func init() {
	didcomm.Creator.Add(pltype.IssueCredentialACK, AckCreator)
	didcomm.Creator.Add(pltype.IssueCredentialV1ACK, AckCreator)
}

func NewAck(r *Ack) *AckImpl {
	a := &AckImpl{Ack: r}
	a.checkThread()
	return a
}

func NewAckMsg(data []byte) (*AckImpl, error) {
	var m Ack
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return NewAck(&m), nil
}

// MARK: Helpers

func (p *AckImpl) checkThread() {
	p.Ack.Thread = decorator.CheckThread(p.Ack.Thread, p.Ack.ID)
}

// MARK: Struct
type AckImpl struct {
	*Ack
}

func (p *AckImpl) ID() string {
	return p.Ack.ID
}

func (p *AckImpl) Type() string {
	return p.Ack.Type
}

func (p *AckImpl) SetID(id string) {
	p.Ack.ID = id
}

func (p *AckImpl) SetType(t string) {
	p.Ack.Type = t
}

func (p *AckImpl) JSON() []byte {
	return dto.ToJSONBytes(p.Ack)
}

func (p *AckImpl) Thread() *decorator.Thread {
	return p.Ack.Thread
}

func (p *AckImpl) Service() *decorator.Service {
	return p.Ack.Service
}

func (p *AckImpl) SetService(s *decorator.Service) {
	p.Ack.Service = s
}

func (p *AckImpl) FieldObj() interface{} {
	return p.Ack
}
