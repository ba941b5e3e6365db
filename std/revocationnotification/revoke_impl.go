package revocationnotification

import (
	"encoding/json"

	"github.com/findy-network/findy-common-go/dto"
	"github.com/findy-network/findy-credex/agent/didcomm"
	"github.com/findy-network/findy-credex/agent/pltype"
	"github.com/findy-network/findy-credex/std/decorator"
)

var RevokeCreator = didcomm.FactorFunc(func(data []byte) (didcomm.MessageHdr, error) {
	return NewRevokeMsg(data)
})

func init() {
	didcomm.Creator.Add(pltype.RevocationNotificationRevoke, RevokeCreator)
	didcomm.Creator.Add(pltype.RevocationNotificationV1Revoke, RevokeCreator)
}

func NewRevoke(r *Revoke) *RevokeImpl {
	m := &RevokeImpl{Revoke: r}
	m.checkThread()
	return m
}

func NewRevokeMsg(data []byte) (*RevokeImpl, error) {
	var m Revoke
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return NewRevoke(&m), nil
}

func (p *RevokeImpl) checkThread() {
	p.Revoke.Thread = decorator.CheckThread(p.Revoke.Thread, p.Revoke.ID)
}

type RevokeImpl struct {
	*Revoke
}

func (p *RevokeImpl) ID() string {
	return p.Revoke.ID
}

func (p *RevokeImpl) Type() string {
	return p.Revoke.Type
}

func (p *RevokeImpl) SetID(id string) {
	p.Revoke.ID = id
}

func (p *RevokeImpl) SetType(t string) {
	p.Revoke.Type = t
}

func (p *RevokeImpl) JSON() []byte {
	return dto.ToJSONBytes(p.Revoke)
}

func (p *RevokeImpl) Thread() *decorator.Thread {
	return p.Revoke.Thread
}

func (p *RevokeImpl) FieldObj() interface{} {
	return p.Revoke
}
