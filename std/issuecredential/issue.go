package issuecredential

import (
	"encoding/json"

	"github.com/findy-network/findy-common-go/dto"
	"github.com/findy-network/findy-credex/agent/didcomm"
	"github.com/findy-network/findy-credex/agent/pltype"
	"github.com/findy-network/findy-credex/std/decorator"
)

var IssueCreator = didcomm.FactorFunc(func(data []byte) (didcomm.MessageHdr, error) {
	return NewIssueMsg(data)
})

func init() {
	didcomm.Creator.Add(pltype.IssueCredentialIssue, IssueCreator)
}

func NewIssue(m *Issue) *IssueImpl {
	p := &IssueImpl{Issue: m}
	p.checkThread()
	return p
}

func NewIssueMsg(data []byte) (*IssueImpl, error) {
	var m Issue
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return NewIssue(&m), nil
}

// MARK: Helpers

func (p *IssueImpl) checkThread() {
	p.Issue.Thread = decorator.CheckThread(p.Issue.Thread, p.Issue.ID)
}

// MARK: Struct
type IssueImpl struct {
	*Issue
}

func (p *IssueImpl) ID() string {
	return p.Issue.ID
}

func (p *IssueImpl) Type() string {
	return p.Issue.Type
}

func (p *IssueImpl) SetID(id string) {
	p.Issue.ID = id
}

func (p *IssueImpl) SetType(t string) {
	p.Issue.Type = t
}

func (p *IssueImpl) JSON() []byte {
	return dto.ToJSONBytes(p.Issue)
}

func (p *IssueImpl) Thread() *decorator.Thread {
	return p.Issue.Thread
}

func (p *IssueImpl) Service() *decorator.Service {
	return p.Issue.Service
}

func (p *IssueImpl) SetService(s *decorator.Service) {
	p.Issue.Service = s
}

func (p *IssueImpl) FieldObj() interface{} {
	return p.Issue
}
