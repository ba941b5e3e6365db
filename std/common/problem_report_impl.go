package common

import (
	"encoding/json"

	"github.com/findy-network/findy-common-go/dto"
	"github.com/findy-network/findy-credex/agent/didcomm"
	"github.com/findy-network/findy-credex/agent/pltype"
	"github.com/findy-network/findy-credex/std/decorator"
)

var ProblemReportCreator = didcomm.FactorFunc(func(data []byte) (didcomm.MessageHdr, error) {
	return NewProblemReportMsg(data)
})

func init() {
	didcomm.Creator.Add(pltype.IssueCredentialProblemReport, ProblemReportCreator)
	didcomm.Creator.Add(pltype.IssueCredentialV1ProblemReport, ProblemReportCreator)
}

func NewProblemReport(r *ProblemReport) *ProblemReportImpl {
	p := &ProblemReportImpl{ProblemReport: r}
	p.checkThread()
	return p
}

func NewProblemReportMsg(data []byte) (*ProblemReportImpl, error) {
	var m ProblemReport
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return NewProblemReport(&m), nil
}

// MARK: Helpers

func (p *ProblemReportImpl) checkThread() {
	p.ProblemReport.Thread = decorator.CheckThread(p.ProblemReport.Thread,
		p.ProblemReport.ID)
}

// MARK: Struct
type ProblemReportImpl struct {
	*ProblemReport
}

func (p *ProblemReportImpl) ID() string {
	return p.ProblemReport.ID
}

func (p *ProblemReportImpl) Type() string {
	return p.ProblemReport.Type
}

func (p *ProblemReportImpl) SetID(id string) {
	p.ProblemReport.ID = id
}

func (p *ProblemReportImpl) SetType(t string) {
	p.ProblemReport.Type = t
}

func (p *ProblemReportImpl) JSON() []byte {
	return dto.ToJSONBytes(p.ProblemReport)
}

func (p *ProblemReportImpl) Thread() *decorator.Thread {
	return p.ProblemReport.Thread
}

func (p *ProblemReportImpl) Service() *decorator.Service {
	return p.ProblemReport.Service
}

func (p *ProblemReportImpl) SetService(s *decorator.Service) {
	p.ProblemReport.Service = s
}

func (p *ProblemReportImpl) FieldObj() interface{} {
	return p.ProblemReport
}
