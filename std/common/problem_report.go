package common

import "github.com/findy-network/findy-credex/std/decorator"

// ProblemReport problem report definition. Only the fields used by the
// credential exchange are implemented.
type ProblemReport struct {
	Type           string             `json:"@type"`
	ID             string             `json:"@id"`
	Description    Description        `json:"description"`
	ExplainLongTxt string             `json:"explain-ltxt,omitempty"` // ACApy
	Thread         *decorator.Thread  `json:"~thread,omitempty"`
	Service        *decorator.Service `json:"~service,omitempty"`
}

// Description represents a problem report code and its human readable
// message.
type Description struct {
	Code    string `json:"code"`
	Message string `json:"en,omitempty"`
}

// Text returns the best human readable explanation of the problem.
func (p *ProblemReport) Text() string {
	switch {
	case p.Description.Message != "":
		return p.Description.Code + ": " + p.Description.Message
	case p.ExplainLongTxt != "":
		return p.Description.Code + ": " + p.ExplainLongTxt
	}
	return p.Description.Code
}
