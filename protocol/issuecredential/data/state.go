package data

import (
	"sort"
	"time"
)

type edge struct {
	from, to State
}

// transitions are the legal moves per role. Every non-terminal state may
// also move to Abandoned.
var transitions = map[Role]map[edge]bool{
	RoleHolder: {
		{StateNull, StateProposalSent}:              true,
		{StateNull, StateOfferReceived}:             true,
		{StateProposalSent, StateOfferReceived}:     true,
		{StateOfferReceived, StateRequestSent}:      true,
		{StateOfferReceived, StateProposalSent}:     true,
		{StateRequestSent, StateCredentialReceived}: true,
		{StateCredentialReceived, StateDone}:        true,
	},
	RoleIssuer: {
		{StateNull, StateProposalReceived}:            true,
		{StateNull, StateOfferSent}:                   true,
		{StateProposalReceived, StateOfferSent}:       true,
		{StateOfferSent, StateProposalReceived}:       true,
		{StateOfferSent, StateRequestReceived}:        true,
		{StateRequestReceived, StateCredentialIssued}: true,
		{StateCredentialIssued, StateDone}:            true,
	},
}

// CanMove tells if the role may move the exchange from one state to
// another.
func CanMove(role Role, from, to State) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StateAbandoned {
		return from != StateNull
	}
	return transitions[role][edge{from, to}]
}

// MoveTo transitions the record and returns the previous state. The record
// is not touched if the move is illegal.
func (r *ExchangeRecord) MoveTo(to State) (previous State, err error) {
	if !CanMove(r.Role, r.State, to) {
		return r.State, &StateError{RecordID: r.ID, Current: r.State, Expected: sources(r.Role, to)}
	}
	previous = r.State
	r.State = to
	r.UpdatedAt = time.Now().UTC()
	return previous, nil
}

func sources(role Role, to State) []State {
	var s []State
	for e := range transitions[role] {
		if e.to == to {
			s = append(s, e.from)
		}
	}
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	return s
}
