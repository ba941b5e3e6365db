package common

import "github.com/findy-network/findy-credex/std/decorator"

const (
	AckStatusOK      = "OK"
	AckStatusPending = "PENDING"
)

// Ack acknowledgement struct
type Ack struct {
	Type    string             `json:"@type,omitempty"`
	ID      string             `json:"@id,omitempty"`
	Status  string             `json:"status,omitempty"`
	Thread  *decorator.Thread  `json:"~thread,omitempty"`
	Service *decorator.Service `json:"~service,omitempty"`
}
