package exchange

import (
	"github.com/findy-network/findy-credex/agent/didcomm"
	"github.com/findy-network/findy-credex/agent/pltype"
	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format"
	v1 "github.com/findy-network/findy-credex/std/issuecredential/v1"
)

// Version describes what a protocol version can carry and how its messages
// look on the wire. The services keep the messages in the version
// independent form and convert them only when they are sent.
type Version struct {
	Name data.Version
	// Type is the version part of the message type URIs.
	Type string
	// MaxFormats is the limit of formats per message, zero is no limit.
	MaxFormats int
	// Families lists the allowed format families, nil allows all.
	Families []format.Family
	// PleaseAck tells if the credential message asks for the ack.
	PleaseAck bool
	// Down converts a message to its wire form, nil keeps it as is.
	Down func(m didcomm.MessageHdr) (didcomm.MessageHdr, error)
	// Up is the inverse of Down.
	Up func(m didcomm.MessageHdr) (didcomm.MessageHdr, error)
}

var (
	V1 = Version{
		Name:       data.V1,
		Type:       pltype.V1,
		MaxFormats: 1,
		Families:   []format.Family{format.FamilyIndy},
		Down:       v1.Down,
		Up:         v1.Up,
	}
	V2 = Version{
		Name:      data.V2,
		Type:      pltype.V2,
		PleaseAck: true,
	}
)

// Allows tells if the version can carry the format family.
func (v Version) Allows(f format.Family) bool {
	if v.Families == nil {
		return true
	}
	for _, allowed := range v.Families {
		if allowed == f {
			return true
		}
	}
	return false
}

func (v Version) wire(m didcomm.MessageHdr) (didcomm.MessageHdr, error) {
	if v.Down == nil {
		return m, nil
	}
	return v.Down(m)
}

// Inbound converts a received message to the version independent form.
func (v Version) Inbound(m didcomm.MessageHdr) (didcomm.MessageHdr, error) {
	if v.Up == nil {
		return m, nil
	}
	return v.Up(m)
}
