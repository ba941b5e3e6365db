// Package data implements the exchange record of the issue-credential
// protocol and its repository.
package data

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/findy-network/findy-credex/std/issuecredential"
)

// State of the exchange. The zero value is the Null state: no record.
type State string

const (
	StateNull               State = ""
	StateProposalSent       State = "proposal-sent"
	StateProposalReceived   State = "proposal-received"
	StateOfferSent          State = "offer-sent"
	StateOfferReceived      State = "offer-received"
	StateRequestSent        State = "request-sent"
	StateRequestReceived    State = "request-received"
	StateCredentialIssued   State = "credential-issued"
	StateCredentialReceived State = "credential-received"
	StateDone               State = "done"
	StateAbandoned          State = "abandoned"
)

// IsTerminal tells if no transition can leave the state.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateAbandoned
}

func (s State) String() string {
	if s == StateNull {
		return "null"
	}
	return string(s)
}

// Role of the party. It's fixed for the lifetime of the record.
type Role string

const (
	RoleHolder Role = "holder"
	RoleIssuer Role = "issuer"
)

// AutoAccept is the auto-accept policy of the exchange.
type AutoAccept string

const (
	AutoAcceptNever           AutoAccept = "never"
	AutoAcceptContentApproved AutoAccept = "content-approved"
	AutoAcceptAlways          AutoAccept = "always"
)

// ParseAutoAccept parses the policy name used in configuration.
func ParseAutoAccept(s string) (AutoAccept, error) {
	switch a := AutoAccept(strings.ToLower(s)); a {
	case AutoAcceptNever, AutoAcceptContentApproved, AutoAcceptAlways:
		return a, nil
	case "contentapproved", "content_approved":
		return AutoAcceptContentApproved, nil
	}
	return "", fmt.Errorf("unknown auto-accept policy %q", s)
}

// Version is the protocol version an exchange is pinned to.
type Version string

const (
	V1 Version = "v1"
	V2 Version = "v2"
)

// Binding points at the credential payload of one format family stored by
// the storage layer of that format.
type Binding struct {
	Family   string `json:"family"`
	RecordID string `json:"recordId"`
}

// Metadata is the per-format key/value store of the record. Only format
// services write to it.
type Metadata map[string]json.RawMessage

// Set stores v as JSON under the key.
func (m Metadata) Set(key string, v any) error {
	d, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m[key] = d
	return nil
}

// Get reads the value of key to out. It returns false if the key is not set.
func (m Metadata) Get(key string, out any) (bool, error) {
	d, ok := m[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(d, out)
}

// ExchangeRecord is the persistent state of one credential exchange of one
// party.
type ExchangeRecord struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	ProtocolVersion Version     `json:"protocolVersion"`
	ThreadID        string      `json:"threadId"`
	ParentThreadID  string      `json:"parentThreadId,omitempty"`
	ConnectionID    string      `json:"connectionId,omitempty"`
	Role            Role        `json:"role"`
	State           State       `json:"state"`
	AutoAccept      *AutoAccept `json:"autoAccept,omitempty"`

	Bindings []Binding `json:"bindings,omitempty"`

	Proposal   *issuecredential.Propose `json:"proposal,omitempty"`
	Offer      *issuecredential.Offer   `json:"offer,omitempty"`
	Request    *issuecredential.Request `json:"request,omitempty"`
	Credential *issuecredential.Issue   `json:"credential,omitempty"`

	Metadata     Metadata `json:"metadata,omitempty"`
	ErrorMessage string   `json:"errorMessage,omitempty"`

	// Tags are extra query tags of the record, e.g. the revocation ids
	// of a received credential.
	Tags map[string]string `json:"tags,omitempty"`

	RevocationNotification *RevocationNotification `json:"revocationNotification,omitempty"`

	// Version is the optimistic concurrency counter of the repository.
	Version uint64 `json:"version"`
}

// RevocationNotification is stored on the holder's record when the issuer
// tells the credential has been revoked.
type RevocationNotification struct {
	RevocationDate time.Time `json:"revocationDate"`
	Comment        string    `json:"comment,omitempty"`
}

// NewExchangeRecord returns a record in the Null state.
func NewExchangeRecord(id string, v Version, role Role, threadID, connectionID string) *ExchangeRecord {
	now := time.Now().UTC()
	return &ExchangeRecord{
		ID:              id,
		CreatedAt:       now,
		UpdatedAt:       now,
		ProtocolVersion: v,
		ThreadID:        threadID,
		ConnectionID:    connectionID,
		Role:            role,
		Metadata:        make(Metadata),
	}
}

// AssertState returns StateError if the record is not in one of the
// expected states.
func (r *ExchangeRecord) AssertState(expected ...State) error {
	for _, s := range expected {
		if r.State == s {
			return nil
		}
	}
	return &StateError{RecordID: r.ID, Current: r.State, Expected: expected}
}

// AssertRole returns StateError if the record isn't of the role.
func (r *ExchangeRecord) AssertRole(role Role) error {
	if r.Role != role {
		return &StateError{RecordID: r.ID, Current: r.State, Role: role}
	}
	return nil
}

// IsTerminal tells if the record has reached Done or Abandoned.
func (r *ExchangeRecord) IsTerminal() bool {
	return r.State.IsTerminal()
}

// SetTag sets an extra query tag of the record.
func (r *ExchangeRecord) SetTag(name, value string) {
	if r.Tags == nil {
		r.Tags = make(map[string]string)
	}
	r.Tags[name] = value
}

// Binding returns the binding of the format family.
func (r *ExchangeRecord) Binding(family string) (Binding, bool) {
	for _, b := range r.Bindings {
		if b.Family == family {
			return b, true
		}
	}
	return Binding{}, false
}

// Clone returns a deep copy of the record so that callers, e.g. event
// subscribers, cannot mutate the persisted state.
func (r *ExchangeRecord) Clone() *ExchangeRecord {
	d, err := json.Marshal(r)
	if err != nil {
		panic(err)
	}
	var c ExchangeRecord
	if err := json.Unmarshal(d, &c); err != nil {
		panic(err)
	}
	if c.Metadata == nil {
		c.Metadata = make(Metadata)
	}
	return &c
}

// StateError is returned when an operation is run against a record which
// is not in the operation's pre-state.
type StateError struct {
	RecordID string
	Current  State
	Expected []State
	Role     Role
}

func (e *StateError) Error() string {
	if e.Role != "" {
		return fmt.Sprintf("exchange %s: operation requires role %s", e.RecordID, e.Role)
	}
	exp := make([]string, len(e.Expected))
	for i, s := range e.Expected {
		exp[i] = s.String()
	}
	return fmt.Sprintf("exchange %s: state %s, expected %s", e.RecordID,
		e.Current, strings.Join(exp, " or "))
}

// Messages returns the stored messages which carry format attachments. An
// absent message is a nil interface, not a typed nil.
func (r *ExchangeRecord) Messages() (proposal, offer, request, credential issuecredential.Formatted) {
	if r.Proposal != nil {
		proposal = r.Proposal
	}
	if r.Offer != nil {
		offer = r.Offer
	}
	if r.Request != nil {
		request = r.Request
	}
	if r.Credential != nil {
		credential = r.Credential
	}
	return proposal, offer, request, credential
}
