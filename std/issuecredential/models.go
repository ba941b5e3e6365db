/*
Package issuecredential is package for Aries issue-credential 2.0 protocol
messages. The structs here are also the version independent form of the
messages which the exchange records keep: the 1.0 messages are converted to
them by package v1.

The models follow aries-framework-go with some modifications: the Credential
word is removed from the names because it's already in the package name, and
every message has thread and service decorators.
*/
package issuecredential

import "github.com/findy-network/findy-credex/std/decorator"

// FormatSpec binds an attachment to its credential format identifier.
type FormatSpec struct {
	AttachID string `json:"attach_id"`
	Format   string `json:"format"`
}

// Propose is an optional message sent by the potential Holder to the Issuer
// to initiate the protocol or in response to a offer-credential message when
// the Holder wants some adjustments made to the credential data offered by
// Issuer.
type Propose struct {
	ID       string `json:"@id,omitempty"`
	Type     string `json:"@type,omitempty"`
	Comment  string `json:"comment,omitempty"`
	GoalCode string `json:"goal_code,omitempty"`
	// CredentialPreview is an optional object that represents the credential
	// data that the Prover wants to receive.
	CredentialPreview *Preview               `json:"credential_preview,omitempty"`
	Formats           []FormatSpec           `json:"formats"`
	FiltersAttach     []decorator.Attachment `json:"filters~attach"`

	Thread  *decorator.Thread  `json:"~thread,omitempty"`
	Service *decorator.Service `json:"~service,omitempty"`
}

// Offer is a message sent by the Issuer to the potential Holder, describing
// the credential they intend to offer.
type Offer struct {
	ID            string `json:"@id,omitempty"`
	Type          string `json:"@type,omitempty"`
	Comment       string `json:"comment,omitempty"`
	GoalCode      string `json:"goal_code,omitempty"`
	ReplacementID string `json:"replacement_id,omitempty"`
	// CredentialPreview represents the credential data that Issuer is
	// willing to issue.
	CredentialPreview *Preview               `json:"credential_preview,omitempty"`
	Formats           []FormatSpec           `json:"formats"`
	OffersAttach      []decorator.Attachment `json:"offers~attach"`

	Thread  *decorator.Thread  `json:"~thread,omitempty"`
	Service *decorator.Service `json:"~service,omitempty"`
}

// Request is a message sent by the potential Holder to the Issuer, to
// request the issuance of a credential.
type Request struct {
	ID             string                 `json:"@id,omitempty"`
	Type           string                 `json:"@type,omitempty"`
	Comment        string                 `json:"comment,omitempty"`
	GoalCode       string                 `json:"goal_code,omitempty"`
	Formats        []FormatSpec           `json:"formats"`
	RequestsAttach []decorator.Attachment `json:"requests~attach"`

	Thread  *decorator.Thread  `json:"~thread,omitempty"`
	Service *decorator.Service `json:"~service,omitempty"`
}

// Issue contains as attached payload the credentials being issued and is
// sent in response to a valid Request message.
type Issue struct {
	ID                string                 `json:"@id,omitempty"`
	Type              string                 `json:"@type,omitempty"`
	Comment           string                 `json:"comment,omitempty"`
	ReplacementID     string                 `json:"replacement_id,omitempty"`
	Formats           []FormatSpec           `json:"formats"`
	CredentialsAttach []decorator.Attachment `json:"credentials~attach"`

	PleaseAck *decorator.PleaseAck `json:"~please_ack,omitempty"`
	Thread    *decorator.Thread    `json:"~thread,omitempty"`
	Service   *decorator.Service   `json:"~service,omitempty"`
}

// Preview is used to construct a preview of the data for the credential that
// is to be issued.
type Preview struct {
	Type       string      `json:"@type,omitempty"`
	Attributes []Attribute `json:"attributes"`
}

// Attribute describes an attribute for a Preview
type Attribute struct {
	Name     string `json:"name"`
	MimeType string `json:"mime-type,omitempty"`
	Value    string `json:"value"`
}

// Formatted is implemented by the four messages which carry format
// attachments.
type Formatted interface {
	FormatList() []FormatSpec
	AttachList() []decorator.Attachment
}

func (p *Propose) FormatList() []FormatSpec           { return p.Formats }
func (p *Propose) AttachList() []decorator.Attachment { return p.FiltersAttach }
func (o *Offer) FormatList() []FormatSpec             { return o.Formats }
func (o *Offer) AttachList() []decorator.Attachment   { return o.OffersAttach }
func (r *Request) FormatList() []FormatSpec           { return r.Formats }
func (r *Request) AttachList() []decorator.Attachment { return r.RequestsAttach }
func (i *Issue) FormatList() []FormatSpec             { return i.Formats }
func (i *Issue) AttachList() []decorator.Attachment   { return i.CredentialsAttach }

// Attachment returns the attachment the format spec points to.
func Attachment(f Formatted, spec FormatSpec) (decorator.Attachment, bool) {
	return decorator.FindAttachment(f.AttachList(), spec.AttachID)
}

// AttachmentByFormat returns the attachment of the first format entry
// accepted by match.
func AttachmentByFormat(f Formatted, match func(format string) bool) (FormatSpec, decorator.Attachment, bool) {
	if f == nil {
		return FormatSpec{}, decorator.Attachment{}, false
	}
	for _, spec := range f.FormatList() {
		if match(spec.Format) {
			a, found := Attachment(f, spec)
			return spec, a, found
		}
	}
	return FormatSpec{}, decorator.Attachment{}, false
}

// Equal tells if both previews have the same attributes in any order. The
// mime types are ignored.
func (p *Preview) Equal(other *Preview) bool {
	if p == nil || other == nil {
		return p == other
	}
	if len(p.Attributes) != len(other.Attributes) {
		return false
	}
	values := make(map[string]string, len(p.Attributes))
	for _, a := range p.Attributes {
		values[a.Name] = a.Value
	}
	for _, a := range other.Attributes {
		v, ok := values[a.Name]
		if !ok || v != a.Value {
			return false
		}
	}
	return true
}

// Values returns the preview attributes as a name-value map.
func (p *Preview) Values() map[string]string {
	if p == nil {
		return nil
	}
	m := make(map[string]string, len(p.Attributes))
	for _, a := range p.Attributes {
		m[a.Name] = a.Value
	}
	return m
}
