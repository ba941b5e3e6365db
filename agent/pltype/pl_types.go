// Package pltype holds the message type URIs of the issue-credential and
// revocation-notification protocol families and helpers to split them.
package pltype

import "strings"

const (
	Aries       = "did:sov:BzCbsNYhMrjHiqZDTUASHg;spec" // legacy prefix, inbound only
	DIDOrgAries = "https://didcomm.org"                 // all outbound messages
)

const (
	V1 = "1.0"
	V2 = "2.0"
)

const (
	ProtocolIssueCredential = "issue-credential"

	HandlerPropose       = "propose-credential"
	HandlerOffer         = "offer-credential"
	HandlerRequest       = "request-credential"
	HandlerIssue         = "issue-credential"
	HandlerACK           = "ack"
	HandlerProblemReport = "problem-report"

	ObjectCredentialPreview = "credential-preview"
)

const (
	IssueCredential = DIDOrgAries + "/" + ProtocolIssueCredential

	IssueCredentialPropose       = IssueCredential + "/" + V2 + "/" + HandlerPropose
	IssueCredentialOffer         = IssueCredential + "/" + V2 + "/" + HandlerOffer
	IssueCredentialRequest       = IssueCredential + "/" + V2 + "/" + HandlerRequest
	IssueCredentialIssue         = IssueCredential + "/" + V2 + "/" + HandlerIssue
	IssueCredentialACK           = IssueCredential + "/" + V2 + "/" + HandlerACK
	IssueCredentialProblemReport = IssueCredential + "/" + V2 + "/" + HandlerProblemReport
	IssueCredentialPreview       = IssueCredential + "/" + V2 + "/" + ObjectCredentialPreview

	IssueCredentialV1Propose       = IssueCredential + "/" + V1 + "/" + HandlerPropose
	IssueCredentialV1Offer         = IssueCredential + "/" + V1 + "/" + HandlerOffer
	IssueCredentialV1Request       = IssueCredential + "/" + V1 + "/" + HandlerRequest
	IssueCredentialV1Issue         = IssueCredential + "/" + V1 + "/" + HandlerIssue
	IssueCredentialV1ACK           = IssueCredential + "/" + V1 + "/" + HandlerACK
	IssueCredentialV1ProblemReport = IssueCredential + "/" + V1 + "/" + HandlerProblemReport
	IssueCredentialV1Preview       = IssueCredential + "/" + V1 + "/" + ObjectCredentialPreview
)

const (
	ProtocolRevocationNotification = "revocation_notification"

	HandlerRevoke = "revoke"

	RevocationNotification = DIDOrgAries + "/" + ProtocolRevocationNotification

	RevocationNotificationRevoke   = RevocationNotification + "/" + V2 + "/" + HandlerRevoke
	RevocationNotificationV1Revoke = RevocationNotification + "/" + V1 + "/" + HandlerRevoke
)

// Handlers lists the message names a protocol version handles, in protocol
// order.
var Handlers = []string{
	HandlerPropose,
	HandlerOffer,
	HandlerRequest,
	HandlerIssue,
	HandlerACK,
	HandlerProblemReport,
}

// MsgType is a parsed message type URI.
type MsgType struct {
	Protocol string
	Version  string
	Name     string
}

// Parse splits a type URI like
// https://didcomm.org/issue-credential/2.0/offer-credential. Both the
// didcomm.org and the legacy did:sov prefix are accepted.
func Parse(t string) (mt MsgType, ok bool) {
	var rest string
	switch {
	case strings.HasPrefix(t, DIDOrgAries+"/"):
		rest = t[len(DIDOrgAries)+1:]
	case strings.HasPrefix(t, Aries+"/"):
		rest = t[len(Aries)+1:]
	default:
		return mt, false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 {
		return mt, false
	}
	return MsgType{Protocol: parts[0], Version: parts[1], Name: parts[2]}, true
}

// Type builds the outbound type URI for the protocol version and message
// name.
func Type(version, name string) string {
	return IssueCredential + "/" + version + "/" + name
}

// Legacy returns the did:sov prefixed form of a didcomm.org type URI.
func Legacy(t string) string {
	if strings.HasPrefix(t, DIDOrgAries) {
		return Aries + t[len(DIDOrgAries):]
	}
	return t
}

// Normalize returns the didcomm.org form of a type URI.
func Normalize(t string) string {
	if strings.HasPrefix(t, Aries) {
		return DIDOrgAries + t[len(Aries):]
	}
	return t
}
