/*
Package revocationnotification holds the revoke message of the
revocation-notification protocol. Version 1.0 names the credential by the
thread_id field, 2.0 by revocation_format and credential_id. Both are the
same Revoke struct.
*/
package revocationnotification

import (
	"errors"
	"fmt"
	"strings"

	"github.com/findy-network/findy-credex/std/decorator"
)

// FormatIndyAnonCreds is the revocation format of the indy credentials.
const FormatIndyAnonCreds = "indy-anoncreds"

var ErrCredentialID = errors.New("invalid revocation credential id")

// Revoke is the revocation notification of one credential.
type Revoke struct {
	Type string `json:"@type,omitempty"`
	ID   string `json:"@id,omitempty"`

	// ThreadID is the 1.0 credential id: indy::<rev reg id>::<cred rev id>
	ThreadID string `json:"thread_id,omitempty"`

	RevocationFormat string `json:"revocation_format,omitempty"`
	CredentialID     string `json:"credential_id,omitempty"`

	Comment   string               `json:"comment,omitempty"`
	PleaseAck *decorator.PleaseAck `json:"~please_ack,omitempty"`
	Thread    *decorator.Thread    `json:"~thread,omitempty"`
}

// V1ThreadID returns the 1.0 thread_id of the credential.
func V1ThreadID(revRegID, credRevID string) string {
	return "indy::" + revRegID + "::" + credRevID
}

// V2CredentialID returns the 2.0 credential_id of the indy credential.
func V2CredentialID(revRegID, credRevID string) string {
	return revRegID + "::" + credRevID
}

// ParseV1ThreadID returns the revocation registry id and the credential
// revocation id of the 1.0 thread_id.
func ParseV1ThreadID(threadID string) (revRegID, credRevID string, err error) {
	rest, ok := strings.CutPrefix(threadID, "indy::")
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrCredentialID, threadID)
	}
	return parse(rest)
}

// ParseV2CredentialID returns the revocation registry id and the credential
// revocation id of the 2.0 credential_id. Only the indy-anoncreds format is
// known.
func ParseV2CredentialID(revocationFormat, credentialID string) (revRegID, credRevID string, err error) {
	if revocationFormat != FormatIndyAnonCreds {
		return "", "", fmt.Errorf("%w: format %q", ErrCredentialID, revocationFormat)
	}
	return parse(credentialID)
}

func parse(id string) (revRegID, credRevID string, err error) {
	i := strings.LastIndex(id, "::")
	if i < 0 {
		return "", "", fmt.Errorf("%w: %q", ErrCredentialID, id)
	}
	revRegID, credRevID = id[:i], id[i+2:]
	if !strings.Contains(revRegID, ":4:") || !digits(credRevID) {
		return "", "", fmt.Errorf("%w: %q", ErrCredentialID, id)
	}
	return revRegID, credRevID, nil
}

func digits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
