package decorator

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

const MimeTypeJSON = "application/json"

var (
	ErrNoData     = errors.New("attachment has no data")
	ErrNoEndpoint = errors.New("service has no endpoint")
	ErrNoKeys     = errors.New("service has no recipient keys")
)

func NewThread(ID, PID string) *Thread {
	realPID := ""
	if ID != PID {
		realPID = PID
	}
	return &Thread{ID: ID, PID: realPID}
}

func CheckThread(thread *Thread, ID string) *Thread {
	if thread == nil {
		return &Thread{ID: ID}
	}
	if thread.ID == "" {
		thread.ID = ID
	}
	return thread
}

// NewBase64Attachment builds an attachment carrying data base64 encoded.
func NewBase64Attachment(ID string, data []byte) Attachment {
	return Attachment{
		ID:       ID,
		MimeType: MimeTypeJSON,
		Data: AttachmentData{
			Base64: base64.StdEncoding.EncodeToString(data),
		},
	}
}

// NewJSONAttachment builds an attachment carrying v as inline JSON.
func NewJSONAttachment(ID string, v any) (Attachment, error) {
	d, err := json.Marshal(v)
	if err != nil {
		return Attachment{}, err
	}
	return Attachment{
		ID:       ID,
		MimeType: MimeTypeJSON,
		Data:     AttachmentData{JSON: d},
	}, nil
}

// Bytes returns the raw payload of the attachment regardless of the data
// encoding.
func (a Attachment) Bytes() ([]byte, error) {
	switch {
	case len(a.Data.JSON) > 0:
		return a.Data.JSON, nil
	case a.Data.Base64 != "":
		d, err := base64.StdEncoding.DecodeString(a.Data.Base64)
		if err != nil {
			// some agents send url-safe encoding
			d, err = base64.URLEncoding.DecodeString(a.Data.Base64)
		}
		if err != nil {
			return nil, fmt.Errorf("attachment %s: %w", a.ID, err)
		}
		return d, nil
	}
	return nil, fmt.Errorf("attachment %s: %w", a.ID, ErrNoData)
}

// Unmarshal decodes the JSON payload of the attachment to v.
func (a Attachment) Unmarshal(v any) error {
	d, err := a.Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(d, v)
}

// FindAttachment returns the attachment by its @id.
func FindAttachment(attachments []Attachment, ID string) (Attachment, bool) {
	for _, a := range attachments {
		if a.ID == ID {
			return a, true
		}
	}
	return Attachment{}, false
}

// Validate checks that the service block can be used as a reply address.
// Recipient and routing keys must be base58 encoded or did:key references.
func (s *Service) Validate() error {
	if s.ServiceEndpoint == "" {
		return ErrNoEndpoint
	}
	if len(s.RecipientKeys) == 0 {
		return ErrNoKeys
	}
	for _, k := range append(append([]string{}, s.RecipientKeys...), s.RoutingKeys...) {
		if err := checkKey(k); err != nil {
			return err
		}
	}
	return nil
}

func checkKey(k string) error {
	if strings.HasPrefix(k, "did:key:") {
		return nil
	}
	if k == "" {
		return ErrNoKeys
	}
	if _, err := base58.Decode(k); err != nil {
		return fmt.Errorf("key %q: %w", k, err)
	}
	return nil
}

// Clone returns a deep copy of the service block.
func (s *Service) Clone() *Service {
	if s == nil {
		return nil
	}
	return &Service{
		RecipientKeys:   append([]string{}, s.RecipientKeys...),
		RoutingKeys:     append([]string{}, s.RoutingKeys...),
		ServiceEndpoint: s.ServiceEndpoint,
	}
}
