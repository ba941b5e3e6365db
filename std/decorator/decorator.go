/*
Package decorator implements the Aries message decorators used by the
credential exchange messages: ~thread, ~attach, ~service and ~please_ack.
*/
package decorator

import (
	"encoding/json"
	"time"
)

// Thread is the ~thread decorator. ID is the thread id and PID is the parent
// thread id.
type Thread struct {
	ID             string         `json:"thid,omitempty"`
	PID            string         `json:"pthid,omitempty"`
	SenderOrder    int            `json:"sender_order,omitempty"`
	ReceivedOrders map[string]int `json:"received_orders,omitempty"`
}

// Attachment is a single entry of the *~attach decorator arrays.
type Attachment struct {
	ID          string         `json:"@id,omitempty"`
	Description string         `json:"description,omitempty"`
	FileName    string         `json:"filename,omitempty"`
	MimeType    string         `json:"mime-type,omitempty"`
	LastModTime *time.Time     `json:"lastmod_time,omitempty"`
	ByteCount   int64          `json:"byte_count,omitempty"`
	Data        AttachmentData `json:"data"`
}

// AttachmentData carries the payload either base64 encoded or as inline
// JSON.
type AttachmentData struct {
	Sha256 string          `json:"sha256,omitempty"`
	Links  []string        `json:"links,omitempty"`
	Base64 string          `json:"base64,omitempty"`
	JSON   json.RawMessage `json:"json,omitempty"`
}

// Service is the ~service decorator used by connection-less exchanges.
type Service struct {
	RecipientKeys   []string `json:"recipientKeys"`
	RoutingKeys     []string `json:"routingKeys,omitempty"`
	ServiceEndpoint string   `json:"serviceEndpoint"`
}

// PleaseAck is the ~please_ack decorator.
type PleaseAck struct {
	On []string `json:"on,omitempty"`
}
