package model

import "time"

// EmailMessage is a single message fetched from the mailbox. It is owned by
// the mailbox adapter and treated as read-only by everything else.
type EmailMessage struct {
	// UID is the stable identifier of the message within the mailbox.
	UID string `json:"uid"`

	// MessageID is the RFC 5322 Message-ID header, used for threading replies.
	MessageID string `json:"message_id,omitempty"`

	Subject   string `json:"subject"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`

	// Body is the plain-text body. HTML-only messages are converted to text.
	Body string `json:"body"`

	// Date is when the message was received (or sent, per its Date header).
	Date time.Time `json:"date"`

	IsRead bool `json:"is_read"`
}
