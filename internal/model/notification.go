package model

import "time"

// Notification is a local event raised by a rule's notify action.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id" db:"id"`

	// EmailUID links this notification to the email that raised it.
	EmailUID string `json:"email_uid" db:"email_uid"`

	// Rule is the name of the rule whose action raised it.
	Rule string `json:"rule" db:"rule"`

	// Priority is the label carried by the notify action ("normal" by default).
	Priority string `json:"priority" db:"priority"`

	// Message is the human-readable notification text.
	Message string `json:"message" db:"message"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read" db:"read"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
