package model

import "time"

// ProcessedRecord is the audit entry written after an email has been handled.
// It is history only; it is never read back to decide whether to process mail.
type ProcessedRecord struct {
	UID          string    `json:"uid" db:"uid"`
	Subject      string    `json:"subject" db:"subject"`
	Sender       string    `json:"sender" db:"sender"`
	Category     Category  `json:"category" db:"category"`
	Priority     int       `json:"priority" db:"priority"`
	Confidence   float64   `json:"confidence" db:"confidence"`
	MatchedRules []string  `json:"matched_rules" db:"-"`
	Replied      bool      `json:"replied" db:"replied"`
	MarkedRead   bool      `json:"marked_read" db:"marked_read"`
	ProcessedAt  time.Time `json:"processed_at" db:"processed_at"`
}
