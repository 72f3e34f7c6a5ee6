package store

import (
	"context"

	"github.com/nhle/mail-agent/internal/model"
)

// Store persists notifications and the processing history. Nothing in it
// is consulted when deciding whether to process an email.
type Store interface {
	// === Notifications ===

	CreateNotification(ctx context.Context, n model.Notification) error
	GetUnreadNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error

	// === Processing history ===

	RecordProcessed(ctx context.Context, rec model.ProcessedRecord) error
	RecentProcessed(ctx context.Context, limit int) ([]model.ProcessedRecord, error)

	Close() error
}
