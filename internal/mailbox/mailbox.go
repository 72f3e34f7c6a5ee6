package mailbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/mail-agent/internal/model"
)

// AuthError indicates that the mailbox rejected the configured credentials.
type AuthError struct {
	Server  string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Server, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// SendError wraps a failed outgoing message. Permanent failures (SMTP 5xx)
// will not succeed on retry; temporary ones (4xx, network) might.
type SendError struct {
	Err       error
	Permanent bool
}

func (e *SendError) Error() string {
	if e.Permanent {
		return fmt.Sprintf("permanent send failure: %v", e.Err)
	}
	return fmt.Sprintf("temporary send failure: %v", e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// IsPermanent reports whether err carries a SendError marked permanent.
func IsPermanent(err error) bool {
	var sendErr *SendError
	return errors.As(err, &sendErr) && sendErr.Permanent
}

// Mailbox is the contract the agent needs from a mail transport.
type Mailbox interface {
	// Connect establishes the session and verifies credentials.
	Connect(ctx context.Context) error

	// FetchUnread returns up to limit unread messages, the most recent ones
	// when more are available. A limit of zero or less means no bound.
	// An empty inbox yields an empty slice and no error.
	FetchUnread(ctx context.Context, limit int) ([]model.EmailMessage, error)

	// Send delivers a plain-text message. When replyToUID is non-empty the
	// message is threaded to that email.
	Send(ctx context.Context, to, subject, body, replyToUID string) error

	// MarkRead flags the message as seen.
	MarkRead(ctx context.Context, uid string) error

	// Archive moves the message out of the polled folder.
	Archive(ctx context.Context, uid string) error

	// Disconnect ends the session. It is safe to call more than once.
	Disconnect() error
}
