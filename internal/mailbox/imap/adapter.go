package imap

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"

	"github.com/nhle/mail-agent/internal/mailbox"
	"github.com/nhle/mail-agent/internal/model"
)

// Adapter implements mailbox.Mailbox over IMAP (reading) and SMTP (sending).
type Adapter struct {
	cfg    Config
	imap   *IMAPClient
	sender *smtpSender
	log    *zap.Logger
	now    func() time.Time

	// messageIDs maps UIDs from the latest fetch to their Message-ID so
	// replies can be threaded.
	mu         sync.Mutex
	messageIDs map[string]string
}

var _ mailbox.Mailbox = (*Adapter)(nil)

// NewAdapter creates a new mailbox adapter.
func NewAdapter(cfg Config, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("mailbox")

	return &Adapter{
		cfg:        cfg,
		imap:       NewIMAPClient(cfg, log),
		sender:     &smtpSender{cfg: cfg, log: log},
		log:        log,
		now:        time.Now,
		messageIDs: make(map[string]string),
	}
}

// Connect opens the IMAP session and verifies the credentials.
func (a *Adapter) Connect(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.imap.Connect(ctx); err != nil {
		return fmt.Errorf("connecting mailbox: %w", err)
	}
	return nil
}

// FetchUnread retrieves unread messages and maps them to model.EmailMessage.
func (a *Adapter) FetchUnread(
	ctx context.Context, limit int,
) ([]model.EmailMessage, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	parsed, err := a.imap.FetchUnread(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching unread emails: %w", err)
	}

	now := a.now()
	emails := make([]model.EmailMessage, 0, len(parsed))
	ids := make(map[string]string, len(parsed))

	for _, p := range parsed {
		email := a.toEmailMessage(p, now)
		emails = append(emails, email)
		if email.MessageID != "" {
			ids[email.UID] = email.MessageID
		}
	}

	a.mu.Lock()
	a.messageIDs = ids
	a.mu.Unlock()

	a.log.Info("fetched unread emails", zap.Int("count", len(emails)))
	return emails, nil
}

// Send composes a plain-text message from the configured account and
// submits it over SMTP.
func (a *Adapter) Send(
	ctx context.Context, to, subject, body, replyToUID string,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rcpt := to
	if addr, err := mail.ParseAddress(to); err == nil {
		rcpt = addr.Address
	}

	msg := outgoing{
		From:    a.cfg.Username,
		To:      rcpt,
		Subject: subject,
		Body:    body,
		Date:    a.now(),
	}
	if replyToUID != "" {
		a.mu.Lock()
		msg.InReplyTo = a.messageIDs[replyToUID]
		a.mu.Unlock()
	}

	raw, err := composeMessage(msg)
	if err != nil {
		return fmt.Errorf("composing message to %s: %w", rcpt, err)
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.sender.send(ctx, a.cfg.Username, rcpt, raw); err != nil {
		return fmt.Errorf("sending message to %s: %w", rcpt, err)
	}

	a.log.Info("email sent", zap.String("to", rcpt), zap.String("subject", subject))
	return nil
}

// MarkRead adds the \Seen flag.
func (a *Adapter) MarkRead(ctx context.Context, uid string) error {
	n, err := parseUID(uid)
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	return a.imap.SetFlags(ctx, n, []imap.Flag{imap.FlagSeen}, true)
}

// Archive moves the message to the archive folder.
func (a *Adapter) Archive(ctx context.Context, uid string) error {
	n, err := parseUID(uid)
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	return a.imap.MoveToArchive(ctx, n)
}

// Disconnect logs out of the IMAP session.
func (a *Adapter) Disconnect() error {
	err := a.imap.Logout()
	a.log.Info("disconnected from mail servers")
	return err
}

func (a *Adapter) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.cfg.Timeout)
}

// toEmailMessage converts a parsed IMAP message to the agent's model.
func (a *Adapter) toEmailMessage(p ParsedMessage, now time.Time) model.EmailMessage {
	env := p.Envelope

	recipient := strings.Join(env.To, ", ")
	if recipient == "" {
		recipient = a.cfg.Username
	}

	isRead := false
	for _, flag := range env.Flags {
		if flag == string(imap.FlagSeen) {
			isRead = true
		}
	}

	return model.EmailMessage{
		UID:       strconv.FormatUint(uint64(env.UID), 10),
		MessageID: env.MessageID,
		Subject:   env.Subject,
		Sender:    env.From,
		Recipient: recipient,
		Body:      plainBody(p),
		Date:      messageDate(env, now),
		IsRead:    isRead,
	}
}

// parseUID converts a string UID to a uint32.
func parseUID(uid string) (uint32, error) {
	n, err := strconv.ParseUint(uid, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid email UID %q: %w", uid, err)
	}
	return uint32(n), nil
}
