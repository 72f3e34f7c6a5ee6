package imap

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/k3a/html2text"
	"go.uber.org/zap"

	"github.com/nhle/mail-agent/internal/mailbox"
)

// IMAPClient wraps go-imap v2 and keeps a single authenticated session open
// across operations, reconnecting when the session is lost.
type IMAPClient struct {
	cfg Config
	log *zap.Logger

	mu     sync.Mutex
	client *imapclient.Client
}

// NewIMAPClient creates a new IMAP client. No connection is made until the
// first operation or an explicit Connect.
func NewIMAPClient(cfg Config, log *zap.Logger) *IMAPClient {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	return &IMAPClient{cfg: cfg, log: log}
}

// Connect establishes the session, authenticates and selects the mailbox.
func (c *IMAPClient) Connect(ctx context.Context) error {
	return c.withSession(ctx, func(*imapclient.Client) error { return nil })
}

// Logout ends the session if one is open.
func (c *IMAPClient) Logout() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}

	err := c.client.Logout().Wait()
	_ = c.client.Close()
	c.client = nil
	if err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	return nil
}

// dial connects to the IMAP server, authenticates, and selects the
// configured mailbox.
func (c *IMAPClient) dial() (*imapclient.Client, error) {
	addr := net.JoinHostPort(c.cfg.IMAPHost, strconv.Itoa(c.cfg.IMAPPort))

	var client *imapclient.Client
	var err error

	if c.cfg.TLS {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(c.cfg.Username, c.cfg.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, &mailbox.AuthError{
			Server: addr,
			Message: fmt.Sprintf(
				"authentication failed for %s: %v",
				c.cfg.Username, err,
			),
		}
	}

	if _, err := client.Select(c.cfg.Mailbox, nil).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("selecting %s: %w", c.cfg.Mailbox, err)
	}

	c.log.Info("connected to IMAP server",
		zap.String("server", addr),
		zap.String("mailbox", c.cfg.Mailbox),
	)

	return client, nil
}

// withSession runs fn against the open session, dialing first if needed.
// The go-imap commands do not take a context, so cancellation closes the
// connection to unblock fn. Any error other than a server NO/BAD reply drops
// the session so the next call reconnects.
func (c *IMAPClient) withSession(
	ctx context.Context,
	fn func(*imapclient.Client) error,
) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if c.client == nil {
		client, err := c.dial()
		if err != nil {
			return err
		}
		c.client = client
	}

	client := c.client
	done := make(chan error, 1)
	go func() { done <- fn(client) }()

	select {
	case err := <-done:
		if err != nil && !isServerReply(err) {
			_ = client.Close()
			c.client = nil
		}
		return err
	case <-ctx.Done():
		_ = client.Close()
		c.client = nil
		<-done
		return fmt.Errorf("imap operation aborted: %w", ctx.Err())
	}
}

// isServerReply reports whether err is a tagged NO/BAD response, which
// leaves the connection usable.
func isServerReply(err error) bool {
	var imapErr *imap.Error
	return errors.As(err, &imapErr)
}

// FetchUnread searches for messages without the \Seen flag and returns the
// most recent limit of them, oldest first. Bodies are fetched with PEEK so
// fetching does not mark anything read.
func (c *IMAPClient) FetchUnread(
	ctx context.Context, limit int,
) ([]ParsedMessage, error) {
	var messages []ParsedMessage

	err := c.withSession(ctx, func(client *imapclient.Client) error {
		criteria := &imap.SearchCriteria{
			NotFlag: []imap.Flag{imap.FlagSeen},
		}

		searchData, err := client.UIDSearch(criteria, nil).Wait()
		if err != nil {
			return fmt.Errorf("searching unread messages: %w", err)
		}

		uids := searchData.AllUIDs()
		if len(uids) == 0 {
			return nil
		}

		// Keep the most recent UIDs.
		if limit > 0 && len(uids) > limit {
			uids = uids[len(uids)-limit:]
		}

		bodySection := &imap.FetchItemBodySection{Peek: true}
		fetchOpts := &imap.FetchOptions{
			Envelope:    true,
			Flags:       true,
			UID:         true,
			BodySection: []*imap.FetchItemBodySection{bodySection},
		}

		fetchCmd := client.Fetch(imap.UIDSetNum(uids...), fetchOpts)
		defer fetchCmd.Close()

		for {
			msg := fetchCmd.Next()
			if msg == nil {
				break
			}

			buf, err := msg.Collect()
			if err != nil {
				c.log.Warn("skipping unreadable message", zap.Error(err))
				continue
			}

			parsed := ParsedMessage{Envelope: envelopeFromBuffer(buf)}
			if raw := buf.FindBodySection(bodySection); raw != nil {
				parsed.TextBody, parsed.HTMLBody = parseMIMEBody(raw)
			}
			messages = append(messages, parsed)
		}

		if err := fetchCmd.Close(); err != nil {
			return fmt.Errorf("fetching unread messages: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(messages, func(a, b ParsedMessage) int {
		return cmp.Compare(a.Envelope.UID, b.Envelope.UID)
	})

	return messages, nil
}

// SetFlags modifies flags on a message. If add is true, the flags are
// added; otherwise they are removed.
func (c *IMAPClient) SetFlags(
	ctx context.Context,
	uid uint32,
	flags []imap.Flag,
	add bool,
) error {
	return c.withSession(ctx, func(client *imapclient.Client) error {
		op := imap.StoreFlagsAdd
		if !add {
			op = imap.StoreFlagsDel
		}

		storeCmd := client.Store(imap.UIDSetNum(imap.UID(uid)), &imap.StoreFlags{
			Op:     op,
			Silent: true,
			Flags:  flags,
		}, nil)

		if err := storeCmd.Close(); err != nil {
			return fmt.Errorf("storing flags on UID %d: %w", uid, err)
		}
		return nil
	})
}

// MoveToArchive moves the message to an archive mailbox. The configured
// folder is tried first, then common archive folder names, falling back to
// marking the message deleted and expunging it.
func (c *IMAPClient) MoveToArchive(
	ctx context.Context, uid uint32,
) error {
	folders := defaultArchiveFolders
	if c.cfg.ArchiveFolder != "" {
		folders = append([]string{c.cfg.ArchiveFolder}, defaultArchiveFolders...)
	}

	return c.withSession(ctx, func(client *imapclient.Client) error {
		uidSet := imap.UIDSetNum(imap.UID(uid))

		for _, folder := range folders {
			if _, err := client.Move(uidSet, folder).Wait(); err == nil {
				c.log.Debug("archived message",
					zap.Uint32("uid", uid),
					zap.String("folder", folder),
				)
				return nil
			} else if !isServerReply(err) {
				return fmt.Errorf("moving UID %d to %s: %w", uid, folder, err)
			}
		}

		storeCmd := client.Store(uidSet, &imap.StoreFlags{
			Op:     imap.StoreFlagsAdd,
			Silent: true,
			Flags:  []imap.Flag{imap.FlagDeleted},
		}, nil)
		if err := storeCmd.Close(); err != nil {
			return fmt.Errorf("flagging UID %d deleted: %w", uid, err)
		}

		if err := client.Expunge().Close(); err != nil {
			return fmt.Errorf("expunging after archive of UID %d: %w", uid, err)
		}
		return nil
	})
}

// envelopeFromBuffer extracts an Envelope from a FetchMessageBuffer.
func envelopeFromBuffer(buf *imapclient.FetchMessageBuffer) Envelope {
	env := Envelope{
		UID: uint32(buf.UID),
	}

	if buf.Envelope != nil {
		env.MessageID = buf.Envelope.MessageID
		env.Subject = buf.Envelope.Subject
		env.Date = buf.Envelope.Date

		if len(buf.Envelope.From) > 0 {
			env.From = buf.Envelope.From[0].Addr()
		}

		for _, to := range buf.Envelope.To {
			env.To = append(env.To, to.Addr())
		}
	}

	for _, flag := range buf.Flags {
		env.Flags = append(env.Flags, string(flag))
	}

	return env
}

// parseMIMEBody parses a raw RFC 5322 message using go-message and returns
// the first text/plain and text/html parts.
func parseMIMEBody(raw []byte) (textBody string, htmlBody string) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		// If parsing fails, treat the whole thing as plain text
		return string(raw), ""
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err != nil {
			// io.EOF or a malformed part; keep what we have
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, _ := h.ContentType()
		body, readErr := io.ReadAll(part.Body)
		if readErr != nil {
			continue
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain") && textBody == "":
			textBody = string(body)
		case strings.HasPrefix(contentType, "text/html") && htmlBody == "":
			htmlBody = string(body)
		}
	}

	return textBody, htmlBody
}

// plainBody prefers the text/plain part and falls back to converted HTML.
func plainBody(msg ParsedMessage) string {
	if strings.TrimSpace(msg.TextBody) != "" {
		return msg.TextBody
	}
	if msg.HTMLBody != "" {
		return html2text.HTML2Text(msg.HTMLBody)
	}
	return ""
}

// messageDate falls back to now for messages without a usable Date.
func messageDate(env Envelope, now time.Time) time.Time {
	if env.Date.IsZero() {
		return now
	}
	return env.Date
}
