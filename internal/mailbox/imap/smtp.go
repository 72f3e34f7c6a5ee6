package imap

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/nhle/mail-agent/internal/mailbox"
)

// implicitTLSPort is the SMTP submission port that expects TLS from the
// first byte; every other port is upgraded with STARTTLS.
const implicitTLSPort = 465

// outgoing is a composed plain-text message ready for submission.
type outgoing struct {
	From      string
	To        string
	Subject   string
	Body      string
	InReplyTo string // Message-ID of the original, without angle brackets
	Date      time.Time
}

// composeMessage renders msg as an RFC 5322 message using go-message.
func composeMessage(msg outgoing) ([]byte, error) {
	var h mail.Header
	h.SetDate(msg.Date)
	h.SetAddressList("From", []*mail.Address{{Address: msg.From}})
	h.SetAddressList("To", []*mail.Address{{Address: msg.To}})
	h.SetSubject(msg.Subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generating Message-ID: %w", err)
	}

	if msg.InReplyTo != "" {
		h.SetMsgIDList("In-Reply-To", []string{msg.InReplyTo})
		h.SetMsgIDList("References", []string{msg.InReplyTo})
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}
	if _, err := io.WriteString(w, msg.Body); err != nil {
		return nil, fmt.Errorf("writing message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing message writer: %w", err)
	}

	return buf.Bytes(), nil
}

// smtpSender submits messages through an authenticated SMTP connection,
// opened per message.
type smtpSender struct {
	cfg Config
	log *zap.Logger
}

// send delivers raw to a single recipient. The dial honours ctx, and the
// connection is closed as soon as ctx is done so no SMTP exchange can
// outlive it.
func (s *smtpSender) send(ctx context.Context, from, to string, raw []byte) error {
	addr := net.JoinHostPort(s.cfg.SMTPHost, strconv.Itoa(s.cfg.SMTPPort))

	c, err := s.dial(ctx, addr)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &mailbox.SendError{Err: fmt.Errorf("connecting to SMTP %s: %w", addr, ctxErr)}
		}
		return err
	}
	defer c.Close()

	if err := s.submit(c, addr, from, to, raw); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &mailbox.SendError{Err: fmt.Errorf("SMTP submission aborted: %w", ctxErr)}
		}
		return err
	}
	return nil
}

// dial opens the TCP connection with ctx and a timeout, then performs the
// TLS handshake and greeting. The returned client's connection is closed
// when ctx is done.
func (s *smtpSender) dial(ctx context.Context, addr string) (*smtp.Client, error) {
	dialer := &net.Dialer{Timeout: s.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &mailbox.SendError{Err: fmt.Errorf("connecting to SMTP %s: %w", addr, err)}
	}

	// Closing the connection unblocks any pending read or write.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	fail := func(err error) (*smtp.Client, error) {
		stop()
		_ = conn.Close()
		return nil, &mailbox.SendError{Err: fmt.Errorf("connecting to SMTP %s: %w", addr, err)}
	}

	tlsConfig := &tls.Config{
		ServerName: s.cfg.SMTPHost,
		MinVersion: tls.VersionTLS12,
	}

	var c *smtp.Client
	if s.cfg.SMTPPort == implicitTLSPort {
		tlsConn := tls.Client(conn, tlsConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			return fail(err)
		}
		c = smtp.NewClient(tlsConn)
	} else {
		c, err = smtp.NewClientStartTLS(conn, tlsConfig)
		if err != nil {
			return fail(err)
		}
	}

	if s.cfg.Timeout > 0 {
		c.CommandTimeout = s.cfg.Timeout
		c.SubmissionTimeout = s.cfg.Timeout
	}
	return c, nil
}

// submit authenticates and hands raw to the server.
func (s *smtpSender) submit(c *smtp.Client, addr, from, to string, raw []byte) error {
	if err := c.Auth(sasl.NewPlainClient("", s.cfg.Username, s.cfg.Password)); err != nil {
		return &mailbox.AuthError{
			Server:  addr,
			Message: fmt.Sprintf("SMTP authentication failed for %s: %v", s.cfg.Username, err),
		}
	}

	if err := c.Mail(from, nil); err != nil {
		return classifySMTPError("MAIL FROM", err)
	}
	if err := c.Rcpt(to, nil); err != nil {
		return classifySMTPError("RCPT TO", err)
	}

	wc, err := c.Data()
	if err != nil {
		return classifySMTPError("DATA", err)
	}
	if _, err := wc.Write(raw); err != nil {
		_ = wc.Close()
		return &mailbox.SendError{Err: fmt.Errorf("writing message: %w", err)}
	}
	if err := wc.Close(); err != nil {
		return classifySMTPError("end of DATA", err)
	}

	if err := c.Quit(); err != nil {
		// Already accepted; a failed QUIT does not affect delivery.
		s.log.Warn("SMTP QUIT failed", zap.Error(err))
	}
	return nil
}

// classifySMTPError wraps err as permanent for 5xx replies and temporary
// for everything else.
func classifySMTPError(stage string, err error) error {
	permanent := false
	var smtpErr *smtp.SMTPError
	if errors.As(err, &smtpErr) {
		permanent = !smtpErr.Temporary()
	}
	return &mailbox.SendError{
		Err:       fmt.Errorf("SMTP %s: %w", stage, err),
		Permanent: permanent,
	}
}
