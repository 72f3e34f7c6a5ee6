package imap

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const multipartMessage = "From: alice@example.com\r\n" +
	"To: bob@example.com\r\n" +
	"Subject: Hello\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=XYZ\r\n" +
	"\r\n" +
	"--XYZ\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"plain body\r\n" +
	"--XYZ\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<p>html body</p>\r\n" +
	"--XYZ--\r\n"

func TestParseMIMEBody_Multipart(t *testing.T) {
	text, html := parseMIMEBody([]byte(multipartMessage))

	assert.Equal(t, "plain body", strings.TrimSpace(text))
	assert.Equal(t, "<p>html body</p>", strings.TrimSpace(html))
}

func TestParseMIMEBody_HTMLOnly(t *testing.T) {
	raw := "From: alice@example.com\r\n" +
		"Subject: Hi\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<b>Bold</b> move\r\n"

	text, html := parseMIMEBody([]byte(raw))

	assert.Empty(t, text)
	assert.Contains(t, html, "<b>Bold</b>")
}

func TestPlainBody(t *testing.T) {
	t.Run("prefers text part", func(t *testing.T) {
		got := plainBody(ParsedMessage{TextBody: "text", HTMLBody: "<p>html</p>"})
		assert.Equal(t, "text", got)
	})

	t.Run("converts html when text is blank", func(t *testing.T) {
		got := plainBody(ParsedMessage{TextBody: "  \n", HTMLBody: "<p>Hello <b>there</b></p>"})
		assert.Contains(t, got, "Hello")
		assert.Contains(t, got, "there")
		assert.NotContains(t, got, "<p>")
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, plainBody(ParsedMessage{}))
	})
}

func TestMessageDate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sent := time.Date(2026, 2, 28, 8, 30, 0, 0, time.UTC)

	assert.Equal(t, now, messageDate(Envelope{}, now))
	assert.Equal(t, sent, messageDate(Envelope{Date: sent}, now))
}

func TestComposeMessage_Reply(t *testing.T) {
	date := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	raw, err := composeMessage(outgoing{
		From:      "agent@example.com",
		To:        "alice@example.com",
		Subject:   "Re: Hello",
		Body:      "Thanks for writing.",
		InReplyTo: "orig-123@example.com",
		Date:      date,
	})
	require.NoError(t, err)

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer mr.Close()

	subject, err := mr.Header.Subject()
	require.NoError(t, err)
	assert.Equal(t, "Re: Hello", subject)

	from, err := mr.Header.AddressList("From")
	require.NoError(t, err)
	require.Len(t, from, 1)
	assert.Equal(t, "agent@example.com", from[0].Address)

	to, err := mr.Header.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 1)
	assert.Equal(t, "alice@example.com", to[0].Address)

	inReplyTo, err := mr.Header.MsgIDList("In-Reply-To")
	require.NoError(t, err)
	assert.Equal(t, []string{"orig-123@example.com"}, inReplyTo)

	refs, err := mr.Header.MsgIDList("References")
	require.NoError(t, err)
	assert.Equal(t, []string{"orig-123@example.com"}, refs)

	msgID, err := mr.Header.MessageID()
	require.NoError(t, err)
	assert.NotEmpty(t, msgID)

	text, _ := parseMIMEBody(raw)
	assert.Equal(t, "Thanks for writing.", strings.TrimSpace(text))
}

func TestComposeMessage_NoThreading(t *testing.T) {
	raw, err := composeMessage(outgoing{
		From:    "agent@example.com",
		To:      "team@example.com",
		Subject: "FWD: Outage",
		Body:    "body",
		Date:    time.Now(),
	})
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "In-Reply-To")
	assert.NotContains(t, string(raw), "References")
}

func TestParseUID(t *testing.T) {
	n, err := parseUID("42")
	require.NoError(t, err)
	assert.Equal(t, uint32(42), n)

	_, err = parseUID("abc")
	assert.Error(t, err)

	_, err = parseUID("")
	assert.Error(t, err)
}

func TestAdapter_ToEmailMessage(t *testing.T) {
	a := NewAdapter(Config{Username: "me@example.com"}, nil)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	email := a.toEmailMessage(ParsedMessage{
		Envelope: Envelope{
			UID:       7,
			MessageID: "abc@example.com",
			Subject:   "Invoice",
			From:      "billing@vendor.com",
			Flags:     []string{`\Seen`},
		},
		HTMLBody: "<p>Due soon</p>",
	}, now)

	assert.Equal(t, "7", email.UID)
	assert.Equal(t, "abc@example.com", email.MessageID)
	assert.Equal(t, "billing@vendor.com", email.Sender)
	assert.Equal(t, "me@example.com", email.Recipient)
	assert.Equal(t, now, email.Date)
	assert.True(t, email.IsRead)
	assert.Contains(t, email.Body, "Due soon")
}
