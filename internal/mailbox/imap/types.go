package imap

import "time"

// Envelope holds the parsed envelope data from an IMAP message.
type Envelope struct {
	MessageID string
	Subject   string
	From      string
	To        []string
	Date      time.Time
	Flags     []string // \Seen, \Flagged, \Answered, \Deleted
	UID       uint32
}

// ParsedMessage holds the full parsed content of an email message.
type ParsedMessage struct {
	Envelope Envelope
	TextBody string
	HTMLBody string
}

// Config holds the server settings for both reading and sending mail.
type Config struct {
	IMAPHost string
	IMAPPort int
	SMTPHost string
	SMTPPort int
	Username string
	Password string

	// TLS selects implicit TLS for IMAP. SMTP uses implicit TLS on port 465
	// and STARTTLS otherwise.
	TLS bool

	Mailbox       string
	ArchiveFolder string
	Timeout       time.Duration
}

// defaultArchiveFolders are tried in order when no archive folder is set.
var defaultArchiveFolders = []string{
	"Archive", "[Gmail]/All Mail", "Archives", "INBOX.Archive",
}
