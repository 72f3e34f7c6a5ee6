package testutil

import (
	"context"
	"sync"

	"github.com/nhle/mail-agent/internal/model"
)

// SentMail is one message handed to FakeMailbox.Send.
type SentMail struct {
	To         string
	Subject    string
	Body       string
	ReplyToUID string
}

// FakeMailbox is an in-memory mailbox.Mailbox that records every call in
// order. Fail* fields inject errors for the named operation.
type FakeMailbox struct {
	mu sync.Mutex

	Inbox []model.EmailMessage

	Calls    []string
	Sent     []SentMail
	Archived []string
	Read     []string

	Connected    bool
	Disconnected int
	FetchLimits  []int

	FailConnect error
	FailFetch   error
	FailSend    error
	FailArchive error
	FailMark    error

	// OnFetch, when set, runs at the start of every FetchUnread call.
	OnFetch func()
}

// NewFakeMailbox returns a FakeMailbox holding emails as unread mail.
func NewFakeMailbox(emails ...model.EmailMessage) *FakeMailbox {
	return &FakeMailbox{Inbox: emails}
}

func (f *FakeMailbox) record(call string) {
	f.Calls = append(f.Calls, call)
}

func (f *FakeMailbox) Connect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record("connect")
	if f.FailConnect != nil {
		return f.FailConnect
	}
	f.Connected = true
	return nil
}

// FetchUnread returns the most recent limit unread emails still in Inbox.
func (f *FakeMailbox) FetchUnread(_ context.Context, limit int) ([]model.EmailMessage, error) {
	if f.OnFetch != nil {
		f.OnFetch()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.record("fetch")
	f.FetchLimits = append(f.FetchLimits, limit)
	if f.FailFetch != nil {
		return nil, f.FailFetch
	}

	var unread []model.EmailMessage
	for _, e := range f.Inbox {
		if !e.IsRead {
			unread = append(unread, e)
		}
	}
	if limit > 0 && len(unread) > limit {
		unread = unread[len(unread)-limit:]
	}
	return unread, nil
}

func (f *FakeMailbox) Send(_ context.Context, to, subject, body, replyToUID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record("send:" + to)
	if f.FailSend != nil {
		return f.FailSend
	}
	f.Sent = append(f.Sent, SentMail{To: to, Subject: subject, Body: body, ReplyToUID: replyToUID})
	return nil
}

func (f *FakeMailbox) MarkRead(_ context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record("mark_read:" + uid)
	if f.FailMark != nil {
		return f.FailMark
	}
	f.Read = append(f.Read, uid)
	for i := range f.Inbox {
		if f.Inbox[i].UID == uid {
			f.Inbox[i].IsRead = true
		}
	}
	return nil
}

func (f *FakeMailbox) Archive(_ context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record("archive:" + uid)
	if f.FailArchive != nil {
		return f.FailArchive
	}
	f.Archived = append(f.Archived, uid)
	return nil
}

func (f *FakeMailbox) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record("disconnect")
	f.Connected = false
	f.Disconnected++
	return nil
}

// CallLog returns a copy of the recorded calls.
func (f *FakeMailbox) CallLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Calls...)
}

// PanicMailbox panics on Archive, for testing action isolation.
type PanicMailbox struct {
	*FakeMailbox
}

func (p PanicMailbox) Archive(context.Context, string) error {
	panic("archive exploded")
}
