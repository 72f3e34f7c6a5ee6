package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/mail-agent/internal/model"
	"github.com/nhle/mail-agent/internal/store"
)

const testConfig = `
email:
  username: agent@example.com
ai:
  provider: anthropic
logging:
  file: ""
store:
  path: %STORE%
rules:
  - name: Invoices
    conditions:
      subject_contains: [invoice]
    actions:
      - type: archive
      - type: forward
        to: billing@example.com
  - name: Urgent
    conditions:
      min_priority: 4
    actions:
      - type: notify
        priority: high
`

func writeTestConfig(t *testing.T) (configPath, storePath string) {
	t.Helper()
	dir := t.TempDir()
	storePath = filepath.Join(dir, "agent.db")
	content := bytes.ReplaceAll([]byte(testConfig), []byte("%STORE%"), []byte(storePath))
	configPath = filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, content, 0o600))
	return configPath, storePath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRulesCommand_DryRun(t *testing.T) {
	configPath, _ := writeTestConfig(t)

	out, err := execute(t, "--config", configPath, "rules", "--subject", "Your Invoice", "--priority", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "1 of 2 rules match")
	assert.Contains(t, out, "Invoices")
	assert.Contains(t, out, "forward to billing@example.com")
	assert.NotContains(t, out, "notify (high)")
}

func TestRulesCommand_NoMatch(t *testing.T) {
	configPath, _ := writeTestConfig(t)

	out, err := execute(t, "--config", configPath, "rules", "--subject", "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "0 of 2 rules match")
	assert.Contains(t, out, "(none)")
}

func TestHistoryCommand(t *testing.T) {
	configPath, storePath := writeTestConfig(t)

	s, err := store.NewSQLiteStore(storePath)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.RecordProcessed(ctx, model.ProcessedRecord{
		UID:          "7",
		Subject:      "Invoice #42",
		Sender:       "billing@vendor.com",
		Category:     model.CategoryBusiness,
		Priority:     4,
		MatchedRules: []string{"Invoices"},
		Replied:      true,
		ProcessedAt:  time.Now(),
	}))
	require.NoError(t, s.CreateNotification(ctx, model.Notification{
		ID:        "n-1",
		EmailUID:  "7",
		Rule:      "Urgent",
		Priority:  "high",
		Message:   "Invoice #42 from billing@vendor.com",
		CreatedAt: time.Now(),
	}))
	require.NoError(t, s.Close())

	out, err := execute(t, "--config", configPath, "history")
	require.NoError(t, err)

	assert.Contains(t, out, "billing@vendor.com")
	assert.Contains(t, out, "Invoices")
	assert.Contains(t, out, "business")
	assert.Contains(t, out, "Urgent")

	out, err = execute(t, "--config", configPath, "history", "--ack")
	require.NoError(t, err)
	assert.Contains(t, out, "marked 1 notifications read")

	out, err = execute(t, "--config", configPath, "history")
	require.NoError(t, err)
	assert.NotContains(t, out, "Invoice #42 from")
}

func TestCredentialKey(t *testing.T) {
	cfg := &model.AppConfig{
		Email: model.EmailConfig{Username: "me@example.com"},
		AI:    model.AIConfig{Provider: "OpenAI"},
	}

	key, err := credentialKey(cfg, "mail")
	require.NoError(t, err)
	assert.Equal(t, "imap-me@example.com", key)

	key, err = credentialKey(cfg, "api-key")
	require.NoError(t, err)
	assert.Equal(t, "openai-api-key", key)

	_, err = credentialKey(cfg, "token")
	assert.Error(t, err)

	cfg.Email.Username = ""
	_, err = credentialKey(cfg, "mail")
	assert.Error(t, err)
}

func TestDescribeActions(t *testing.T) {
	got := describeActions([]model.Action{
		model.ArchiveAction{},
		model.ForwardAction{},
		model.NotifyAction{Priority: "normal"},
		model.AutoReplyAction{Template: model.TemplateSupport},
		model.UnknownAction{Type: "label"},
	})
	assert.Equal(t,
		"archive, forward (no destination), notify (normal), auto_reply (support), label (unknown)",
		got,
	)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestImapConfig(t *testing.T) {
	c := imapConfig(model.EmailConfig{
		IMAPServer: "imap.example.com",
		IMAPPort:   993,
		SMTPServer: "smtp.example.com",
		SMTPPort:   465,
		UseSSL:     true,
		Mailbox:    "INBOX",
		Timeout:    time.Second,
	})
	assert.Equal(t, "imap.example.com", c.IMAPHost)
	assert.Equal(t, 465, c.SMTPPort)
	assert.True(t, c.TLS)
	assert.Equal(t, time.Second, c.Timeout)
}

func TestRelayTriggers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	triggered := make(chan struct{}, 1)

	done := make(chan struct{})
	go func() {
		relayTriggers(ctx, sigs, func() { triggered <- struct{}{} }, zap.NewNop())
		close(done)
	}()

	sigs <- os.Interrupt
	select {
	case <-triggered:
	case <-time.After(2 * time.Second):
		t.Fatal("signal did not trigger a cycle")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop on cancellation")
	}
}
