package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
email:
  username: me@example.com
  password: ${TEST_MAIL_PASSWORD}
  imap_server: imap.example.com
  timeout: 10s
ai:
  provider: anthropic
  api_key: ${TEST_AI_KEY}
agent:
  check_interval: 60
  max_emails_per_batch: 5
  auto_reply: true
  require_confirmation: false
rules:
  - name: vendors
    conditions:
      from_domain: [vendor.com]
      min_priority: 4
    actions:
      - type: archive
      - type: forward
        to: ${TEST_FORWARD_TO}
  - name: newsletters
    conditions:
      category: [newsletter]
    actions:
      - type: mark_read
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("TEST_MAIL_PASSWORD", "secret")
	t.Setenv("TEST_AI_KEY", "sk-test")
	t.Setenv("TEST_FORWARD_TO", "accounts@example.com")

	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "me@example.com", cfg.Email.Username)
	assert.Equal(t, "secret", cfg.Email.Password)
	assert.Equal(t, "imap.example.com", cfg.Email.IMAPServer)
	assert.Equal(t, 993, cfg.Email.IMAPPort)
	assert.Equal(t, "INBOX", cfg.Email.Mailbox)
	assert.Equal(t, 10*time.Second, cfg.Email.Timeout)

	assert.Equal(t, "anthropic", cfg.AI.Provider)
	assert.Equal(t, "sk-test", cfg.AI.APIKey)
	assert.Equal(t, 60*time.Second, cfg.AI.Timeout)

	assert.Equal(t, time.Minute, cfg.Agent.Interval())
	assert.Equal(t, 5, cfg.Agent.MaxEmailsPerBatch)
	assert.True(t, cfg.Agent.AutoReply)
	assert.False(t, cfg.Agent.RequireConfirmation)

	require.Len(t, cfg.Rules, 2)
	assert.Equal(t, "vendors", cfg.Rules[0].Name)
	assert.Equal(t, "newsletters", cfg.Rules[1].Name)
	require.Len(t, cfg.Rules[0].Actions, 2)
	assert.Equal(t, "accounts@example.com", cfg.Rules[0].Actions[1]["to"])

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "data/agent.db", cfg.Store.Path)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 300, cfg.Agent.CheckInterval)
	assert.Equal(t, 10, cfg.Agent.MaxEmailsPerBatch)
	assert.False(t, cfg.Agent.AutoReply)
	assert.True(t, cfg.Agent.RequireConfirmation)
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Empty(t, cfg.Rules)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("MAILAGENT_AGENT_MAX_EMAILS_PER_BATCH", "25")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Agent.MaxEmailsPerBatch)
}

func TestLoadConfig_UnsetVariableBecomesEmpty(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "email:\n  password: ${TEST_SURELY_UNSET_VAR}\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Email.Password)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
agent:
  check_interval: 0
ai:
  provider: cohere
rules:
  - conditions: {}
`))
	require.Error(t, err)
	assert.ErrorContains(t, err, "check_interval")
	assert.ErrorContains(t, err, "cohere")
	assert.ErrorContains(t, err, "rules[0]")
}

func TestSubstituteEnv(t *testing.T) {
	t.Setenv("TEST_SUB", "value")

	got := substituteEnv(map[string]any{
		"plain":   "text",
		"var":     "${TEST_SUB}",
		"partial": "prefix-${TEST_SUB}",
		"list":    []any{"${TEST_SUB}", 3},
	})

	assert.Equal(t, map[string]any{
		"plain":   "text",
		"var":     "value",
		"partial": "prefix-${TEST_SUB}",
		"list":    []any{"value", 3},
	}, got)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	cfg.Email.Username = "me@example.com"
	cfg.Agent.CheckInterval = 120

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", loaded.Email.Username)
	assert.Equal(t, 120, loaded.Agent.CheckInterval)
}
