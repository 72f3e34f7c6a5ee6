package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides,
// e.g. MAILAGENT_AGENT_AUTO_REPLY=true.
const EnvPrefix = "MAILAGENT"

// EmailConfig holds the mailbox connection settings.
type EmailConfig struct {
	Provider   string `mapstructure:"provider" yaml:"provider"`
	IMAPServer string `mapstructure:"imap_server" yaml:"imap_server"`
	IMAPPort   int    `mapstructure:"imap_port" yaml:"imap_port"`
	SMTPServer string `mapstructure:"smtp_server" yaml:"smtp_server"`
	SMTPPort   int    `mapstructure:"smtp_port" yaml:"smtp_port"`
	Username   string `mapstructure:"username" yaml:"username"`
	Password   string `mapstructure:"password" yaml:"password"`
	UseSSL     bool   `mapstructure:"use_ssl" yaml:"use_ssl"`

	// Mailbox is the folder polled for unread mail.
	Mailbox string `mapstructure:"mailbox" yaml:"mailbox"`

	// ArchiveFolder is tried first when archiving. When empty, a list of
	// common archive folder names is tried instead.
	ArchiveFolder string `mapstructure:"archive_folder" yaml:"archive_folder"`

	// Timeout bounds every individual mailbox operation.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// AIConfig holds settings for the language-model classifier.
type AIConfig struct {
	Provider    string  `mapstructure:"provider" yaml:"provider"`
	Model       string  `mapstructure:"model" yaml:"model"`
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`

	// RequestsPerMinute throttles calls to the provider.
	RequestsPerMinute int `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`

	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// AgentConfig holds the orchestrator behaviour settings.
type AgentConfig struct {
	// CheckInterval is the pause between polling cycles, in seconds.
	CheckInterval     int  `mapstructure:"check_interval" yaml:"check_interval"`
	MaxEmailsPerBatch int  `mapstructure:"max_emails_per_batch" yaml:"max_emails_per_batch"`
	AutoReply         bool `mapstructure:"auto_reply" yaml:"auto_reply"`

	// RequireConfirmation suppresses AI-generated replies entirely.
	RequireConfirmation bool `mapstructure:"require_confirmation" yaml:"require_confirmation"`

	// ProcessedRetentionCycles evicts dedupe entries for emails not seen
	// for this many cycles. Zero keeps every entry for the process lifetime.
	ProcessedRetentionCycles int `mapstructure:"processed_retention_cycles" yaml:"processed_retention_cycles"`

	// ResponseContext is passed to the classifier when generating replies.
	ResponseContext string `mapstructure:"response_context" yaml:"response_context"`
}

// Interval returns CheckInterval as a duration.
func (c AgentConfig) Interval() time.Duration {
	return time.Duration(c.CheckInterval) * time.Second
}

// RuleConfig is the raw form of a processing rule as written in the config
// file. It is compiled into a ProcessingRule by the rules package.
type RuleConfig struct {
	Name       string           `mapstructure:"name" yaml:"name"`
	Conditions map[string]any   `mapstructure:"conditions" yaml:"conditions"`
	Actions    []map[string]any `mapstructure:"actions" yaml:"actions"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	File        string `mapstructure:"file" yaml:"file"`
	MaxSize     string `mapstructure:"max_size" yaml:"max_size"`
	BackupCount int    `mapstructure:"backup_count" yaml:"backup_count"`
	Development bool   `mapstructure:"development" yaml:"development"`
}

// StoreConfig holds the location of the local history database.
type StoreConfig struct {
	// Path of the SQLite file. Empty disables history and notifications.
	Path string `mapstructure:"path" yaml:"path"`
}

// MetricsConfig controls the metrics and health HTTP listener.
type MetricsConfig struct {
	// Listen is the address to serve /metrics, /live and /ready on.
	// Empty disables the listener.
	Listen string `mapstructure:"listen" yaml:"listen"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Email   EmailConfig   `mapstructure:"email" yaml:"email"`
	AI      AIConfig      `mapstructure:"ai" yaml:"ai"`
	Agent   AgentConfig   `mapstructure:"agent" yaml:"agent"`
	Rules   []RuleConfig  `mapstructure:"rules" yaml:"rules"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// DefaultConfigPath is used when no --config flag is given.
const DefaultConfigPath = "config/config.yaml"

// setDefaults registers default values so missing keys resolve sensibly.
func setDefaults(v *viper.Viper) {
	v.SetDefault("email.provider", "gmail")
	v.SetDefault("email.imap_server", "imap.gmail.com")
	v.SetDefault("email.imap_port", 993)
	v.SetDefault("email.smtp_server", "smtp.gmail.com")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.use_ssl", true)
	v.SetDefault("email.mailbox", "INBOX")
	v.SetDefault("email.timeout", "30s")

	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.model", "gpt-3.5-turbo")
	v.SetDefault("ai.max_tokens", 1000)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.requests_per_minute", 60)
	v.SetDefault("ai.timeout", "60s")

	v.SetDefault("agent.check_interval", 300)
	v.SetDefault("agent.max_emails_per_batch", 10)
	v.SetDefault("agent.auto_reply", false)
	v.SetDefault("agent.require_confirmation", true)
	v.SetDefault("agent.processed_retention_cycles", 0)

	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.file", "logs/agent.log")
	v.SetDefault("logging.max_size", "10MB")
	v.SetDefault("logging.backup_count", 5)

	v.SetDefault("store.path", "data/agent.db")
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// An optional .env file next to the working directory is loaded first, then
// values of the form ${NAME} are replaced from the environment. If the file
// does not exist, defaults (plus any MAILAGENT_ overrides) are returned.
func LoadConfig(path string) (*AppConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	for key, value := range v.AllSettings() {
		v.Set(key, substituteEnv(value))
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// substituteEnv walks a decoded YAML value and replaces every string of the
// exact form ${NAME} with the value of the NAME environment variable.
func substituteEnv(value any) any {
	switch val := value.(type) {
	case string:
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			return os.Getenv(val[2 : len(val)-1])
		}
		return val
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = substituteEnv(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = substituteEnv(item)
		}
		return out
	default:
		return value
	}
}

// Validate checks the settings the agent cannot run without.
func (c *AppConfig) Validate() error {
	var errs []error

	if c.Agent.CheckInterval <= 0 {
		errs = append(errs, fmt.Errorf("agent.check_interval must be positive, got %d", c.Agent.CheckInterval))
	}
	if c.Agent.MaxEmailsPerBatch <= 0 {
		errs = append(errs, fmt.Errorf("agent.max_emails_per_batch must be positive, got %d", c.Agent.MaxEmailsPerBatch))
	}
	if c.Agent.ProcessedRetentionCycles < 0 {
		errs = append(errs, fmt.Errorf("agent.processed_retention_cycles must not be negative"))
	}

	switch strings.ToLower(c.AI.Provider) {
	case "openai", "anthropic":
	default:
		errs = append(errs, fmt.Errorf("ai.provider %q is not supported", c.AI.Provider))
	}

	for i, r := range c.Rules {
		if strings.TrimSpace(r.Name) == "" {
			errs = append(errs, fmt.Errorf("rules[%d]: name is required", i))
		}
	}

	return errors.Join(errs...)
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("email", cfg.Email)
	v.Set("ai", cfg.AI)
	v.Set("agent", cfg.Agent)
	v.Set("rules", cfg.Rules)
	v.Set("logging", cfg.Logging)
	v.Set("store", cfg.Store)
	v.Set("metrics", cfg.Metrics)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
