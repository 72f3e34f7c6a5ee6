package credential

import (
	"os"
	"strings"

	"github.com/nhle/mail-agent/internal/model"
)

// MailPasswordKey is the keyring key for a mailbox password.
func MailPasswordKey(username string) string {
	return "imap-" + username
}

// APIKeyKey is the keyring key for a language-model provider's API key.
func APIKeyKey(provider string) string {
	return strings.ToLower(provider) + "-api-key"
}

// providerEnv maps providers to the environment variable their SDKs read.
var providerEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

// Lookup fetches a secret by key.
type Lookup func(key string) (string, error)

// Resolver fills in secrets the config file leaves empty.
type Resolver struct {
	Lookup Lookup
	Getenv func(string) string
}

// NewResolver returns a Resolver backed by the system keyring and the
// process environment.
func NewResolver() *Resolver {
	return &Resolver{Lookup: Get, Getenv: os.Getenv}
}

// Resolve sets an empty mailbox password from the keyring, and an empty API
// key from the provider's environment variable, then the keyring. It returns
// the names of secrets that are still missing.
func (r *Resolver) Resolve(cfg *model.AppConfig) []string {
	var missing []string

	if cfg.Email.Password == "" && cfg.Email.Username != "" {
		if v, err := r.Lookup(MailPasswordKey(cfg.Email.Username)); err == nil {
			cfg.Email.Password = v
		}
	}
	if cfg.Email.Password == "" {
		missing = append(missing, "email.password")
	}

	if cfg.AI.APIKey == "" {
		provider := strings.ToLower(cfg.AI.Provider)
		if env, ok := providerEnv[provider]; ok && r.Getenv != nil {
			cfg.AI.APIKey = r.Getenv(env)
		}
		if cfg.AI.APIKey == "" {
			if v, err := r.Lookup(APIKeyKey(provider)); err == nil {
				cfg.AI.APIKey = v
			}
		}
	}
	if cfg.AI.APIKey == "" {
		missing = append(missing, "ai.api_key")
	}

	return missing
}
