package credential

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/mail-agent/internal/model"
)

func fakeLookup(secrets map[string]string) Lookup {
	return func(key string) (string, error) {
		if v, ok := secrets[key]; ok {
			return v, nil
		}
		return "", errors.New("not found")
	}
}

func TestResolve_FromKeyring(t *testing.T) {
	r := &Resolver{
		Lookup: fakeLookup(map[string]string{
			"imap-me@example.com": "app-password",
			"anthropic-api-key":   "sk-ant",
		}),
		Getenv: func(string) string { return "" },
	}

	cfg := &model.AppConfig{
		Email: model.EmailConfig{Username: "me@example.com"},
		AI:    model.AIConfig{Provider: "Anthropic"},
	}

	assert.Empty(t, r.Resolve(cfg))
	assert.Equal(t, "app-password", cfg.Email.Password)
	assert.Equal(t, "sk-ant", cfg.AI.APIKey)
}

func TestResolve_EnvBeatsKeyring(t *testing.T) {
	r := &Resolver{
		Lookup: fakeLookup(map[string]string{"openai-api-key": "from-keyring"}),
		Getenv: func(k string) string {
			if k == "OPENAI_API_KEY" {
				return "from-env"
			}
			return ""
		},
	}

	cfg := &model.AppConfig{
		Email: model.EmailConfig{Username: "me@example.com", Password: "set"},
		AI:    model.AIConfig{Provider: "openai"},
	}

	assert.Empty(t, r.Resolve(cfg))
	assert.Equal(t, "from-env", cfg.AI.APIKey)
	assert.Equal(t, "set", cfg.Email.Password)
}

func TestResolve_ReportsMissing(t *testing.T) {
	r := &Resolver{Lookup: fakeLookup(nil), Getenv: func(string) string { return "" }}

	cfg := &model.AppConfig{AI: model.AIConfig{Provider: "openai"}}
	assert.Equal(t, []string{"email.password", "ai.api_key"}, r.Resolve(cfg))
}
