package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nhle/mail-agent/internal/model"
)

// Classifier analyzes emails and drafts replies through a language-model
// provider. Calls are throttled to the configured requests per minute.
type Classifier struct {
	provider string
	client   completer // nil when no API key is configured
	limiter  *rate.Limiter
	log      *zap.Logger
}

// New creates a Classifier for cfg. A missing API key yields a Classifier
// that always returns the default analysis and an empty response.
func New(cfg model.AIConfig, log *zap.Logger) (*Classifier, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("ai")

	provider := strings.ToLower(cfg.Provider)
	c := &Classifier{
		provider: provider,
		limiter:  newLimiter(cfg.RequestsPerMinute),
		log:      log,
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	req := request{
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
	if req.maxTokens <= 0 {
		req.maxTokens = 1000
	}

	switch provider {
	case "anthropic":
		if req.model == "" || strings.HasPrefix(req.model, "gpt-") {
			req.model = defaultAnthropicModel
		}
		if cfg.APIKey != "" {
			c.client = &anthropicClient{
				request: req,
				apiKey:  cfg.APIKey,
				baseURL: baseURLOr(cfg.BaseURL, defaultAnthropicBaseURL),
				http:    httpClient,
			}
		}
	case "openai":
		if req.model == "" {
			req.model = defaultOpenAIModel
		}
		if cfg.APIKey != "" {
			c.client = &openAIClient{
				request: req,
				apiKey:  cfg.APIKey,
				baseURL: baseURLOr(cfg.BaseURL, defaultOpenAIBaseURL),
				http:    httpClient,
			}
		}
	default:
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.Provider)
	}

	if c.client == nil {
		log.Warn("no API key configured, classification disabled",
			zap.String("provider", provider))
	}

	return c, nil
}

// Enabled reports whether a provider client is configured.
func (c *Classifier) Enabled() bool {
	return c.client != nil
}

// Classify analyzes a single email.
func (c *Classifier) Classify(
	ctx context.Context, email model.EmailMessage,
) (model.EmailAnalysis, error) {
	if c.client == nil {
		return model.DefaultAnalysis(), nil
	}

	reply, err := c.call(ctx, analysisSystemPrompt, buildAnalysisPrompt(email))
	if err != nil {
		return model.EmailAnalysis{}, fmt.Errorf("analyzing email %s: %w", email.UID, err)
	}

	analysis, err := parseAnalysis(reply)
	if err != nil {
		return model.EmailAnalysis{}, fmt.Errorf("parsing analysis for %s: %w", email.UID, err)
	}
	return analysis, nil
}

// ClassifyBatch analyzes emails in order. A failure for one email degrades
// to the default analysis for that email; only context cancellation aborts
// the batch.
func (c *Classifier) ClassifyBatch(
	ctx context.Context, emails []model.EmailMessage,
) ([]model.EmailAnalysis, error) {
	analyses := make([]model.EmailAnalysis, 0, len(emails))

	for _, email := range emails {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("classifying batch: %w", err)
		}

		analysis, err := c.Classify(ctx, email)
		if err != nil {
			c.log.Error("classification failed, using default analysis",
				zap.String("uid", email.UID),
				zap.Error(err),
			)
			analysis = model.DefaultAnalysis()
		}
		analyses = append(analyses, analysis)
	}

	return analyses, nil
}

// GenerateResponse drafts a reply body. An empty string with a nil error
// means no client is configured.
func (c *Classifier) GenerateResponse(
	ctx context.Context,
	email model.EmailMessage,
	analysis model.EmailAnalysis,
	extra string,
) (string, error) {
	if c.client == nil {
		return "", nil
	}

	reply, err := c.call(ctx, responseSystemPrompt, buildResponsePrompt(email, analysis, extra))
	if err != nil {
		return "", fmt.Errorf("generating response for %s: %w", email.UID, err)
	}
	return strings.TrimSpace(reply), nil
}

func (c *Classifier) call(ctx context.Context, system, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for rate limiter: %w", err)
	}

	start := time.Now()
	reply, err := c.client.complete(ctx, system, prompt)
	c.log.Debug("provider call finished",
		zap.String("provider", c.provider),
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("ok", err == nil),
	)
	return reply, err
}

func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

func baseURLOr(url, fallback string) string {
	if url == "" {
		return fallback
	}
	return strings.TrimRight(url, "/")
}
