package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultAnthropicModel   = "claude-sonnet-4-5-20250929"
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"

	defaultOpenAIModel   = "gpt-3.5-turbo"
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
)

// APIError is a non-2xx reply from a language-model provider.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.StatusCode, e.Message)
}

// completer sends one system+user prompt pair and returns the text reply.
type completer interface {
	complete(ctx context.Context, system, prompt string) (string, error)
}

// request holds the generation settings shared by both providers.
type request struct {
	model       string
	maxTokens   int
	temperature float64
}

// --- Anthropic Messages API ---

type anthropicClient struct {
	request
	apiKey  string
	baseURL string
	http    *http.Client
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicResponse struct {
	ID         string                  `json:"id"`
	Content    []anthropicContentBlock `json:"content"`
	StopReason string                  `json:"stop_reason"`
}

type anthropicErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *anthropicClient) complete(
	ctx context.Context, system, prompt string,
) (string, error) {
	reqBody := anthropicRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		System:      system,
		Messages: []anthropicMessage{{
			Role:    "user",
			Content: []anthropicContentBlock{{Type: "text", Text: prompt}},
		}},
	}

	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": anthropicVersion,
	}

	respBody, err := postJSON(ctx, c.http, "anthropic", c.baseURL+"/v1/messages", headers, reqBody,
		func(body []byte) string {
			var apiErr anthropicErrorResponse
			if json.Unmarshal(body, &apiErr) == nil {
				return apiErr.Error.Message
			}
			return ""
		})
	if err != nil {
		return "", err
	}

	var result anthropicResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decoding anthropic response: %w", err)
	}

	var parts []string
	for _, block := range result.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, ""), nil
}

// --- OpenAI Chat Completions API ---

type openAIClient struct {
	request
	apiKey  string
	baseURL string
	http    *http.Client
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Index        int           `json:"index"`
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
}

type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

func (c *openAIClient) complete(
	ctx context.Context, system, prompt string,
) (string, error) {
	reqBody := openAIRequest{
		Model: c.model,
		Messages: []openAIMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	headers := map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}

	respBody, err := postJSON(ctx, c.http, "openai", c.baseURL+"/chat/completions", headers, reqBody,
		func(body []byte) string {
			var apiErr openAIErrorResponse
			if json.Unmarshal(body, &apiErr) == nil {
				return apiErr.Error.Message
			}
			return ""
		})
	if err != nil {
		return "", err
	}

	var result openAIResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decoding openai response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai response has no choices")
	}
	return result.Choices[0].Message.Content, nil
}

// postJSON sends body as JSON and returns the raw response body, turning
// non-200 replies into an *APIError.
func postJSON(
	ctx context.Context,
	client *http.Client,
	provider, url string,
	headers map[string]string,
	body any,
	errMessage func([]byte) string,
) ([]byte, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, url, bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s API: %w", provider, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := errMessage(respBody)
		if msg == "" {
			msg = string(respBody)
		}
		return nil, &APIError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Message:    msg,
		}
	}

	return respBody, nil
}
