package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nhle/mail-agent/internal/model"
)

// defaultConfidence applies when the provider omits a confidence value.
const defaultConfidence = 0.5

// rawAnalysis mirrors the JSON the analysis prompt asks for. Fields are
// loosely typed because models do not always honour the requested types.
type rawAnalysis struct {
	Category         string   `json:"category"`
	Sentiment        string   `json:"sentiment"`
	Priority         any      `json:"priority"`
	RequiresResponse any      `json:"requires_response"`
	SuggestedActions []string `json:"suggested_actions"`
	Confidence       *float64 `json:"confidence"`
}

// parseAnalysis extracts an EmailAnalysis from a model reply. Markdown code
// fences and surrounding prose are tolerated.
func parseAnalysis(reply string) (model.EmailAnalysis, error) {
	obj, err := extractJSONObject(reply)
	if err != nil {
		return model.EmailAnalysis{}, err
	}

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return model.EmailAnalysis{}, fmt.Errorf("decoding analysis JSON: %w", err)
	}

	priority, err := toPriority(raw.Priority)
	if err != nil {
		return model.EmailAnalysis{}, err
	}

	confidence := defaultConfidence
	if raw.Confidence != nil {
		confidence = math.Max(0, math.Min(1, *raw.Confidence))
	}

	actions := raw.SuggestedActions
	if actions == nil {
		actions = []string{}
	}

	return model.EmailAnalysis{
		Category:         model.ParseCategory(raw.Category),
		Sentiment:        model.ParseSentiment(raw.Sentiment),
		Priority:         priority,
		RequiresResponse: toBool(raw.RequiresResponse),
		SuggestedActions: actions,
		Confidence:       confidence,
	}, nil
}

// extractJSONObject returns the outermost {...} span of s.
func extractJSONObject(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object in reply %q", truncateRunes(s, 80))
	}
	return s[start : end+1], nil
}

func toPriority(v any) (int, error) {
	switch p := v.(type) {
	case nil:
		return model.PriorityDefault, nil
	case float64:
		return model.ClampPriority(int(p)), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0, fmt.Errorf("invalid priority %q: %w", p, err)
		}
		return model.ClampPriority(n), nil
	default:
		return 0, fmt.Errorf("invalid priority %v", v)
	}
}

func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, _ := strconv.ParseBool(strings.TrimSpace(b))
		return parsed
	case float64:
		return b != 0
	default:
		return false
	}
}
