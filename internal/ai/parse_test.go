package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mail-agent/internal/model"
)

func TestParseAnalysis(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  model.EmailAnalysis
	}{
		{
			name: "plain json",
			reply: `{"category":"business","sentiment":"positive","priority":4,
				"requires_response":true,"suggested_actions":["reply"],"confidence":0.9}`,
			want: model.EmailAnalysis{
				Category:         model.CategoryBusiness,
				Sentiment:        model.SentimentPositive,
				Priority:         4,
				RequiresResponse: true,
				SuggestedActions: []string{"reply"},
				Confidence:       0.9,
			},
		},
		{
			name:  "code fence and defaults",
			reply: "Here you go:\n```json\n{\"category\": \"support\"}\n```",
			want: model.EmailAnalysis{
				Category:         model.CategorySupport,
				Sentiment:        model.SentimentNeutral,
				Priority:         3,
				SuggestedActions: []string{},
				Confidence:       0.5,
			},
		},
		{
			name:  "unknown labels and out of range numbers",
			reply: `{"category":"invoice","sentiment":"furious","priority":9,"confidence":1.7}`,
			want: model.EmailAnalysis{
				Category:         model.CategoryOther,
				Sentiment:        model.SentimentUnknown,
				Priority:         5,
				SuggestedActions: []string{},
				Confidence:       1,
			},
		},
		{
			name:  "string typed fields",
			reply: `{"category":"URGENT","priority":"0","requires_response":"true"}`,
			want: model.EmailAnalysis{
				Category:         model.CategoryUrgent,
				Sentiment:        model.SentimentNeutral,
				Priority:         1,
				RequiresResponse: true,
				SuggestedActions: []string{},
				Confidence:       0.5,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAnalysis(tt.reply)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAnalysis_Errors(t *testing.T) {
	for _, reply := range []string{
		"",
		"I cannot help with that.",
		`{"category": `,
		`{"priority": "high"}`,
	} {
		_, err := parseAnalysis(reply)
		assert.Error(t, err, "reply %q", reply)
	}
}

func TestBuildAnalysisPrompt_TruncatesBody(t *testing.T) {
	body := make([]rune, 1500)
	for i := range body {
		body[i] = 'é'
	}

	prompt := buildAnalysisPrompt(model.EmailMessage{
		Sender:  "a@example.com",
		Subject: "Hi",
		Body:    string(body),
	})

	assert.Contains(t, prompt, "From: a@example.com")
	assert.Contains(t, prompt, "Subject: Hi")
	assert.Contains(t, prompt, "Body: "+string(body[:1000])+"...")
	assert.NotContains(t, prompt, string(body[:1001]))
}

func TestBuildResponsePrompt(t *testing.T) {
	email := model.EmailMessage{Sender: "a@example.com", Subject: "Help", Body: "Broken"}
	analysis := model.EmailAnalysis{
		Category:  model.CategorySupport,
		Priority:  4,
		Sentiment: model.SentimentNegative,
	}

	prompt := buildResponsePrompt(email, analysis, "")
	assert.Contains(t, prompt, "- Category: support")
	assert.Contains(t, prompt, "- Priority: 4/5")
	assert.Contains(t, prompt, "- Sentiment: negative")
	assert.NotContains(t, prompt, "Additional context")

	prompt = buildResponsePrompt(email, analysis, "We are closed on Fridays.")
	assert.Contains(t, prompt, "Additional context: We are closed on Fridays.")
}
