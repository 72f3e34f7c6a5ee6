package model

import "strings"

// Category is the classification bucket assigned to an email.
type Category string

const (
	CategoryUrgent     Category = "urgent"
	CategorySpam       Category = "spam"
	CategoryPersonal   Category = "personal"
	CategoryBusiness   Category = "business"
	CategoryNewsletter Category = "newsletter"
	CategorySupport    Category = "support"
	CategoryOther      Category = "other"
)

// ParseCategory maps classifier output onto the closed category set.
// Anything unrecognized becomes CategoryOther.
func ParseCategory(s string) Category {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryUrgent, CategorySpam, CategoryPersonal, CategoryBusiness,
		CategoryNewsletter, CategorySupport, CategoryOther:
		return c
	default:
		return CategoryOther
	}
}

// Sentiment is the tone of an email as judged by the classifier.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"

	// SentimentUnknown absorbs classifier output outside the known set.
	SentimentUnknown Sentiment = "unknown"
)

// ParseSentiment maps classifier output onto the closed sentiment set.
// An empty value is neutral; anything else unrecognized is SentimentUnknown.
func ParseSentiment(s string) Sentiment {
	switch v := Sentiment(strings.ToLower(strings.TrimSpace(s))); v {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return v
	case "":
		return SentimentNeutral
	default:
		return SentimentUnknown
	}
}

// Priority bounds (5 is the most urgent).
const (
	PriorityMin     = 1
	PriorityDefault = 3
	PriorityMax     = 5

	// PriorityKeepUnread is the lowest priority that leaves an email unread
	// after processing.
	PriorityKeepUnread = 4
)

// EmailAnalysis is the classifier's structured verdict for one email.
// It is created once per email per cycle and never modified.
type EmailAnalysis struct {
	Category         Category  `json:"category"`
	Sentiment        Sentiment `json:"sentiment"`
	Priority         int       `json:"priority"`
	RequiresResponse bool      `json:"requires_response"`
	SuggestedActions []string  `json:"suggested_actions"`

	// Confidence is advisory only, in the range 0.0 to 1.0.
	Confidence float64 `json:"confidence"`
}

// DefaultAnalysis is the fallback used whenever classification fails.
func DefaultAnalysis() EmailAnalysis {
	return EmailAnalysis{
		Category:         CategoryOther,
		Sentiment:        SentimentNeutral,
		Priority:         PriorityDefault,
		RequiresResponse: false,
		SuggestedActions: []string{"manual_review"},
		Confidence:       0.0,
	}
}

// ClampPriority forces p into the valid 1..5 range.
func ClampPriority(p int) int {
	if p < PriorityMin {
		return PriorityMin
	}
	if p > PriorityMax {
		return PriorityMax
	}
	return p
}
