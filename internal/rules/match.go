package rules

import (
	"slices"
	"strings"

	"github.com/nhle/mail-agent/internal/model"
)

// Matches reports whether any present condition kind of rule is satisfied
// by the email and its analysis. Kinds are OR-ed together; a rule with no
// condition kinds never matches.
func Matches(email model.EmailMessage, analysis model.EmailAnalysis, rule model.ProcessingRule) bool {
	c := rule.Conditions

	if c.SubjectContains != nil && containsAnyFold(email.Subject, c.SubjectContains) {
		return true
	}

	if c.FromDomain != nil && slices.Contains(c.FromDomain, senderDomain(email.Sender)) {
		return true
	}

	if c.FromContains != nil && containsAnyFold(email.Sender, c.FromContains) {
		return true
	}

	if c.Category != nil && slices.Contains(c.Category, string(analysis.Category)) {
		return true
	}

	if c.MinPriority != nil && analysis.Priority >= *c.MinPriority {
		return true
	}

	return false
}

// SelectMatching returns the rules that match, in configuration order.
func SelectMatching(
	email model.EmailMessage,
	analysis model.EmailAnalysis,
	rules []model.ProcessingRule,
) []model.ProcessingRule {
	var matched []model.ProcessingRule
	for _, rule := range rules {
		if Matches(email, analysis, rule) {
			matched = append(matched, rule)
		}
	}
	return matched
}

// senderDomain returns the text after the last '@', or "" when there is none.
func senderDomain(sender string) string {
	i := strings.LastIndex(sender, "@")
	if i < 0 {
		return ""
	}
	return sender[i+1:]
}

func containsAnyFold(s string, keywords []string) bool {
	lower := strings.ToLower(s)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
