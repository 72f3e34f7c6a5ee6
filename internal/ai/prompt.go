package ai

import (
	"fmt"
	"strings"

	"github.com/nhle/mail-agent/internal/model"
)

const (
	analysisSystemPrompt = "You are an expert email assistant that analyzes " +
		"emails and provides structured responses."
	responseSystemPrompt = "You are a professional email assistant that writes " +
		"clear, concise, and appropriate email responses."

	// analysisBodyLimit caps how much of the body is sent for classification.
	analysisBodyLimit = 1000
)

// buildAnalysisPrompt asks for a JSON verdict on one email.
func buildAnalysisPrompt(email model.EmailMessage) string {
	var sb strings.Builder

	sb.WriteString("Analyze the following email and provide a structured analysis:\n\n")
	fmt.Fprintf(&sb, "From: %s\n", email.Sender)
	fmt.Fprintf(&sb, "Subject: %s\n", email.Subject)
	fmt.Fprintf(&sb, "Body: %s...\n\n", truncateRunes(email.Body, analysisBodyLimit))

	sb.WriteString("Please analyze this email and respond with a JSON object containing:\n")
	sb.WriteString("- category: one of [urgent, spam, personal, business, newsletter, support, other]\n")
	sb.WriteString("- sentiment: one of [positive, negative, neutral]\n")
	sb.WriteString("- priority: integer from 1-5 (5 being highest priority)\n")
	sb.WriteString("- requires_response: boolean\n")
	sb.WriteString("- suggested_actions: array of suggested actions\n")
	sb.WriteString("- confidence: float between 0-1\n\n")

	sb.WriteString("Focus on:\n")
	sb.WriteString("1. Email classification based on content and sender\n")
	sb.WriteString("2. Urgency and priority assessment\n")
	sb.WriteString("3. Whether the email requires a response\n")
	sb.WriteString("4. Appropriate actions to take\n\n")

	sb.WriteString("Respond only with valid JSON.")

	return sb.String()
}

// buildResponsePrompt asks for the body of a reply to email.
func buildResponsePrompt(
	email model.EmailMessage,
	analysis model.EmailAnalysis,
	extra string,
) string {
	var sb strings.Builder

	sb.WriteString("Generate a professional email response based on the following:\n\n")
	sb.WriteString("Original Email:\n")
	fmt.Fprintf(&sb, "From: %s\n", email.Sender)
	fmt.Fprintf(&sb, "Subject: %s\n", email.Subject)
	fmt.Fprintf(&sb, "Body: %s\n\n", email.Body)

	sb.WriteString("Analysis:\n")
	fmt.Fprintf(&sb, "- Category: %s\n", analysis.Category)
	fmt.Fprintf(&sb, "- Priority: %d/5\n", analysis.Priority)
	fmt.Fprintf(&sb, "- Sentiment: %s\n\n", analysis.Sentiment)

	if extra = strings.TrimSpace(extra); extra != "" {
		fmt.Fprintf(&sb, "Additional context: %s\n\n", extra)
	}

	sb.WriteString("Please generate a professional, appropriate response that:\n")
	sb.WriteString("1. Addresses the sender's concerns or questions\n")
	sb.WriteString("2. Maintains a professional tone\n")
	sb.WriteString("3. Is concise but complete\n")
	sb.WriteString("4. Includes appropriate pleasantries\n\n")

	sb.WriteString("Respond with only the email body text, no subject line.")

	return sb.String()
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
