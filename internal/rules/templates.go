package rules

import (
	"fmt"

	"github.com/nhle/mail-agent/internal/model"
)

var replyTemplates = map[model.ReplyTemplate]string{
	model.TemplateDefault: "Thank you for your email. I have received your message " +
		"and will respond as soon as possible.",
	model.TemplateOutOfOffice: "I am currently out of the office and will return on [DATE]. " +
		"For urgent matters, please contact [CONTACT].",
	model.TemplateSupport: "Thank you for contacting support. Your request has been received " +
		"and assigned ticket #[TICKET]. We will respond within 24 hours.",
}

// ReplyBody returns the text of the named template, falling back to the
// default template for unknown names.
func ReplyBody(t model.ReplyTemplate) string {
	if body, ok := replyTemplates[t]; ok {
		return body
	}
	return replyTemplates[model.TemplateDefault]
}

// ForwardSubject is the subject used when forwarding email.
func ForwardSubject(email model.EmailMessage) string {
	return "FWD: " + email.Subject
}

// ForwardBody embeds the original sender, subject and body.
func ForwardBody(email model.EmailMessage) string {
	return fmt.Sprintf("Forwarded message:\n\nFrom: %s\nSubject: %s\n\n%s",
		email.Sender, email.Subject, email.Body)
}
