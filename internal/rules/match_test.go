package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/mail-agent/internal/model"
)

func intPtr(n int) *int { return &n }

func invoiceEmail() model.EmailMessage {
	return model.EmailMessage{
		UID:     "101",
		Subject: "Invoice Due",
		Sender:  "billing@vendor.com",
		Body:    "Please pay by Friday.",
	}
}

func TestMatches(t *testing.T) {
	email := invoiceEmail()
	analysis := model.EmailAnalysis{Category: model.CategoryBusiness, Priority: 3}

	tests := []struct {
		name string
		cond model.Conditions
		want bool
	}{
		{"subject case-insensitive", model.Conditions{SubjectContains: []string{"invoice"}}, true},
		{"subject upper keyword", model.Conditions{SubjectContains: []string{"DUE"}}, true},
		{"subject miss", model.Conditions{SubjectContains: []string{"nonexistent-token"}}, false},
		{"domain exact", model.Conditions{FromDomain: []string{"vendor.com"}}, true},
		{"domain other", model.Conditions{FromDomain: []string{"other.com"}}, false},
		{"domain is not a suffix match", model.Conditions{FromDomain: []string{"dor.com"}}, false},
		{"domain is case-sensitive", model.Conditions{FromDomain: []string{"Vendor.com"}}, false},
		{"from contains", model.Conditions{FromContains: []string{"BILLING"}}, true},
		{"from contains miss", model.Conditions{FromContains: []string{"sales"}}, false},
		{"category", model.Conditions{Category: []string{"spam", "business"}}, true},
		{"category miss", model.Conditions{Category: []string{"urgent"}}, false},
		{"min priority equal", model.Conditions{MinPriority: intPtr(3)}, true},
		{"min priority above", model.Conditions{MinPriority: intPtr(4)}, false},
		{"no conditions", model.Conditions{}, false},
		{"empty lists", model.Conditions{SubjectContains: []string{}, FromDomain: []string{}}, false},
		{
			"kinds are OR-ed",
			model.Conditions{SubjectContains: []string{"nope"}, Category: []string{"business"}},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := model.ProcessingRule{Name: tt.name, Conditions: tt.cond}
			assert.Equal(t, tt.want, Matches(email, analysis, rule))
		})
	}
}

func TestMatches_SenderWithoutAt(t *testing.T) {
	email := model.EmailMessage{Sender: "MAILER-DAEMON"}
	analysis := model.DefaultAnalysis()

	assert.True(t, Matches(email, analysis, model.ProcessingRule{
		Conditions: model.Conditions{FromDomain: []string{""}},
	}))
	assert.False(t, Matches(email, analysis, model.ProcessingRule{
		Conditions: model.Conditions{FromDomain: []string{"example.com"}},
	}))
}

func TestSenderDomain(t *testing.T) {
	assert.Equal(t, "example.com", senderDomain("a@example.com"))
	assert.Equal(t, "b.org", senderDomain(`"odd@name"@b.org`))
	assert.Equal(t, "", senderDomain("nobody"))
	assert.Equal(t, "", senderDomain("trailing@"))
}

func TestSelectMatching_PreservesOrder(t *testing.T) {
	email := invoiceEmail()
	analysis := model.EmailAnalysis{Category: model.CategoryBusiness, Priority: 2}

	r1 := model.ProcessingRule{Name: "r1", Conditions: model.Conditions{FromDomain: []string{"vendor.com"}}}
	r2 := model.ProcessingRule{Name: "r2", Conditions: model.Conditions{SubjectContains: []string{"x"}}}
	r3 := model.ProcessingRule{Name: "r3", Conditions: model.Conditions{Category: []string{"business"}}}

	got := SelectMatching(email, analysis, []model.ProcessingRule{r1, r2, r3})
	assert.Equal(t, []string{"r1", "r3"}, names(got))

	got = SelectMatching(email, analysis, []model.ProcessingRule{r3, r2, r1})
	assert.Equal(t, []string{"r3", "r1"}, names(got))

	assert.Empty(t, SelectMatching(email, analysis, []model.ProcessingRule{r2}))
}

func names(rules []model.ProcessingRule) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.Name)
	}
	return out
}
