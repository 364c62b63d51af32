package usecase

import "strings"

const (
	promptLead  = "As a mental health assistant, provide a helpful response to: "
	promptTrail = "Be empathetic, supportive, and concise."
)

// buildAdvicePrompt places the query verbatim between double quotes.
// Quotes or newlines inside the query are not escaped.
func buildAdvicePrompt(query string) string {
	var b strings.Builder
	b.Grow(len(promptLead) + len(query) + len(promptTrail) + 3)
	b.WriteString(promptLead)
	b.WriteByte('"')
	b.WriteString(query)
	b.WriteString("\"\n")
	b.WriteString(promptTrail)
	return b.String()
}
