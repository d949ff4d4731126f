package llm

import "strings"

// BuildPrompt places the session log ahead of the question.
func BuildPrompt(question, sessionLog string) string {
	var sb strings.Builder
	sb.WriteString("Context:\n")
	sb.WriteString(sessionLog)
	sb.WriteString("\n\nQuestion:\n")
	sb.WriteString(strings.TrimSpace(question))
	return sb.String()
}
