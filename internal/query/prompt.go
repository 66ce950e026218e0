package query

import (
	_ "embed"
	"strings"
)

//go:embed system.tmpl
var systemPrompt string

// DefaultQuestion is asked when no question is configured.
const DefaultQuestion = "How does the age distribution of billionaires compare across different countries?"

// SystemPrompt returns the default persona sent as the system turn.
func SystemPrompt() string {
	return strings.TrimSpace(systemPrompt)
}
