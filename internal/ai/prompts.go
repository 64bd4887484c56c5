package ai

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/batch_match.md
var batchMatchPromptRaw string

// BatchMatchTemplate is the parsed prompt template for batch matching.
// Parsed once at package init; reused on every MatchBatch call.
var BatchMatchTemplate = template.Must(template.New("batch_match").Parse(batchMatchPromptRaw))
