// Package prompt compiles a row of tabular input into the final prompt
// text sent to the generation service. Compilation is a pure function:
// no I/O, no failure modes.
package prompt

import (
	"strings"

	"github.com/bulkgpt/processor/internal/domain"
)

// Spec carries the user-supplied templating inputs shared by every row
// in a batch.
type Spec struct {
	// Template is the prompt template containing {{column}} placeholders.
	Template string

	// Context is an optional free-text context string prepended to the
	// substituted template.
	Context string

	// OutputSchema is an optional ordered list of expected output field
	// names, appended as guidance text only. It is not enforced.
	OutputSchema []string
}

// Compile expands a row against the spec. Substitution is best effort:
// every non-empty column except the identifier replaces its literal
// {{column}} occurrences, and placeholders with no matching non-empty
// column are left verbatim. Malformed placeholders are treated as
// literal text.
func Compile(row domain.Row, spec Spec) string {
	compiled := spec.Template

	for key, value := range row {
		if key == domain.RowIDColumn || value == "" {
			continue
		}
		compiled = strings.ReplaceAll(compiled, "{{"+key+"}}", value)
	}

	if spec.Context != "" {
		compiled = "Context: " + spec.Context + "\n\n" + compiled
	}

	if len(spec.OutputSchema) > 0 {
		compiled += "\n\nExpected output format: " + strings.Join(spec.OutputSchema, ", ")
	}

	return compiled
}
