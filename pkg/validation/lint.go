package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formschema/pkg/schema"
	"github.com/goliatone/go-formschema/pkg/values"
)

// Issue is one problem found while linting a form definition.
type Issue struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// LintResult captures lint outcomes for the check command and the preview API.
type LintResult struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues,omitempty"`
}

// Lint checks the schema against its initial values and the ruleset against
// the schema. Rules for unknown ids and row rules on non-array fields are
// reported alongside the structural schema problems.
func Lint(s schema.Schema, initial values.Values, rules Ruleset) LintResult {
	result := LintResult{Valid: true}

	if err := schema.Check(s, initial); err != nil {
		for _, single := range unjoin(err) {
			result.Issues = append(result.Issues, issueFromError(single))
		}
	}

	ids := make([]string, 0, len(rules))
	for id := range rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		field, ok := s.Field(id)
		if !ok {
			result.Issues = append(result.Issues, Issue{Field: id, Message: "rule targets a field the schema does not declare"})
			continue
		}
		if len(rules[id].Rows) > 0 && field.Type != schema.TypeArray {
			result.Issues = append(result.Issues, Issue{Field: id, Message: fmt.Sprintf("row rules require an array field, got %s", field.Type)})
		}
	}

	result.Valid = len(result.Issues) == 0
	return result
}

func unjoin(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

func issueFromError(err error) Issue {
	if err == nil {
		return Issue{Message: "unknown error"}
	}
	msg := strings.TrimSpace(err.Error())
	msg = strings.TrimPrefix(msg, "schema: ")
	return Issue{Field: quotedField(msg), Message: msg}
}

// quotedField pulls the last quoted token from messages such as
// `async field "tags" requires a url`.
func quotedField(message string) string {
	end := strings.LastIndexByte(message, '"')
	if end <= 0 {
		return ""
	}
	start := strings.LastIndexByte(message[:end], '"')
	if start < 0 {
		return ""
	}
	return message[start+1 : end]
}
