// Package validation evaluates a declarative ruleset against form values.
// Each field carries an ordered list of constraints; the first failing
// constraint produces the field's single error message.
package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-formschema/pkg/arrayfield"
	"github.com/goliatone/go-formschema/pkg/values"
)

// Constraint kinds, also used as keys in RuleSpec.Messages.
const (
	KindRequired  = "required"
	KindFormat    = "format"
	KindMinLength = "minLength"
	KindMaxLength = "maxLength"
	KindPattern   = "pattern"
)

// Supported formats.
const (
	FormatEmail = "email"
	FormatURL   = "url"
)

// Default messages.
const (
	MessageRequired = "Required"
	MessageEmail    = "Invalid Email"
	MessageURL      = "Invalid URL"
	MessagePattern  = "Invalid format"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ErrorMap maps a field id (or row-scoped cell key) to its message.
type ErrorMap map[string]string

// Empty reports whether no errors were recorded.
func (m ErrorMap) Empty() bool {
	return len(m) == 0
}

// Keys returns the sorted error keys.
func (m ErrorMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Constraint checks one value. Optional constraints accept empty values so
// only Required reports absence.
type Constraint interface {
	Kind() string
	Check(value any) (message string, ok bool)
}

// Rule is the ordered constraint list for one field. Rows applies per-row
// rules to array fields, keyed by row key.
type Rule struct {
	Constraints []Constraint
	Rows        map[string]Rule
}

// NewRule builds a rule from constraints in evaluation order.
func NewRule(constraints ...Constraint) Rule {
	return Rule{Constraints: constraints}
}

// With returns a copy of r with extra constraints appended.
func (r Rule) With(constraints ...Constraint) Rule {
	out := Rule{
		Constraints: append(append([]Constraint(nil), r.Constraints...), constraints...),
		Rows:        r.Rows,
	}
	return out
}

// WithRow returns a copy of r with a per-row rule for key.
func (r Rule) WithRow(key string, rule Rule) Rule {
	rows := make(map[string]Rule, len(r.Rows)+1)
	for k, v := range r.Rows {
		rows[k] = v
	}
	rows[key] = rule
	return Rule{Constraints: r.Constraints, Rows: rows}
}

// Check returns the first failing message for value.
func (r Rule) Check(value any) (string, bool) {
	for _, constraint := range r.Constraints {
		if constraint == nil {
			continue
		}
		if message, ok := constraint.Check(value); !ok {
			return message, false
		}
	}
	return "", true
}

// Ruleset maps field ids to rules.
type Ruleset map[string]Rule

// Validate evaluates every rule against vals. Fields without rules never
// produce errors; array row failures are keyed "id[index].key".
func (rs Ruleset) Validate(vals values.Values) ErrorMap {
	errs := make(ErrorMap)
	for _, id := range rs.ids() {
		rule := rs[id]
		value := vals[id]
		if message, ok := rule.Check(value); !ok {
			errs[id] = message
			continue
		}
		if len(rule.Rows) == 0 {
			continue
		}
		rows, ok := arrayfield.Rows(value)
		if !ok {
			continue
		}
		for index, row := range rows {
			for key, rowRule := range rule.Rows {
				if message, ok := rowRule.Check(row[key]); !ok {
					errs[arrayfield.InputName(id, index, key)] = message
				}
			}
		}
	}
	return errs
}

// ValidateField evaluates the rule for a single id, ignoring row rules.
func (rs Ruleset) ValidateField(id string, value any) (string, bool) {
	rule, ok := rs[id]
	if !ok {
		return "", true
	}
	return rule.Check(value)
}

// Required reports whether the field's rule contains a required constraint.
func (rs Ruleset) Required(id string) bool {
	for _, constraint := range rs[id].Constraints {
		if constraint != nil && constraint.Kind() == KindRequired {
			return true
		}
	}
	return false
}

func (rs Ruleset) ids() []string {
	ids := make([]string, 0, len(rs))
	for id := range rs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Required fails on nil, blank strings, and empty lists.
func Required(message ...string) Constraint {
	return requiredConstraint{message: pick(message, MessageRequired)}
}

// Email checks every non-empty entry is an email address.
func Email(message ...string) Constraint {
	return formatConstraint{format: FormatEmail, message: pick(message, MessageEmail)}
}

// URL checks every non-empty entry is an absolute http(s) URL.
func URL(message ...string) Constraint {
	return formatConstraint{format: FormatURL, message: pick(message, MessageURL)}
}

// Format builds a format constraint by name.
func Format(name string, message ...string) (Constraint, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case FormatEmail:
		return Email(message...), nil
	case FormatURL, "uri":
		return URL(message...), nil
	default:
		return nil, fmt.Errorf("validation: unsupported format %q", name)
	}
}

// MinLength requires at least n characters (or list entries).
func MinLength(n int, message ...string) Constraint {
	return lengthConstraint{kind: KindMinLength, limit: n, message: pick(message, fmt.Sprintf("Must be at least %d characters", n))}
}

// MaxLength allows at most n characters (or list entries).
func MaxLength(n int, message ...string) Constraint {
	return lengthConstraint{kind: KindMaxLength, limit: n, message: pick(message, fmt.Sprintf("Must be at most %d characters", n))}
}

// Pattern matches string values against expr.
func Pattern(expr string, message ...string) (Constraint, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("validation: compile pattern: %w", err)
	}
	return patternConstraint{re: re, message: pick(message, MessagePattern)}, nil
}

type requiredConstraint struct{ message string }

func (c requiredConstraint) Kind() string { return KindRequired }

func (c requiredConstraint) Check(value any) (string, bool) {
	if values.IsEmpty(value) {
		return c.message, false
	}
	return "", true
}

type formatConstraint struct {
	format  string
	message string
}

func (c formatConstraint) Kind() string { return KindFormat }

func (c formatConstraint) Check(value any) (string, bool) {
	if values.IsEmpty(value) {
		return "", true
	}
	for _, entry := range values.Strings(value) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !matchesFormat(c.format, entry) {
			return c.message, false
		}
	}
	return "", true
}

func matchesFormat(format, value string) bool {
	switch format {
	case FormatEmail:
		return emailPattern.MatchString(value)
	case FormatURL:
		parsed, err := url.ParseRequestURI(value)
		if err != nil {
			return false
		}
		return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
	default:
		return true
	}
}

type lengthConstraint struct {
	kind    string
	limit   int
	message string
}

func (c lengthConstraint) Kind() string { return c.kind }

func (c lengthConstraint) Check(value any) (string, bool) {
	if values.IsEmpty(value) {
		return "", true
	}
	size := measure(value)
	switch c.kind {
	case KindMinLength:
		if size < c.limit {
			return c.message, false
		}
	case KindMaxLength:
		if size > c.limit {
			return c.message, false
		}
	}
	return "", true
}

func measure(value any) int {
	switch v := value.(type) {
	case string:
		return utf8.RuneCountInString(v)
	case []string:
		return len(v)
	case []any:
		return len(v)
	case []map[string]any:
		return len(v)
	default:
		return utf8.RuneCountInString(values.String(v))
	}
}

type patternConstraint struct {
	re      *regexp.Regexp
	message string
}

func (c patternConstraint) Kind() string { return KindPattern }

func (c patternConstraint) Check(value any) (string, bool) {
	if values.IsEmpty(value) {
		return "", true
	}
	for _, entry := range values.Strings(value) {
		if !c.re.MatchString(entry) {
			return c.message, false
		}
	}
	return "", true
}

func pick(candidates []string, fallback string) string {
	for _, candidate := range candidates {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
