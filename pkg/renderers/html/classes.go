package html

// Classes names the CSS classes the templates emit. Empty fields in an
// override keep the default.
type Classes struct {
	Form    string `json:"form"`
	Header  string `json:"header"`
	Section string `json:"section"`
	Actions string `json:"actions"`
	Errors  string `json:"errors"`
	Field   string `json:"field"`
	Label   string `json:"label"`
	Help    string `json:"help"`
	Error   string `json:"error"`
	Valid   string `json:"valid"`
	Invalid string `json:"invalid"`
	Choice  string `json:"choice"`
	Async   string `json:"async"`
	Array   string `json:"array"`
	Row     string `json:"row"`
	Result  string `json:"result"`
}

// DefaultClasses returns the built-in class names.
func DefaultClasses() Classes {
	return Classes{
		Form:    "formschema-form",
		Header:  "formschema-header",
		Section: "formschema-section",
		Actions: "formschema-actions",
		Errors:  "formschema-errors",
		Field:   "formschema-field",
		Label:   "formschema-label",
		Help:    "formschema-help",
		Error:   "formschema-error",
		Valid:   "is-valid",
		Invalid: "is-invalid",
		Choice:  "formschema-choice",
		Async:   "formschema-async",
		Array:   "formschema-array",
		Row:     "formschema-row",
		Result:  "formschema-result",
	}
}

func (c Classes) merge(override Classes) Classes {
	pick := func(base, next string) string {
		if next != "" {
			return next
		}
		return base
	}
	return Classes{
		Form:    pick(c.Form, override.Form),
		Header:  pick(c.Header, override.Header),
		Section: pick(c.Section, override.Section),
		Actions: pick(c.Actions, override.Actions),
		Errors:  pick(c.Errors, override.Errors),
		Field:   pick(c.Field, override.Field),
		Label:   pick(c.Label, override.Label),
		Help:    pick(c.Help, override.Help),
		Error:   pick(c.Error, override.Error),
		Valid:   pick(c.Valid, override.Valid),
		Invalid: pick(c.Invalid, override.Invalid),
		Choice:  pick(c.Choice, override.Choice),
		Async:   pick(c.Async, override.Async),
		Array:   pick(c.Array, override.Array),
		Row:     pick(c.Row, override.Row),
		Result:  pick(c.Result, override.Result),
	}
}
