package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formschema/pkg/schema"
)

// ErrMissingTranslator is passed to MissingTranslationHandler when a key is
// looked up without a Translator configured.
var ErrMissingTranslator = errors.New("render: translator not configured")

// Translator resolves message keys for a locale.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(locale, key string, args ...any) (string, error)

func (f TranslatorFunc) Translate(locale, key string, args ...any) (string, error) {
	return f(locale, key, args...)
}

// MapTranslator serves translations from a locale → key → message table.
type MapTranslator map[string]map[string]string

func (m MapTranslator) Translate(locale, key string, _ ...any) (string, error) {
	if msg, ok := m[locale][key]; ok {
		return msg, nil
	}
	return "", fmt.Errorf("render: no %q translation for %q", locale, key)
}

// MissingTranslationHandler decides the string used when a key cannot be
// resolved. fallback is the untranslated schema text, possibly empty.
type MissingTranslationHandler func(locale, key, fallback string, err error) string

func missingTranslationDefault(_ string, key, fallback string, _ error) string {
	if strings.TrimSpace(fallback) != "" {
		return fallback
	}
	return key
}

// Translation keys derived from the schema.
func FieldLabelKey(id string) string       { return "fields." + id + ".label" }
func FieldPlaceholderKey(id string) string { return "fields." + id + ".placeholder" }
func FieldHelpKey(id string) string        { return "fields." + id + ".help" }
func OptionKey(id, value string) string    { return "fields." + id + ".options." + value }
func SectionTitleKey(index int) string     { return fmt.Sprintf("sections.%d.title", index) }

// LocalizeSchema returns a copy of s with labels, placeholders, help text,
// option labels, and section titles translated. Missing keys keep the
// schema text. A nil translator returns s unchanged.
func LocalizeSchema(s schema.Schema, opts RenderOptions) schema.Schema {
	if opts.Translator == nil || len(s) == 0 {
		return s
	}
	onMissing := opts.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	tr := func(key, fallback string) string {
		return translate(opts.Locale, key, fallback, opts.Translator, onMissing)
	}

	out := make(schema.Schema, len(s))
	for si, section := range s {
		localized := schema.Section{
			Title:  section.Title,
			Fields: make([]schema.Field, len(section.Fields)),
		}
		if section.Title != "" {
			localized.Title = tr(SectionTitleKey(si), section.Title)
		}
		for fi, field := range section.Fields {
			field.Label = tr(FieldLabelKey(field.ID), field.DisplayLabel())
			if field.Placeholder != "" {
				field.Placeholder = tr(FieldPlaceholderKey(field.ID), field.Placeholder)
			}
			if field.Help != "" {
				field.Help = tr(FieldHelpKey(field.ID), field.Help)
			}
			if len(field.Options) > 0 {
				options := make([]schema.Option, len(field.Options))
				for oi, opt := range field.Options {
					opt.Label = tr(OptionKey(field.ID, opt.Value), opt.Label)
					options[oi] = opt
				}
				field.Options = options
			}
			localized.Fields[fi] = field
		}
		out[si] = localized
	}
	return out
}

// Translate resolves key through opts, returning fallback when unresolved.
// Renderers use it for their own chrome such as button captions.
func Translate(opts RenderOptions, key, fallback string) string {
	onMissing := opts.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	return translate(opts.Locale, key, fallback, opts.Translator, onMissing)
}

func translate(locale, key, fallback string, t Translator, onMissing MissingTranslationHandler) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}
	if t == nil {
		return onMissing(locale, key, fallback, ErrMissingTranslator)
	}
	result, err := t.Translate(locale, key)
	if err == nil && strings.TrimSpace(result) != "" {
		return result
	}
	return onMissing(locale, key, fallback, err)
}
