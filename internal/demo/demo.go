// Package demo embeds the sample organisation form served when no schema
// document is configured, together with the option lists behind its async
// fields.
package demo

import (
	"embed"
	"fmt"
	"io/fs"
	"sync"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-formschema/pkg/orchestrator"
	"github.com/goliatone/go-formschema/pkg/render"
	"github.com/goliatone/go-formschema/pkg/schema"
	"github.com/goliatone/go-formschema/pkg/validation"
)

//go:embed data/*.yaml data/*.json
var files embed.FS

// Document names inside FS.
const (
	SchemaFile       = "schema.yaml"
	RulesFile        = "rules.yaml"
	ValuesFile       = "values.json"
	ItemsFile        = "items.json"
	TranslationsFile = "translations.json"
)

// FS exposes the embedded documents rooted at data/.
func FS() fs.FS {
	sub, err := fs.Sub(files, "data")
	if err != nil {
		return files
	}
	return sub
}

// Definition parses the embedded schema, rules and initial values.
func Definition() (orchestrator.Definition, error) {
	fsys := FS()
	read := func(name string) ([]byte, error) {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("demo: read %s: %w", name, err)
		}
		return data, nil
	}

	raw, err := read(SchemaFile)
	if err != nil {
		return orchestrator.Definition{}, err
	}
	s, err := schema.Parse(raw, SchemaFile)
	if err != nil {
		return orchestrator.Definition{}, err
	}

	if raw, err = read(RulesFile); err != nil {
		return orchestrator.Definition{}, err
	}
	rules, err := validation.ParseRulesetSpec(raw, RulesFile)
	if err != nil {
		return orchestrator.Definition{}, err
	}

	if raw, err = read(ValuesFile); err != nil {
		return orchestrator.Definition{}, err
	}
	vals, err := orchestrator.ParseValues(raw, ValuesFile)
	if err != nil {
		return orchestrator.Definition{}, err
	}
	return orchestrator.Definition{Schema: s, Rules: rules, Values: vals}, nil
}

var (
	itemsOnce sync.Once
	items     map[string][]map[string]any
	itemsErr  error
)

// Items returns the option source rows for an async field, shaped as the
// endpoint contract expects: an id plus a label keyed by the field id.
func Items(field string) ([]map[string]any, bool) {
	itemsOnce.Do(func() {
		data, err := fs.ReadFile(FS(), ItemsFile)
		if err != nil {
			itemsErr = err
			return
		}
		itemsErr = json.Unmarshal(data, &items)
	})
	if itemsErr != nil {
		return nil, false
	}
	rows, ok := items[field]
	return rows, ok
}

// Translations returns the bundled message catalog keyed by locale.
func Translations() (render.MapTranslator, error) {
	data, err := fs.ReadFile(FS(), TranslationsFile)
	if err != nil {
		return nil, fmt.Errorf("demo: read translations: %w", err)
	}
	var out render.MapTranslator
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("demo: decode translations: %w", err)
	}
	return out, nil
}
