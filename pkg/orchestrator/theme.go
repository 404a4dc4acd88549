package orchestrator

import (
	"fmt"
	"path"
	"strings"

	"github.com/goliatone/go-theme"
)

// DefaultThemeFallbacks maps every control partial to its built-in template.
func DefaultThemeFallbacks() map[string]string {
	return map[string]string{
		"controls/input":    "controls/input",
		"controls/textarea": "controls/textarea",
		"controls/select":   "controls/select",
		"controls/async":    "controls/async",
		"controls/choice":   "controls/choice",
		"controls/auto":     "controls/auto",
		"controls/array":    "controls/array",
	}
}

func (o *Orchestrator) resolveTheme(name, variant string) (*theme.RendererConfig, error) {
	selection, err := o.themes.Select(name, variant)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: select theme: %w", err)
	}
	if selection == nil {
		return nil, nil
	}

	fallbacks := o.themeFallbacks
	if fallbacks == nil {
		fallbacks = DefaultThemeFallbacks()
	}
	cfg := &theme.RendererConfig{
		Theme:    selection.Theme,
		Variant:  selection.Variant,
		Partials: make(map[string]string, len(fallbacks)),
		Tokens:   make(map[string]string),
		CSSVars:  make(map[string]string),
	}
	for key, value := range fallbacks {
		cfg.Partials[key] = value
	}

	manifest := selection.Manifest
	if manifest == nil {
		return cfg, nil
	}

	prefix := manifest.Assets.Prefix
	files := make(map[string]string, len(manifest.Assets.Files))
	mergeStrings(cfg.Tokens, manifest.Tokens)
	mergeStrings(cfg.Partials, manifest.Templates)
	mergeStrings(files, manifest.Assets.Files)

	if v, ok := manifest.Variants[selection.Variant]; ok {
		mergeStrings(cfg.Tokens, v.Tokens)
		mergeStrings(cfg.Partials, v.Templates)
		mergeStrings(files, v.Assets.Files)
		if v.Assets.Prefix != "" {
			prefix = v.Assets.Prefix
		}
	}

	for key, value := range cfg.Tokens {
		cfg.CSSVars["--"+strings.TrimPrefix(key, "--")] = value
	}
	cfg.AssetURL = func(key string) string {
		file, ok := files[key]
		if !ok || file == "" {
			return ""
		}
		if strings.HasPrefix(file, "/") || strings.Contains(file, "://") || prefix == "" {
			return file
		}
		return strings.TrimSuffix(prefix, "/") + "/" + path.Clean(file)
	}
	return cfg, nil
}

func mergeStrings(dst, src map[string]string) {
	for key, value := range src {
		if value != "" {
			dst[key] = value
		}
	}
}
