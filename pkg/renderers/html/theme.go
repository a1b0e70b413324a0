package html

import (
	"fmt"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// DefaultManifest is the built-in look: neutral surfaces and one accent.
func DefaultManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    "healthform",
		Version: "1.0.0",
		Tokens: map[string]string{
			"color-accent":     "#0f766e",
			"color-danger":     "#b91c1c",
			"color-surface":    "#ffffff",
			"color-background": "#f1f5f9",
			"color-text":       "#0f172a",
			"color-muted":      "#475569",
			"radius":           "0.5rem",
			"font-family":      "system-ui, sans-serif",
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{
					"color-surface":    "#1e293b",
					"color-background": "#0f172a",
					"color-text":       "#f1f5f9",
					"color-muted":      "#94a3b8",
				},
			},
		},
	}
}

// Theme is a resolved manifest variant.
type Theme struct {
	Name    string
	Variant string
	Tokens  map[string]string
}

// ResolveTheme registers manifest with a go-theme registry, which rejects
// malformed manifests, and merges the variant's tokens over the base tokens.
// An unknown non-empty variant is an error.
func ResolveTheme(manifest *theme.Manifest, variant string) (Theme, error) {
	if manifest == nil {
		return Theme{}, fmt.Errorf("html presenter: theme manifest is required")
	}
	registry := theme.NewRegistry()
	if err := registry.Register(manifest); err != nil {
		return Theme{}, fmt.Errorf("html presenter: register theme %q: %w", manifest.Name, err)
	}

	tokens := make(map[string]string, len(manifest.Tokens))
	for key, value := range manifest.Tokens {
		tokens[key] = value
	}
	variant = strings.TrimSpace(variant)
	if variant != "" {
		v, ok := manifest.Variants[variant]
		if !ok {
			return Theme{}, fmt.Errorf("html presenter: theme %q has no variant %q", manifest.Name, variant)
		}
		for key, value := range v.Tokens {
			tokens[key] = value
		}
	}
	return Theme{Name: manifest.Name, Variant: variant, Tokens: tokens}, nil
}

// CSSVars maps every token to a custom property name.
func (t Theme) CSSVars() map[string]string {
	if len(t.Tokens) == 0 {
		return nil
	}
	out := make(map[string]string, len(t.Tokens))
	for key, value := range t.Tokens {
		out["--"+strings.TrimPrefix(key, "--")] = value
	}
	return out
}

// CSSVarsStyle renders the custom properties as declarations sorted by name.
func (t Theme) CSSVarsStyle() string {
	vars := t.CSSVars()
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		value := strings.NewReplacer("<", "", ">", "", ";", "", "{", "", "}", "").Replace(vars[key])
		fmt.Fprintf(&b, "%s: %s;", key, value)
	}
	return b.String()
}
