package render

import (
	"strings"

	theme "github.com/goliatone/go-theme"
)

// ThemeConfig flattens a go-theme selection into the renderer-facing
// configuration: fallback partials under manifest templates under
// variant templates, tokens merged the same way, CSS variables derived
// from the merged tokens, and an asset resolver rooted at the manifest's
// asset prefix.
func ThemeConfig(sel *theme.Selection, fallbacks map[string]string) *theme.RendererConfig {
	if sel == nil {
		return nil
	}

	cfg := &theme.RendererConfig{
		Theme:    sel.Theme,
		Variant:  sel.Variant,
		Partials: mergeStringMaps(fallbacks),
		Tokens:   map[string]string{},
		CSSVars:  map[string]string{},
	}

	manifest := sel.Manifest
	if manifest == nil {
		return cfg
	}

	cfg.Partials = mergeStringMaps(fallbacks, manifest.Templates)
	cfg.Tokens = mergeStringMaps(manifest.Tokens)

	prefix := manifest.Assets.Prefix
	files := mergeStringMaps(manifest.Assets.Files)

	if sel.Variant != "" {
		if variant, ok := manifest.Variants[sel.Variant]; ok {
			cfg.Partials = mergeStringMaps(cfg.Partials, variant.Templates)
			cfg.Tokens = mergeStringMaps(cfg.Tokens, variant.Tokens)
			if variant.Assets.Prefix != "" {
				prefix = variant.Assets.Prefix
			}
			files = mergeStringMaps(files, variant.Assets.Files)
		}
	}

	for key, value := range cfg.Tokens {
		cfg.CSSVars["--"+key] = value
	}

	cfg.AssetURL = assetResolver(prefix, files)
	return cfg
}

func assetResolver(prefix string, files map[string]string) func(string) string {
	return func(key string) string {
		name, ok := files[key]
		if !ok || name == "" {
			return ""
		}
		if strings.HasPrefix(name, "/") || strings.Contains(name, "://") {
			return name
		}
		base := strings.TrimSuffix(prefix, "/")
		if base == "" {
			return "/" + name
		}
		return base + "/" + name
	}
}

func mergeStringMaps(maps ...map[string]string) map[string]string {
	out := map[string]string{}
	for _, m := range maps {
		for key, value := range m {
			if strings.TrimSpace(key) == "" {
				continue
			}
			out[key] = value
		}
	}
	return out
}
