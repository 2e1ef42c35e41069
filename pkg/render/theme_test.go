package render_test

import (
	"testing"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formflow/pkg/render"
)

func TestThemeConfigMergesLayers(t *testing.T) {
	manifest := &theme.Manifest{
		Name:    "acme",
		Version: "1.0.0",
		Tokens: map[string]string{
			"brand": "#123456",
		},
		Templates: map[string]string{
			"forms.input": "themes/acme/input.html",
		},
		Assets: theme.Assets{
			Prefix: "/assets/themes/acme",
			Files: map[string]string{
				"stylesheet": "theme.css",
			},
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{
					"brand": "#654321",
				},
				Templates: map[string]string{
					"forms.checkbox": "themes/acme/dark/checkbox.html",
				},
				Assets: theme.Assets{
					Files: map[string]string{
						"stylesheet": "theme.dark.css",
					},
				},
			},
		},
	}

	fallbacks := map[string]string{
		"forms.input":    "defaults/input.html",
		"forms.textarea": "defaults/textarea.html",
	}

	cfg := render.ThemeConfig(&theme.Selection{
		Theme:    "acme",
		Variant:  "dark",
		Manifest: manifest,
	}, fallbacks)

	if cfg == nil {
		t.Fatal("expected renderer config")
	}
	if cfg.Theme != "acme" || cfg.Variant != "dark" {
		t.Fatalf("selection not carried: %q/%q", cfg.Theme, cfg.Variant)
	}
	if cfg.Partials["forms.input"] != "themes/acme/input.html" {
		t.Fatalf("manifest template should override fallback, got %q", cfg.Partials["forms.input"])
	}
	if cfg.Partials["forms.checkbox"] != "themes/acme/dark/checkbox.html" {
		t.Fatalf("variant template missing, got %q", cfg.Partials["forms.checkbox"])
	}
	if cfg.Partials["forms.textarea"] != "defaults/textarea.html" {
		t.Fatalf("fallback partial lost, got %q", cfg.Partials["forms.textarea"])
	}
	if cfg.Tokens["brand"] != "#654321" {
		t.Fatalf("variant token should win, got %q", cfg.Tokens["brand"])
	}
	if cfg.CSSVars["--brand"] != "#654321" {
		t.Fatalf("css var not derived, got %q", cfg.CSSVars["--brand"])
	}
	if cfg.AssetURL == nil {
		t.Fatal("expected asset resolver")
	}
	if got := cfg.AssetURL("stylesheet"); got != "/assets/themes/acme/theme.dark.css" {
		t.Fatalf("asset url = %q", got)
	}
	if got := cfg.AssetURL("unknown"); got != "" {
		t.Fatalf("unknown asset should resolve empty, got %q", got)
	}
}

func TestThemeConfigNilSelection(t *testing.T) {
	if cfg := render.ThemeConfig(nil, nil); cfg != nil {
		t.Fatalf("nil selection should yield nil config, got %+v", cfg)
	}
}

func TestThemeConfigWithoutManifest(t *testing.T) {
	cfg := render.ThemeConfig(&theme.Selection{Theme: "bare"}, map[string]string{
		"forms.input": "defaults/input.html",
	})
	if cfg == nil || cfg.Theme != "bare" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Partials["forms.input"] != "defaults/input.html" {
		t.Fatalf("fallbacks should survive a bare selection, got %q", cfg.Partials["forms.input"])
	}
}
