package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	formflow "github.com/goliatone/go-formflow"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/renderers/classic"
)

func main() {
	ctx := context.Background()

	const (
		definitionPath = "examples/fixtures/signup.json"
		outputPath     = "preview/signup-form.html"
	)

	def, err := formflow.Load(definitionPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load definition: %v\n", err)
		os.Exit(1)
	}

	renderer, err := classic.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build renderer: %v\n", err)
		os.Exit(1)
	}

	view := formflow.NewView(def, formflow.AnswerMap{})
	html, err := renderer.Render(ctx, view, render.RenderOptions{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render form: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(outputPath, html, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Generated signup form HTML (%d bytes) → %s\n", len(html), outputPath)
}
