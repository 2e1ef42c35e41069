package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formflow/pkg/formdef"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/renderers/canvas"
	"github.com/goliatone/go-formflow/pkg/renderers/classic"
)

var renderCmd = &cobra.Command{
	Use:   "render <definition>",
	Short: "Render a form definition",
	Long:  `Render resolves the visible fields for the given answers and writes the renderer output. Use "ask" for the interactive terminal flow.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().String("renderer", "", "renderer to use (classic, canvas)")
	renderCmd.Flags().StringArray("answers", nil, "prefilled answer as key=value (repeatable)")
	renderCmd.Flags().String("out", "", "output file (stdout if empty)")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(configFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("renderer") {
		cfg.Renderer, _ = cmd.Flags().GetString("renderer")
	}

	def, err := formdef.Load(args[0])
	if err != nil {
		return err
	}

	pairs, _ := cmd.Flags().GetStringArray("answers")
	answers, err := parseAnswers(pairs)
	if err != nil {
		return err
	}

	registry, err := newRegistry()
	if err != nil {
		return err
	}
	renderer, err := registry.Get(cfg.Renderer)
	if err != nil {
		return err
	}

	view := render.NewView(def, answers)
	out, err := renderer.Render(context.Background(), view, render.RenderOptions{})
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("out")
	if output == "" {
		fmt.Println(string(out))
		return nil
	}
	if err := os.WriteFile(output, out, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if cfg.logsAt("info") {
		fmt.Printf("Form written to %s\n", output)
	}
	return nil
}

// newRegistry builds the registry of non-interactive renderers shared by the
// render and serve commands.
func newRegistry() (*render.Registry, error) {
	registry := render.NewRegistry()

	classicRenderer, err := classic.New()
	if err != nil {
		return nil, fmt.Errorf("build classic renderer: %w", err)
	}
	if err := registry.Register(classicRenderer); err != nil {
		return nil, err
	}

	canvasRenderer, err := canvas.New()
	if err != nil {
		return nil, fmt.Errorf("build canvas renderer: %w", err)
	}
	if err := registry.Register(canvasRenderer); err != nil {
		return nil, err
	}

	return registry, nil
}

// parseAnswers turns repeated key=value flags into an answer map. Values stay
// strings; the validation layer coerces numeric input itself.
func parseAnswers(pairs []string) (formdef.AnswerMap, error) {
	answers := formdef.AnswerMap{}
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --answers value %q (expected key=value)", pair)
		}
		answers[strings.TrimSpace(key)] = value
	}
	return answers, nil
}
