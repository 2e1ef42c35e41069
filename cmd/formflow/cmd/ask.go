package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formflow/pkg/formdef"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/renderers/conversational"
	"github.com/goliatone/go-formflow/pkg/submit"
)

var askCmd = &cobra.Command{
	Use:   "ask <definition>",
	Short: "Fill a form interactively in the terminal",
	Long:  `Ask walks the form one question at a time, revealing follow-up fields as answers come in. The collected answers print to stdout, or POST to a submission endpoint with --submit.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().Bool("submit", false, "POST the collected answers to the submission endpoint")
	askCmd.Flags().String("endpoint", "", "submission endpoint URL (defaults to submit.endpoint config)")
	askCmd.Flags().String("format", "json", "output format (json, form, pretty); ignored with --submit")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(configFile)
	if err != nil {
		return err
	}

	def, err := formdef.Load(args[0])
	if err != nil {
		return err
	}

	shouldSubmit, _ := cmd.Flags().GetBool("submit")
	endpoint, _ := cmd.Flags().GetString("endpoint")
	if endpoint == "" {
		endpoint = cfg.Submit.Endpoint
	}
	if shouldSubmit && endpoint == "" {
		return errors.New("submission endpoint is not configured (set --endpoint or FORMFLOW_SUBMIT_ENDPOINT)")
	}

	format, _ := cmd.Flags().GetString("format")
	outputFormat := conversational.OutputFormat(format)
	switch outputFormat {
	case conversational.OutputFormatJSON, conversational.OutputFormatFormURLEncoded, conversational.OutputFormatPrettyText:
	default:
		return fmt.Errorf("unknown format %q (expected json, form, or pretty)", format)
	}
	if shouldSubmit {
		outputFormat = conversational.OutputFormatJSON
	}

	renderer, err := conversational.New(conversational.WithOutputFormat(outputFormat))
	if err != nil {
		return err
	}

	ctx := context.Background()
	view := render.NewView(def, formdef.AnswerMap{})
	out, err := renderer.Render(ctx, view, render.RenderOptions{})
	if err != nil {
		if errors.Is(err, conversational.ErrAborted) {
			return errors.New("aborted")
		}
		return err
	}

	if !shouldSubmit {
		fmt.Println(string(out))
		return nil
	}

	var answers formdef.AnswerMap
	if err := json.Unmarshal(out, &answers); err != nil {
		return fmt.Errorf("decode collected answers: %w", err)
	}

	client := submit.New(
		submit.WithEndpoint(endpoint),
		submit.WithTimeout(cfg.Submit.Timeout),
	)
	resp, err := client.Submit(ctx, submit.Request{
		Definition: def,
		Answers:    answers,
		Metadata:   map[string]any{"source": "cli"},
	})
	if err != nil {
		return err
	}

	if !resp.Success {
		printRejection(resp)
		return fmt.Errorf("submission rejected (status %d)", resp.Status)
	}

	if cfg.logsAt("info") {
		fmt.Println("Submitted.")
		if resp.RedirectURL != "" {
			fmt.Printf("Next: %s\n", resp.RedirectURL)
		}
	}
	return nil
}

func printRejection(resp *submit.Response) {
	ids := make([]string, 0, len(resp.FieldErrors))
	for id := range resp.FieldErrors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(os.Stderr, "%s: %s\n", id, resp.FieldErrors[id])
	}
	for _, msg := range resp.FormErrors {
		fmt.Fprintln(os.Stderr, msg)
	}
}
