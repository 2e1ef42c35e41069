package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	importer "github.com/goliatone/go-formflow/pkg/importer/openapi"
)

// maxDocumentBytes caps how much of a fetched document is read.
const maxDocumentBytes = 16 << 20

var importCmd = &cobra.Command{
	Use:   "import <openapi-doc>",
	Short: "Import a form definition from an OpenAPI document",
	Long:  `Import converts one operation's request body schema into a form definition and writes it as JSON. The document is a local path or an http(s) URL. Without --operation the document must contain exactly one POST operation.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().String("operation", "", "operation ID to import")
	importCmd.Flags().String("form-id", "", "override the id of the produced definition")
	importCmd.Flags().String("out", "", "output file (stdout if empty)")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(configFile)
	if err != nil {
		return err
	}

	raw, err := readDocument(args[0])
	if err != nil {
		return err
	}

	var opts []importer.Option
	if opID, _ := cmd.Flags().GetString("operation"); opID != "" {
		opts = append(opts, importer.WithOperationID(opID))
	}
	if formID, _ := cmd.Flags().GetString("form-id"); formID != "" {
		opts = append(opts, importer.WithFormID(formID))
	}

	def, err := importer.Import(context.Background(), raw, opts...)
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return fmt.Errorf("encode definition: %w", err)
	}
	encoded = append(encoded, '\n')

	output, _ := cmd.Flags().GetString("out")
	if output == "" {
		fmt.Print(string(encoded))
		return nil
	}
	if err := os.WriteFile(output, encoded, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if cfg.logsAt("info") {
		fmt.Printf("Definition written to %s\n", output)
	}
	return nil
}

func readDocument(source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		resp, err := http.Get(source)
		if err != nil {
			return nil, fmt.Errorf("fetch document: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch document: status %d", resp.StatusCode)
		}
		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
		if err != nil {
			return nil, fmt.Errorf("read document: %w", err)
		}
		return raw, nil
	}
	raw, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return raw, nil
}
