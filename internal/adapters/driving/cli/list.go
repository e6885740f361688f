package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cargolens/cargolens-cli/internal/core/domain"
)

var (
	listLimit int
	listJSON  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	RunE:  runList,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "maximum number of documents to show")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output documents as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	docs, err := ingestService.List(cmd.Context(), listLimit)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if listJSON {
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	if len(docs) == 0 {
		cmd.Println("No documents ingested yet.")
		return nil
	}

	for i := range docs {
		d := &docs[i]
		cmd.Printf("  %s\n", d.ID)
		cmd.Printf("    File: %s (%d pages, %s)\n", d.Filename, d.PageCount, d.Status)
		cmd.Printf("    Type: %s\n", orNA(string(d.Metadata.DocType)))
		if d.Metadata.CustomerName != "" {
			cmd.Printf("    Customer: %s\n", d.Metadata.CustomerName)
		}
		if d.Metadata.DocDate != "" {
			cmd.Printf("    Date: %s\n", d.Metadata.DocDate)
		}
		if d.Status == domain.StatusFailed && d.ErrorMessage != "" {
			cmd.Printf("    Error: %s\n", d.ErrorMessage)
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}
