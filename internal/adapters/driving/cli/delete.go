package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete an ingested document",
	Long: `Removes a document and its chunks from the store. Index vectors for
deleted chunks stay allocated but can no longer be resolved, so they
never appear in answers.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	docID := args[0]
	if err := ingestService.Delete(cmd.Context(), docID); err != nil {
		return fmt.Errorf("failed to delete %s: %w", docID, err)
	}

	cmd.Printf("Deleted %s\n", docID)
	return nil
}
