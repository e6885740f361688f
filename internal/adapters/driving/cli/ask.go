package cli

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cargolens/cargolens-cli/internal/core/domain"
)

var (
	askTopK        int
	askCustomer    string
	askDocType     string
	askDate        string
	askShipment    string
	askNoCitations bool
	askJSON        bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the ingested documents",
	Long: `Runs the retrieval pipeline: embeds the question, finds the most
relevant chunks, and synthesises an answer with cited sources.
Filters restrict retrieval to chunks whose metadata matches exactly.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of chunks to retrieve")
	askCmd.Flags().StringVar(&askCustomer, "customer", "", "filter by customer name")
	askCmd.Flags().StringVar(&askDocType, "type", "", "filter by document type")
	askCmd.Flags().StringVar(&askDate, "date", "", "filter by document date (YYYY-MM-DD)")
	askCmd.Flags().StringVar(&askShipment, "shipment", "", "filter by shipment id")
	askCmd.Flags().BoolVar(&askNoCitations, "no-citations", false, "omit source citations")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askService == nil {
		return errors.New("ask service not configured")
	}

	opts := domain.QueryOptions{
		TopK:    askTopK,
		Filters: askFilters(),
	}
	if askNoCitations {
		include := false
		opts.IncludeCitations = &include
	}

	answer, err := askService.Ask(cmd.Context(), args[0], opts)
	if err != nil {
		return mapModelErr(err)
	}

	if askJSON {
		return outputAskJSON(cmd, answer)
	}
	outputAskText(cmd, answer)
	return nil
}

func askFilters() map[string]string {
	filters := make(map[string]string)
	if askCustomer != "" {
		filters["customer_name"] = askCustomer
	}
	if askDocType != "" {
		filters["doc_type"] = askDocType
	}
	if askDate != "" {
		filters["doc_date"] = askDate
	}
	if askShipment != "" {
		filters["shipment_id"] = askShipment
	}
	if len(filters) == 0 {
		return nil
	}
	return filters
}

func outputAskJSON(cmd *cobra.Command, answer *domain.Answer) error {
	data, err := json.MarshalIndent(answer, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(data))
	return nil
}

func outputAskText(cmd *cobra.Command, answer *domain.Answer) {
	divider := strings.Repeat("=", 80)

	cmd.Println(divider)
	cmd.Println("ANSWER")
	cmd.Println(divider)
	cmd.Println()
	cmd.Println(answer.Text)
	cmd.Println()

	if len(answer.Citations) > 0 {
		cmd.Println(divider)
		cmd.Println("SOURCES")
		cmd.Println(divider)
		cmd.Println()
		for _, c := range answer.Citations {
			cmd.Printf("[Source %d] (Relevance: %.2f%%)\n", c.Rank, c.Similarity*100)
			cmd.Printf("  Customer: %s\n", orNA(c.CustomerName))
			cmd.Printf("  Type: %s\n", orNA(string(c.DocType)))
			cmd.Printf("  Date: %s\n", orNA(c.DocDate))
			cmd.Printf("  Document: %s\n", c.BlobURL)
			cmd.Println()
		}
	}

	cmd.Println(divider)
	cmd.Println("METADATA")
	cmd.Println(divider)
	cmd.Printf("Sources used: %d\n", answer.ChunksRetrieved)
	cmd.Printf("Unique documents: %d\n", answer.UniqueDocuments)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
