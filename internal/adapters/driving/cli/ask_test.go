package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cargolens/cargolens-cli/internal/core/domain"
)

func TestAskCmd_Use(t *testing.T) {
	assert.Equal(t, "ask [question]", askCmd.Use)
}

func TestAskCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := executeCommand("ask")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestAskCmd_HasFlags(t *testing.T) {
	flag := askCmd.Flags().Lookup("top-k")
	require.NotNil(t, flag)
	assert.Equal(t, "k", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)

	for _, name := range []string{"customer", "type", "date", "shipment", "no-citations", "json"} {
		assert.NotNil(t, askCmd.Flags().Lookup(name), name)
	}
}

func TestAskCmd_RendersAnswerWithSources(t *testing.T) {
	asker := &fakeAsker{answer: &domain.Answer{
		Query: "total for Acme?",
		Text:  "The invoice total is $12,500.",
		Citations: []domain.Citation{
			{
				Rank:         1,
				DocumentID:   "doc-acme",
				Similarity:   0.91,
				CustomerName: "Acme Corp",
				DocType:      domain.DocTypeInvoice,
				DocDate:      "2024-03-15",
				BlobURL:      "file:///blobs/documents/invoice.pdf",
			},
		},
		ChunksRetrieved: 1,
		UniqueDocuments: 1,
	}}
	cleanup := setupTestServices(nil, asker)
	defer cleanup()

	out, err := executeCommand("ask", "total for Acme?")
	require.NoError(t, err)

	assert.Equal(t, "total for Acme?", asker.lastQuery)
	assert.Contains(t, out, "ANSWER")
	assert.Contains(t, out, "The invoice total is $12,500.")
	assert.Contains(t, out, "[Source 1] (Relevance: 91.00%)")
	assert.Contains(t, out, "Customer: Acme Corp")
	assert.Contains(t, out, "Sources used: 1")
	assert.Contains(t, out, "Unique documents: 1")
}

func TestAskCmd_PassesFilters(t *testing.T) {
	asker := &fakeAsker{answer: &domain.Answer{Text: "ok"}}
	cleanup := setupTestServices(nil, asker)
	defer cleanup()

	_, err := executeCommand("ask",
		"--customer", "Acme Corp",
		"--type", "invoice",
		"--date", "2024-03-15",
		"--shipment", "SHIP-9",
		"what happened?")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"customer_name": "Acme Corp",
		"doc_type":      "invoice",
		"doc_date":      "2024-03-15",
		"shipment_id":   "SHIP-9",
	}, asker.lastOpts.Filters)
}

func TestAskCmd_NoFiltersMeansNilMap(t *testing.T) {
	asker := &fakeAsker{answer: &domain.Answer{Text: "ok"}}
	cleanup := setupTestServices(nil, asker)
	defer cleanup()

	_, err := executeCommand("ask", "anything?")
	require.NoError(t, err)
	assert.Nil(t, asker.lastOpts.Filters)
}

func TestAskCmd_NoCitationsFlag(t *testing.T) {
	asker := &fakeAsker{answer: &domain.Answer{Text: "ok"}}
	cleanup := setupTestServices(nil, asker)
	defer cleanup()

	_, err := executeCommand("ask", "--no-citations", "anything?")
	require.NoError(t, err)

	require.NotNil(t, asker.lastOpts.IncludeCitations)
	assert.False(t, *asker.lastOpts.IncludeCitations)
}

func TestAskCmd_TopKFlag(t *testing.T) {
	asker := &fakeAsker{answer: &domain.Answer{Text: "ok"}}
	cleanup := setupTestServices(nil, asker)
	defer cleanup()

	_, err := executeCommand("ask", "-k", "8", "anything?")
	require.NoError(t, err)
	assert.Equal(t, 8, asker.lastOpts.TopK)
}

func TestAskCmd_JSONOutput(t *testing.T) {
	asker := &fakeAsker{answer: &domain.Answer{
		Query:           "q",
		Text:            "json answer",
		ChunksRetrieved: 2,
	}}
	cleanup := setupTestServices(nil, asker)
	defer cleanup()

	out, err := executeCommand("ask", "--json", "q")
	require.NoError(t, err)
	assert.Contains(t, out, `"Text": "json answer"`)
	assert.Contains(t, out, `"ChunksRetrieved": 2`)
	assert.NotContains(t, out, "ANSWER\n")
}

func TestAskCmd_MapsEmbeddingUnavailable(t *testing.T) {
	asker := &fakeAsker{err: domain.ErrEmbeddingUnavailable}
	cleanup := setupTestServices(nil, asker)
	defer cleanup()

	_, err := executeCommand("ask", "anything?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestAskCmd_NotConfigured(t *testing.T) {
	cleanup := setupTestServices(nil, nil)
	askService = nil
	defer cleanup()

	_, err := executeCommand("ask", "anything?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}
