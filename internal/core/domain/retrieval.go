package domain

// QueryOptions configures a single Ask invocation. Zero values fall back to
// the configured defaults; options are request-scoped, never global.
type QueryOptions struct {
	// TopK overrides the default number of chunks to retrieve.
	TopK int

	// Filters maps chunk field names to required exact values.
	// Supported keys: customer_name, doc_type, doc_date, shipment_id.
	// All filters must match for a chunk to be kept.
	Filters map[string]string

	// IncludeCitations controls whether the answer carries per-source
	// citation blocks. Defaults to true.
	IncludeCitations *bool
}

// CitationsEnabled resolves the IncludeCitations default.
func (o QueryOptions) CitationsEnabled() bool {
	if o.IncludeCitations == nil {
		return true
	}
	return *o.IncludeCitations
}

// RetrievedChunk is a chunk scored against a query embedding.
type RetrievedChunk struct {
	// Chunk is the stored chunk record.
	Chunk Chunk

	// Rank is the 1-based position in the retrieval order.
	Rank int

	// Similarity is the score in [0,1] derived from vector distance.
	Similarity float64

	// Distance is the raw L2 distance from the vector index.
	Distance float64

	// Placeholder marks a chunk resolved through the degraded identity
	// mapping; its fields may not reflect a real row-store record.
	Placeholder bool
}

// Citation points a reader back at one retrieved source.
type Citation struct {
	// Rank matches the [Source N] label used in the synthesis prompt.
	Rank int

	// DocumentID is the owning document.
	DocumentID string

	// Similarity is the relevance score of the cited chunk.
	Similarity float64

	// CustomerName, DocType, DocDate and BlobURL mirror the chunk's
	// denormalised metadata for display.
	CustomerName string
	DocType      DocType
	DocDate      string
	BlobURL      string
}

// Answer is the final payload of a retrieval query.
type Answer struct {
	// Query is the original question.
	Query string

	// Text is the synthesised answer. Always present, possibly degraded.
	Text string

	// Citations lists the sources used, in rank order. Empty when
	// citations are disabled or nothing was retrieved.
	Citations []Citation

	// ChunksRetrieved is the number of chunks that survived filtering.
	ChunksRetrieved int

	// UniqueDocuments is the number of distinct documents among them.
	UniqueDocuments int
}

// IngestFailure records one failed document inside a batch ingestion.
type IngestFailure struct {
	// Filename identifies the failed input.
	Filename string

	// Err is the human-readable failure message.
	Err string
}

// IngestReport summarises a batch ingestion. Failures keep submission
// order regardless of completion order.
type IngestReport struct {
	// Total is the number of documents submitted.
	Total int

	// Processed is the number that reached completed status.
	Processed int

	// Failed is the number that ended in failed status.
	Failed int

	// DocumentIDs lists the ids of successfully ingested documents,
	// in submission order.
	DocumentIDs []string

	// Failures lists the failed documents, in submission order.
	Failures []IngestFailure
}

// Stats summarises the stored corpus.
type Stats struct {
	// TotalDocuments is the document row count.
	TotalDocuments int

	// TotalChunks is the chunk row count.
	TotalChunks int

	// UniqueCustomers is the number of distinct non-empty customer names.
	UniqueCustomers int

	// IndexedVectors is the vector index size.
	IndexedVectors int
}
