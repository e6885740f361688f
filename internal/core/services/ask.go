package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cargolens/cargolens-cli/internal/core/domain"
	"github.com/cargolens/cargolens-cli/internal/core/ports/driven"
	"github.com/cargolens/cargolens-cli/internal/core/ports/driving"
	"github.com/cargolens/cargolens-cli/internal/logger"
	"github.com/cargolens/cargolens-cli/internal/vecindex"
)

// Ensure AskService implements the interface.
var _ driving.Asker = (*AskService)(nil)

// Retrieval defaults.
const (
	DefaultTopK                = 5
	DefaultSimilarityThreshold = 0.25

	// oversampleFactor widens the index search so that filtering and
	// thresholding still leave enough candidates.
	oversampleFactor = 2
)

const answerSystemPrompt = "You are a helpful logistics document assistant. " +
	"Always cite your sources and provide accurate information based on the documents provided."

// AskService answers questions over the ingested corpus. Each query runs a
// fixed pipeline: embed the query, retrieve and filter chunks, build the
// context prompt, generate the answer, then assemble the result.
type AskService struct {
	store     driven.DocumentStore
	embedder  driven.EmbeddingService
	llm       driven.LLMService
	index     *vecindex.Index
	chunkMap  *ChunkMap
	topK      int
	threshold float64
	maxTokens int
}

// NewAskService creates a query service.
// The llm parameter is optional (can be nil); without it answers degrade
// to an explanatory message while retrieval still works.
func NewAskService(
	store driven.DocumentStore,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	index *vecindex.Index,
	chunkMap *ChunkMap,
	topK int,
	threshold float64,
	maxTokens int,
) *AskService {
	if topK < 1 {
		topK = DefaultTopK
	}
	if threshold < 0 {
		threshold = DefaultSimilarityThreshold
	}
	if maxTokens < 1 {
		maxTokens = 1000
	}
	return &AskService{
		store:     store,
		embedder:  embedder,
		llm:       llm,
		index:     index,
		chunkMap:  chunkMap,
		topK:      topK,
		threshold: threshold,
		maxTokens: maxTokens,
	}
}

// queryState carries intermediate results between pipeline stages.
type queryState struct {
	query     string
	opts      domain.QueryOptions
	topK      int
	embedding []float32
	retrieved []domain.RetrievedChunk
	prompt    string
	response  string
}

// Ask answers a question using retrieved document context.
func (s *AskService) Ask(ctx context.Context, query string, opts domain.QueryOptions) (*domain.Answer, error) {
	query = strings.TrimSpace(query)
	if query != "" && s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	logger.Section("Query Pipeline")
	logger.Debug("Query: %q", query)

	state := &queryState{query: query, opts: opts, topK: s.topK}
	if opts.TopK > 0 {
		state.topK = opts.TopK
	}

	if err := s.embedQuery(ctx, state); err != nil {
		return nil, err
	}
	if err := s.retrieveChunks(ctx, state); err != nil {
		return nil, err
	}
	s.combineContext(state)
	s.generateAnswer(ctx, state)
	return s.formatOutput(state), nil
}

// embedQuery embeds the question. An empty query yields an empty
// embedding, which flows through retrieval as "no results" rather than
// an error.
func (s *AskService) embedQuery(ctx context.Context, state *queryState) error {
	if state.query == "" {
		return nil
	}
	vec, err := s.embedder.Embed(ctx, state.query)
	if err != nil {
		return fmt.Errorf("embed query: %w", err)
	}
	state.embedding = vec
	return nil
}

// retrieveChunks searches the index wider than topK, resolves offsets to
// chunk rows, applies metadata filters and the similarity threshold, and
// keeps the best topK survivors.
func (s *AskService) retrieveChunks(ctx context.Context, state *queryState) error {
	if len(state.embedding) == 0 {
		return nil
	}
	results, err := s.index.Search(state.embedding, state.topK*oversampleFactor)
	if err != nil {
		if errors.Is(err, domain.ErrDimensionMismatch) {
			return err
		}
		return fmt.Errorf("search index: %w", err)
	}

	for _, r := range results {
		chunk, placeholder := s.resolveChunk(ctx, r.Offset)
		if chunk == nil {
			continue
		}

		if !matchesFilters(chunk, state.opts.Filters) {
			continue
		}

		similarity := vecindex.Similarity(r.Distance)
		if similarity < s.threshold {
			continue
		}

		state.retrieved = append(state.retrieved, domain.RetrievedChunk{
			Chunk:       *chunk,
			Rank:        len(state.retrieved) + 1,
			Similarity:  similarity,
			Distance:    r.Distance,
			Placeholder: placeholder,
		})
		if len(state.retrieved) >= state.topK {
			break
		}
	}

	logger.Debug("Retrieved %d relevant chunks", len(state.retrieved))
	return nil
}

// resolveChunk maps a vector offset to its chunk row. With a healthy
// identity map an unmapped offset is simply dropped. Placeholder chunks
// (id offset+1, Placeholder set) are produced only while the map is
// degraded or the row store cannot be read, so retrieval stays best
// effort through a store outage without fabricating hits against a
// healthy store.
func (s *AskService) resolveChunk(ctx context.Context, offset int) (*domain.Chunk, bool) {
	chunkID, ok := s.chunkMap.Lookup(ctx, offset)
	if !ok {
		if s.chunkMap.Degraded() {
			return &domain.Chunk{ID: int64(offset + 1)}, true
		}
		return nil, false
	}

	chunk, err := s.store.GetChunk(ctx, chunkID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false
		}
		logger.Warn("Chunk %d lookup failed: %v", chunkID, err)
		return &domain.Chunk{ID: chunkID}, true
	}
	return chunk, false
}

// matchesFilters applies exact-match metadata filters conjunctively.
func matchesFilters(chunk *domain.Chunk, filters map[string]string) bool {
	for key, want := range filters {
		var got string
		switch key {
		case "customer_name":
			got = chunk.CustomerName
		case "doc_type":
			got = chunk.DocType.String()
		case "doc_date":
			got = chunk.DocDate
		case "shipment_id":
			got = chunk.ShipmentID
		default:
			return false
		}
		if got != want {
			return false
		}
	}
	return true
}

// combineContext builds the synthesis prompt from the retrieved chunks.
func (s *AskService) combineContext(state *queryState) {
	if len(state.retrieved) == 0 {
		state.prompt = fmt.Sprintf(`Question: %s

No relevant documents found in the database. Please try rephrasing your query or check if documents have been ingested.`, state.query)
		return
	}

	var parts []string
	for _, rc := range state.retrieved {
		parts = append(parts, fmt.Sprintf(
			"[Source %d] (Relevance: %.2f%%)\nDocument Type: %s\nCustomer: %s\nDate: %s\nContent: %s\nPDF: %s",
			rc.Rank, rc.Similarity*100,
			orNA(rc.Chunk.DocType.String()), orNA(rc.Chunk.CustomerName),
			orNA(rc.Chunk.DocDate), rc.Chunk.Text, rc.Chunk.BlobURL,
		))
	}

	state.prompt = fmt.Sprintf(`You are a logistics document assistant. Answer the question using ONLY the provided document excerpts. Always cite your sources.

Question: %s

Relevant Document Excerpts:
%s

Instructions:
1. Answer the question clearly and concisely
2. Cite specific sources (e.g., "According to Source 1...")
3. If the documents don't contain enough information, say so
4. Include relevant details like customer names, dates, and document types
5. Provide the PDF links for reference

Answer:`, state.query, strings.Join(parts, "\n\n"))
}

// generateAnswer asks the model for an answer. Failures degrade to an
// explanatory message instead of failing the whole query.
func (s *AskService) generateAnswer(ctx context.Context, state *queryState) {
	if s.llm == nil {
		state.response = "No language model is configured. Set OPENAI_API_KEY to enable answer generation."
		return
	}

	answer, err := s.llm.Generate(ctx, state.prompt, driven.GenerateOptions{
		Temperature:  0.1,
		MaxTokens:    s.maxTokens,
		SystemPrompt: answerSystemPrompt,
	})
	if err != nil {
		logger.Warn("Answer generation failed: %v", err)
		state.response = fmt.Sprintf("Error generating answer: %v", err)
		return
	}
	state.response = answer
}

// formatOutput assembles the final answer with citations and counts.
func (s *AskService) formatOutput(state *queryState) *domain.Answer {
	answer := &domain.Answer{
		Query:           state.query,
		Text:            state.response,
		ChunksRetrieved: len(state.retrieved),
	}

	seen := make(map[string]struct{})
	for _, rc := range state.retrieved {
		if rc.Chunk.DocumentID != "" {
			seen[rc.Chunk.DocumentID] = struct{}{}
		}
	}
	answer.UniqueDocuments = len(seen)

	if state.opts.CitationsEnabled() {
		for _, rc := range state.retrieved {
			answer.Citations = append(answer.Citations, domain.Citation{
				Rank:         rc.Rank,
				DocumentID:   rc.Chunk.DocumentID,
				Similarity:   rc.Similarity,
				CustomerName: rc.Chunk.CustomerName,
				DocType:      rc.Chunk.DocType,
				DocDate:      rc.Chunk.DocDate,
				BlobURL:      rc.Chunk.BlobURL,
			})
		}
	}

	return answer
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
