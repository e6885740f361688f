package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cargolens/cargolens-cli/internal/chunker"
	"github.com/cargolens/cargolens-cli/internal/core/domain"
	"github.com/cargolens/cargolens-cli/internal/core/ports/driven"
	"github.com/cargolens/cargolens-cli/internal/core/ports/driving"
	"github.com/cargolens/cargolens-cli/internal/logger"
	"github.com/cargolens/cargolens-cli/internal/vecindex"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// DefaultIngestConcurrency bounds how many documents are processed at once.
const DefaultIngestConcurrency = 5

// IngestService coordinates document ingestion: extraction, metadata,
// chunking, embedding, vector indexing and row storage.
type IngestService struct {
	store       driven.DocumentStore
	blob        driven.BlobStore
	extractors  driven.ExtractorRegistry
	metadata    driven.MetadataExtractor
	embedder    driven.EmbeddingService
	splitter    *chunker.Chunker
	index       *vecindex.Index
	chunkMap    *ChunkMap
	concurrency int

	// writeMu serialises the index append with the chunk insert so that
	// vector offsets and chunk rows never interleave across documents.
	writeMu sync.Mutex
}

// NewIngestService creates an ingestion coordinator.
// The blob store is optional (can be nil); without it remote ingestion is
// unavailable and local files are not archived.
func NewIngestService(
	store driven.DocumentStore,
	blob driven.BlobStore,
	extractors driven.ExtractorRegistry,
	metadata driven.MetadataExtractor,
	embedder driven.EmbeddingService,
	splitter *chunker.Chunker,
	index *vecindex.Index,
	chunkMap *ChunkMap,
	concurrency int,
) *IngestService {
	if concurrency < 1 {
		concurrency = DefaultIngestConcurrency
	}
	return &IngestService{
		store:       store,
		blob:        blob,
		extractors:  extractors,
		metadata:    metadata,
		embedder:    embedder,
		splitter:    splitter,
		index:       index,
		chunkMap:    chunkMap,
		concurrency: concurrency,
	}
}

// IngestFile processes one local file and returns its document id.
func (s *IngestService) IngestFile(ctx context.Context, path string, opts driving.IngestOptions) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return s.ingestBytes(ctx, data, filepath.Base(path), path, "", opts)
}

// IngestDirectory processes every supported file in a directory. Documents
// run concurrently up to the configured limit; the report lists results in
// submission order regardless of completion order.
func (s *IngestService) IngestDirectory(ctx context.Context, dir string, opts driving.IngestOptions) (*domain.IngestReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := s.extractors.ForFile(e.Name()); err != nil {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	logger.Section("Directory Ingestion")
	logger.Info("Found %d supported files in %s", len(paths), dir)

	return s.runBatch(ctx, len(paths), func(i int) (string, string, error) {
		id, err := s.IngestFile(ctx, paths[i], opts)
		return filepath.Base(paths[i]), id, err
	})
}

// IngestRemote lists the blob store under prefix and processes each object.
func (s *IngestService) IngestRemote(ctx context.Context, prefix string, opts driving.IngestOptions) (*domain.IngestReport, error) {
	if s.blob == nil {
		return nil, domain.ErrBlobStoreUnavailable
	}

	blobs, err := s.blob.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list blobs under %q: %w", prefix, err)
	}

	var supported []driven.BlobInfo
	for _, b := range blobs {
		if _, err := s.extractors.ForFile(b.Name); err != nil {
			continue
		}
		supported = append(supported, b)
	}
	sort.Slice(supported, func(i, j int) bool { return supported[i].Name < supported[j].Name })

	logger.Section("Remote Ingestion")
	logger.Info("Found %d supported blobs under %q", len(supported), prefix)

	return s.runBatch(ctx, len(supported), func(i int) (string, string, error) {
		b := supported[i]
		data, err := s.blob.Get(ctx, b.URL)
		if err != nil {
			return b.Name, "", fmt.Errorf("fetch %s: %w", b.Name, err)
		}
		id, err := s.ingestBytes(ctx, data, filepath.Base(b.Name), "", b.URL, opts)
		return b.Name, id, err
	})
}

// batchResult captures one document's outcome at its submission index.
type batchResult struct {
	filename string
	docID    string
	err      error
}

// runBatch executes n jobs with bounded concurrency. One document's
// failure never aborts the others.
func (s *IngestService) runBatch(ctx context.Context, n int, job func(i int) (filename, docID string, err error)) (*domain.IngestReport, error) {
	results := make([]batchResult, n)

	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			filename, docID, err := job(i)
			results[i] = batchResult{filename: filename, docID: docID, err: err}
		}(i)
	}
	wg.Wait()

	report := &domain.IngestReport{Total: n}
	for _, r := range results {
		if r.err != nil {
			report.Failed++
			report.Failures = append(report.Failures, domain.IngestFailure{
				Filename: r.filename,
				Err:      r.err.Error(),
			})
			continue
		}
		report.Processed++
		report.DocumentIDs = append(report.DocumentIDs, r.docID)
	}

	logger.Info("Batch complete: %d processed, %d failed", report.Processed, report.Failed)
	return report, nil
}

// ingestBytes runs the full pipeline for one document. The document row is
// created in processing status up front so failures leave an auditable
// failed record rather than nothing.
func (s *IngestService) ingestBytes(
	ctx context.Context, data []byte, filename, localPath, blobURL string, opts driving.IngestOptions,
) (string, error) {
	if s.embedder == nil {
		return "", domain.ErrEmbeddingUnavailable
	}

	hash := sha256.Sum256(data)

	doc := &domain.Document{
		ID:        uuid.NewString(),
		Filename:  filename,
		LocalPath: localPath,
		BlobURL:   blobURL,
		FileSize:  int64(len(data)),
		FileHash:  hex.EncodeToString(hash[:]),
		Status:    domain.StatusProcessing,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return "", fmt.Errorf("save document: %w", err)
	}

	if err := s.processDocument(ctx, doc, data, opts); err != nil {
		if updateErr := s.store.UpdateStatus(ctx, doc.ID, domain.StatusFailed, err.Error()); updateErr != nil {
			logger.Warn("Failed to record failure for %s: %v", filename, updateErr)
		}
		return "", fmt.Errorf("%s: %w", filename, err)
	}

	if err := s.store.UpdateStatus(ctx, doc.ID, domain.StatusCompleted, ""); err != nil {
		return "", fmt.Errorf("mark completed: %w", err)
	}

	if err := s.index.Persist(); err != nil {
		logger.Warn("Failed to persist vector index: %v", err)
	}

	logger.Info("Ingested %s (%s)", filename, doc.ID)
	return doc.ID, nil
}

func (s *IngestService) processDocument(
	ctx context.Context, doc *domain.Document, data []byte, opts driving.IngestOptions,
) error {
	extractor, err := s.extractors.ForFile(doc.Filename)
	if err != nil {
		return err
	}

	extraction, err := extractor.ExtractBytes(ctx, data, doc.Filename)
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}

	text := chunker.Clean(extraction.Text)
	if text == "" {
		return domain.ErrEmptyDocument
	}

	doc.PageCount = extraction.PageCount
	doc.Metadata = s.metadata.ExtractMetadata(ctx, text, doc.Filename, opts.UseLLMMetadata)
	logger.Debug("Metadata for %s: type=%s customer=%q date=%s",
		doc.Filename, doc.Metadata.DocType, doc.Metadata.CustomerName, doc.Metadata.DocDate)

	// Archive the source before chunking so the chunk rows can carry the
	// blob reference.
	if s.blob != nil && doc.BlobURL == "" {
		url, err := s.blob.Put(ctx, bytes.NewReader(data), "documents/"+doc.Filename)
		if err != nil {
			logger.Warn("Blob upload failed for %s: %v", doc.Filename, err)
		} else {
			doc.BlobURL = url
		}
	}

	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("update document: %w", err)
	}

	pieces := s.splitter.Chunk(text)
	if len(pieces) == 0 {
		return domain.ErrEmptyDocument
	}
	logger.Debug("Split %s into %d chunks", doc.Filename, len(pieces))

	vectors, err := s.embedder.EmbedBatch(ctx, pieces)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(pieces) {
		return fmt.Errorf("embedding count mismatch: %d texts, %d vectors", len(pieces), len(vectors))
	}

	// Appending to the index and inserting the rows must not interleave
	// with another document, or offsets would point at the wrong chunks.
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	offsets, err := s.index.Add(vectors)
	if err != nil {
		return fmt.Errorf("index vectors: %w", err)
	}

	chunks := make([]domain.Chunk, len(pieces))
	for i, piece := range pieces {
		embeddingID := int64(offsets[i])
		chunks[i] = domain.Chunk{
			DocumentID:   doc.ID,
			Position:     i,
			Text:         piece,
			EmbeddingID:  &embeddingID,
			CustomerName: doc.Metadata.CustomerName,
			DocType:      doc.Metadata.DocType,
			DocDate:      doc.Metadata.DocDate,
			ShipmentID:   doc.Metadata.ShipmentID,
			BlobURL:      doc.BlobURL,
		}
	}

	if _, err := s.store.InsertChunks(ctx, chunks); err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}

	if err := s.chunkMap.Refresh(ctx); err != nil {
		logger.Warn("Chunk map refresh failed after ingesting %s: %v", doc.Filename, err)
	}

	return nil
}

// Delete removes a document and its chunks from the row store. Vectors
// already in the index stay there; retrieval treats their offsets as
// unmapped afterwards.
func (s *IngestService) Delete(ctx context.Context, docID string) error {
	if strings.TrimSpace(docID) == "" {
		return fmt.Errorf("%w: empty document id", domain.ErrInvalidInput)
	}
	if err := s.store.DeleteDocument(ctx, docID); err != nil {
		return err
	}
	if err := s.chunkMap.Refresh(ctx); err != nil {
		logger.Warn("Chunk map refresh failed after delete: %v", err)
	}
	return nil
}

// List returns up to limit recent documents.
func (s *IngestService) List(ctx context.Context, limit int) ([]domain.Document, error) {
	return s.store.ListDocuments(ctx, limit)
}

// Stats reports corpus counts, combining the row store with the index.
func (s *IngestService) Stats(ctx context.Context) (*domain.Stats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	stats.IndexedVectors = s.index.Count()
	return stats, nil
}
