package services

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cargolens/cargolens-cli/internal/adapters/driven/storage/memory"
	"github.com/cargolens/cargolens-cli/internal/core/ports/driven"
)

// failingPairsStore simulates a row store whose identity-map rebuild
// query fails while fail is set.
type failingPairsStore struct {
	*memory.DocumentStore
	fail bool
}

func (s *failingPairsStore) ListEmbeddingPairs(ctx context.Context) ([]driven.EmbeddingPair, error) {
	if s.fail {
		return nil, errors.New("store offline")
	}
	return s.DocumentStore.ListEmbeddingPairs(ctx)
}

// stubEmbedder returns canned vectors keyed by input text. Unknown texts
// get the fallback vector so tests control similarity precisely.
type stubEmbedder struct {
	dim      int
	vectors  map[string][]float32
	fallback []float32
	err      error
}

func newStubEmbedder(dim int) *stubEmbedder {
	fallback := make([]float32, dim)
	fallback[dim-1] = 1
	return &stubEmbedder{
		dim:      dim,
		vectors:  make(map[string][]float32),
		fallback: fallback,
	}
}

func (s *stubEmbedder) vectorFor(text string) []float32 {
	if v, ok := s.vectors[text]; ok {
		out := make([]float32, len(v))
		copy(out, v)
		return out
	}
	out := make([]float32, s.dim)
	copy(out, s.fallback)
	return out
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vectorFor(text), nil
}

func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = s.vectorFor(t)
	}
	return out, nil
}

func (s *stubEmbedder) Dimensions() int              { return s.dim }
func (s *stubEmbedder) ModelName() string            { return "stub-embed" }
func (s *stubEmbedder) Ping(_ context.Context) error { return nil }
func (s *stubEmbedder) Close() error                 { return nil }

// stubLLM records prompts and returns a canned response.
type stubLLM struct {
	response string
	err      error
	prompts  []string
}

func (s *stubLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubLLM) ModelName() string            { return "stub-llm" }
func (s *stubLLM) Ping(_ context.Context) error { return nil }
func (s *stubLLM) Close() error                 { return nil }

// stubExtractor hands back file contents as text.
type stubExtractor struct {
	pages int
	err   error
}

func (s *stubExtractor) Extract(ctx context.Context, path string) (*driven.Extraction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.ExtractBytes(ctx, data, filepath.Base(path))
}

func (s *stubExtractor) ExtractBytes(_ context.Context, data []byte, _ string) (*driven.Extraction, error) {
	if s.err != nil {
		return nil, s.err
	}
	pages := s.pages
	if pages == 0 {
		pages = 1
	}
	return &driven.Extraction{Text: string(data), PageCount: pages}, nil
}

func (s *stubExtractor) Extensions() []string { return []string{".txt", ".pdf"} }

// stubRegistry serves the same extractor for every registered extension.
type stubRegistry struct {
	extractor driven.TextExtractor
}

func (r *stubRegistry) ForFile(filename string) (driven.TextExtractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, supported := range r.extractor.Extensions() {
		if ext == supported {
			return r.extractor, nil
		}
	}
	return nil, errors.New("unsupported file type")
}

// stubBlob is an in-memory blob store.
type stubBlob struct {
	objects map[string][]byte
	putErr  error
}

func newStubBlob() *stubBlob {
	return &stubBlob{objects: make(map[string][]byte)}
}

func (b *stubBlob) Put(_ context.Context, r io.Reader, name string) (string, error) {
	if b.putErr != nil {
		return "", b.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	b.objects[name] = data
	return "mem://" + name, nil
}

func (b *stubBlob) Get(_ context.Context, url string) ([]byte, error) {
	name := strings.TrimPrefix(url, "mem://")
	data, ok := b.objects[name]
	if !ok {
		return nil, errors.New("blob not found: " + url)
	}
	return data, nil
}

func (b *stubBlob) List(_ context.Context, prefix string) ([]driven.BlobInfo, error) {
	var infos []driven.BlobInfo
	for name, data := range b.objects {
		if strings.HasPrefix(name, prefix) {
			infos = append(infos, driven.BlobInfo{
				Name: name,
				Size: int64(len(data)),
				URL:  "mem://" + name,
			})
		}
	}
	return infos, nil
}
