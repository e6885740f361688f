// Package chunker splits cleaned document text into overlapping,
// boundary-aware substrings sized for embedding.
package chunker

import (
	"regexp"
	"strings"
)

// DefaultChunkSize is the default chunk size in approximate tokens.
const DefaultChunkSize = 800

// DefaultOverlap is the default overlap between chunks in approximate tokens.
const DefaultOverlap = 100

// charsPerToken approximates tokens as characters. No real tokenizer is
// used; 4 characters per token is close enough for sizing chunks.
const charsPerToken = 4

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	pageMarkerRe = regexp.MustCompile(`\[Page \d+\]\s*`)
)

// Chunker produces overlapping text chunks that prefer sentence and word
// boundaries over hard character cuts.
type Chunker struct {
	chunkSize int // tokens
	overlap   int // tokens
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in approximate tokens.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in approximate tokens.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
// An overlap at or above the chunk size would stall the scan, so it is
// clamped to a quarter of the chunk size.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// ChunkSize returns the configured chunk size in tokens.
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

// Overlap returns the configured overlap in tokens.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Chunk cleans the text and splits it into ordered, overlapping chunks.
// Empty or whitespace-only input yields no chunks; callers treat that as
// an ingestion failure.
func (c *Chunker) Chunk(text string) []string {
	text = Clean(text)
	if text == "" {
		return nil
	}

	charSize := c.chunkSize * charsPerToken
	charOverlap := c.overlap * charsPerToken

	var chunks []string
	start := 0

	for start < len(text) {
		end := start + charSize
		if end >= len(text) {
			end = len(text)
		} else {
			// Prefer a sentence boundary, but only past the midpoint
			// so short fragments never become their own chunk.
			periodPos := strings.LastIndex(text[start:end], ". ")
			if periodPos > charSize/2 {
				end = start + periodPos + 1
			} else if spacePos := strings.LastIndex(text[start:end], " "); spacePos > 0 {
				end = start + spacePos
			}
		}

		if chunk := strings.TrimSpace(text[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end < len(text) {
			next := end - charOverlap
			if next <= start {
				next = end
			}
			start = next
		} else {
			start = end
		}
	}

	return chunks
}

// Clean normalises extracted text before chunking: consecutive whitespace
// collapses to single spaces, transient [Page N] markers and NUL bytes are
// removed, and the result is trimmed.
func Clean(text string) string {
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = pageMarkerRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "\x00", "")
	return strings.TrimSpace(text)
}
