// Package ratelimit provides throttled decorators for the upstream AI
// services so that bulk ingestion stays within provider quotas.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/cargolens/cargolens-cli/internal/core/ports/driven"
)

// New creates a token bucket limiter from a requests-per-minute quota.
// The burst equals the per-minute quota so short bursts are not penalised.
func New(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute < 1 {
		requestsPerMinute = 1
	}
	return rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), requestsPerMinute)
}

// Embedder wraps an EmbeddingService with proactive throttling.
// A batch call consumes a single token regardless of batch size, matching
// how providers meter batched embedding requests.
type Embedder struct {
	inner  driven.EmbeddingService
	bucket *rate.Limiter
}

var _ driven.EmbeddingService = (*Embedder)(nil)

// NewEmbedder wraps svc so every request waits on the shared bucket.
func NewEmbedder(svc driven.EmbeddingService, bucket *rate.Limiter) *Embedder {
	return &Embedder{inner: svc, bucket: bucket}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := e.bucket.Wait(ctx); err != nil {
		return nil, err
	}
	return e.inner.Embed(ctx, text)
}

func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.bucket.Wait(ctx); err != nil {
		return nil, err
	}
	return e.inner.EmbedBatch(ctx, texts)
}

func (e *Embedder) Dimensions() int   { return e.inner.Dimensions() }
func (e *Embedder) ModelName() string { return e.inner.ModelName() }

func (e *Embedder) Ping(ctx context.Context) error {
	return e.inner.Ping(ctx)
}

func (e *Embedder) Close() error { return e.inner.Close() }

// LLM wraps an LLMService with proactive throttling.
type LLM struct {
	inner  driven.LLMService
	bucket *rate.Limiter
}

var _ driven.LLMService = (*LLM)(nil)

// NewLLM wraps svc so every generation waits on the shared bucket.
func NewLLM(svc driven.LLMService, bucket *rate.Limiter) *LLM {
	return &LLM{inner: svc, bucket: bucket}
}

func (l *LLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := l.bucket.Wait(ctx); err != nil {
		return "", err
	}
	return l.inner.Generate(ctx, prompt, opts)
}

func (l *LLM) ModelName() string { return l.inner.ModelName() }

func (l *LLM) Ping(ctx context.Context) error {
	return l.inner.Ping(ctx)
}

func (l *LLM) Close() error { return l.inner.Close() }
