package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cargolens/cargolens-cli/internal/core/ports/driven"
)

type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	return []float32{1, 0}, nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int              { return 2 }
func (f *fakeEmbedder) ModelName() string            { return "fake-embed" }
func (f *fakeEmbedder) Ping(_ context.Context) error { return nil }
func (f *fakeEmbedder) Close() error                 { return nil }

type fakeLLM struct {
	calls int
}

func (f *fakeLLM) Generate(_ context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	f.calls++
	return "ok", nil
}

func (f *fakeLLM) ModelName() string            { return "fake-llm" }
func (f *fakeLLM) Ping(_ context.Context) error { return nil }
func (f *fakeLLM) Close() error                 { return nil }

func TestNew_ClampsQuota(t *testing.T) {
	bucket := New(0)
	assert.Equal(t, 1, bucket.Burst())
}

func TestEmbedder_PassesThrough(t *testing.T) {
	inner := &fakeEmbedder{}
	e := NewEmbedder(inner, New(600))

	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vec)

	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)

	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 2, e.Dimensions())
	assert.Equal(t, "fake-embed", e.ModelName())
}

func TestEmbedder_CancelledContext(t *testing.T) {
	// Burst of 1 at a very slow rate: the second call must block, then
	// fail once the context is cancelled.
	bucket := New(1)
	e := NewEmbedder(&fakeEmbedder{}, bucket)

	_, err := e.Embed(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = e.Embed(ctx, "second")
	assert.Error(t, err)
}

func TestLLM_PassesThrough(t *testing.T) {
	inner := &fakeLLM{}
	l := NewLLM(inner, New(600))

	out, err := l.Generate(context.Background(), "prompt", driven.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, "fake-llm", l.ModelName())
}
