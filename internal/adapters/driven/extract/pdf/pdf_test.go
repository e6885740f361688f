package pdf

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error
	name   string
	args   []string
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.name = name
	m.args = args
	return m.output, m.err
}

func TestExtract_PageMarkers(t *testing.T) {
	runner := &mockRunner{output: []byte("first page text\ffifth of may\f")}
	e := New(WithRunner(runner))

	// pdfcpu cannot parse a nonexistent file, so the page count falls
	// back to the form feed count.
	extraction, err := e.Extract(context.Background(), "/tmp/doc.pdf")
	require.NoError(t, err)

	assert.Equal(t, "pdftotext", runner.name)
	assert.Contains(t, runner.args, "/tmp/doc.pdf")
	assert.Contains(t, extraction.Text, "[Page 1] first page text")
	assert.Contains(t, extraction.Text, "[Page 2] fifth of may")
	assert.Equal(t, 2, extraction.PageCount)
}

func TestExtract_RunnerError(t *testing.T) {
	e := New(WithRunner(&mockRunner{err: errors.New("pdftotext: command not found")}))

	_, err := e.Extract(context.Background(), "/tmp/doc.pdf")
	assert.Error(t, err)
}

func TestExtensions(t *testing.T) {
	assert.Equal(t, []string{".pdf"}, New().Extensions())
}

func TestMarkPages(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantPages int
	}{
		{"single page", "only page", 1},
		{"trailing form feed", "page one\f", 1},
		{"multiple pages", "one\ftwo\fthree\f", 3},
		{"empty output", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, pages := markPages(tt.raw)
			assert.Equal(t, tt.wantPages, pages)
		})
	}
}
