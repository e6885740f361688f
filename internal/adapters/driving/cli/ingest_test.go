package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cargolens/cargolens-cli/internal/core/domain"
)

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest [path]", ingestCmd.Use)
}

func TestIngestCmd_HasFlags(t *testing.T) {
	for _, name := range []string{"watch", "remote", "prefix", "no-llm-metadata"} {
		assert.NotNil(t, ingestCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "documents/", ingestCmd.Flags().Lookup("prefix").DefValue)
}

func TestIngestCmd_RequiresPath(t *testing.T) {
	cleanup := setupTestServices(nil, nil)
	defer cleanup()

	_, err := executeCommand("ingest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")
}

func TestIngestCmd_SingleFile(t *testing.T) {
	ingestor := &fakeIngestor{}
	cleanup := setupTestServices(ingestor, nil)
	defer cleanup()

	path := filepath.Join(t.TempDir(), "invoice.txt")
	require.NoError(t, os.WriteFile(path, []byte("INVOICE #: INV-1"), 0o644))

	out, err := executeCommand("ingest", path)
	require.NoError(t, err)

	assert.Equal(t, path, ingestor.lastPath)
	assert.True(t, ingestor.lastOpts.UseLLMMetadata)
	assert.Contains(t, out, "doc-1")
}

func TestIngestCmd_NoLLMMetadataFlag(t *testing.T) {
	ingestor := &fakeIngestor{}
	cleanup := setupTestServices(ingestor, nil)
	defer cleanup()

	path := filepath.Join(t.TempDir(), "invoice.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := executeCommand("ingest", "--no-llm-metadata", path)
	require.NoError(t, err)
	assert.False(t, ingestor.lastOpts.UseLLMMetadata)
}

func TestIngestCmd_Directory(t *testing.T) {
	ingestor := &fakeIngestor{report: domain.IngestReport{
		Total:     3,
		Processed: 2,
		Failed:    1,
		Failures:  []domain.IngestFailure{{Filename: "b.txt", Err: "no text content extracted"}},
	}}
	cleanup := setupTestServices(ingestor, nil)
	defer cleanup()

	dir := t.TempDir()
	out, err := executeCommand("ingest", dir)
	require.NoError(t, err)

	assert.Equal(t, dir, ingestor.lastPath)
	assert.Contains(t, out, "Processed 2 of 3 documents (1 failed)")
	assert.Contains(t, out, "failed: b.txt")
}

func TestIngestCmd_Remote(t *testing.T) {
	ingestor := &fakeIngestor{report: domain.IngestReport{Total: 1, Processed: 1}}
	cleanup := setupTestServices(ingestor, nil)
	defer cleanup()

	out, err := executeCommand("ingest", "--remote", "--prefix", "inbox/")
	require.NoError(t, err)

	assert.Equal(t, "inbox/", ingestor.lastPrefix)
	assert.Contains(t, out, "Processed 1 of 1 documents")
}

func TestIngestCmd_RemoteRejectsPathArg(t *testing.T) {
	cleanup := setupTestServices(nil, nil)
	defer cleanup()

	_, err := executeCommand("ingest", "--remote", "somewhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--remote takes no path argument")
}

func TestIngestCmd_WatchRequiresDirectory(t *testing.T) {
	cleanup := setupTestServices(nil, nil)
	defer cleanup()

	path := filepath.Join(t.TempDir(), "one.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := executeCommand("ingest", "--watch", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--watch requires a directory")
}

func TestIngestCmd_MissingPath(t *testing.T) {
	cleanup := setupTestServices(nil, nil)
	defer cleanup()

	_, err := executeCommand("ingest", filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}

func TestIngestCmd_MapsEmbeddingUnavailable(t *testing.T) {
	ingestor := &fakeIngestor{fileErr: domain.ErrEmbeddingUnavailable}
	cleanup := setupTestServices(ingestor, nil)
	defer cleanup()

	path := filepath.Join(t.TempDir(), "invoice.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := executeCommand("ingest", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestIngestCmd_SurfacesOtherErrors(t *testing.T) {
	ingestor := &fakeIngestor{fileErr: errors.New("extract text: bad pdf")}
	cleanup := setupTestServices(ingestor, nil)
	defer cleanup()

	path := filepath.Join(t.TempDir(), "invoice.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := executeCommand("ingest", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad pdf")
}
