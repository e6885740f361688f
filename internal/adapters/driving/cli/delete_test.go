package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteCmd_Use(t *testing.T) {
	assert.Equal(t, "delete [doc-id]", deleteCmd.Use)
}

func TestDeleteCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := executeCommand("delete")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestDeleteCmd_DeletesDocument(t *testing.T) {
	ingestor := &fakeIngestor{}
	cleanup := setupTestServices(ingestor, nil)
	defer cleanup()

	out, err := executeCommand("delete", "doc-acme")
	require.NoError(t, err)

	assert.Equal(t, []string{"doc-acme"}, ingestor.deleted)
	assert.Contains(t, out, "Deleted doc-acme")
}

func TestDeleteCmd_SurfacesNotFound(t *testing.T) {
	ingestor := &fakeIngestor{}
	cleanup := setupTestServices(ingestor, nil)
	defer cleanup()

	_, err := executeCommand("delete", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
