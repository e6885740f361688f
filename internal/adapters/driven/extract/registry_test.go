package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cargolens/cargolens-cli/internal/adapters/driven/extract/pdf"
	"github.com/cargolens/cargolens-cli/internal/adapters/driven/extract/plaintext"
	"github.com/cargolens/cargolens-cli/internal/core/domain"
)

func TestRegistry_ForFile(t *testing.T) {
	r := NewRegistry(plaintext.New(), pdf.New())

	e, err := r.ForFile("invoice.PDF")
	require.NoError(t, err)
	assert.Contains(t, e.Extensions(), ".pdf")

	e, err = r.ForFile("notes.txt")
	require.NoError(t, err)
	assert.Contains(t, e.Extensions(), ".txt")

	_, err = r.ForFile("image.png")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFile)

	_, err = r.ForFile("noextension")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFile)
}

func TestRegistry_Extensions(t *testing.T) {
	r := NewRegistry(pdf.New())
	assert.ElementsMatch(t, []string{".pdf"}, r.Extensions())
}
