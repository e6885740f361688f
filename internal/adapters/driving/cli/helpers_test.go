package cli

import (
	"bytes"
	"context"

	"github.com/cargolens/cargolens-cli/internal/core/domain"
	"github.com/cargolens/cargolens-cli/internal/core/ports/driving"
)

// fakeIngestor records calls and returns canned results.
type fakeIngestor struct {
	docs    []domain.Document
	stats   domain.Stats
	report  domain.IngestReport
	fileErr error

	lastPath   string
	lastPrefix string
	lastOpts   driving.IngestOptions
	deleted    []string
	listLimit  int
}

func (f *fakeIngestor) IngestFile(_ context.Context, path string, opts driving.IngestOptions) (string, error) {
	f.lastPath = path
	f.lastOpts = opts
	if f.fileErr != nil {
		return "", f.fileErr
	}
	return "doc-1", nil
}

func (f *fakeIngestor) IngestDirectory(_ context.Context, dir string, opts driving.IngestOptions) (*domain.IngestReport, error) {
	f.lastPath = dir
	f.lastOpts = opts
	report := f.report
	return &report, nil
}

func (f *fakeIngestor) IngestRemote(_ context.Context, prefix string, opts driving.IngestOptions) (*domain.IngestReport, error) {
	f.lastPrefix = prefix
	f.lastOpts = opts
	report := f.report
	return &report, nil
}

func (f *fakeIngestor) Delete(_ context.Context, docID string) error {
	f.deleted = append(f.deleted, docID)
	if docID == "missing" {
		return domain.ErrNotFound
	}
	return nil
}

func (f *fakeIngestor) List(_ context.Context, limit int) ([]domain.Document, error) {
	f.listLimit = limit
	return f.docs, nil
}

func (f *fakeIngestor) Stats(_ context.Context) (*domain.Stats, error) {
	stats := f.stats
	return &stats, nil
}

// fakeAsker records the query and options it was called with.
type fakeAsker struct {
	answer *domain.Answer
	err    error

	lastQuery string
	lastOpts  domain.QueryOptions
}

func (f *fakeAsker) Ask(_ context.Context, query string, opts domain.QueryOptions) (*domain.Answer, error) {
	f.lastQuery = query
	f.lastOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

// setupTestServices wires fake services into the command tree and resets
// flag state afterwards.
func setupTestServices(ingestor *fakeIngestor, asker *fakeAsker) func() {
	if ingestor != nil {
		ingestService = ingestor
	} else {
		ingestService = &fakeIngestor{}
	}
	if asker != nil {
		askService = asker
	} else {
		askService = &fakeAsker{answer: &domain.Answer{Text: "ok"}}
	}

	return func() {
		ingestService = nil
		askService = nil

		ingestWatch = false
		ingestRemote = false
		ingestPrefix = "documents/"
		ingestNoLLMMeta = false
		askTopK = 0
		askCustomer = ""
		askDocType = ""
		askDate = ""
		askShipment = ""
		askNoCitations = false
		askJSON = false
		listLimit = 0
		listJSON = false
		statsJSON = false
	}
}

// executeCommand runs the root command with args and captures output.
func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
