package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/cargolens/cargolens-cli/internal/core/domain"
	"github.com/cargolens/cargolens-cli/internal/core/ports/driving"
	"github.com/cargolens/cargolens-cli/internal/logger"
)

var (
	ingestWatch     bool
	ingestRemote    bool
	ingestPrefix    string
	ingestNoLLMMeta bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest documents into the index",
	Long: `Ingests one document or every supported document in a directory.
With --remote, ingests objects from the blob store instead of the
local filesystem. With --watch, keeps running and ingests new files
as they appear in the directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestWatch, "watch", false, "watch the directory and ingest new files")
	ingestCmd.Flags().BoolVar(&ingestRemote, "remote", false, "ingest from the blob store")
	ingestCmd.Flags().StringVar(&ingestPrefix, "prefix", "documents/", "blob prefix to ingest with --remote")
	ingestCmd.Flags().BoolVar(&ingestNoLLMMeta, "no-llm-metadata", false, "skip model-backed metadata extraction")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := cmd.Context()
	opts := driving.IngestOptions{UseLLMMetadata: !ingestNoLLMMeta}

	if ingestRemote {
		if len(args) > 0 {
			return errors.New("--remote takes no path argument")
		}
		report, err := ingestService.IngestRemote(ctx, ingestPrefix, opts)
		if err != nil {
			return mapModelErr(err)
		}
		printIngestReport(cmd, report)
		return nil
	}

	if len(args) == 0 {
		return errors.New("a file or directory path is required")
	}
	path := args[0]

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		if ingestWatch {
			return errors.New("--watch requires a directory")
		}
		docID, err := ingestService.IngestFile(ctx, path, opts)
		if err != nil {
			return mapModelErr(err)
		}
		cmd.Printf("Ingested %s (%s)\n", path, docID)
		return nil
	}

	report, err := ingestService.IngestDirectory(ctx, path, opts)
	if err != nil {
		return mapModelErr(err)
	}
	printIngestReport(cmd, report)

	if ingestWatch {
		return watchDirectory(ctx, cmd, path, opts)
	}
	return nil
}

// watchDirectory ingests files as they are created or written in dir
// until the process is interrupted. Editors and downloads often fire
// several events per file, so paths are debounced.
func watchDirectory(ctx context.Context, cmd *cobra.Command, dir string, opts driving.IngestOptions) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s for new documents (ctrl-c to stop)...\n", dir)

	const debounce = 2 * time.Second
	seen := make(map[string]time.Time)

	for {
		select {
		case <-ctx.Done():
			cmd.Println("Stopped watching.")
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if extractors != nil {
				if _, err := extractors.ForFile(event.Name); err != nil {
					continue
				}
			}
			if last, ok := seen[event.Name]; ok && time.Since(last) < debounce {
				continue
			}
			seen[event.Name] = time.Now()

			docID, err := ingestService.IngestFile(ctx, event.Name, opts)
			switch {
			case errors.Is(err, domain.ErrUnsupportedFile):
				logger.Debug("Skipping %s: %v", event.Name, err)
			case err != nil:
				logger.Warn("Failed to ingest %s: %v", event.Name, err)
			default:
				cmd.Printf("Ingested %s (%s)\n", event.Name, docID)
			}
		}
	}
}

func printIngestReport(cmd *cobra.Command, report *domain.IngestReport) {
	cmd.Printf("Processed %d of %d documents (%d failed)\n",
		report.Processed, report.Total, report.Failed)
	for _, f := range report.Failures {
		cmd.Printf("  failed: %s: %s\n", f.Filename, f.Err)
	}
}

// mapModelErr rewrites the embedding availability error into the user
// facing remedy.
func mapModelErr(err error) error {
	if errors.Is(err, domain.ErrEmbeddingUnavailable) {
		return errNoAPIKey()
	}
	return err
}
