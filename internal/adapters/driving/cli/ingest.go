package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/wikidex/internal/core/ports/driving"
)

var (
	ingestWorkers   int
	ingestBatchSize int
	ingestRate      float64
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [dump-file]",
	Short: "Index a MediaWiki XML dump",
	Long: `Streams a MediaWiki XML export (plain, .bz2 or .gz) through the
ingest pipeline: article pages are cleaned of markup, split into
overlapping passages, embedded and written to the document store and
the vector index.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().IntVar(&ingestWorkers, "workers", 4, "parallel workers per pipeline stage")
	ingestCmd.Flags().IntVar(&ingestBatchSize, "batch-size", 32, "passages per embedding batch")
	ingestCmd.Flags().Float64Var(&ingestRate, "rate", 0, "embedding calls per second (0 = unlimited)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	rate := ingestRate
	if rate == 0 {
		rate = configOrFloat("ingest.embeds_per_second", 0)
	}
	if err := ensureIngestor(ingestWorkers, ingestBatchSize, rate); err != nil {
		return err
	}
	defer closeStores(cmd)

	cmd.Printf("Ingesting %s...\n", args[0])

	status, err := ingestWithProgress(cmd.Context(), cmd, ingestor, args[0])
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	saveIndex(cmd)

	cmd.Printf("Done: %d pages read, %d skipped, %d passages indexed",
		status.PagesRead, status.PagesSkipped, status.ChunksWritten)
	if status.Errors > 0 {
		cmd.Printf(" (%d pages failed)", status.Errors)
	}
	cmd.Println()
	return nil
}

// ingestWithProgress runs the ingest while displaying progress updates.
func ingestWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	ing driving.Ingestor,
	path string,
) (driving.IngestStatus, error) {
	type result struct {
		status driving.IngestStatus
		err    error
	}
	resCh := make(chan result, 1)
	go func() {
		status, err := ing.Ingest(ctx, path)
		resCh <- result{status, err}
	}()

	// Poll status every 500ms
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var lastWritten int64
	for {
		select {
		case res := <-resCh:
			if res.status.ChunksWritten > 0 {
				cmd.Printf("\r%-60s\n", fmt.Sprintf("Indexed %d passages", res.status.ChunksWritten))
			}
			return res.status, res.err
		case <-ticker.C:
			status := ing.Status()
			if status.ChunksWritten > lastWritten {
				cmd.Printf("\rIndexing... %d pages, %d passages", status.PagesRead, status.ChunksWritten)
				lastWritten = status.ChunksWritten
			}
		}
	}
}
