package driving

import "context"

// IngestStatus is a point-in-time snapshot of a running or finished
// ingest.
type IngestStatus struct {
	RunID         string
	PagesRead     int64
	PagesSkipped  int64
	ChunksWritten int64
	Errors        int64
	Done          bool
}

// Ingestor runs the dump-to-index pipeline.
type Ingestor interface {
	// Ingest streams the dump at path through the full pipeline and
	// blocks until it drains or aborts.
	Ingest(ctx context.Context, path string) (IngestStatus, error)

	// Status reports progress of the current or most recent run.
	Status() IngestStatus
}
