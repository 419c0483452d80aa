package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services and adapters. Callers match them
// with errors.Is after any number of fmt.Errorf("%w") wraps.
var (
	// ErrNotFound reports a lookup for an id the docstore does not hold.
	ErrNotFound = errors.New("document not found")

	// ErrBadSplitConfig reports a splitter configuration whose overlap
	// is not strictly smaller than its chunk size.
	ErrBadSplitConfig = errors.New("split overlap must be smaller than chunk size")

	// ErrTooDeeplyNested reports markup whose construct nesting exceeds
	// the parser's depth bound.
	ErrTooDeeplyNested = errors.New("markup too deeply nested")

	// ErrDimensionMismatch reports a query vector whose width differs
	// from the index's configured dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrBatchSizeMismatch reports an embedding response whose vector
	// count differs from the request's input count.
	ErrBatchSizeMismatch = errors.New("embedding batch size mismatch")

	// ErrEmptyConversation reports a conversation with no messages.
	ErrEmptyConversation = errors.New("conversation is empty")

	// ErrLastMessageNotUser reports a conversation whose final turn is
	// not a user message.
	ErrLastMessageNotUser = errors.New("last message is not a user message")

	// ErrPipelineAborted reports an ingest run stopped by its error
	// policy before the input was exhausted.
	ErrPipelineAborted = errors.New("pipeline aborted")
)

// ConsistencyError reports ids present in one store but absent from the
// other. Reconciliation repairs what it can and returns the remainder
// wrapped in this error.
type ConsistencyError struct {
	// MissingDocuments are vector ids with no docstore row.
	MissingDocuments []int64

	// MissingVectors are docstore ids with no indexed vector.
	MissingVectors []int64
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("store inconsistency: %d vectors without documents, %d documents without vectors",
		len(e.MissingDocuments), len(e.MissingVectors))
}
