package driven

import (
	"context"

	"github.com/custodia-labs/wikidex/internal/core/domain"
)

// LLMService produces chat completions.
type LLMService interface {
	// Complete returns the assistant reply for the given messages.
	Complete(ctx context.Context, messages []domain.Message) (string, error)

	// CompleteStream sends the assistant reply as incremental content
	// fragments on the returned channel. The channel is closed when the
	// reply is complete or ctx is cancelled; a terminal error, if any,
	// arrives on the error channel before close.
	CompleteStream(ctx context.Context, messages []domain.Message) (<-chan string, <-chan error)
}
