package driving

import (
	"context"

	"github.com/custodia-labs/wikidex/internal/core/domain"
)

// QueryService answers questions grounded in the indexed corpus.
type QueryService interface {
	// Query answers a single free-standing question.
	Query(ctx context.Context, question string) (domain.Answer, error)

	// Converse answers the latest user turn of a conversation. The
	// final message must be a user message.
	Converse(ctx context.Context, conv domain.Conversation) (domain.Answer, error)

	// ConverseStream streams the answer as partial messages: sources
	// first, then content fragments, then one message with Done set.
	// The channel is closed after the done marker or on ctx cancel.
	ConverseStream(ctx context.Context, conv domain.Conversation) (<-chan domain.PartialMessage, <-chan error)
}
