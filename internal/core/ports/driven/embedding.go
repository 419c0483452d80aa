package driven

import "context"

// EmbeddingService turns text into fixed-width vectors.
type EmbeddingService interface {
	// Embed returns one vector per input, in input order. The returned
	// slice always has exactly len(texts) entries or the call fails.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions reports the width of the vectors the service produces.
	Dimensions() int
}
