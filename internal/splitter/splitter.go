package splitter

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/wikidex/internal/core/domain"
)

const (
	// DefaultChunkSize and DefaultOverlap are tuned for embedding
	// models with a few hundred tokens of context per passage.
	DefaultChunkSize = 1024
	DefaultOverlap   = 128
)

// separators are tried coarsest-first when snapping a chunk boundary.
var separators = []string{"\n\n", "\n", " "}

// Splitter cuts text into chunks of at most chunkSize bytes with
// adjacent chunks sharing overlap bytes. Every cut lands on a rune
// boundary, so chunks of valid UTF-8 input are valid UTF-8. Safe for
// concurrent use.
type Splitter struct {
	chunkSize int
	overlap   int
	minWords  int
}

// Option adjusts splitter construction.
type Option func(*Splitter)

// WithChunkSize sets the maximum chunk length in bytes.
func WithChunkSize(n int) Option {
	return func(s *Splitter) { s.chunkSize = n }
}

// WithOverlap sets how many bytes adjacent chunks share.
func WithOverlap(n int) Option {
	return func(s *Splitter) { s.overlap = n }
}

// WithMinWords drops chunks with fewer than n whitespace-separated
// words. Zero keeps everything.
func WithMinWords(n int) Option {
	return func(s *Splitter) { s.minWords = n }
}

// New builds a splitter, failing fast on a configuration that could
// never make progress.
func New(opts ...Option) (*Splitter, error) {
	s := &Splitter{chunkSize: DefaultChunkSize, overlap: DefaultOverlap}
	for _, opt := range opts {
		opt(s)
	}
	if s.chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size %d: %w", s.chunkSize, domain.ErrBadSplitConfig)
	}
	if s.overlap < 0 || s.overlap >= s.chunkSize {
		return nil, fmt.Errorf("overlap %d with chunk size %d: %w", s.overlap, s.chunkSize, domain.ErrBadSplitConfig)
	}
	return s, nil
}

// Split cuts one article into chunks with strictly increasing ordinals.
// The returned ranges cover the article text completely; adjacent
// ranges overlap by the configured amount unless a boundary snap
// shortened the step.
func (s *Splitter) Split(article domain.Article) []domain.Chunk {
	text := article.Text
	if text == "" {
		return nil
	}

	var chunks []domain.Chunk
	start := 0
	for {
		end := start + s.chunkSize
		if end < len(text) {
			end = s.snap(text, start, end)
		}
		if end >= len(text) {
			chunks = append(chunks, s.chunk(article, len(chunks), text, start, len(text)))
			break
		}
		chunks = append(chunks, s.chunk(article, len(chunks), text, start, end))

		next := end - s.overlap
		if next <= start {
			// Forward progress beats exact overlap.
			next = start + 1
		}
		for next < len(text) && !utf8.RuneStart(text[next]) {
			next++
		}
		start = next
	}

	if s.minWords > 0 {
		chunks = s.filter(chunks)
	}
	return chunks
}

func (s *Splitter) chunk(article domain.Article, ordinal int, text string, start, end int) domain.Chunk {
	return domain.Chunk{
		SourceID: article.SourceID,
		Ordinal:  ordinal,
		Text:     text[start:end],
		Start:    start,
		End:      end,
	}
}

// snap pulls the cut position back to the nearest natural boundary, if
// one exists in the window's tail. The cut never moves so far back that
// the chunk stops making progress past the overlap.
func (s *Splitter) snap(text string, start, end int) int {
	window := text[start:end]
	// A boundary earlier than this would shrink the step below one byte.
	floor := s.overlap + 1
	for _, sep := range separators {
		if i := strings.LastIndex(window, sep); i >= floor {
			return start + i + len(sep)
		}
	}
	// No separator in the window. Retreat to a rune boundary so the cut
	// cannot land inside a multi-byte sequence.
	for end > start && !utf8.RuneStart(text[end]) {
		end--
	}
	if end == start {
		// The chunk window is narrower than the rune at start. Emit the
		// whole rune rather than splitting it.
		_, n := utf8.DecodeRuneInString(text[start:])
		end = start + n
	}
	return end
}

// filter drops short chunks but re-numbers the survivors so ordinals
// stay dense.
func (s *Splitter) filter(chunks []domain.Chunk) []domain.Chunk {
	kept := chunks[:0]
	for _, c := range chunks {
		if len(strings.Fields(c.Text)) < s.minWords {
			continue
		}
		c.Ordinal = len(kept)
		kept = append(kept, c)
	}
	return kept
}
