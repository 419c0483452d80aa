package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/custodia-labs/wikidex/internal/adapters/driven/config/file"
	"github.com/custodia-labs/wikidex/internal/core/domain"
	"github.com/custodia-labs/wikidex/internal/core/ports/driving"
)

// stubQueryService returns a canned answer for every question.
type stubQueryService struct {
	answer domain.Answer
	err    error
}

var _ driving.QueryService = (*stubQueryService)(nil)

func (s *stubQueryService) Query(_ context.Context, _ string) (domain.Answer, error) {
	return s.answer, s.err
}

func (s *stubQueryService) Converse(_ context.Context, _ domain.Conversation) (domain.Answer, error) {
	return s.answer, s.err
}

func (s *stubQueryService) ConverseStream(_ context.Context, _ domain.Conversation) (<-chan domain.PartialMessage, <-chan error) {
	out := make(chan domain.PartialMessage, 16)
	errs := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errs)
		if s.err != nil {
			errs <- s.err
			return
		}
		for i := range s.answer.Sources {
			out <- domain.PartialMessage{Source: &s.answer.Sources[i]}
		}
		for _, word := range strings.SplitAfter(s.answer.Message, " ") {
			out <- domain.PartialMessage{Content: word}
		}
		out <- domain.PartialMessage{Done: true}
	}()
	return out, errs
}

// stubIngestor finishes instantly with a fixed status.
type stubIngestor struct {
	status driving.IngestStatus
	err    error
	path   string
}

var _ driving.Ingestor = (*stubIngestor)(nil)

func (s *stubIngestor) Ingest(_ context.Context, path string) (driving.IngestStatus, error) {
	s.path = path
	return s.status, s.err
}

func (s *stubIngestor) Status() driving.IngestStatus {
	return s.status
}

// setupTestServices injects fakes for every package-level service and
// returns a cleanup restoring the previous values.
func setupTestServices(t *testing.T, query driving.QueryService, ingest driving.Ingestor) func() {
	t.Helper()

	cfg, err := file.NewConfigStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	prompts, err := file.NewPromptStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	oldConfig, oldPrompts := configStore, promptStore
	oldQuery, oldIngest := queryService, ingestor
	configStore, promptStore = cfg, prompts
	queryService, ingestor = query, ingest

	return func() {
		configStore, promptStore = oldConfig, oldPrompts
		queryService, ingestor = oldQuery, oldIngest
	}
}

func testAnswer() domain.Answer {
	return domain.Answer{
		Message: "Vienna is the capital [1].",
		Sources: []domain.Source{{
			Ordinal:  1,
			ID:       7,
			Title:    "Vienna",
			URL:      "https://en.wikipedia.org/wiki/Vienna",
			Citation: `"Vienna" Wikipedia, Wikimedia Foundation, 1 March 2024, https://en.wikipedia.org/wiki/Vienna. Accessed 2 March 2024.`,
			Excerpt:  "Vienna is the capital of Austria.",
		}},
	}
}
