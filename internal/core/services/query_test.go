package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/custodia-labs/wikidex/internal/adapters/driven/index/flat"
	"github.com/custodia-labs/wikidex/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/wikidex/internal/core/domain"
	"github.com/custodia-labs/wikidex/internal/formatter"
)

// corpus seeds a consistent store/index pair: every document has a
// vector under the same id.
func corpus(t *testing.T, texts map[int64]string) (*memory.DocStore, *flat.Index, *hashEmbedder) {
	t.Helper()
	store := memory.NewDocStore()
	index := flat.New(testDims)
	embedder := &hashEmbedder{}
	date := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	for id, text := range texts {
		if err := store.PutBatch(context.Background(), []domain.DocumentRecord{{
			ID: id, Title: "Article " + text[:1], Text: text, AccessDate: date, ModifiedDate: date,
		}}); err != nil {
			t.Fatal(err)
		}
		vectors, err := embedder.Embed(context.Background(), []string{text})
		if err != nil {
			t.Fatal(err)
		}
		if err := index.Add(context.Background(), []int64{id}, vectors); err != nil {
			t.Fatal(err)
		}
	}
	return store, index, embedder
}

func newEngine(t *testing.T, texts map[int64]string, llm *scriptedLLM, opts ...EngineOption) *QueryEngine {
	t.Helper()
	store, index, embedder := corpus(t, texts)
	return NewQueryEngine(
		NewSearchService(embedder, index),
		NewDocumentService(store),
		llm,
		opts...,
	)
}

func TestQueryGroundedAnswer(t *testing.T) {
	llm := &scriptedLLM{answer: "  Grounded answer [1].  "}
	engine := newEngine(t, map[int64]string{
		10: "alpha body text",
		20: "beta body text",
	}, llm, WithTopK(2))

	answer, err := engine.Query(context.Background(), "alpha body text")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if answer.Message != "Grounded answer [1]." {
		t.Errorf("Message = %q, want trimmed answer", answer.Message)
	}
	if len(answer.Sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(answer.Sources))
	}
	if answer.Sources[0].Ordinal != 1 || answer.Sources[1].Ordinal != 2 {
		t.Errorf("ordinals = %d/%d, want 1/2", answer.Sources[0].Ordinal, answer.Sources[1].Ordinal)
	}
	if answer.Sources[0].ID != 10 {
		t.Errorf("best source id = %d, want exact match 10", answer.Sources[0].ID)
	}
	if answer.Sources[0].Citation == "" || answer.Sources[0].URL == "" {
		t.Errorf("source missing provenance: %+v", answer.Sources[0])
	}
	if !strings.Contains(llm.systemPrompt(), "1. ```") {
		t.Errorf("system prompt lacks numbered excerpts:\n%s", llm.systemPrompt())
	}
}

// Every search hit must resolve: ids returned by the index are docstore
// primary keys.
func TestQueryRoundTripConsistency(t *testing.T) {
	texts := map[int64]string{
		1: "first passage about rivers",
		2: "second passage about mountains",
		3: "third passage about cities",
		4: "fourth passage about oceans",
		5: "fifth passage about deserts",
	}
	llm := &scriptedLLM{answer: "ok"}
	engine := newEngine(t, texts, llm)

	for _, q := range []string{"rivers", "mountains and oceans", "unrelated query text"} {
		answer, err := engine.Query(context.Background(), q)
		if err != nil {
			t.Fatalf("Query(%q) error = %v", q, err)
		}
		for _, s := range answer.Sources {
			if texts[s.ID] != s.Excerpt {
				t.Errorf("source %d excerpt does not match stored text", s.ID)
			}
		}
	}
}

func TestQueryUngroundedDegrade(t *testing.T) {
	llm := &scriptedLLM{answer: "From general knowledge."}
	engine := newEngine(t, map[int64]string{}, llm)

	answer, err := engine.Query(context.Background(), "anything at all")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if answer.Message != "From general knowledge." {
		t.Errorf("Message = %q", answer.Message)
	}
	if len(answer.Sources) != 0 {
		t.Errorf("sources = %v, want none", answer.Sources)
	}
	if strings.Contains(llm.systemPrompt(), "Sources:") {
		t.Errorf("system prompt advertises sources it does not have")
	}
}

func TestConverseValidation(t *testing.T) {
	engine := newEngine(t, map[int64]string{1: "text"}, &scriptedLLM{answer: "ok"})

	_, err := engine.Converse(context.Background(), domain.Conversation{})
	if !errors.Is(err, domain.ErrEmptyConversation) {
		t.Errorf("empty conversation error = %v", err)
	}

	_, err = engine.Converse(context.Background(), domain.Conversation{Messages: []domain.Message{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello"},
	}})
	if !errors.Is(err, domain.ErrLastMessageNotUser) {
		t.Errorf("assistant-last error = %v", err)
	}
}

func TestConverseOffsetsSourceOrdinals(t *testing.T) {
	llm := &scriptedLLM{answer: "ok"}
	engine := newEngine(t, map[int64]string{1: "target passage"}, llm, WithTopK(1))

	conv := domain.Conversation{Messages: []domain.Message{
		{Role: domain.RoleUser, Content: "earlier question"},
		{Role: domain.RoleAssistant, Content: "earlier answer [1][2]", Sources: []domain.Source{
			{Ordinal: 1}, {Ordinal: 2},
		}},
		{Role: domain.RoleUser, Content: "target passage"},
	}}

	answer, err := engine.Converse(context.Background(), conv)
	if err != nil {
		t.Fatalf("Converse() error = %v", err)
	}
	if len(answer.Sources) != 1 || answer.Sources[0].Ordinal != 3 {
		t.Fatalf("sources = %+v, want single source with ordinal 3", answer.Sources)
	}
	if !strings.Contains(llm.systemPrompt(), "3. ```") {
		t.Errorf("excerpt numbering not offset:\n%s", llm.systemPrompt())
	}
}

func TestConverseStreamOrder(t *testing.T) {
	llm := &scriptedLLM{answer: "streamed answer text"}
	engine := newEngine(t, map[int64]string{1: "relevant passage"}, llm, WithTopK(1))

	conv := domain.Conversation{Messages: []domain.Message{
		{Role: domain.RoleUser, Content: "relevant passage"},
	}}
	out, errs := engine.ConverseStream(context.Background(), conv)

	var (
		got        []domain.PartialMessage
		contentAt  = -1
		sourceAt   = -1
		doneAt     = -1
		contentAll strings.Builder
	)
	for m := range out {
		switch {
		case m.Source != nil:
			sourceAt = len(got)
		case m.Done:
			doneAt = len(got)
		default:
			if contentAt < 0 {
				contentAt = len(got)
			}
			contentAll.WriteString(m.Content)
		}
		got = append(got, m)
	}
	if err := <-errs; err != nil {
		t.Fatalf("stream error = %v", err)
	}

	if sourceAt != 0 {
		t.Errorf("first message is not a source (index %d)", sourceAt)
	}
	if contentAt < sourceAt {
		t.Errorf("content before sources")
	}
	if doneAt != len(got)-1 {
		t.Errorf("done marker at %d, want last (%d)", doneAt, len(got)-1)
	}
	if contentAll.String() != "streamed answer text" {
		t.Errorf("streamed content = %q", contentAll.String())
	}
}

func TestConverseStreamValidationError(t *testing.T) {
	engine := newEngine(t, map[int64]string{1: "text"}, &scriptedLLM{answer: "ok"})

	out, errs := engine.ConverseStream(context.Background(), domain.Conversation{})
	for range out {
	}
	if err := <-errs; !errors.Is(err, domain.ErrEmptyConversation) {
		t.Fatalf("stream error = %v, want ErrEmptyConversation", err)
	}
}

func TestQueryCitationStyle(t *testing.T) {
	llm := &scriptedLLM{answer: "ok"}
	engine := newEngine(t, map[int64]string{1: "styled passage"}, llm,
		WithTopK(1), WithCitationStyle(formatter.StyleAPA))

	answer, err := engine.Query(context.Background(), "styled passage")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(answer.Sources) != 1 {
		t.Fatalf("sources = %d, want 1", len(answer.Sources))
	}
	if !strings.Contains(answer.Sources[0].Citation, "In Wikipedia. Retrieved") {
		t.Errorf("citation = %q, want APA shape", answer.Sources[0].Citation)
	}
}
