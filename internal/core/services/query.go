package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/wikidex/internal/core/domain"
	"github.com/custodia-labs/wikidex/internal/core/ports/driven"
	"github.com/custodia-labs/wikidex/internal/core/ports/driving"
	"github.com/custodia-labs/wikidex/internal/formatter"
	"github.com/custodia-labs/wikidex/internal/logger"
)

// DefaultTopK is how many passages ground an answer.
const DefaultTopK = 4

// DefaultSystemPrompt instructs the model to answer from the numbered
// passages and cite them by bracketed label.
const DefaultSystemPrompt = `You are a research assistant. Answer the user's question using the numbered source passages provided below. Cite every claim you take from a passage with its bracketed number, like [1]. If the passages do not contain the answer, say so and answer from general knowledge without citations.`

// QueryEngine answers questions grounded in the indexed corpus:
// embed the question, search, resolve the hits, prompt the model with
// the passages and return the answer with its sources.
type QueryEngine struct {
	search *SearchService
	docs   *DocumentService
	llm    driven.LLMService

	style  formatter.Style
	system string
	topK   int
}

var _ driving.QueryService = (*QueryEngine)(nil)

// EngineOption adjusts query engine construction.
type EngineOption func(*QueryEngine)

// WithCitationStyle selects the citation format attached to sources.
func WithCitationStyle(style formatter.Style) EngineOption {
	return func(e *QueryEngine) { e.style = style }
}

// WithSystemPrompt overrides the grounding instructions.
func WithSystemPrompt(prompt string) EngineOption {
	return func(e *QueryEngine) {
		if prompt != "" {
			e.system = prompt
		}
	}
}

// WithTopK sets how many passages are retrieved per question.
func WithTopK(k int) EngineOption {
	return func(e *QueryEngine) {
		if k > 0 {
			e.topK = k
		}
	}
}

func NewQueryEngine(search *SearchService, docs *DocumentService, llm driven.LLMService, opts ...EngineOption) *QueryEngine {
	e := &QueryEngine{
		search: search,
		docs:   docs,
		llm:    llm,
		style:  formatter.StyleMLA,
		system: DefaultSystemPrompt,
		topK:   DefaultTopK,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Query answers a single free-standing question.
func (e *QueryEngine) Query(ctx context.Context, question string) (domain.Answer, error) {
	return e.Converse(ctx, domain.Conversation{Messages: []domain.Message{
		{Role: domain.RoleUser, Content: question},
	}})
}

// Converse answers the latest user turn of a conversation.
func (e *QueryEngine) Converse(ctx context.Context, conv domain.Conversation) (domain.Answer, error) {
	question, offset, err := e.validate(conv)
	if err != nil {
		return domain.Answer{}, err
	}

	sources, err := e.retrieve(ctx, question, offset)
	if err != nil {
		return domain.Answer{}, err
	}

	content, err := e.llm.Complete(ctx, e.messages(conv, sources))
	if err != nil {
		return domain.Answer{}, fmt.Errorf("completing answer: %w", err)
	}
	return domain.Answer{Message: strings.TrimSpace(content), Sources: sources}, nil
}

// ConverseStream streams the answer: sources first, then content
// fragments, then a done marker.
func (e *QueryEngine) ConverseStream(ctx context.Context, conv domain.Conversation) (<-chan domain.PartialMessage, <-chan error) {
	out := make(chan domain.PartialMessage, 8)
	errs := make(chan error, 1)

	question, offset, err := e.validate(conv)
	if err != nil {
		errs <- err
		close(out)
		close(errs)
		return out, errs
	}

	go func() {
		defer close(out)
		defer close(errs)

		sources, err := e.retrieve(ctx, question, offset)
		if err != nil {
			errs <- err
			return
		}
		for i := range sources {
			source := sources[i]
			if !e.send(ctx, out, domain.PartialMessage{Source: &source}) {
				return
			}
		}

		fragments, llmErrs := e.llm.CompleteStream(ctx, e.messages(conv, sources))
		for fragment := range fragments {
			if !e.send(ctx, out, domain.PartialMessage{Content: fragment}) {
				return
			}
		}
		if err := <-llmErrs; err != nil {
			errs <- fmt.Errorf("streaming answer: %w", err)
			return
		}
		e.send(ctx, out, domain.PartialMessage{Done: true})
	}()
	return out, errs
}

func (e *QueryEngine) send(ctx context.Context, out chan<- domain.PartialMessage, m domain.PartialMessage) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- m:
		return true
	}
}

// validate checks the conversation shape and returns the question and
// the citation ordinal offset.
func (e *QueryEngine) validate(conv domain.Conversation) (string, int, error) {
	if len(conv.Messages) == 0 {
		return "", 0, domain.ErrEmptyConversation
	}
	last := conv.Messages[len(conv.Messages)-1]
	if last.Role != domain.RoleUser {
		return "", 0, domain.ErrLastMessageNotUser
	}
	return last.Content, conv.SourceCount(), nil
}

// retrieve resolves the question to cited sources. Zero hits is not an
// error: the engine degrades to an ungrounded answer.
func (e *QueryEngine) retrieve(ctx context.Context, question string, offset int) ([]domain.Source, error) {
	ids, err := e.search.SearchText(ctx, question, e.topK)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		logger.Info("query: no passages found, answering ungrounded")
		return nil, nil
	}

	records, err := e.docs.RetrieveBatch(ctx, ids)
	if err != nil {
		return nil, err
	}

	sources := make([]domain.Source, len(records))
	for i, r := range records {
		sources[i] = domain.Source{
			Ordinal:  offset + i + 1,
			ID:       r.ID,
			Title:    r.Title,
			URL:      r.URL(),
			Citation: formatter.Citation(e.style, r),
			Excerpt:  r.Text,
		}
	}
	return sources, nil
}

// messages assembles the model prompt: grounding instructions and
// passages in the system turn, then the conversation itself.
func (e *QueryEngine) messages(conv domain.Conversation, sources []domain.Source) []domain.Message {
	system := e.system
	if len(sources) > 0 {
		system += "\n\nSources:\n\n" + formatter.Excerpts(sources)
	}

	messages := make([]domain.Message, 0, len(conv.Messages)+1)
	messages = append(messages, domain.Message{Role: domain.RoleSystem, Content: system})
	messages = append(messages, conv.Messages...)
	return messages
}
