package wikitext

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/wikidex/internal/core/domain"
)

// Processor converts raw wiki markup into flattened articles. It is
// stateless and safe for concurrent use.
type Processor struct{}

func NewProcessor() *Processor {
	return &Processor{}
}

// Process parses and renders one page. An empty page yields an empty
// article and a nil error; pathological nesting fails with
// domain.ErrTooDeeplyNested.
func (p *Processor) Process(page domain.Page) (domain.Article, error) {
	nodes, err := parseFragment(page.Markup, 0)
	if err != nil {
		return domain.Article{}, fmt.Errorf("parsing %q: %w", page.Title, err)
	}

	st := &renderState{}
	text := strings.TrimSpace(normalise(renderNodes(st, nodes)))

	return domain.Article{
		SourceID: page.ID,
		Title:    page.Title,
		Text:     text,
		Tables:   st.tables,
		Modified: page.Modified,
	}, nil
}
