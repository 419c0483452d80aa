// Package formatter renders citations and the passage excerpts fed to
// the language model.
package formatter

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/wikidex/internal/core/domain"
)

// Style selects a citation format. The zero value is Chicago.
type Style int

const (
	StyleChicago Style = iota
	StyleMLA
	StyleAPA
)

func (s Style) String() string {
	switch s {
	case StyleMLA:
		return "MLA"
	case StyleAPA:
		return "APA"
	default:
		return "Chicago"
	}
}

// ParseStyle reads a style name case-insensitively.
func ParseStyle(name string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "chicago", "":
		return StyleChicago, nil
	case "mla":
		return StyleMLA, nil
	case "apa":
		return StyleAPA, nil
	default:
		return StyleChicago, fmt.Errorf("unknown citation style %q", name)
	}
}

// Citation formats one stored document's provenance in the given style.
func Citation(style Style, record domain.DocumentRecord) string {
	url := record.URL()
	switch style {
	case StyleMLA:
		edit := record.ModifiedDate.Format("2 January 2006")
		access := record.AccessDate.Format("2 January 2006")
		return fmt.Sprintf("%q Wikipedia, Wikimedia Foundation, %s, %s. Accessed %s.", record.Title, edit, url, access)
	case StyleAPA:
		edit := record.ModifiedDate.Format("2006, January 2")
		access := record.AccessDate.Format("January 2, 2006")
		return fmt.Sprintf("%s. %s. In Wikipedia. Retrieved %s, from %s", record.Title, edit, access, url)
	default:
		edit := record.ModifiedDate.Format("2 January 2006")
		access := record.AccessDate.Format("2 January 2006")
		return fmt.Sprintf("%q Wikipedia. Last modified %s, Accessed %s, %s.", record.Title, edit, access, url)
	}
}

// Excerpt renders one retrieved passage as a numbered fenced block for
// the model prompt. The number matches the citation label the model is
// told to use.
func Excerpt(ordinal int, text string) string {
	return fmt.Sprintf("%d. ```\n%s\n```", ordinal, text)
}

// Excerpts joins the formatted passages of a retrieval into one prompt
// fragment.
func Excerpts(sources []domain.Source) string {
	parts := make([]string, len(sources))
	for i, s := range sources {
		parts[i] = Excerpt(s.Ordinal, s.Excerpt)
	}
	return strings.Join(parts, "\n\n")
}
