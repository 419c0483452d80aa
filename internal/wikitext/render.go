package wikitext

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/wikidex/internal/core/domain"
)

// Sentinel markers wrapping the colon-joined heading path inside
// rendered article text. The splitter treats them as ordinary
// characters; downstream consumers may strip them.
const (
	HeadingStart = "###HEADING_START###"
	HeadingEnd   = "###HEADING_END###"
)

// stopPhrases are section titles that end the useful body of an
// article. Everything from such a heading onwards is discarded.
var stopPhrases = []string{
	"References",
	"Bibliography",
	"See also",
	"Further reading",
	"External links",
	"Notes and references",
}

// TablePlaceholder is the marker substituted into narrative text where
// table i (zero-based) was extracted.
func TablePlaceholder(i int) string {
	return fmt.Sprintf("###TABLE_%d###", i)
}

// renderState carries the mutable context of one article render: the
// open heading path and the tables extracted so far.
type renderState struct {
	heading []string
	tables  []domain.DescribedTable
}

// renderNodes flattens a node list. A stop-phrase heading truncates the
// remainder of the list.
func renderNodes(st *renderState, nodes []node) string {
	var parts []string
	for _, n := range nodes {
		if n.kind == nodeHeading {
			name := renderNodes(st, n.children)
			if isStopPhrase(name) {
				break
			}
		}
		parts = append(parts, renderNode(st, n))
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}

func renderNode(st *renderState, n node) string {
	switch n.kind {
	case nodeText:
		return n.text

	case nodeParagraphBreak:
		return "\n\n"

	case nodeHeading:
		name := renderNodes(st, n.children)
		return adjustHeadings(n.level, &st.heading, name)

	case nodeLink:
		return renderNodes(st, n.children)

	case nodeExternalLink:
		// The first space-separated token is the URL.
		s := renderNodes(st, n.children)
		if _, label, ok := strings.Cut(s, " "); ok {
			return label
		}
		return ""

	case nodeUnorderedList:
		var items []string
		for _, item := range n.items {
			items = append(items, " - "+renderNodes(st, item))
		}
		return strings.Join(items, "\n")

	case nodeOrderedList:
		var items []string
		for i, item := range n.items {
			items = append(items, fmt.Sprintf(" %d. %s", i+1, renderNodes(st, item)))
		}
		return strings.Join(items, "\n")

	case nodeDefinitionList:
		return renderDefinitionList(st, n.defs)

	case nodeTemplate:
		return renderTemplate(st, n)

	case nodeTable:
		return extractTable(st, n)

	default:
		return ""
	}
}

// renderDefinitionList joins each term with its definitions as
// "term: definition" lines.
func renderDefinitionList(st *renderState, defs []definitionItem) string {
	var (
		lines []string
		term  string
	)
	for _, d := range defs {
		text := renderNodes(st, d.nodes)
		if d.term {
			term = text
			continue
		}
		if term != "" {
			lines = append(lines, term+": "+text)
		} else {
			lines = append(lines, text)
		}
	}
	if term != "" && len(lines) == 0 {
		lines = append(lines, term)
	}
	return strings.Join(lines, "\n")
}

// renderTemplate keeps the handful of template families that carry
// prose and drops the rest.
func renderTemplate(st *renderState, n node) string {
	switch {
	case infoboxRe.MatchString(n.name):
		var lines []string
		for _, p := range n.params {
			if p.name == "" {
				continue
			}
			value := renderNodes(st, p.value)
			if value == "" {
				continue
			}
			lines = append(lines, p.name+": "+value)
		}
		return strings.Join(lines, "\n")

	case refnRe.MatchString(n.name), linktextRe.MatchString(n.name):
		var parts []string
		for _, p := range n.params {
			parts = append(parts, renderNodes(st, p.value))
		}
		return strings.Join(parts, "")

	case languageRe.MatchString(n.name) && len(n.params) > 0:
		// The first parameter is the language code.
		var parts []string
		for _, p := range n.params[1:] {
			parts = append(parts, renderNodes(st, p.value))
		}
		return strings.Join(parts, "")

	default:
		return ""
	}
}

// extractTable lifts a table node into a DescribedTable and returns the
// positional placeholder for the narrative.
func extractTable(st *renderState, n node) string {
	caption := strings.TrimSpace(renderNodes(st, n.captions))
	if caption == "" {
		// Fall back to the enclosing section path.
		caption = strings.TrimSpace(strings.Join(nonEmpty(st.heading), ": "))
	}

	table := domain.DescribedTable{Caption: caption}
	for _, row := range n.rows {
		var cells []string
		header := len(row.cells) > 0
		for _, c := range row.cells {
			cells = append(cells, renderNodes(st, c.content))
			header = header && c.header
		}
		if header && table.Header == nil && table.Rows == nil {
			table.Header = cells
			continue
		}
		table.Rows = append(table.Rows, cells)
	}
	if table.Header == nil && len(table.Rows) == 0 {
		return ""
	}

	st.tables = append(st.tables, table)
	return "\n" + TablePlaceholder(len(st.tables)-1) + "\n"
}

// adjustHeadings resizes the open heading path to the new level, sets
// its last entry and returns the sentinel-wrapped path.
func adjustHeadings(level int, heading *[]string, name string) string {
	h := *heading
	for len(h) < level {
		h = append(h, "")
	}
	for len(h) > level {
		h = h[:len(h)-1]
	}
	if len(h) == 0 {
		h = []string{name}
	} else {
		h[len(h)-1] = name
	}
	*heading = h
	return HeadingStart + strings.Join(h, ":") + HeadingEnd
}

func isStopPhrase(name string) bool {
	for _, p := range stopPhrases {
		if p == name {
			return true
		}
	}
	return false
}

func nonEmpty(ss []string) []string {
	var out []string
	for _, s := range ss {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
