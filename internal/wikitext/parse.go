package wikitext

import (
	"html"
	"strings"

	"github.com/custodia-labs/wikidex/internal/core/domain"
)

// maxNestingDepth bounds recursion through templates, links and table
// cells. Real articles stay far below it.
const maxNestingDepth = 32

// parseFragment parses a markup fragment at the given nesting depth.
// Unterminated constructs fall back to literal text; only exceeding the
// depth bound fails the parse.
func parseFragment(src string, depth int) ([]node, error) {
	if depth > maxNestingDepth {
		return nil, domain.ErrTooDeeplyNested
	}
	p := &parser{src: src, depth: depth, atLineStart: true}
	return p.parse()
}

type parser struct {
	src         string
	pos         int
	depth       int
	atLineStart bool

	nodes []node
	text  strings.Builder
}

func (p *parser) parse() ([]node, error) {
	for p.pos < len(p.src) {
		if p.atLineStart {
			handled, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			if handled {
				continue
			}
		}
		if err := p.parseInline(); err != nil {
			return nil, err
		}
	}
	p.flushText()
	return p.nodes, nil
}

func (p *parser) flushText() {
	if p.text.Len() == 0 {
		return
	}
	p.nodes = append(p.nodes, node{kind: nodeText, text: p.text.String()})
	p.text.Reset()
}

func (p *parser) append(n node) {
	p.flushText()
	p.nodes = append(p.nodes, n)
}

// rest returns the unconsumed input.
func (p *parser) rest() string {
	return p.src[p.pos:]
}

// line returns the current line without its newline and the position
// just past it (past the newline when present).
func (p *parser) line() (string, int) {
	rest := p.rest()
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		return rest[:i], p.pos + i + 1
	}
	return rest, len(p.src)
}

// parseBlock handles the constructs that only occur at a line start.
// It reports whether it consumed anything.
func (p *parser) parseBlock() (bool, error) {
	rest := p.rest()
	switch {
	case strings.HasPrefix(rest, "="):
		return p.parseHeading()
	case strings.HasPrefix(rest, "*"), strings.HasPrefix(rest, "#"):
		return p.parseList(rest[0])
	case strings.HasPrefix(rest, ";"), strings.HasPrefix(rest, ":"):
		return p.parseDefinitionList()
	case strings.HasPrefix(rest, "{|"):
		return p.parseTable()
	}
	return false, nil
}

// parseHeading consumes a "== title ==" line. A line without a closing
// run of equals signs is not a heading and falls through to inline
// parsing.
func (p *parser) parseHeading() (bool, error) {
	line, next := p.line()

	level := 0
	for level < len(line) && line[level] == '=' {
		level++
	}
	if level > 6 {
		level = 6
	}
	body := strings.TrimRight(line[level:], " \t")
	closing := 0
	for closing < len(body) && body[len(body)-1-closing] == '=' {
		closing++
	}
	if closing == 0 {
		return false, nil
	}
	if closing < level {
		level = closing
	}
	title := strings.TrimSpace(body[:len(body)-closing])

	children, err := parseFragment(title, p.depth+1)
	if err != nil {
		return false, err
	}
	p.append(node{kind: nodeHeading, level: level, children: children})
	p.pos = next
	p.atLineStart = true
	return true, nil
}

// parseList consumes a run of consecutive list lines with the same
// marker byte ('*' or '#').
func (p *parser) parseList(marker byte) (bool, error) {
	var items [][]node
	for p.pos < len(p.src) && strings.HasPrefix(p.rest(), string(marker)) {
		line, next := p.line()
		content := strings.TrimLeft(line, "*#")
		item, err := parseFragment(strings.TrimSpace(content), p.depth+1)
		if err != nil {
			return false, err
		}
		items = append(items, item)
		p.pos = next
	}

	kind := nodeUnorderedList
	if marker == '#' {
		kind = nodeOrderedList
	}
	p.append(node{kind: kind, items: items})
	p.atLineStart = true
	return true, nil
}

// parseDefinitionList consumes a run of ";" term and ":" definition
// lines.
func (p *parser) parseDefinitionList() (bool, error) {
	var defs []definitionItem
	for p.pos < len(p.src) {
		rest := p.rest()
		if !strings.HasPrefix(rest, ";") && !strings.HasPrefix(rest, ":") {
			break
		}
		line, next := p.line()
		content, err := parseFragment(strings.TrimSpace(strings.TrimLeft(line, ";:")), p.depth+1)
		if err != nil {
			return false, err
		}
		defs = append(defs, definitionItem{term: line[0] == ';', nodes: content})
		p.pos = next
	}
	p.append(node{kind: nodeDefinitionList, defs: defs})
	p.atLineStart = true
	return true, nil
}

// parseTable consumes a "{|" .. "|}" block. Tables that never close
// consume the remainder of the input; the rows parsed so far survive.
func (p *parser) parseTable() (bool, error) {
	_, next := p.line() // the "{|" line carries only attributes
	p.pos = next

	var captionRaw string

	// First pass gathers raw cell text per row.
	type rawRow struct {
		raw []string
		hdr []bool
	}
	var rawRows []*rawRow
	rowOpen := func() *rawRow {
		if len(rawRows) == 0 {
			rawRows = append(rawRows, &rawRow{})
		}
		return rawRows[len(rawRows)-1]
	}

	for p.pos < len(p.src) {
		line, lnext := p.line()
		trimmed := strings.TrimSpace(line)
		p.pos = lnext

		switch {
		case strings.HasPrefix(trimmed, "|}"):
			goto done
		case strings.HasPrefix(trimmed, "|+"):
			captionRaw = strings.TrimSpace(trimmed[2:])
		case strings.HasPrefix(trimmed, "|-"):
			rawRows = append(rawRows, &rawRow{})
		case strings.HasPrefix(trimmed, "!"):
			r := rowOpen()
			for _, c := range strings.Split(trimmed[1:], "!!") {
				r.raw = append(r.raw, strings.TrimSpace(c))
				r.hdr = append(r.hdr, true)
			}
		case strings.HasPrefix(trimmed, "|"):
			r := rowOpen()
			for _, c := range strings.Split(trimmed[1:], "||") {
				r.raw = append(r.raw, strings.TrimSpace(c))
				r.hdr = append(r.hdr, false)
			}
		default:
			// Continuation of the previous cell.
			if len(rawRows) > 0 {
				r := rawRows[len(rawRows)-1]
				if n := len(r.raw); n > 0 {
					r.raw[n-1] += "\n" + trimmed
				}
			}
		}
	}

done:
	var captions []node
	if captionRaw != "" {
		c, err := parseFragment(captionRaw, p.depth+1)
		if err != nil {
			return false, err
		}
		captions = c
	}
	var rows []tableRow
	for _, r := range rawRows {
		if len(r.raw) == 0 {
			continue
		}
		row := tableRow{}
		for i, raw := range r.raw {
			// Discard cell attributes before the content pipe.
			if cut := strings.Index(raw, "|"); cut >= 0 && !strings.ContainsAny(raw[:cut], "[{") {
				raw = strings.TrimSpace(raw[cut+1:])
			}
			content, err := parseFragment(raw, p.depth+1)
			if err != nil {
				return false, err
			}
			row.cells = append(row.cells, tableCell{header: r.hdr[i], content: content})
		}
		rows = append(rows, row)
	}
	p.append(node{kind: nodeTable, captions: captions, rows: rows})
	p.atLineStart = true
	return true, nil
}

// parseInline consumes one inline construct or one literal rune.
func (p *parser) parseInline() error {
	rest := p.rest()
	switch {
	case rest[0] == '\n':
		run := 0
		for run < len(rest) && rest[run] == '\n' {
			run++
		}
		if run >= 2 {
			p.append(node{kind: nodeParagraphBreak})
		} else {
			p.text.WriteByte(' ')
		}
		p.pos += run
		p.atLineStart = true
		return nil

	case strings.HasPrefix(rest, "{{"):
		if n, ok, err := p.tryTemplate(); err != nil {
			return err
		} else if ok {
			p.append(n)
			return nil
		}
		p.text.WriteString("{{")
		p.pos += 2
		p.atLineStart = false
		return nil

	case strings.HasPrefix(rest, "[["):
		if n, ok, err := p.tryLink(); err != nil {
			return err
		} else if ok {
			p.append(n)
			return nil
		}
		p.text.WriteString("[[")
		p.pos += 2
		p.atLineStart = false
		return nil

	case rest[0] == '[':
		if n, ok, err := p.tryExternalLink(); err != nil {
			return err
		} else if ok {
			p.append(n)
			return nil
		}
		p.text.WriteByte('[')
		p.pos++
		p.atLineStart = false
		return nil

	case strings.HasPrefix(rest, "<!--"):
		if end := strings.Index(rest, "-->"); end >= 0 {
			p.pos += end + 3
		} else {
			p.pos = len(p.src)
		}
		return nil

	case strings.HasPrefix(rest, "<ref"):
		p.skipRef(rest)
		return nil

	case rest[0] == '<':
		// Strip the tag itself, keep whatever it wraps.
		if end := strings.IndexByte(rest, '>'); end >= 0 && end < 256 {
			p.pos += end + 1
		} else {
			p.text.WriteByte('<')
			p.pos++
		}
		p.atLineStart = false
		return nil

	case strings.HasPrefix(rest, "''"):
		// Bold and italic markers carry no content of their own.
		run := 0
		for run < len(rest) && rest[run] == '\'' {
			run++
		}
		p.pos += run
		p.atLineStart = false
		return nil

	case rest[0] == '&':
		if end := strings.IndexByte(rest[:min(len(rest), 10)], ';'); end > 0 {
			entity := rest[:end+1]
			if decoded := html.UnescapeString(entity); decoded != entity {
				p.text.WriteString(decoded)
				p.pos += end + 1
				p.atLineStart = false
				return nil
			}
		}
		p.text.WriteByte('&')
		p.pos++
		p.atLineStart = false
		return nil

	default:
		p.text.WriteByte(rest[0])
		p.pos++
		p.atLineStart = false
		return nil
	}
}

// skipRef drops a <ref> tag and its content.
func (p *parser) skipRef(rest string) {
	open := strings.IndexByte(rest, '>')
	if open < 0 {
		p.pos = len(p.src)
		return
	}
	if rest[open-1] == '/' { // self-closing
		p.pos += open + 1
		return
	}
	if end := strings.Index(rest, "</ref>"); end >= 0 {
		p.pos += end + len("</ref>")
		return
	}
	p.pos = len(p.src)
}

// tryTemplate parses "{{name|params}}". Reports false when the braces
// never balance.
func (p *parser) tryTemplate() (node, bool, error) {
	inner, end, ok := balanced(p.src, p.pos, "{{", "}}")
	if !ok {
		return node{}, false, nil
	}

	parts := splitTopLevel(inner, '|')
	name := strings.TrimSpace(parts[0])

	var params []templateParam
	for _, part := range parts[1:] {
		pname, pvalue := splitParam(part)
		value, err := parseFragment(strings.TrimSpace(pvalue), p.depth+1)
		if err != nil {
			return node{}, false, err
		}
		params = append(params, templateParam{name: strings.TrimSpace(pname), value: value})
	}

	p.pos = end
	p.atLineStart = false
	return node{kind: nodeTemplate, name: name, params: params}, true, nil
}

// tryLink parses "[[target|label]]". Media and category links vanish
// entirely.
func (p *parser) tryLink() (node, bool, error) {
	inner, end, ok := balanced(p.src, p.pos, "[[", "]]")
	if !ok {
		return node{}, false, nil
	}

	parts := splitTopLevel(inner, '|')
	target := strings.TrimSpace(parts[0])
	lower := strings.ToLower(target)
	if strings.HasPrefix(lower, "file:") || strings.HasPrefix(lower, "image:") || strings.HasPrefix(lower, "category:") {
		p.pos = end
		p.atLineStart = false
		return node{kind: nodeText, text: ""}, true, nil
	}

	label := target
	if len(parts) > 1 {
		label = strings.TrimSpace(parts[len(parts)-1])
	}
	children, err := parseFragment(label, p.depth+1)
	if err != nil {
		return node{}, false, err
	}
	p.pos = end
	p.atLineStart = false
	return node{kind: nodeLink, children: children}, true, nil
}

// tryExternalLink parses "[url label]" when the bracket opens a URL.
func (p *parser) tryExternalLink() (node, bool, error) {
	rest := p.rest()
	body := rest[1:]
	if !hasURLScheme(body) {
		return node{}, false, nil
	}
	end := strings.IndexByte(body, ']')
	nl := strings.IndexByte(body, '\n')
	if end < 0 || (nl >= 0 && nl < end) {
		return node{}, false, nil
	}
	children, err := parseFragment(body[:end], p.depth+1)
	if err != nil {
		return node{}, false, err
	}
	p.pos += end + 2
	p.atLineStart = false
	return node{kind: nodeExternalLink, children: children}, true, nil
}

func hasURLScheme(s string) bool {
	for _, scheme := range []string{"http://", "https://", "ftp://", "//"} {
		if strings.HasPrefix(s, scheme) {
			return true
		}
	}
	return false
}

// balanced finds the close of the delimiter pair opening at start and
// returns the inner text and the position past the close.
func balanced(src string, start int, open, close string) (string, int, bool) {
	depth := 1
	i := start + len(open)
	for i < len(src) {
		switch {
		case strings.HasPrefix(src[i:], open):
			depth++
			i += len(open)
		case strings.HasPrefix(src[i:], close):
			depth--
			if depth == 0 {
				return src[start+len(open) : i], i + len(close), true
			}
			i += len(close)
		default:
			i++
		}
	}
	return "", 0, false
}

// splitTopLevel splits on sep, ignoring separators nested inside
// templates or links.
func splitTopLevel(s string, sep byte) []string {
	var (
		parts []string
		last  int
		curly int
		brack int
	)
	for i := 0; i < len(s); i++ {
		switch {
		case strings.HasPrefix(s[i:], "{{"):
			curly++
			i++
		case strings.HasPrefix(s[i:], "}}"):
			curly--
			i++
		case strings.HasPrefix(s[i:], "[["):
			brack++
			i++
		case strings.HasPrefix(s[i:], "]]"):
			brack--
			i++
		case s[i] == sep && curly == 0 && brack == 0:
			parts = append(parts, s[last:i])
			last = i + 1
		}
	}
	return append(parts, s[last:])
}

// splitParam splits a template parameter into name and value on the
// first top-level equals sign. Positional parameters have no name.
func splitParam(s string) (string, string) {
	curly, brack := 0, 0
	for i := 0; i < len(s); i++ {
		switch {
		case strings.HasPrefix(s[i:], "{{"):
			curly++
			i++
		case strings.HasPrefix(s[i:], "}}"):
			curly--
			i++
		case strings.HasPrefix(s[i:], "[["):
			brack++
			i++
		case strings.HasPrefix(s[i:], "]]"):
			brack--
			i++
		case s[i] == '=' && curly == 0 && brack == 0:
			return s[:i], s[i+1:]
		}
	}
	return "", s
}
