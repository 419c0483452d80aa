package wikitext

type nodeKind int

const (
	nodeText nodeKind = iota
	nodeParagraphBreak
	nodeHeading
	nodeTemplate
	nodeLink
	nodeExternalLink
	nodeUnorderedList
	nodeOrderedList
	nodeDefinitionList
	nodeTable
)

// node is one element of the parsed markup tree. Only the fields
// relevant to its kind are set.
type node struct {
	kind nodeKind

	// nodeText
	text string

	// nodeHeading
	level int

	// nodeHeading title, nodeLink label, nodeExternalLink content
	children []node

	// nodeTemplate
	name   string
	params []templateParam

	// list items, one node list per item
	items [][]node

	// nodeDefinitionList
	defs []definitionItem

	// nodeTable
	captions []node
	rows     []tableRow
}

type templateParam struct {
	// name is empty for positional parameters.
	name  string
	value []node
}

type definitionItem struct {
	// term is true for ";" lines, false for ":" continuation lines.
	term  bool
	nodes []node
}

type tableRow struct {
	cells []tableCell
}

type tableCell struct {
	header  bool
	content []node
}
