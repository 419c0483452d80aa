// Package wikitext turns raw wiki markup into a flattened article.
//
// The processor is pure and deterministic: it parses the templated
// markup subset into a node tree, then renders the tree to narrative
// text with heading sentinels, extracting tables into structured form.
// Malformed constructs degrade to plain text rather than failing the
// page; only pathological nesting is rejected.
package wikitext
