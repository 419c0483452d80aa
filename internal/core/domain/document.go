package domain

import "time"

// Page is one raw record streamed out of a dump archive.
// Consumed exactly once by the markup processor.
type Page struct {
	// ID is the identifier of the page inside the dump.
	ID int64

	// Title is the article title.
	Title string

	// Markup is the unparsed wiki markup body.
	Markup string

	// Modified is when the article was last edited, taken from the
	// newest revision in the dump.
	Modified time.Time
}

// DescribedTable is a table lifted out of an article's narrative text.
type DescribedTable struct {
	// Caption is the table caption, synthesised from the preceding
	// heading when the markup carries none.
	Caption string

	// Header holds the header cells, if the table declared any.
	Header []string

	// Rows holds the body cell text, one slice per row.
	Rows [][]string
}

// Article is the normalised form of a Page: flattened narrative text plus
// the tables extracted from it.
type Article struct {
	// SourceID identifies the originating page.
	SourceID int64

	// Ordinal is the position of the article within its ingest run.
	Ordinal int

	// Title is the article title.
	Title string

	// Text is the narrative text. Heading paths are wrapped in sentinel
	// markers; each extracted table is replaced by a positional
	// placeholder.
	Text string

	// Tables are the tables extracted from the narrative, in document
	// order.
	Tables []DescribedTable

	// Modified is the article's last edit time, carried through from
	// the page.
	Modified time.Time
}

// Chunk is a bounded slice of an article's text prepared for embedding.
// Chunks of the same source carry strictly increasing ordinals and their
// character ranges jointly cover the source text: adjacent ranges may
// overlap, they may never leave a gap.
type Chunk struct {
	// SourceID identifies the originating page.
	SourceID int64

	// Ordinal is the position of the chunk within its source.
	Ordinal int

	// Text is the chunk content.
	Text string

	// Start and End delimit the chunk within the source text,
	// half-open [Start, End).
	Start int
	End   int
}

// DocumentRecord is the persisted form of a chunk plus the provenance a
// citation needs. Read-only after insertion. Its ID doubles as the id of
// the corresponding vector in the index.
type DocumentRecord struct {
	// ID is the docstore primary key and the vector id.
	ID int64

	// Title is the originating article title.
	Title string

	// Text is the chunk text.
	Text string

	// AccessDate is when the dump was ingested.
	AccessDate time.Time

	// ModifiedDate is when the originating article was last edited.
	ModifiedDate time.Time
}

// URL derives the canonical article location from the record title.
func (d DocumentRecord) URL() string {
	return ArticleURL(d.Title)
}
