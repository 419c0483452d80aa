package pipeline

import (
	"compress/bzip2"
	"compress/gzip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/wikidex/internal/core/domain"
	"github.com/custodia-labs/wikidex/internal/logger"
)

// DumpReader streams eligible pages out of a MediaWiki XML export.
// Eligible means: main namespace, wikitext content model, not a
// redirect, non-empty body. The archive codec is chosen by file
// extension (.bz2, .gz, anything else is read as plain XML).
type DumpReader struct {
	buffer int
}

// NewDumpReader builds a reader whose output channel holds up to
// buffer pages.
func NewDumpReader(buffer int) *DumpReader {
	if buffer < 1 {
		buffer = 1
	}
	return &DumpReader{buffer: buffer}
}

// xmlPage mirrors the subset of the export schema the reader needs.
type xmlPage struct {
	Title    string `xml:"title"`
	NS       int    `xml:"ns"`
	ID       int64  `xml:"id"`
	Redirect *struct {
		Title string `xml:"title,attr"`
	} `xml:"redirect"`
	Revision struct {
		Timestamp string `xml:"timestamp"`
		Model     string `xml:"model"`
		Text      string `xml:"text"`
	} `xml:"revision"`
}

// Read opens the dump at path and streams its pages. The page channel
// closes at end of archive or on ctx cancellation; decode failures end
// the stream with an error on the error channel.
func (r *DumpReader) Read(ctx context.Context, path string) (<-chan domain.Page, <-chan error) {
	pages := make(chan domain.Page, r.buffer)
	errs := make(chan error, 1)

	go func() {
		defer close(pages)
		defer close(errs)

		file, err := os.Open(path)
		if err != nil {
			errs <- fmt.Errorf("opening dump: %w", err)
			return
		}
		defer file.Close()

		var reader io.Reader = file
		switch strings.ToLower(filepath.Ext(path)) {
		case ".bz2":
			reader = bzip2.NewReader(file)
		case ".gz":
			gz, err := gzip.NewReader(file)
			if err != nil {
				errs <- fmt.Errorf("opening gzip dump: %w", err)
				return
			}
			defer gz.Close()
			reader = gz
		}

		if err := r.stream(ctx, reader, pages); err != nil {
			errs <- err
		}
	}()
	return pages, errs
}

func (r *DumpReader) stream(ctx context.Context, reader io.Reader, pages chan<- domain.Page) error {
	decoder := xml.NewDecoder(reader)
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("decoding dump: %w", err)
		}

		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "page" {
			continue
		}

		var raw xmlPage
		if err := decoder.DecodeElement(&raw, &start); err != nil {
			return fmt.Errorf("decoding page element: %w", err)
		}

		page, ok := r.eligible(raw)
		if !ok {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pages <- page:
		}
	}
}

// eligible filters a decoded page and converts it to a domain page.
func (r *DumpReader) eligible(raw xmlPage) (domain.Page, bool) {
	if raw.NS != 0 || raw.Redirect != nil {
		return domain.Page{}, false
	}
	if raw.Revision.Model != "" && raw.Revision.Model != "wikitext" {
		return domain.Page{}, false
	}
	if strings.TrimSpace(raw.Revision.Text) == "" {
		return domain.Page{}, false
	}

	modified, err := time.Parse(time.RFC3339, raw.Revision.Timestamp)
	if err != nil {
		logger.Debug("dump reader: page %q has unparseable timestamp %q", raw.Title, raw.Revision.Timestamp)
		modified = time.Time{}
	}
	return domain.Page{
		ID:       raw.ID,
		Title:    raw.Title,
		Markup:   raw.Revision.Text,
		Modified: modified,
	}, true
}
