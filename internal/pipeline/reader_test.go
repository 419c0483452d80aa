package pipeline

import (
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleDump = `<mediawiki>
  <page>
    <title>Alpha</title>
    <ns>0</ns>
    <id>100</id>
    <revision>
      <timestamp>2023-05-01T12:00:00Z</timestamp>
      <model>wikitext</model>
      <text>Alpha body text.</text>
    </revision>
  </page>
  <page>
    <title>Talk:Alpha</title>
    <ns>1</ns>
    <id>101</id>
    <revision>
      <timestamp>2023-05-01T12:00:00Z</timestamp>
      <model>wikitext</model>
      <text>Discussion page.</text>
    </revision>
  </page>
  <page>
    <title>Beta</title>
    <ns>0</ns>
    <id>102</id>
    <redirect title="Alpha"/>
    <revision>
      <timestamp>2023-05-01T12:00:00Z</timestamp>
      <model>wikitext</model>
      <text>#REDIRECT [[Alpha]]</text>
    </revision>
  </page>
  <page>
    <title>Gamma</title>
    <ns>0</ns>
    <id>103</id>
    <revision>
      <timestamp>2023-06-15T08:30:00Z</timestamp>
      <model>wikitext</model>
      <text>Gamma body text.</text>
    </revision>
  </page>
</mediawiki>`

func writeDump(t *testing.T, name, content string, gz bool) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if gz {
		w := gzip.NewWriter(f)
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
		return path
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDumpReaderFiltersPages(t *testing.T) {
	path := writeDump(t, "dump.xml", sampleDump, false)

	pages, errs := NewDumpReader(4).Read(context.Background(), path)
	got := collect(t, pages)
	if err := <-errs; err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("got %d pages, want 2 (namespace and redirect filtered)", len(got))
	}
	if got[0].Title != "Alpha" || got[0].ID != 100 {
		t.Errorf("first page = %+v", got[0])
	}
	if got[1].Title != "Gamma" || got[1].ID != 103 {
		t.Errorf("second page = %+v", got[1])
	}

	want := time.Date(2023, 6, 15, 8, 30, 0, 0, time.UTC)
	if !got[1].Modified.Equal(want) {
		t.Errorf("Modified = %v, want %v", got[1].Modified, want)
	}
}

func TestDumpReaderGzip(t *testing.T) {
	path := writeDump(t, "dump.xml.gz", sampleDump, true)

	pages, errs := NewDumpReader(4).Read(context.Background(), path)
	got := collect(t, pages)
	if err := <-errs; err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d pages, want 2", len(got))
	}
}

func TestDumpReaderMissingFile(t *testing.T) {
	pages, errs := NewDumpReader(1).Read(context.Background(), filepath.Join(t.TempDir(), "nope.xml"))
	collect(t, pages)
	if err := <-errs; err == nil {
		t.Fatal("Read() error = nil, want open failure")
	}
}
