package formatter

import (
	"testing"
	"time"

	"github.com/custodia-labs/wikidex/internal/core/domain"
)

func sampleRecord() domain.DocumentRecord {
	date := time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)
	return domain.DocumentRecord{
		ID:           1,
		Title:        "Austrian German",
		Text:         "Austrian German is a variety of Standard German.",
		AccessDate:   date,
		ModifiedDate: date,
	}
}

func TestCitationMLA(t *testing.T) {
	want := `"Austrian German" Wikipedia, Wikimedia Foundation, 1 October 2023, https://en.wikipedia.org/wiki/Austrian_German. Accessed 1 October 2023.`
	if got := Citation(StyleMLA, sampleRecord()); got != want {
		t.Errorf("Citation() = %q, want %q", got, want)
	}
}

func TestCitationAPA(t *testing.T) {
	want := `Austrian German. 2023, October 1. In Wikipedia. Retrieved October 1, 2023, from https://en.wikipedia.org/wiki/Austrian_German`
	if got := Citation(StyleAPA, sampleRecord()); got != want {
		t.Errorf("Citation() = %q, want %q", got, want)
	}
}

func TestCitationChicago(t *testing.T) {
	want := `"Austrian German" Wikipedia. Last modified 1 October 2023, Accessed 1 October 2023, https://en.wikipedia.org/wiki/Austrian_German.`
	if got := Citation(StyleChicago, sampleRecord()); got != want {
		t.Errorf("Citation() = %q, want %q", got, want)
	}
}

func TestRecordURL(t *testing.T) {
	if got := sampleRecord().URL(); got != "https://en.wikipedia.org/wiki/Austrian_German" {
		t.Errorf("URL() = %q", got)
	}
}

func TestParseStyle(t *testing.T) {
	cases := []struct {
		in   string
		want Style
		ok   bool
	}{
		{"mla", StyleMLA, true},
		{"MLA", StyleMLA, true},
		{"apa", StyleAPA, true},
		{"Chicago", StyleChicago, true},
		{"", StyleChicago, true},
		{"harvard", StyleChicago, false},
	}
	for _, tc := range cases {
		got, err := ParseStyle(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("ParseStyle(%q) = %v, %v", tc.in, got, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("ParseStyle(%q) error = nil, want failure", tc.in)
		}
	}
}

func TestExcerptNumbering(t *testing.T) {
	got := Excerpt(3, "passage body")
	want := "3. ```\npassage body\n```"
	if got != want {
		t.Errorf("Excerpt() = %q, want %q", got, want)
	}
}

func TestExcerptsJoin(t *testing.T) {
	sources := []domain.Source{
		{Ordinal: 1, Excerpt: "first"},
		{Ordinal: 2, Excerpt: "second"},
	}
	want := "1. ```\nfirst\n```\n\n2. ```\nsecond\n```"
	if got := Excerpts(sources); got != want {
		t.Errorf("Excerpts() = %q, want %q", got, want)
	}
}
