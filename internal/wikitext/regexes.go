package wikitext

import "regexp"

// Template classification and whitespace cleanup patterns, compiled once
// at package load.
var (
	refnRe     = regexp.MustCompile(`(R|r)efn`)
	languageRe = regexp.MustCompile(`(L|l)ang`)
	linktextRe = regexp.MustCompile(`(L|l)inktext`)
	infoboxRe  = regexp.MustCompile(`(I|i)nfobox`)

	threeWhitespaceRe = regexp.MustCompile(`\s{3,}`)
	twoSpaceRe        = regexp.MustCompile(` {2,}`)
	spaceCommaRe      = regexp.MustCompile(` *,`)
	spacePeriodRe     = regexp.MustCompile(` *\.`)
)

// normalise collapses the whitespace artefacts left behind by dropped
// markup.
func normalise(s string) string {
	s = threeWhitespaceRe.ReplaceAllString(s, "\n\n")
	s = twoSpaceRe.ReplaceAllString(s, " ")
	s = spaceCommaRe.ReplaceAllString(s, ",")
	s = spacePeriodRe.ReplaceAllString(s, ".")
	return s
}
