// Package anonymizer replaces personal data in free text with typed placeholder
// tokens and restores the original values afterwards.
//
// Detection is rule based: every entity category has its own Detector and no
// detector ever sees another one's results. Overlaps between categories are
// settled at substitution time (longest original value first).
//
// Usage:
//
//	eng := anonymizer.NewEngine()
//	res := eng.Anonymize(text)
//	// send res.AnonymizedText to the generator
//	out := anonymizer.Restore(generated, res.Mapping)
package anonymizer

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

// Category classifies a detected entity. Its value is the placeholder prefix.
type Category string

const (
	CategoryEmail   Category = "EMAIL"
	CategoryPhone   Category = "PHONE"
	CategoryPerson  Category = "PERSON"
	CategoryCompany Category = "COMPANY"
	CategoryCity    Category = "CITY"
)

// Categories lists every built-in category in detection order.
var Categories = []Category{
	CategoryEmail,
	CategoryPhone,
	CategoryPerson,
	CategoryCompany,
	CategoryCity,
}

// Span is a single match produced by a Detector.
// Offsets are byte offsets and text[Start:End] == Text.
type Span struct {
	Category Category
	Text     string
	Start    int
	End      int
}

// Detector finds every span of one category in a text.
// Implementations must be pure and safe for concurrent use.
type Detector interface {
	Category() Category
	Detect(text string) []Span
}

// patternRule is a Detector backed by a single regular expression plus an
// optional acceptance check on each match.
type patternRule struct {
	category Category
	re       *regexp.Regexp
	accept   func(text string, start, end int) bool
}

func (r *patternRule) Category() Category { return r.category }

func (r *patternRule) Detect(text string) []Span {
	var spans []Span
	for _, loc := range r.re.FindAllStringIndex(text, -1) {
		if r.accept != nil && !r.accept(text, loc[0], loc[1]) {
			continue
		}
		spans = append(spans, Span{
			Category: r.category,
			Text:     text[loc[0]:loc[1]],
			Start:    loc[0],
			End:      loc[1],
		})
	}
	return spans
}

// isWordRune reports whether r continues a word. The underscore counts as a
// word rune so that a placeholder such as CITY_001 is never split.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

func boundaryBefore(text string, i int) bool {
	if i <= 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, j int) bool {
	if j >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[j:])
	return !isWordRune(r)
}

// wordBounded is the Unicode aware equivalent of \b...\b. RE2's \b only knows
// ASCII letters, which breaks on accented names.
func wordBounded(text string, start, end int) bool {
	return boundaryBefore(text, start) && boundaryAfter(text, end)
}

// replaceWholeWord replaces every match of re that is delimited by non-word
// runes on both sides.
func replaceWholeWord(text string, re *regexp.Regexp, repl string) string {
	locs := re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text
	}

	var (
		out  []byte
		last int
		hit  bool
	)
	for _, loc := range locs {
		if loc[0] == loc[1] || !wordBounded(text, loc[0], loc[1]) {
			continue
		}
		if !hit {
			out = make([]byte, 0, len(text))
			hit = true
		}
		out = append(out, text[last:loc[0]]...)
		out = append(out, repl...)
		last = loc[1]
	}
	if !hit {
		return text
	}
	out = append(out, text[last:]...)
	return string(out)
}
