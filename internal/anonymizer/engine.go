package anonymizer

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Result is the outcome of one anonymize call. It is the only way back to the
// original values and must not be shared between requests.
type Result struct {
	AnonymizedText string
	Mapping        *Mapping
	Stats          Stats
}

// Engine runs a fixed set of detectors. It holds no per-call state and is safe
// for concurrent use.
type Engine struct {
	detectors []Detector
}

// NewEngine builds an engine over the given detectors, or over
// DefaultDetectors when none are passed.
func NewEngine(detectors ...Detector) *Engine {
	if len(detectors) == 0 {
		detectors = DefaultDetectors()
	}
	return &Engine{detectors: detectors}
}

// Anonymize replaces every detected entity in text with a placeholder.
func (e *Engine) Anonymize(text string) *Result {
	s := newSession()
	e.detect(s, text)
	return &Result{
		AnonymizedText: substitute(text, s.mapping),
		Mapping:        s.mapping,
		Stats:          s.stats,
	}
}

// AnonymizeObject anonymizes every string leaf of a JSON compatible value with
// a single mapping. Map keys are left as they are. The returned Result carries
// the anonymized value serialized as JSON in AnonymizedText.
func (e *Engine) AnonymizeObject(v any) (any, *Result, error) {
	doc, err := normalize(v)
	if err != nil {
		return nil, nil, err
	}

	s := newSession()
	walkStrings(doc, false, func(str string) string {
		e.detect(s, str)
		return str
	})

	out := walkStrings(doc, false, func(str string) string {
		return substitute(str, s.mapping)
	})

	raw, err := json.Marshal(out)
	if err != nil {
		return nil, nil, fmt.Errorf("encode anonymized object: %w", err)
	}
	return out, &Result{AnonymizedText: string(raw), Mapping: s.mapping, Stats: s.stats}, nil
}

func (e *Engine) detect(s *session, text string) {
	if text == "" {
		return
	}
	for _, d := range e.detectors {
		for _, span := range d.Detect(text) {
			s.mint(span)
		}
	}
}

// substitute replaces original values longest first, each as a case
// insensitive whole-word global replace over the current text. When an
// original value was minted more than once, the first placeholder wins and the
// later entries stay in the mapping unused.
func substitute(text string, m *Mapping) string {
	if text == "" || m.Len() == 0 {
		return text
	}
	for _, entry := range m.byOriginalLength() {
		if entry.Original == "" {
			continue
		}
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(entry.Original))
		text = replaceWholeWord(text, re, entry.Placeholder)
	}
	return text
}
