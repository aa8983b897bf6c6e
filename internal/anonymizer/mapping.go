package anonymizer

import (
	"encoding/json"
	"fmt"
	"sort"
	"unicode/utf8"
)

// Entry links one placeholder to the original text it replaced.
type Entry struct {
	Placeholder string   `json:"placeholder"`
	Original    string   `json:"original"`
	Category    Category `json:"category"`
}

// Mapping is the per-request table produced by one anonymize call. Placeholders
// are unique; original values may repeat because tokens are minted per
// occurrence. The zero value and a nil *Mapping are both empty.
type Mapping struct {
	entries []Entry
	index   map[string]int
}

func NewMapping() *Mapping {
	return &Mapping{index: make(map[string]int)}
}

func (m *Mapping) add(e Entry) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if _, dup := m.index[e.Placeholder]; dup {
		return
	}
	m.index[e.Placeholder] = len(m.entries)
	m.entries = append(m.entries, e)
}

// Entries returns a copy of the entries in minting order.
func (m *Mapping) Entries() []Entry {
	if m == nil {
		return nil
	}
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

func (m *Mapping) Lookup(placeholder string) (Entry, bool) {
	if m == nil {
		return Entry{}, false
	}
	i, ok := m.index[placeholder]
	if !ok {
		return Entry{}, false
	}
	return m.entries[i], true
}

// Placeholders returns every placeholder in minting order.
func (m *Mapping) Placeholders() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Placeholder
	}
	return out
}

// byOriginalLength orders entries longest original first. Equal lengths keep
// minting order.
func (m *Mapping) byOriginalLength() []Entry {
	out := m.Entries()
	sort.SliceStable(out, func(i, j int) bool {
		return utf8.RuneCountInString(out[i].Original) > utf8.RuneCountInString(out[j].Original)
	})
	return out
}

// byPlaceholderLength orders entries longest placeholder first, then by
// placeholder so that PERSON_1000 is handled before PERSON_100.
func (m *Mapping) byPlaceholderLength() []Entry {
	out := m.Entries()
	sort.SliceStable(out, func(i, j int) bool {
		li, lj := len(out[i].Placeholder), len(out[j].Placeholder)
		if li != lj {
			return li > lj
		}
		return out[i].Placeholder < out[j].Placeholder
	})
	return out
}

type mappingJSON struct {
	Entries []Entry `json:"entries"`
}

func (m *Mapping) MarshalJSON() ([]byte, error) {
	entries := m.Entries()
	if entries == nil {
		entries = []Entry{}
	}
	return json.Marshal(mappingJSON{Entries: entries})
}

func (m *Mapping) UnmarshalJSON(data []byte) error {
	var raw mappingJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.entries = nil
	m.index = make(map[string]int, len(raw.Entries))
	for _, e := range raw.Entries {
		if e.Placeholder == "" {
			return fmt.Errorf("mapping entry without placeholder")
		}
		if _, dup := m.index[e.Placeholder]; dup {
			return fmt.Errorf("duplicate placeholder %q in mapping", e.Placeholder)
		}
		m.add(e)
	}
	return nil
}

// Stats counts detected occurrences per category.
type Stats map[Category]int

func (s Stats) Total() int {
	total := 0
	for _, n := range s {
		total += n
	}
	return total
}

// session holds the per-call sequence counters and the mapping being built.
// A new session is created by every anonymize call and never shared.
type session struct {
	next    map[Category]int
	mapping *Mapping
	stats   Stats
}

func newSession() *session {
	return &session{
		next:    make(map[Category]int),
		mapping: NewMapping(),
		stats:   make(Stats),
	}
}

// placeholder formats CATEGORY_NNN. Sequences wider than three digits are not
// truncated.
func placeholder(c Category, seq int) string {
	return fmt.Sprintf("%s_%03d", c, seq)
}

func (s *session) mint(span Span) string {
	s.next[span.Category]++
	ph := placeholder(span.Category, s.next[span.Category])
	s.mapping.add(Entry{Placeholder: ph, Original: span.Text, Category: span.Category})
	s.stats[span.Category]++
	return ph
}
