package injector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Flags drives conditional zones. A missing flag is false.
type Flags map[string]bool

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
	"{", "&#123;",
	"}", "&#125;",
)

// Escape HTML-escapes s. Braces are escaped too so that an injected value can
// never form a marker.
func Escape(s string) string {
	return escaper.Replace(s)
}

// normalizeData converts arbitrary JSON compatible data into generic maps and
// slices.
func normalizeData(data map[string]interface{}) (map[string]interface{}, error) {
	if data == nil {
		return map[string]interface{}{}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode render data: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out map[string]interface{}
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode render data: %w", err)
	}
	return out, nil
}

func normalizeKey(k string) string {
	k = strings.ToLower(k)
	return strings.NewReplacer("_", "", "-", "").Replace(k)
}

// field looks a key up in m: exact match first, then ignoring case, '_' and
// '-'. Candidates are tried in sorted order so the result is deterministic.
func field(m map[string]interface{}, key string) (interface{}, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	want := normalizeKey(key)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if normalizeKey(k) == want {
			return m[k], true
		}
	}
	return nil, false
}

// lookup resolves name in m, following dotted paths through nested maps and
// list indexes.
func lookup(m map[string]interface{}, name string) (interface{}, bool) {
	if v, ok := field(m, name); ok {
		return v, true
	}
	if !strings.Contains(name, ".") {
		return nil, false
	}

	var cur interface{} = m
	for _, part := range strings.Split(name, ".") {
		switch node := cur.(type) {
		case map[string]interface{}:
			v, ok := field(node, part)
			if !ok {
				return nil, false
			}
			cur = v
		case []interface{}:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// scalar formats v for injection. Maps, lists and nil give "".
func scalar(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

func truthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(val) != ""
	case bool:
		return val
	case json.Number:
		f, err := val.Float64()
		return err == nil && f != 0
	case float64:
		return val != 0
	case []interface{}:
		return len(val) > 0
	case map[string]interface{}:
		return len(val) > 0
	default:
		return true
	}
}

// FlagName returns the flag ComputeFlags derives for a data key:
// "projects" gives "hasProjects", "phone_number" gives "hasPhoneNumber".
func FlagName(key string) string {
	title := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	b.WriteString("has")
	for _, part := range strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' || r == ' ' }) {
		b.WriteString(title.String(part))
	}
	return b.String()
}

// ComputeFlags derives a has<Key> flag for every top level key of data. A flag
// is true for a non-empty string, list or map, a non-zero number or true.
func ComputeFlags(data map[string]interface{}) Flags {
	flags := make(Flags, len(data))
	norm, err := normalizeData(data)
	if err != nil {
		return flags
	}
	keys := make([]string, 0, len(norm))
	for k := range norm {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		name := FlagName(k)
		flags[name] = flags[name] || truthy(norm[k])
	}
	return flags
}

// MergeFlags returns computed overlaid with explicit. Explicit flags win.
func MergeFlags(computed, explicit Flags) Flags {
	out := make(Flags, len(computed)+len(explicit))
	for k, v := range computed {
		out[k] = v
	}
	for k, v := range explicit {
		out[k] = v
	}
	return out
}
