package anonymizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// normalize turns any JSON compatible value (structs included) into the
// generic map[string]any / []any form.
func normalize(v any) (any, error) {
	switch v.(type) {
	case nil, string, bool, float64:
		return v, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return out, nil
}

// walkStrings returns a copy of v with fn applied to every string leaf, and to
// map keys when keys is true. The input is never modified.
func walkStrings(v any, keys bool, fn func(string) string) any {
	switch val := v.(type) {
	case string:
		return fn(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for _, k := range sortedKeys(val) {
			nk := k
			if keys {
				nk = fn(k)
			}
			out[nk] = walkStrings(val[k], keys, fn)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = walkStrings(item, keys, fn)
		}
		return out
	default:
		return v
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
