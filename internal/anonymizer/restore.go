package anonymizer

import (
	"regexp"
	"strings"
)

// Restore puts the original values back in place of their placeholders,
// longest placeholder first. Text without known placeholders is returned
// unchanged.
func Restore(text string, m *Mapping) string {
	if text == "" || m.Len() == 0 {
		return text
	}
	for _, entry := range m.byPlaceholderLength() {
		if !strings.Contains(text, entry.Placeholder) {
			continue
		}
		re := regexp.MustCompile(regexp.QuoteMeta(entry.Placeholder))
		text = replaceWholeWord(text, re, entry.Original)
	}
	return text
}

// RestoreObject restores every string of a JSON compatible value, map keys
// included since a generator may echo a placeholder as a key.
func RestoreObject(v any, m *Mapping) (any, error) {
	doc, err := normalize(v)
	if err != nil {
		return nil, err
	}
	return walkStrings(doc, true, func(s string) string {
		return Restore(s, m)
	}), nil
}
