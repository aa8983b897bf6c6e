// Package injector renders documents from marker templates.
//
// A template carries three kinds of markers:
//
//	{{NAME}}                                    scalar value, always HTML-escaped
//	<!-- REPEAT: items --> ... <!-- END REPEAT: items -->   block per list item
//	<!-- IF: hasItems --> ... <!-- ENDIF: hasItems -->       block kept iff flag
//
// Render runs five passes in a fixed order: variables, repeat zones,
// conditional zones, cleanup, then the environment markers {{CURRENT_YEAR}}
// and {{CURRENT_DATE}}. Nothing in a template is ever evaluated.
package injector

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Injector is stateless apart from its clock and safe for concurrent use.
type Injector struct {
	now func() time.Time
}

type Option func(*Injector)

// WithClock sets the clock used for environment markers.
func WithClock(now func() time.Time) Option {
	return func(i *Injector) {
		if now != nil {
			i.now = now
		}
	}
}

func New(opts ...Option) *Injector {
	i := &Injector{now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// resolver returns the value bound to a marker name.
type resolver func(name string) (interface{}, bool)

func rootResolver(data map[string]interface{}) resolver {
	return func(name string) (interface{}, bool) {
		return lookup(data, name)
	}
}

// itemResolver resolves against the current item first, then the enclosing
// scope. A scalar item is exposed as VALUE.
func itemResolver(item interface{}, parent resolver) resolver {
	return func(name string) (interface{}, bool) {
		switch it := item.(type) {
		case map[string]interface{}:
			if v, ok := lookup(it, name); ok {
				return v, true
			}
		default:
			if name == "VALUE" {
				return it, true
			}
		}
		return parent(name)
	}
}

// Render expands tpl with data and flags.
func (i *Injector) Render(tpl string, data map[string]interface{}, flags Flags) (string, error) {
	if err := Validate(tpl); err != nil {
		return "", err
	}
	doc, err := normalizeData(data)
	if err != nil {
		return "", err
	}
	root := rootResolver(doc)

	out, err := substituteOutsideRepeats(tpl, root)
	if err != nil {
		return "", err
	}
	if out, err = expandRepeats(out, root); err != nil {
		return "", err
	}
	if out, err = applyConditionals(out, flags); err != nil {
		return "", err
	}
	out = Cleanup(out)
	return i.substituteEnvironment(out), nil
}

// substituteOutsideRepeats replaces variables everywhere except inside repeat
// zones, which are copied through untouched for the next pass.
func substituteOutsideRepeats(s string, resolve resolver) (string, error) {
	zones, err := findZones(s, repeatZones)
	if err != nil {
		return "", err
	}
	if len(zones) == 0 {
		return substituteVariables(s, resolve), nil
	}

	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, z := range zones {
		b.WriteString(substituteVariables(s[last:z.start], resolve))
		b.WriteString(s[z.start:z.end])
		last = z.end
	}
	b.WriteString(substituteVariables(s[last:], resolve))
	return b.String(), nil
}

func substituteVariables(s string, resolve resolver) string {
	return variableMarker.ReplaceAllStringFunc(s, func(marker string) string {
		if envMarker.MatchString(marker) {
			return marker
		}
		name := variableMarker.FindStringSubmatch(marker)[1]
		v, ok := resolve(name)
		if !ok {
			return ""
		}
		return Escape(scalar(v))
	})
}

// expandRepeats renders every outermost repeat zone once per list item.
// Nested zones are expanded recursively with the item in scope.
func expandRepeats(s string, resolve resolver) (string, error) {
	zones, err := findZones(s, repeatZones)
	if err != nil {
		return "", err
	}
	if len(zones) == 0 {
		return s, nil
	}

	var b strings.Builder
	last := 0
	for _, z := range zones {
		b.WriteString(s[last:z.start])
		last = z.end

		v, _ := resolve(z.name)
		items, _ := v.([]interface{})
		body := s[z.bodyStart:z.bodyEnd]
		for _, item := range items {
			scope := itemResolver(item, resolve)
			rendered, err := substituteOutsideRepeats(body, scope)
			if err != nil {
				return "", err
			}
			if rendered, err = expandRepeats(rendered, scope); err != nil {
				return "", err
			}
			b.WriteString(rendered)
		}
	}
	b.WriteString(s[last:])
	return b.String(), nil
}

// applyConditionals keeps or drops every conditional zone. Markers are always
// removed.
func applyConditionals(s string, flags Flags) (string, error) {
	zones, err := findZones(s, ifZones)
	if err != nil {
		return "", err
	}
	if len(zones) == 0 {
		return s, nil
	}

	var b strings.Builder
	last := 0
	for _, z := range zones {
		b.WriteString(s[last:z.start])
		last = z.end
		if !flags[z.name] {
			continue
		}
		body, err := applyConditionals(s[z.bodyStart:z.bodyEnd], flags)
		if err != nil {
			return "", err
		}
		b.WriteString(body)
	}
	b.WriteString(s[last:])
	return b.String(), nil
}

var (
	emptyWrappers = func() []*regexp.Regexp {
		var out []*regexp.Regexp
		for _, tag := range []string{"li", "p", "tr", "ul", "ol", "tbody", "section"} {
			out = append(out, regexp.MustCompile(`(?i)<`+tag+`(?:\s[^>]*)?>\s*</`+tag+`\s*>`))
		}
		return out
	}()
	blankRun = regexp.MustCompile(`\n(?:[ \t]*\n){3,}`)
)

// Cleanup removes structural wrappers left empty by the previous passes and
// collapses three or more blank lines into one.
func Cleanup(s string) string {
	for {
		before := s
		for _, re := range emptyWrappers {
			s = re.ReplaceAllString(s, "")
		}
		if s == before {
			break
		}
	}
	return blankRun.ReplaceAllString(s, "\n\n")
}

func (i *Injector) substituteEnvironment(s string) string {
	now := i.now()
	return envMarker.ReplaceAllStringFunc(s, func(marker string) string {
		switch envMarker.FindStringSubmatch(marker)[1] {
		case "CURRENT_YEAR":
			return strconv.Itoa(now.Year())
		case "CURRENT_DATE":
			return now.Format("2006-01-02")
		}
		return marker
	})
}
