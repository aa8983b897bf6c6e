package injector

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
)

// ErrMalformedTemplate is returned when zone markers are not balanced.
var ErrMalformedTemplate = errors.New("malformed template")

const markerName = `([A-Za-z0-9_.\-]+)`

var (
	variableMarker = regexp.MustCompile(`\{\{\s*` + markerName + `\s*\}\}`)
	envMarker      = regexp.MustCompile(`\{\{\s*(CURRENT_YEAR|CURRENT_DATE)\s*\}\}`)

	repeatOpen  = regexp.MustCompile(`<!--\s*REPEAT:\s*` + markerName + `\s*-->`)
	repeatClose = regexp.MustCompile(`<!--\s*END REPEAT:\s*` + markerName + `\s*-->`)
	ifOpen      = regexp.MustCompile(`<!--\s*IF:\s*` + markerName + `\s*-->`)
	ifClose     = regexp.MustCompile(`<!--\s*ENDIF:\s*` + markerName + `\s*-->`)
)

// zone is a top level REPEAT or IF block.
//
//	s[start:bodyStart] is the opening marker
//	s[bodyStart:bodyEnd] is the body
//	s[bodyEnd:end] is the closing marker
type zone struct {
	name      string
	start     int
	bodyStart int
	bodyEnd   int
	end       int
}

type zoneKind struct {
	label string
	open  *regexp.Regexp
	close *regexp.Regexp
}

var (
	repeatZones = zoneKind{label: "REPEAT", open: repeatOpen, close: repeatClose}
	ifZones     = zoneKind{label: "IF", open: ifOpen, close: ifClose}
)

type markerHit struct {
	name    string
	start   int
	end     int
	closing bool
}

// findZones returns the outermost zones of one kind in s. Nested zones of the
// same kind stay inside their parent's body. Every closing marker must match
// the innermost open one by name.
func findZones(s string, kind zoneKind) ([]zone, error) {
	var hits []markerHit
	for _, m := range kind.open.FindAllStringSubmatchIndex(s, -1) {
		hits = append(hits, markerHit{name: s[m[2]:m[3]], start: m[0], end: m[1]})
	}
	for _, m := range kind.close.FindAllStringSubmatchIndex(s, -1) {
		hits = append(hits, markerHit{name: s[m[2]:m[3]], start: m[0], end: m[1], closing: true})
	}
	if len(hits) == 0 {
		return nil, nil
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].start < hits[j].start })

	var (
		zones []zone
		stack []markerHit
	)
	for _, h := range hits {
		if !h.closing {
			stack = append(stack, h)
			continue
		}
		if len(stack) == 0 {
			return nil, fmt.Errorf("%w: closing %s %q without opening marker", ErrMalformedTemplate, kind.label, h.name)
		}
		top := stack[len(stack)-1]
		if top.name != h.name {
			return nil, fmt.Errorf("%w: %s %q closed by %q", ErrMalformedTemplate, kind.label, top.name, h.name)
		}
		stack = stack[:len(stack)-1]
		if len(stack) == 0 {
			zones = append(zones, zone{
				name:      top.name,
				start:     top.start,
				bodyStart: top.end,
				bodyEnd:   h.start,
				end:       h.end,
			})
		}
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("%w: unclosed %s %q", ErrMalformedTemplate, kind.label, stack[len(stack)-1].name)
	}
	return zones, nil
}

// Validate checks that every REPEAT and IF zone in tpl is balanced.
func Validate(tpl string) error {
	if _, err := findZones(tpl, repeatZones); err != nil {
		return err
	}
	_, err := findZones(tpl, ifZones)
	return err
}
