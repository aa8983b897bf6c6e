package anonymizer

import (
	"regexp"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

	// French numbers: 0X XX XX XX XX, +33 X XX XX XX XX, 0033 X XX XX XX XX.
	phonePattern = regexp.MustCompile(
		`(?:(?:\+|00)33[ .\-\x{00A0}]?(?:\(0\)[ .\-\x{00A0}]?)?[1-9]|0[1-9])(?:[ .\-\x{00A0}]?\d{2}){4}`)

	personToken = regexp.MustCompile(`\p{Lu}\p{Ll}+(?:[\-'’]\p{L}\p{Ll}*)*`)

	companyPattern = regexp.MustCompile(
		`\p{Lu}[\p{L}\d'’.&\-]*` +
			`(?:[ \x{00A0}]+(?:\p{Lu}[\p{L}\d'’.&\-]*|&|de|du|des|et))*` +
			`[ \x{00A0}]+(?:SASU|SARL|EURL|SAS|SCI|SA|Auto-entrepreneur|Freelance)`)

	legalFormAfter = regexp.MustCompile(
		`^[ \x{00A0}]+(?:SASU|SARL|EURL|SAS|SCI|SA|Auto-entrepreneur|Freelance)`)

	companyField = regexp.MustCompile(`[^ \x{00A0}]+`)

	cityWord = regexp.MustCompile(`[\p{L}\p{M}]+`)
)

// Capitalized words that start sentences or name places rather than people.
// The list is short on purpose; residual false positives are accepted.
var defaultExclusions = []string{
	"Bonjour", "Bonsoir", "Merci", "Cordialement", "Salutations", "Madame", "Monsieur",
	"Mademoiselle", "Cher", "Chère", "Contactez", "Contact", "Chez", "France", "Paris",
	"Lyon", "Marseille", "Europe", "Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi",
	"Samedi", "Dimanche", "Janvier", "Février", "Mars", "Avril", "Mai", "Juin", "Juillet",
	"Août", "Septembre", "Octobre", "Novembre", "Décembre", "Auto-entrepreneur", "Freelance",
}

var legalForms = map[string]struct{}{
	"SASU": {}, "SARL": {}, "EURL": {}, "SAS": {}, "SCI": {}, "SA": {},
	"Auto-entrepreneur": {}, "Freelance": {},
}

var defaultCities = []string{
	"Paris", "Marseille", "Lyon", "Toulouse", "Nantes", "Strasbourg", "Montpellier",
	"Bordeaux", "Lille", "Rennes", "Reims", "Le Havre", "Saint-Étienne", "Toulon",
	"Grenoble", "Dijon", "Angers", "Nîmes", "Villeurbanne", "Clermont-Ferrand", "Le Mans",
	"Aix-en-Provence", "Brest", "Amiens", "Limoges", "Annecy", "Perpignan", "Metz",
	"Besançon", "Orléans", "Rouen", "Mulhouse", "Caen", "Nancy", "Avignon", "Poitiers",
	"La Rochelle", "Bruxelles", "Genève", "Lausanne", "Montréal", "Luxembourg",
}

// DefaultDetectors returns the built-in rule set in detection order.
func DefaultDetectors() []Detector {
	return []Detector{
		EmailDetector(),
		PhoneDetector(),
		PersonDetector(defaultExclusions),
		CompanyDetector(defaultExclusions),
		CityDetector(defaultCities),
	}
}

func EmailDetector() Detector {
	return &patternRule{category: CategoryEmail, re: emailPattern, accept: wordBounded}
}

// PhoneDetector rejects numbers glued to another digit or letter.
func PhoneDetector() Detector {
	return &patternRule{category: CategoryPhone, re: phonePattern, accept: wordBounded}
}

// foldKey is the comparison key for exclusion and city lookups: accents
// stripped, then Unicode case folded. Transformers are stateful, so each call
// builds its own.
func foldKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(stripped)
}

func keySet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[foldKey(w)] = struct{}{}
	}
	return set
}

type personRule struct {
	exclusions map[string]struct{}
}

// PersonDetector finds runs of two or more capitalized tokens. Excluded words
// split a run, and a run followed by a legal form is left to the company rule.
func PersonDetector(exclusions []string) Detector {
	return &personRule{exclusions: keySet(exclusions)}
}

func (r *personRule) Category() Category { return CategoryPerson }

func (r *personRule) Detect(text string) []Span {
	var (
		spans []Span
		run   [][]int
	)
	flush := func() {
		spans = append(spans, r.split(text, run)...)
		run = run[:0]
	}

	for _, loc := range personToken.FindAllStringIndex(text, -1) {
		if !wordBounded(text, loc[0], loc[1]) {
			flush()
			continue
		}
		if len(run) > 0 && !onlySpaces(text[run[len(run)-1][1]:loc[0]]) {
			flush()
		}
		run = append(run, loc)
	}
	flush()
	return spans
}

func (r *personRule) split(text string, run [][]int) []Span {
	var spans []Span
	emit := func(part [][]int) {
		if len(part) < 2 {
			return
		}
		start, end := part[0][0], part[len(part)-1][1]
		if followedByLegalForm(text, end) {
			return
		}
		spans = append(spans, Span{Category: CategoryPerson, Text: text[start:end], Start: start, End: end})
	}

	from := 0
	for i, loc := range run {
		if _, excluded := r.exclusions[foldKey(text[loc[0]:loc[1]])]; excluded {
			emit(run[from:i])
			from = i + 1
		}
	}
	emit(run[from:])
	return spans
}

func followedByLegalForm(text string, end int) bool {
	loc := legalFormAfter.FindStringIndex(text[end:])
	return loc != nil && boundaryAfter(text, end+loc[1])
}

func onlySpaces(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c != ' ' && c != '\u00a0' {
			return false
		}
	}
	return true
}

type companyRule struct {
	exclusions map[string]struct{}
}

// CompanyDetector finds capitalized word runs ending with a French legal form
// (SARL, SAS, SASU, SA, EURL, SCI) or with Auto-entrepreneur / Freelance.
// Leading greeting words are trimmed from the match.
func CompanyDetector(exclusions []string) Detector {
	return &companyRule{exclusions: keySet(exclusions)}
}

func (r *companyRule) Category() Category { return CategoryCompany }

func (r *companyRule) Detect(text string) []Span {
	var spans []Span
	for _, loc := range companyPattern.FindAllStringIndex(text, -1) {
		if !wordBounded(text, loc[0], loc[1]) {
			continue
		}
		// One match may chain several names ("X SAS et Y SARL"): split after
		// every legal form.
		fields := companyField.FindAllStringIndex(text[loc[0]:loc[1]], -1)
		from := 0
		for i, f := range fields {
			if i == from {
				continue
			}
			if _, ok := legalForms[text[loc[0]+f[0]:loc[0]+f[1]]]; !ok {
				continue
			}
			start, end := r.trimLeading(text, loc[0]+fields[from][0], loc[0]+f[1]), loc[0]+f[1]
			from = i + 1
			if start < 0 {
				continue
			}
			spans = append(spans, Span{Category: CategoryCompany, Text: text[start:end], Start: start, End: end})
		}
	}
	return spans
}

// trimLeading skips excluded or lowercase words at the start of a match. It
// returns -1 when only the legal form would remain.
func (r *companyRule) trimLeading(text string, start, end int) int {
	fields := companyField.FindAllStringIndex(text[start:end], -1)
	for i := 0; i < len(fields)-1; i++ {
		word := text[start+fields[i][0] : start+fields[i][1]]
		first, _ := utf8.DecodeRuneInString(word)
		if _, excluded := r.exclusions[foldKey(word)]; !excluded && unicode.IsUpper(first) {
			return start + fields[i][0]
		}
	}
	return -1
}

type cityRule struct {
	names    map[string]struct{}
	maxWords int
}

// CityDetector matches a closed list of city names, ignoring case and accents.
func CityDetector(names []string) Detector {
	r := &cityRule{names: keySet(names), maxWords: 1}
	for _, n := range names {
		if w := len(cityWord.FindAllStringIndex(n, -1)); w > r.maxWords {
			r.maxWords = w
		}
	}
	return r
}

func (r *cityRule) Category() Category { return CategoryCity }

func (r *cityRule) Detect(text string) []Span {
	words := cityWord.FindAllStringIndex(text, -1)
	var spans []Span
	for i := 0; i < len(words); {
		n := r.longestAt(text, words, i)
		if n == 0 {
			i++
			continue
		}
		start, end := words[i][0], words[i+n-1][1]
		spans = append(spans, Span{Category: CategoryCity, Text: text[start:end], Start: start, End: end})
		i += n
	}
	return spans
}

// longestAt returns how many words starting at i form a known city, or 0.
func (r *cityRule) longestAt(text string, words [][]int, i int) int {
	for n := min(r.maxWords, len(words)-i); n >= 1; n-- {
		joined := true
		for k := i + 1; k < i+n; k++ {
			if gap := text[words[k-1][1]:words[k][0]]; gap != " " && gap != "-" && gap != "\u00a0" {
				joined = false
				break
			}
		}
		if !joined {
			continue
		}
		start, end := words[i][0], words[i+n-1][1]
		if !wordBounded(text, start, end) {
			continue
		}
		if _, ok := r.names[foldKey(text[start:end])]; ok {
			return n
		}
	}
	return 0
}
