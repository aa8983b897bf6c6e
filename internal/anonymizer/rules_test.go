package anonymizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func spanTexts(spans []Span) []string {
	out := make([]string, 0, len(spans))
	for _, s := range spans {
		out = append(out, s.Text)
	}
	return out
}

func assertOffsets(t *testing.T, text string, spans []Span) {
	t.Helper()
	for _, s := range spans {
		require.True(t, s.Start >= 0 && s.End <= len(text) && s.Start < s.End, "bad offsets %+v", s)
		assert.Equal(t, s.Text, text[s.Start:s.End])
	}
}

// ==========================
// Detector Tests
// ==========================

func TestDetectors(t *testing.T) {
	tests := []struct {
		name     string
		detector Detector
		text     string
		expected []string
	}{
		{"email plain", EmailDetector(), "écrire à jean.dupont@example.com.", []string{"jean.dupont@example.com"}},
		{"email with plus", EmailDetector(), "<marie+cv@mail.example.fr>", []string{"marie+cv@mail.example.fr"}},
		{"email missing tld", EmailDetector(), "user@localhost", nil},

		{"phone spaced", PhoneDetector(), "au 06 12 34 56 78, merci", []string{"06 12 34 56 78"}},
		{"phone dotted", PhoneDetector(), "Tél: 01.23.45.67.89", []string{"01.23.45.67.89"}},
		{"phone dashed", PhoneDetector(), "07-98-76-54-32", []string{"07-98-76-54-32"}},
		{"phone compact", PhoneDetector(), "0612345678", []string{"0612345678"}},
		{"phone international", PhoneDetector(), "appeler le +33 6 12 34 56 78", []string{"+33 6 12 34 56 78"}},
		{"phone 0033 prefix", PhoneDetector(), "0033612345678", []string{"0033612345678"}},
		{"phone glued to digit", PhoneDetector(), "ref 061234567890", nil},
		{"phone too short", PhoneDetector(), "06 12 34 56", nil},

		{"person after greeting", PersonDetector(defaultExclusions), "Contactez Jean Dupont à Lille", []string{"Jean Dupont"}},
		{"person hyphenated accented", PersonDetector(defaultExclusions), "Bonjour Marie-Claire Lefèvre,", []string{"Marie-Claire Lefèvre"}},
		{"person accented capital", PersonDetector(defaultExclusions), "signé Élodie Martin", []string{"Élodie Martin"}},
		{"person single token", PersonDetector(defaultExclusions), "Merci Jean", nil},
		{"person only excluded words", PersonDetector(defaultExclusions), "Bonjour Madame", nil},
		{"person followed by legal form", PersonDetector(defaultExclusions), "chez Dupont Consulting SARL", nil},
		{"person followed by freelance", PersonDetector(defaultExclusions), "Marie Martin Freelance", nil},
		{"person across newline", PersonDetector(defaultExclusions), "Jean\nDupont", nil},
		{"person two runs", PersonDetector(defaultExclusions), "Jean Dupont et Paul Martin", []string{"Jean Dupont", "Paul Martin"}},

		{"company sarl", CompanyDetector(defaultExclusions), "chez Dupont Consulting SARL à Paris", []string{"Dupont Consulting SARL"}},
		{"company sasu", CompanyDetector(defaultExclusions), "Nova Conseil SASU", []string{"Nova Conseil SASU"}},
		{"company greeting trimmed", CompanyDetector(defaultExclusions), "Bonjour Atelier Martin SAS", []string{"Atelier Martin SAS"}},
		{"company freelance", CompanyDetector(defaultExclusions), "Marie Martin Freelance", []string{"Marie Martin Freelance"}},
		{"company connector", CompanyDetector(defaultExclusions), "Boulangerie de Lyon SARL", []string{"Boulangerie de Lyon SARL"}},
		{"company chained", CompanyDetector(defaultExclusions), "Nova Conseil SASU et Atelier Bernard SAS, Bordeaux", []string{"Nova Conseil SASU", "Atelier Bernard SAS"}},
		{"company suffix inside word", CompanyDetector(defaultExclusions), "Jean Dupont SAMU", nil},

		{"city exact", CityDetector(defaultCities), "à Paris.", []string{"Paris"}},
		{"city upper case", CityDetector(defaultCities), "BORDEAUX", []string{"BORDEAUX"}},
		{"city without accent", CityDetector(defaultCities), "Saint-Etienne", []string{"Saint-Etienne"}},
		{"city multi word", CityDetector(defaultCities), "vers Aix-en-Provence et Le Havre", []string{"Aix-en-Provence", "Le Havre"}},
		{"city prefix of word", CityDetector(defaultCities), "un Parisien", nil},
		{"city glued to digit", CityDetector(defaultCities), "Lyon3", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := tt.detector.Detect(tt.text)
			assertOffsets(t, tt.text, spans)
			if tt.expected == nil {
				assert.Empty(t, spans)
				return
			}
			assert.Equal(t, tt.expected, spanTexts(spans))
			for _, s := range spans {
				assert.Equal(t, tt.detector.Category(), s.Category)
			}
		})
	}
}

func TestDetectors_Deterministic(t *testing.T) {
	text := "Contactez Jean Dupont à jean.dupont@example.com ou au 06 12 34 56 78, chez Dupont Consulting SARL à Paris."
	for _, d := range DefaultDetectors() {
		first := d.Detect(text)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, d.Detect(text), string(d.Category()))
		}
	}
}

func TestWordBounded(t *testing.T) {
	text := "é_PERSON_001 PERSON_001, xPERSON_001"
	assert.False(t, wordBounded(text, len("é_"), len("é_PERSON_001")))
	assert.True(t, wordBounded(text, len("é_PERSON_001 "), len("é_PERSON_001 PERSON_001")))
	assert.False(t, wordBounded(text, len(text)-len("PERSON_001"), len(text)))
}
