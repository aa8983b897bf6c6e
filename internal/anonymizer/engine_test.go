package anonymizer

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contactSentence = "Contactez Jean Dupont à jean.dupont@example.com ou au 06 12 34 56 78, chez Dupont Consulting SARL à Paris."

// ==========================
// Anonymize Tests
// ==========================

func TestEngine_Anonymize_ContactSentence(t *testing.T) {
	res := NewEngine().Anonymize(contactSentence)

	assert.Equal(t,
		"Contactez PERSON_001 à EMAIL_001 ou au PHONE_001, chez COMPANY_001 à CITY_001.",
		res.AnonymizedText)

	require.Equal(t, 5, res.Mapping.Len())
	expected := map[string]string{
		"PERSON_001":  "Jean Dupont",
		"EMAIL_001":   "jean.dupont@example.com",
		"PHONE_001":   "06 12 34 56 78",
		"COMPANY_001": "Dupont Consulting SARL",
		"CITY_001":    "Paris",
	}
	for ph, original := range expected {
		entry, ok := res.Mapping.Lookup(ph)
		require.True(t, ok, ph)
		assert.Equal(t, original, entry.Original)
	}

	assert.Equal(t, Stats{
		CategoryPerson:  1,
		CategoryEmail:   1,
		CategoryPhone:   1,
		CategoryCompany: 1,
		CategoryCity:    1,
	}, res.Stats)
	assert.Equal(t, 5, res.Stats.Total())

	assert.Equal(t, contactSentence, Restore(res.AnonymizedText, res.Mapping))
}

func TestEngine_Anonymize(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		validateOutput func(t *testing.T, res *Result)
	}{
		{
			name:  "empty input",
			input: "",
			validateOutput: func(t *testing.T, res *Result) {
				assert.Equal(t, "", res.AnonymizedText)
				assert.Equal(t, 0, res.Mapping.Len())
				assert.Empty(t, res.Stats)
			},
		},
		{
			name:  "nothing detected",
			input: "le rendez-vous est confirmé pour mardi matin.",
			validateOutput: func(t *testing.T, res *Result) {
				assert.Equal(t, "le rendez-vous est confirmé pour mardi matin.", res.AnonymizedText)
				assert.Equal(t, 0, res.Mapping.Len())
			},
		},
		{
			name:  "longer entity tokenized first",
			input: "Marc Dubois travaille chez Dubois Consulting SARL.",
			validateOutput: func(t *testing.T, res *Result) {
				assert.Equal(t, "PERSON_001 travaille chez COMPANY_001.", res.AnonymizedText)
				assert.NotContains(t, res.AnonymizedText, "Consulting")
			},
		},
		{
			name:  "repeated value minted per occurrence",
			input: "Jean Dupont a écrit. Jean Dupont signe.",
			validateOutput: func(t *testing.T, res *Result) {
				assert.Equal(t, "PERSON_001 a écrit. PERSON_001 signe.", res.AnonymizedText)
				require.Equal(t, 2, res.Mapping.Len())
				second, ok := res.Mapping.Lookup("PERSON_002")
				require.True(t, ok)
				assert.Equal(t, "Jean Dupont", second.Original)
				assert.Equal(t, 2, res.Stats[CategoryPerson])
			},
		},
		{
			name:  "replacement ignores case",
			input: "Réunion à Lille, puis retour à LILLE.",
			validateOutput: func(t *testing.T, res *Result) {
				assert.Equal(t, "Réunion à CITY_001, puis retour à CITY_001.", res.AnonymizedText)
			},
		},
		{
			name:  "accented names",
			input: "Bonjour Éloïse Ménard, merci.",
			validateOutput: func(t *testing.T, res *Result) {
				assert.Equal(t, "Bonjour PERSON_001, merci.", res.AnonymizedText)
			},
		},
	}

	eng := NewEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := eng.Anonymize(tt.input)
			require.NotNil(t, res)
			tt.validateOutput(t, res)
		})
	}
}

func TestEngine_Anonymize_PlaceholderOpacity(t *testing.T) {
	inputs := []string{
		contactSentence,
		"Bonjour Marie-Claire Lefèvre, votre conseiller Paul Martin (paul.martin@agence.fr, 01 23 45 67 89) vous attend à Lyon.",
		"Nova Conseil SASU et Atelier Bernard SAS, Bordeaux et Nantes.",
	}
	eng := NewEngine()
	for _, in := range inputs {
		res := eng.Anonymize(in)
		for _, e := range res.Mapping.Entries() {
			assert.NotContains(t, strings.ToLower(res.AnonymizedText), strings.ToLower(e.Original), e.Placeholder)
		}
		assert.Equal(t, in, Restore(res.AnonymizedText, res.Mapping))
	}
}

func TestEngine_Anonymize_Concurrent(t *testing.T) {
	eng := NewEngine()
	want := eng.Anonymize(contactSentence)

	var wg sync.WaitGroup
	results := make([]*Result, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = eng.Anonymize(contactSentence)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want.AnonymizedText, got.AnonymizedText)
		assert.Equal(t, want.Mapping.Entries(), got.Mapping.Entries())
	}
}

func TestEngine_CustomDetectors(t *testing.T) {
	eng := NewEngine(EmailDetector())
	res := eng.Anonymize(contactSentence)
	assert.Equal(t, 1, res.Mapping.Len())
	assert.Contains(t, res.AnonymizedText, "Jean Dupont")
	assert.Contains(t, res.AnonymizedText, "EMAIL_001")
}

func TestPlaceholder_Format(t *testing.T) {
	assert.Equal(t, "PERSON_001", placeholder(CategoryPerson, 1))
	assert.Equal(t, "EMAIL_042", placeholder(CategoryEmail, 42))
	assert.Equal(t, "PERSON_1000", placeholder(CategoryPerson, 1000))
}

// ==========================
// Object Tests
// ==========================

func TestEngine_AnonymizeObject_RoundTrip(t *testing.T) {
	input := map[string]interface{}{
		"contact": map[string]interface{}{
			"name":  "Jean Dupont",
			"email": "jean.dupont@example.com",
		},
		"notes": []interface{}{"Rendez-vous à Paris", "Ligne 1\nJean Dupont"},
		"age":   42,
	}

	out, res, err := NewEngine().AnonymizeObject(input)
	require.NoError(t, err)

	doc := out.(map[string]interface{})
	contact := doc["contact"].(map[string]interface{})
	assert.Equal(t, "EMAIL_001", contact["email"])
	assert.Equal(t, "PERSON_001", contact["name"])
	assert.Equal(t, []interface{}{"Rendez-vous à CITY_001", "Ligne 1\nPERSON_001"}, doc["notes"])
	assert.Equal(t, json.Number("42"), doc["age"])

	assert.NotContains(t, res.AnonymizedText, "Dupont")
	assert.True(t, json.Valid([]byte(res.AnonymizedText)))

	restored, err := RestoreObject(out, res.Mapping)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"contact": map[string]interface{}{
			"name":  "Jean Dupont",
			"email": "jean.dupont@example.com",
		},
		"notes": []interface{}{"Rendez-vous à Paris", "Ligne 1\nJean Dupont"},
		"age":   json.Number("42"),
	}, restored)
}

func TestEngine_AnonymizeObject_Struct(t *testing.T) {
	type profile struct {
		FullName string `json:"fullName"`
		City     string `json:"city"`
	}

	out, res, err := NewEngine().AnonymizeObject(profile{FullName: "Paul Martin", City: "Nantes"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"fullName": "PERSON_001", "city": "CITY_001"}, out)
	assert.Equal(t, 2, res.Mapping.Len())
}

func TestEngine_AnonymizeObject_KeysUntouched(t *testing.T) {
	out, _, err := NewEngine().AnonymizeObject(map[string]interface{}{"Paris": "Paris"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"Paris": "CITY_001"}, out)
}

func TestEngine_AnonymizeObject_Unsupported(t *testing.T) {
	_, _, err := NewEngine().AnonymizeObject(map[string]interface{}{"ch": make(chan int)})
	assert.Error(t, err)
}

func BenchmarkEngine_Anonymize(b *testing.B) {
	eng := NewEngine()
	text := strings.Repeat(contactSentence+" ", 20)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = eng.Anonymize(text)
	}
}

func ExampleEngine_Anonymize() {
	res := NewEngine().Anonymize("Écrire à Paul Martin, Lyon.")
	fmt.Println(res.AnonymizedText)
	fmt.Println(Restore(res.AnonymizedText, res.Mapping))
	// Output:
	// Écrire à PERSON_001, CITY_001.
	// Écrire à Paul Martin, Lyon.
}
