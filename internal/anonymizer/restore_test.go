package anonymizer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mappingOf(entries ...Entry) *Mapping {
	m := NewMapping()
	for _, e := range entries {
		m.add(e)
	}
	return m
}

func TestRestore(t *testing.T) {
	m := mappingOf(
		Entry{Placeholder: "PERSON_001", Original: "Jean Dupont", Category: CategoryPerson},
		Entry{Placeholder: "PERSON_100", Original: "Marie Curie", Category: CategoryPerson},
		Entry{Placeholder: "PERSON_1000", Original: "Paul Martin", Category: CategoryPerson},
		Entry{Placeholder: "CITY_001", Original: "Paris", Category: CategoryCity},
	)

	tests := []struct {
		name     string
		input    string
		mapping  *Mapping
		expected string
	}{
		{"no placeholder", "rien à restaurer", m, "rien à restaurer"},
		{"nil mapping", "PERSON_001 à CITY_001", nil, "PERSON_001 à CITY_001"},
		{"empty mapping", "PERSON_001", NewMapping(), "PERSON_001"},
		{"single", "Bonjour PERSON_001.", m, "Bonjour Jean Dupont."},
		{"repeated", "PERSON_001, PERSON_001", m, "Jean Dupont, Jean Dupont"},
		{"wide sequences", "PERSON_1000 et PERSON_100", m, "Paul Martin et Marie Curie"},
		{"unknown placeholder kept", "PERSON_002 à CITY_001", m, "PERSON_002 à Paris"},
		{"glued placeholder ignored", "PERSON_0011 XCITY_001", m, "PERSON_0011 XCITY_001"},
		{"case sensitive", "person_001", m, "person_001"},
		{"inside json text", `{"who":"PERSON_001","where":"CITY_001"}`, m, `{"who":"Jean Dupont","where":"Paris"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Restore(tt.input, tt.mapping))
		})
	}
}

func TestRestoreObject_Keys(t *testing.T) {
	m := mappingOf(Entry{Placeholder: "COMPANY_001", Original: "Dupont Consulting SARL", Category: CategoryCompany})

	out, err := RestoreObject(map[string]interface{}{
		"COMPANY_001": []interface{}{"client de COMPANY_001", true, nil},
	}, m)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"Dupont Consulting SARL": []interface{}{"client de Dupont Consulting SARL", true, nil},
	}, out)
}

func TestRestoreObject_DoesNotMutateInput(t *testing.T) {
	m := mappingOf(Entry{Placeholder: "CITY_001", Original: "Lyon", Category: CategoryCity})
	in := map[string]interface{}{"city": "CITY_001"}

	_, err := RestoreObject(in, m)
	require.NoError(t, err)
	assert.Equal(t, "CITY_001", in["city"])
}

func TestMapping_JSON(t *testing.T) {
	res := NewEngine().Anonymize(contactSentence)

	raw, err := json.Marshal(res.Mapping)
	require.NoError(t, err)

	var decoded Mapping
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, res.Mapping.Entries(), decoded.Entries())
	assert.Equal(t, contactSentence, Restore(res.AnonymizedText, &decoded))
}

func TestMapping_UnmarshalJSON_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{entries`},
		{"missing placeholder", `{"entries":[{"original":"x","category":"CITY"}]}`},
		{"duplicate placeholder", `{"entries":[{"placeholder":"CITY_001","original":"Lyon"},{"placeholder":"CITY_001","original":"Lille"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Mapping
			assert.Error(t, json.Unmarshal([]byte(tt.data), &m))
		})
	}
}

func TestMapping_NilSafe(t *testing.T) {
	var m *Mapping
	assert.Equal(t, 0, m.Len())
	assert.Nil(t, m.Entries())
	_, ok := m.Lookup("CITY_001")
	assert.False(t, ok)

	raw, err := json.Marshal(NewMapping())
	require.NoError(t, err)
	assert.JSONEq(t, `{"entries":[]}`, string(raw))
}
