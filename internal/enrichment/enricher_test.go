package enrichment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"enrichment-workers/internal/common/logger"
)

// ==========================
// Mock Generator
// ==========================

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestEnricher(t *testing.T, gen Generator) *Enricher {
	t.Helper()
	e, err := New(gen, logger.NewTestLogger(t))
	require.NoError(t, err)
	return e
}

func anonymizedCV() map[string]interface{} {
	return map[string]interface{}{
		"fullName": "PERSON_001",
		"summary":  "  développeur   Go\n\n\n\nchez COMPANY_001 ",
		"experiences": []interface{}{
			map[string]interface{}{"title": "Dev", "company": "COMPANY_001"},
		},
	}
}

// ==========================
// Enrich Tests
// ==========================

func TestEnricher_Enrich(t *testing.T) {
	tests := []struct {
		name           string
		kind           string
		answer         string
		genErr         error
		validateOutput func(t *testing.T, out *Outcome)
	}{
		{
			name:   "valid answer",
			kind:   "cv",
			answer: `{"summary":"Développeur Go senior chez COMPANY_001.","experiences":[{"title":"Développeur","company":"COMPANY_001"}]}`,
			validateOutput: func(t *testing.T, out *Outcome) {
				assert.True(t, out.Enriched)
				assert.Empty(t, out.FallbackReason)
				assert.Equal(t, "Développeur Go senior chez COMPANY_001.", out.Content["summary"])
			},
		},
		{
			name:   "answer wrapped in markdown fence",
			kind:   "cv",
			answer: "Voici le résultat :\n```json\n{\"summary\":\"ok\",\"experiences\":[]}\n```",
			validateOutput: func(t *testing.T, out *Outcome) {
				assert.True(t, out.Enriched)
				assert.Equal(t, []interface{}{}, out.Content["experiences"])
			},
		},
		{
			name:   "generator failure",
			kind:   "cv",
			genErr: errors.New("connection refused"),
			validateOutput: func(t *testing.T, out *Outcome) {
				assert.False(t, out.Enriched)
				assert.Equal(t, ReasonGeneratorError, out.FallbackReason)
				assert.Equal(t, "développeur Go\n\nchez COMPANY_001", out.Content["summary"])
				assert.Equal(t, "PERSON_001", out.Content["fullName"])
			},
		},
		{
			name:   "answer without json",
			kind:   "cv",
			answer: "Désolé, je ne peux pas.",
			validateOutput: func(t *testing.T, out *Outcome) {
				assert.False(t, out.Enriched)
				assert.Equal(t, ReasonInvalidJSON, out.FallbackReason)
			},
		},
		{
			name:   "truncated json",
			kind:   "cv",
			answer: `{"summary": "ok", "experiences": [} `,
			validateOutput: func(t *testing.T, out *Outcome) {
				assert.Equal(t, ReasonInvalidJSON, out.FallbackReason)
			},
		},
		{
			name:   "schema mismatch",
			kind:   "cv",
			answer: `{"summary": 42}`,
			validateOutput: func(t *testing.T, out *Outcome) {
				assert.False(t, out.Enriched)
				assert.Equal(t, ReasonSchemaMismatch, out.FallbackReason)
				assert.NotEmpty(t, out.Violations)
				assert.Equal(t, "PERSON_001", out.Content["fullName"])
			},
		},
		{
			name:   "unknown kind uses generic schema",
			kind:   "invoice",
			answer: `{"anything": true}`,
			validateOutput: func(t *testing.T, out *Outcome) {
				assert.True(t, out.Enriched)
				assert.Equal(t, true, out.Content["anything"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := new(MockGenerator)
			gen.On("Generate", mock.Anything, mock.AnythingOfType("string")).Return(tt.answer, tt.genErr).Once()

			out := createTestEnricher(t, gen).Enrich(context.Background(), tt.kind, anonymizedCV())

			require.NotNil(t, out)
			tt.validateOutput(t, out)
			gen.AssertNumberOfCalls(t, "Generate", 1)
		})
	}
}

func TestEnricher_PromptKeepsTokens(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return assert.Contains(t, p, "PERSON_001") &&
			assert.Contains(t, p, "Copy every token exactly") &&
			assert.Contains(t, p, "curriculum vitae")
	})).Return(`{}`, nil)

	out := createTestEnricher(t, gen).Enrich(context.Background(), "cv", anonymizedCV())
	assert.Equal(t, ReasonSchemaMismatch, out.FallbackReason)
	gen.AssertExpectations(t)
}

func TestNew_InvalidSchema(t *testing.T) {
	_, err := New(new(MockGenerator), nil, Kind{Name: "broken", Schema: `{"type": 12`})
	assert.Error(t, err)

	_, err = New(nil, nil)
	assert.Error(t, err)
}

func TestNew_AddsGenericKind(t *testing.T) {
	e, err := New(new(MockGenerator), nil, Kind{Name: "memo", Schema: `{"type":"object"}`})
	require.NoError(t, err)
	assert.Equal(t, []string{"generic", "memo"}, e.Kinds())
}

// ==========================
// Helper Tests
// ==========================

func TestExtractJSON(t *testing.T) {
	doc, err := ExtractJSON("prefix {\"a\": {\"b\": 1}} suffix")
	require.NoError(t, err)
	assert.Contains(t, doc, "a")

	_, err = ExtractJSON("[1, 2]")
	assert.ErrorIs(t, err, ErrNoJSONObject)

	_, err = ExtractJSON("{\"a\":1} and {\"b\":2}")
	assert.ErrorIs(t, err, ErrNoJSONObject)
}

func TestFallback_Whitespace(t *testing.T) {
	in := map[string]interface{}{
		"title": "\t Chef   de projet ",
		"lines": []interface{}{"a\r\nb", " c ", 3},
		"nested": map[string]interface{}{
			"body": "un\n\n\n\ndeux",
		},
	}

	out := Fallback(in)
	assert.Equal(t, map[string]interface{}{
		"title":  "Chef de projet",
		"lines":  []interface{}{"a\nb", "c", 3},
		"nested": map[string]interface{}{"body": "un\n\ndeux"},
	}, out)
	assert.Equal(t, "\t Chef   de projet ", in["title"])
	assert.Equal(t, map[string]interface{}{}, Fallback(nil))
}
