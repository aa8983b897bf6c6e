// Package enrichment sends anonymized content to the text generator and
// validates what comes back. A failed or invalid answer never fails the
// request: the content is returned with only its whitespace normalized.
package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"enrichment-workers/internal/common/logger"
)

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Fallback reasons reported in Outcome.FallbackReason.
const (
	ReasonGeneratorError = "generator_error"
	ReasonInvalidJSON    = "invalid_json"
	ReasonSchemaMismatch = "schema_mismatch"
)

var ErrNoJSONObject = errors.New("no JSON object in generator answer")

// Outcome is the result of one enrichment attempt.
type Outcome struct {
	Content        map[string]interface{} `json:"content"`
	Enriched       bool                   `json:"enriched"`
	FallbackReason string                 `json:"fallbackReason,omitempty"`
	Violations     []string               `json:"violations,omitempty"`
}

// Enricher makes exactly one generator call per Enrich and never retries.
type Enricher struct {
	generator Generator
	kinds     map[string]*compiledKind
	logger    logger.Logger
}

// New compiles the schemas of kinds, or of DefaultKinds when none are given.
func New(gen Generator, log logger.Logger, kinds ...Kind) (*Enricher, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if len(kinds) == 0 {
		kinds = DefaultKinds()
	}

	e := &Enricher{generator: gen, kinds: make(map[string]*compiledKind, len(kinds)), logger: log}
	for _, k := range kinds {
		ck, err := compileKind(k)
		if err != nil {
			return nil, err
		}
		e.kinds[k.Name] = ck
	}
	if _, ok := e.kinds[GenericKind]; !ok {
		generic, err := compileKind(DefaultKinds()[0])
		if err != nil {
			return nil, err
		}
		e.kinds[GenericKind] = generic
	}
	return e, nil
}

// Kinds lists the registered kind names.
func (e *Enricher) Kinds() []string {
	names := make([]string, 0, len(e.kinds))
	for n := range e.kinds {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Enrich asks the generator to improve anonymized content of the given kind.
// Unknown kinds use the generic kind.
func (e *Enricher) Enrich(ctx context.Context, kind string, anonymized map[string]interface{}) *Outcome {
	k, ok := e.kinds[kind]
	if !ok {
		k = e.kinds[GenericKind]
	}
	log := e.logger.With(map[string]interface{}{"kind": k.Name})

	prompt, err := BuildPrompt(k.Kind, anonymized)
	if err != nil {
		log.Warn("prompt build failed, using fallback", map[string]interface{}{"error": err.Error()})
		return fallbackOutcome(anonymized, ReasonInvalidJSON, nil)
	}

	answer, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		log.Warn("generator call failed, using fallback", map[string]interface{}{"error": err.Error()})
		return fallbackOutcome(anonymized, ReasonGeneratorError, nil)
	}

	doc, err := ExtractJSON(answer)
	if err != nil {
		log.Warn("generator answer is not JSON, using fallback", map[string]interface{}{
			"error":        err.Error(),
			"answerLength": len(answer),
		})
		return fallbackOutcome(anonymized, ReasonInvalidJSON, nil)
	}

	result, err := k.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fallbackOutcome(anonymized, ReasonSchemaMismatch, []string{err.Error()})
	}
	if !result.Valid() {
		violations := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			violations = append(violations, re.String())
		}
		log.Warn("generator answer does not match schema, using fallback", map[string]interface{}{
			"violationCount": len(violations),
		})
		return fallbackOutcome(anonymized, ReasonSchemaMismatch, violations)
	}

	log.Info("content enriched", map[string]interface{}{"fieldCount": len(doc)})
	return &Outcome{Content: doc, Enriched: true}
}

func fallbackOutcome(content map[string]interface{}, reason string, violations []string) *Outcome {
	return &Outcome{
		Content:        Fallback(content),
		Enriched:       false,
		FallbackReason: reason,
		Violations:     violations,
	}
}

// BuildPrompt embeds the anonymized content in the instructions for kind.
func BuildPrompt(k Kind, content map[string]interface{}) (string, error) {
	raw, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode content: %w", err)
	}

	var parts []string
	parts = append(parts, "You are a writing assistant for professional documents.")
	parts = append(parts, k.Instructions)
	parts = append(parts, "\nRules:")
	parts = append(parts, "- Tokens such as PERSON_001, EMAIL_002, PHONE_001, COMPANY_001 or CITY_003 stand for hidden values.")
	parts = append(parts, "- Copy every token exactly as written. Never translate, split or invent tokens.")
	parts = append(parts, "- Answer with a single JSON object and nothing else.")
	parts = append(parts, "\nContent:")
	parts = append(parts, string(raw))
	return strings.Join(parts, "\n"), nil
}

// ExtractJSON returns the JSON object found between the first '{' and the
// last '}' of text. Markdown fences and chatter around it are ignored.
func ExtractJSON(text string) (map[string]interface{}, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, ErrNoJSONObject
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(text[start : end+1])))
	dec.UseNumber()
	var doc map[string]interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoJSONObject, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrNoJSONObject)
	}
	return doc, nil
}

var (
	inlineSpace = regexp.MustCompile(`[ \t\x{00A0}]+`)
	blankLines  = regexp.MustCompile(`\n{3,}`)
)

// Fallback returns a copy of content with every string trimmed, inner runs of
// spaces collapsed and at most one blank line in a row. Structure and keys
// are unchanged.
func Fallback(content map[string]interface{}) map[string]interface{} {
	out, _ := normalizeValue(content).(map[string]interface{})
	if out == nil {
		out = map[string]interface{}{}
	}
	return out
}

func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		return normalizeWhitespace(val)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = normalizeValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}

func normalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(inlineSpace.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(blankLines.ReplaceAllString(s, "\n\n"))
}
