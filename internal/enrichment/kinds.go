package enrichment

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Kind describes one type of document the generator can enrich: what to ask
// for and the JSON schema the answer must satisfy.
type Kind struct {
	Name         string
	Instructions string
	Schema       string
}

// compiledKind pairs a Kind with its parsed schema.
type compiledKind struct {
	Kind
	schema *gojsonschema.Schema
}

func compileKind(k Kind) (*compiledKind, error) {
	if k.Name == "" {
		return nil, fmt.Errorf("kind without name")
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(k.Schema))
	if err != nil {
		return nil, fmt.Errorf("compile schema for kind %q: %w", k.Name, err)
	}
	return &compiledKind{Kind: k, schema: schema}, nil
}

const GenericKind = "generic"

// DefaultKinds are the document kinds known out of the box.
func DefaultKinds() []Kind {
	return []Kind{
		{
			Name: GenericKind,
			Instructions: "Improve the wording of every text field. Keep the same keys and " +
				"the same structure.",
			Schema: `{"type": "object"}`,
		},
		{
			Name: "cv",
			Instructions: "Rewrite this curriculum vitae in a professional tone. Write a short " +
				"summary, keep every experience, and phrase each task as an achievement.",
			Schema: `{
				"type": "object",
				"required": ["summary", "experiences"],
				"properties": {
					"summary": {"type": "string", "minLength": 1},
					"skills": {"type": "array", "items": {"type": "string"}},
					"experiences": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["title"],
							"properties": {
								"title": {"type": "string"},
								"company": {"type": "string"},
								"description": {"type": "string"}
							}
						}
					}
				}
			}`,
		},
		{
			Name: "cover-letter",
			Instructions: "Write a cover letter from these notes. Return the greeting, the body " +
				"paragraphs and the closing separately.",
			Schema: `{
				"type": "object",
				"required": ["greeting", "paragraphs", "closing"],
				"properties": {
					"greeting": {"type": "string"},
					"paragraphs": {"type": "array", "minItems": 1, "items": {"type": "string"}},
					"closing": {"type": "string"}
				}
			}`,
		},
	}
}
