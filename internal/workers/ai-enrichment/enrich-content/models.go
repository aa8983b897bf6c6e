// internal/workers/ai-enrichment/enrich-content/models.go
package enrichcontent

// Input only ever holds anonymized content: the generator must not see
// original values.
type Input struct {
	RequestID         string                 `json:"requestId"`
	Kind              string                 `json:"kind"`
	AnonymizedContent map[string]interface{} `json:"anonymizedContent"`
}

type Output struct {
	EnrichedContent map[string]interface{} `json:"enrichedContent"`
	Enriched        bool                   `json:"enriched"`
	FallbackReason  string                 `json:"fallbackReason,omitempty"`
	Violations      []string               `json:"violations,omitempty"`
}

const inputSchema = `{
  "type": "object",
  "required": ["anonymizedContent"],
  "properties": {
    "requestId": {"type": "string"},
    "kind": {"type": "string"},
    "anonymizedContent": {"type": "object"}
  }
}`
