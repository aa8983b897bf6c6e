// internal/workers/privacy/anonymize-content/models.go
package anonymizecontent

import "enrichment-workers/internal/anonymizer"

// Input carries either a structured document or a plain text, or both.
type Input struct {
	RequestID string                 `json:"requestId"`
	Content   map[string]interface{} `json:"content,omitempty"`
	Text      string                 `json:"text,omitempty"`
}

// Output never contains original values. MappingRef is the only way back.
type Output struct {
	AnonymizedContent map[string]interface{} `json:"anonymizedContent,omitempty"`
	AnonymizedText    string                 `json:"anonymizedText,omitempty"`
	MappingRef        string                 `json:"mappingRef"`
	EntityStats       anonymizer.Stats       `json:"entityStats"`
	EntityCount       int                    `json:"entityCount"`
}

const inputSchema = `{
  "type": "object",
  "properties": {
    "requestId": {"type": "string"},
    "content": {"type": "object"},
    "text": {"type": "string"}
  },
  "anyOf": [
    {"required": ["content"]},
    {"required": ["text"]}
  ]
}`
