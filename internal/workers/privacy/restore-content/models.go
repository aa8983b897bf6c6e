// internal/workers/privacy/restore-content/models.go
package restorecontent

type Input struct {
	RequestID  string                 `json:"requestId"`
	MappingRef string                 `json:"mappingRef"`
	Content    map[string]interface{} `json:"content,omitempty"`
	Text       string                 `json:"text,omitempty"`
}

type Output struct {
	RestoredContent map[string]interface{} `json:"restoredContent,omitempty"`
	RestoredText    string                 `json:"restoredText,omitempty"`
	RestoredCount   int                    `json:"restoredCount"`
}

const inputSchema = `{
  "type": "object",
  "required": ["mappingRef"],
  "properties": {
    "requestId": {"type": "string"},
    "mappingRef": {"type": "string", "minLength": 1},
    "content": {"type": "object"},
    "text": {"type": "string"}
  }
}`
