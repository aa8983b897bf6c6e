// internal/workers/document/render-document/models.go
package renderdocument

type Input struct {
	RequestID  string                 `json:"requestId"`
	TemplateID string                 `json:"templateId"`
	Data       map[string]interface{} `json:"data"`
	// Flags override the has<Key> flags computed from Data.
	Flags map[string]bool `json:"flags,omitempty"`
}

type Output struct {
	Document       string `json:"document"`
	TemplateID     string `json:"templateId"`
	DocumentLength int    `json:"documentLength"`
}

const inputSchema = `{
  "type": "object",
  "required": ["templateId", "data"],
  "properties": {
    "requestId": {"type": "string"},
    "templateId": {"type": "string", "minLength": 1},
    "data": {"type": "object"},
    "flags": {
      "type": "object",
      "additionalProperties": {"type": "boolean"}
    }
  }
}`
