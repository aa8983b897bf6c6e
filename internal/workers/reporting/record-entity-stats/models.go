// internal/workers/reporting/record-entity-stats/models.go
package recordentitystats

import "time"

// Input carries counts only. Mapping refs and values never reach the index.
type Input struct {
	RequestID   string         `json:"requestId"`
	ScopeID     string         `json:"scopeId,omitempty"`
	Kind        string         `json:"kind,omitempty"`
	EntityStats map[string]int `json:"entityStats"`
}

type Output struct {
	StatsRecorded bool   `json:"statsRecorded"`
	StatsDocID    string `json:"statsDocId"`
	StatsVersion  int64  `json:"statsVersion"`
}

// StatsDocument is the document written to the statistics index.
type StatsDocument struct {
	RequestID   string         `json:"requestId"`
	ScopeID     string         `json:"scopeId,omitempty"`
	Kind        string         `json:"kind,omitempty"`
	EntityStats map[string]int `json:"entityStats"`
	EntityTotal int            `json:"entityTotal"`
	RecordedAt  time.Time      `json:"recordedAt"`
}

const inputSchema = `{
  "type": "object",
  "required": ["requestId", "entityStats"],
  "properties": {
    "requestId": {"type": "string", "minLength": 1},
    "scopeId": {"type": "string"},
    "kind": {"type": "string"},
    "entityStats": {
      "type": "object",
      "additionalProperties": {"type": "integer", "minimum": 0}
    }
  }
}`
