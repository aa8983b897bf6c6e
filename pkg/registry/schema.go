// pkg/registry/schema.go
package registry

// TemplateRegistry is the JSON index of document templates kept next to the
// template files.
type TemplateRegistry struct {
	Version     string          `json:"version"`
	LastUpdated string          `json:"lastUpdated"`
	Templates   []TemplateEntry `json:"templates"`
}

type TemplateEntry struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description"`
	Kind        string   `json:"kind"` // enrichment kind, e.g. "cv"
	Path        string   `json:"path"` // relative to the registry directory
	Version     string   `json:"version"`
	Tags        []string `json:"tags"`
}
