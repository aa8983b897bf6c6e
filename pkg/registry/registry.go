// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

func LoadRegistry(path string) (*TemplateRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg TemplateRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	if err := reg.check(); err != nil {
		return nil, fmt.Errorf("registry %s: %w", path, err)
	}
	return &reg, nil
}

// Find returns the entry with the given id.
func (r *TemplateRegistry) Find(id string) (TemplateEntry, bool) {
	for _, t := range r.Templates {
		if t.ID == id {
			return t, true
		}
	}
	return TemplateEntry{}, false
}

func (r *TemplateRegistry) check() error {
	seen := make(map[string]bool, len(r.Templates))
	for i, t := range r.Templates {
		if t.ID == "" || t.Path == "" {
			return fmt.Errorf("template #%d: id and path are required", i)
		}
		if seen[t.ID] {
			return fmt.Errorf("duplicate template id %q", t.ID)
		}
		seen[t.ID] = true
	}
	return nil
}

// Add appends entry. The id must be new.
func (r *TemplateRegistry) Add(entry TemplateEntry) error {
	if entry.ID == "" || entry.Path == "" {
		return fmt.Errorf("id and path are required")
	}
	if _, exists := r.Find(entry.ID); exists {
		return fmt.Errorf("template with ID %s already exists", entry.ID)
	}
	r.Templates = append(r.Templates, entry)
	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return nil
}

// Update sets one field of the template id.
func (r *TemplateRegistry) Update(id, field, value string) error {
	for i := range r.Templates {
		if r.Templates[i].ID != id {
			continue
		}
		t := &r.Templates[i]
		switch field {
		case "displayName":
			t.DisplayName = value
		case "description":
			t.Description = value
		case "kind":
			t.Kind = value
		case "path":
			if value == "" {
				return fmt.Errorf("path cannot be empty")
			}
			t.Path = value
		case "version":
			t.Version = value
		case "tags":
			t.Tags = splitTags(value)
		default:
			return fmt.Errorf("unknown field: %s", field)
		}
		r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
		return nil
	}
	return fmt.Errorf("template with ID %s not found", id)
}

func splitTags(s string) []string {
	var tags []string
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Save writes the registry as indented JSON, creating the directory if needed.
func Save(reg *TemplateRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}
