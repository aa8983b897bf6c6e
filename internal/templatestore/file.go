package templatestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"enrichment-workers/pkg/registry"
)

// FileLoader resolves ids through a template registry to files under dir.
type FileLoader struct {
	registry *registry.TemplateRegistry
	dir      string
}

// NewFileLoader reads the registry once. Template files are read on every Load.
func NewFileLoader(registryPath, dir string) (*FileLoader, error) {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return nil, fmt.Errorf("load template registry: %w", err)
	}
	if dir == "" {
		dir = filepath.Dir(registryPath)
	}
	return &FileLoader{registry: reg, dir: dir}, nil
}

func (l *FileLoader) Load(_ context.Context, id string) (string, error) {
	entry, ok := l.registry.Find(id)
	if !ok {
		return "", notFound(id)
	}
	if !filepath.IsLocal(entry.Path) {
		return "", fmt.Errorf("template %s: path %q escapes the template directory", id, entry.Path)
	}

	data, err := os.ReadFile(filepath.Join(l.dir, entry.Path))
	if os.IsNotExist(err) {
		return "", notFound(id)
	}
	if err != nil {
		return "", fmt.Errorf("read template %s: %w", id, err)
	}
	return string(data), nil
}
