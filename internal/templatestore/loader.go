// Package templatestore loads document templates by id from the registry
// files or from Postgres.
package templatestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"enrichment-workers/internal/common/config"
	"enrichment-workers/internal/common/database"
)

var ErrTemplateNotFound = errors.New("template not found")

// Loader returns the raw template text for an id.
type Loader interface {
	Load(ctx context.Context, id string) (string, error)
}

// New builds the loader selected by cfg.Source, wrapped in a cache when
// cfg.CacheTTL is positive. pg is only used by the postgres source.
func New(cfg config.TemplateConfig, pg *database.PostgresClient) (Loader, error) {
	var base Loader
	switch cfg.Source {
	case config.TemplateSourceFile, "":
		fl, err := NewFileLoader(cfg.RegistryPath, cfg.Directory)
		if err != nil {
			return nil, err
		}
		base = fl
	case config.TemplateSourcePostgres:
		if pg == nil {
			return nil, fmt.Errorf("template source %q needs a postgres client", cfg.Source)
		}
		base = NewPostgresLoader(pg.DB)
	default:
		return nil, fmt.Errorf("unknown template source %q", cfg.Source)
	}

	if cfg.CacheTTL > 0 {
		return NewCachedLoader(base, config.GetDuration(cfg.CacheTTL)), nil
	}
	return base, nil
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
}

type clock func() time.Time
