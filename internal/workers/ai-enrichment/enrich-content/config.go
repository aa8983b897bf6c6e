// internal/workers/ai-enrichment/enrich-content/config.go
package enrichcontent

import (
	"time"

	"enrichment-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	// DefaultKind is used when a job carries no kind.
	DefaultKind string
}

func LoadConfig(wc config.WorkerConfig) *Config {
	cfg := &Config{
		Timeout:     config.GetDuration(wc.Timeout),
		DefaultKind: "generic",
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return cfg
}
