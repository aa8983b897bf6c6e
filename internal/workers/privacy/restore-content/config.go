// internal/workers/privacy/restore-content/config.go
package restorecontent

import (
	"time"

	"enrichment-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(wc config.WorkerConfig) *Config {
	cfg := &Config{Timeout: config.GetDuration(wc.Timeout)}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return cfg
}
