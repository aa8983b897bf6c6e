// internal/workers/reporting/record-entity-stats/config.go
package recordentitystats

import (
	"time"

	"enrichment-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	Index   string
}

func LoadConfig(wc config.WorkerConfig, privacy config.PrivacyConfig) *Config {
	cfg := &Config{
		Timeout: config.GetDuration(wc.Timeout),
		Index:   privacy.StatsIndex,
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Index == "" {
		cfg.Index = "entity-stats"
	}
	return cfg
}
