// cmd/worker-manager/workers.go
package main

import (
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"enrichment-workers/internal/anonymizer"
	"enrichment-workers/internal/common/camunda"
	"enrichment-workers/internal/common/config"
	"enrichment-workers/internal/common/genai"
	"enrichment-workers/internal/common/logger"
	"enrichment-workers/internal/common/observability"
	"enrichment-workers/internal/enrichment"
	"enrichment-workers/internal/injector"
	"enrichment-workers/internal/mappingstore"
	"enrichment-workers/internal/templatestore"

	ec "enrichment-workers/internal/workers/ai-enrichment/enrich-content"
	rd "enrichment-workers/internal/workers/document/render-document"
	ac "enrichment-workers/internal/workers/privacy/anonymize-content"
	rc "enrichment-workers/internal/workers/privacy/restore-content"
	res "enrichment-workers/internal/workers/reporting/record-entity-stats"
)

// registerWorkers opens a job worker for every enabled task type.
func registerWorkers(cfg *config.Config, client zbc.Client, b *backends, log logger.Logger, obs *observability.Observability) ([]*camunda.CamundaWorker, error) {
	var workers []*camunda.CamundaWorker
	start := func(taskType string, handler camunda.JobHandler) {
		workers = append(workers, camunda.NewWorker(client, taskType, config.GetWorkerConfig(cfg, taskType), handler, log, obs))
	}
	disabled := func(taskType string) bool {
		if config.IsWorkerEnabled(cfg, taskType) {
			return false
		}
		log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return true
	}

	var store mappingstore.Store
	if b.redis != nil {
		store = mappingstore.NewRedisStore(b.redis, cfg.Privacy.MappingKeyPrefix, config.GetDuration(cfg.Privacy.MappingTTL))
	}

	if !disabled(ac.TaskType) {
		wc := config.GetWorkerConfig(cfg, ac.TaskType)
		start(ac.TaskType, ac.NewHandler(ac.LoadConfig(wc), anonymizer.NewEngine(), store, log))
	}

	if !disabled(ec.TaskType) {
		gcfg := genai.Config{
			BaseURL:     cfg.APIs.GenAI.BaseURL,
			APIKey:      cfg.APIs.GenAI.APIKey,
			Timeout:     config.GetDuration(cfg.APIs.GenAI.Timeout),
			MaxTokens:   cfg.APIs.GenAI.MaxTokens,
			Temperature: cfg.APIs.GenAI.Temperature,
		}
		if err := gcfg.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", ec.TaskType, err)
		}
		enricher, err := enrichment.New(genai.NewClient(gcfg), log)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ec.TaskType, err)
		}
		wc := config.GetWorkerConfig(cfg, ec.TaskType)
		start(ec.TaskType, ec.NewHandler(ec.LoadConfig(wc), enricher, log))
	}

	if !disabled(rc.TaskType) {
		wc := config.GetWorkerConfig(cfg, rc.TaskType)
		start(rc.TaskType, rc.NewHandler(rc.LoadConfig(wc), store, log))
	}

	if !disabled(rd.TaskType) {
		loader, err := templatestore.New(cfg.Template, b.postgres)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", rd.TaskType, err)
		}
		wc := config.GetWorkerConfig(cfg, rd.TaskType)
		start(rd.TaskType, rd.NewHandler(rd.LoadConfig(wc), loader, injector.New(), log))
	}

	if !disabled(res.TaskType) {
		wc := config.GetWorkerConfig(cfg, res.TaskType)
		start(res.TaskType, res.NewHandler(res.LoadConfig(wc, cfg.Privacy), b.es, log))
	}

	return workers, nil
}
