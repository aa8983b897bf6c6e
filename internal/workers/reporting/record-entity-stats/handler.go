// internal/workers/reporting/record-entity-stats/handler.go
package recordentitystats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "enrichment-workers/internal/common/errors"
	"enrichment-workers/internal/common/logger"
	"enrichment-workers/internal/common/metrics"
	"enrichment-workers/internal/common/validation"
)

const (
	TaskType = "record-entity-stats"
)

var (
	ErrInvalidInput     = errors.New("INVALID_INPUT")
	ErrStatsIndexFailed = errors.New("STATS_INDEX_FAILED")
)

var schema = validation.MustCompile(inputSchema)

// Indexer is satisfied by *database.ElasticsearchClient.
type Indexer interface {
	IndexDocument(ctx context.Context, index, id string, doc interface{}) (int64, error)
}

type Handler struct {
	config  *Config
	indexer Indexer
	now     func() time.Time
	errors  *apperrors.ErrorHandler
	logger  logger.Logger
}

func NewHandler(config *Config, indexer Indexer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		indexer: indexer,
		now:     time.Now,
		errors:  apperrors.NewErrorHandler(log),
		logger:  log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	if res := schema.ValidateJSON([]byte(job.Variables)); !res.Valid {
		h.failJob(ctx, client, job, fmt.Errorf("%w: %s", ErrInvalidInput, res.Summary()))
		return
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(ctx, client, job, fmt.Errorf("%w: parse input: %v", ErrInvalidInput, err))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

// execute indexes under the request id, so a retried job overwrites its own
// document instead of counting twice.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.RequestID == "" {
		return nil, fmt.Errorf("%w: requestId is required", ErrInvalidInput)
	}

	doc := StatsDocument{
		RequestID:   input.RequestID,
		ScopeID:     input.ScopeID,
		Kind:        input.Kind,
		EntityStats: make(map[string]int, len(input.EntityStats)),
		RecordedAt:  h.now().UTC(),
	}
	for category, n := range input.EntityStats {
		if n < 0 {
			return nil, fmt.Errorf("%w: negative count for %s", ErrInvalidInput, category)
		}
		doc.EntityStats[category] = n
		doc.EntityTotal += n
	}

	version, err := h.indexer.IndexDocument(ctx, h.config.Index, input.RequestID, doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStatsIndexFailed, err)
	}

	h.logger.Info("entity stats recorded", map[string]interface{}{
		"requestId":   input.RequestID,
		"scopeId":     input.ScopeID,
		"entityTotal": doc.EntityTotal,
		"version":     version,
	})

	return &Output{
		StatsRecorded: true,
		StatsDocID:    input.RequestID,
		StatsVersion:  version,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	var stdErr *apperrors.StandardError
	if errors.Is(err, ErrInvalidInput) {
		stdErr = apperrors.NewInvalidInputError(err.Error())
	} else {
		stdErr = apperrors.NewStatsIndexFailedError(err)
	}
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errors.HandleJobError(ctx, client, job, stdErr)
}

// Execute method for direct usage
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
