// internal/workers/ai-enrichment/enrich-content/handler.go
package enrichcontent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "enrichment-workers/internal/common/errors"
	"enrichment-workers/internal/common/logger"
	"enrichment-workers/internal/common/metrics"
	"enrichment-workers/internal/common/validation"
	"enrichment-workers/internal/enrichment"
)

const (
	TaskType = "enrich-content"
)

var (
	ErrInvalidInput = errors.New("INVALID_INPUT")
)

var schema = validation.MustCompile(inputSchema)

// Handler never fails a job because of the generator: a failed or invalid
// answer completes the job with the whitespace-normalized input.
type Handler struct {
	config   *Config
	enricher *enrichment.Enricher
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, enricher *enrichment.Enricher, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		enricher: enricher,
		errors:   apperrors.NewErrorHandler(log),
		logger:   log,
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.AnonymizedContent == nil {
		return nil, fmt.Errorf("%w: anonymizedContent is required", ErrInvalidInput)
	}
	kind := input.Kind
	if kind == "" {
		kind = h.config.DefaultKind
	}

	outcome := h.enricher.Enrich(ctx, kind, input.AnonymizedContent)
	label := "enriched"
	if !outcome.Enriched {
		label = outcome.FallbackReason
	}
	metrics.EnrichmentOutcomes.WithLabelValues(kind, label).Inc()

	h.logger.Info("enrichment finished", map[string]interface{}{
		"requestId":      input.RequestID,
		"kind":           kind,
		"enriched":       outcome.Enriched,
		"fallbackReason": outcome.FallbackReason,
	})

	return &Output{
		EnrichedContent: outcome.Content,
		Enriched:        outcome.Enriched,
		FallbackReason:  outcome.FallbackReason,
		Violations:      outcome.Violations,
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
		stdErr = apperrors.NewEnrichmentUnavailableError(err)
	}
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errors.HandleJobError(ctx, client, job, stdErr)
}

// Execute method for direct usage
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
