// internal/workers/privacy/anonymize-content/handler.go
package anonymizecontent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"enrichment-workers/internal/anonymizer"
	apperrors "enrichment-workers/internal/common/errors"
	"enrichment-workers/internal/common/logger"
	"enrichment-workers/internal/common/metrics"
	"enrichment-workers/internal/common/validation"
	"enrichment-workers/internal/mappingstore"
)

const (
	TaskType = "anonymize-content"
)

var (
	ErrInvalidInput       = errors.New("INVALID_INPUT")
	ErrMappingStoreFailed = errors.New("MAPPING_STORE_FAILED")
)

var schema = validation.MustCompile(inputSchema)

type Handler struct {
	config *Config
	engine *anonymizer.Engine
	store  mappingstore.Store
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, engine *anonymizer.Engine, store mappingstore.Store, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		engine: engine,
		store:  store,
		errors: apperrors.NewErrorHandler(log),
		logger: log,
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
	if input.Content == nil && input.Text == "" {
		return nil, fmt.Errorf("%w: content or text is required", ErrInvalidInput)
	}

	// text and content share one session so a name in both gets one mapping.
	doc := map[string]interface{}{"content": input.Content, "text": input.Text}
	anonymized, res, err := h.engine.AnonymizeObject(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	ref, err := h.store.Put(ctx, res.Mapping)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMappingStoreFailed, err)
	}

	metrics.RecordEntities(res.Stats)

	out := anonymized.(map[string]interface{})
	output := &Output{
		MappingRef:  ref,
		EntityStats: res.Stats,
		EntityCount: res.Stats.Total(),
	}
	if content, ok := out["content"].(map[string]interface{}); ok {
		output.AnonymizedContent = content
	}
	output.AnonymizedText, _ = out["text"].(string)

	h.logger.Info("content anonymized", map[string]interface{}{
		"requestId":   input.RequestID,
		"mappingRef":  ref,
		"entityCount": output.EntityCount,
	})
	return output, nil
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
	stdErr := toStandardError(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errors.HandleJobError(ctx, client, job, stdErr)
}

func toStandardError(err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return apperrors.NewInvalidInputError(err.Error())
	case errors.Is(err, ErrMappingStoreFailed):
		return apperrors.NewMappingStoreFailedError(err)
	default:
		return apperrors.NewAnonymizationFailedError(err)
	}
}

// Execute method for direct usage
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
