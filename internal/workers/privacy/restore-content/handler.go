// internal/workers/privacy/restore-content/handler.go
package restorecontent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

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
	TaskType = "restore-content"
)

var (
	ErrInvalidInput       = errors.New("INVALID_INPUT")
	ErrMappingNotFound    = errors.New("MAPPING_NOT_FOUND")
	ErrMappingStoreFailed = errors.New("MAPPING_STORE_FAILED")
	ErrRestoreFailed      = errors.New("RESTORE_FAILED")
)

var schema = validation.MustCompile(inputSchema)

type Handler struct {
	config *Config
	store  mappingstore.Store
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, store mappingstore.Store, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
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

// execute consumes the mapping: a second restore with the same ref fails with
// ErrMappingNotFound.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.MappingRef == "" {
		return nil, fmt.Errorf("%w: mappingRef is required", ErrInvalidInput)
	}

	mapping, err := h.store.Take(ctx, input.MappingRef)
	switch {
	case errors.Is(err, mappingstore.ErrMappingNotFound):
		return nil, fmt.Errorf("%w: %s", ErrMappingNotFound, input.MappingRef)
	case errors.Is(err, mappingstore.ErrInvalidRef):
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrMappingStoreFailed, err)
	}

	output := &Output{}
	if input.Content != nil {
		restored, err := anonymizer.RestoreObject(input.Content, mapping)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRestoreFailed, err)
		}
		output.RestoredContent, _ = restored.(map[string]interface{})
	}
	if input.Text != "" {
		output.RestoredText = anonymizer.Restore(input.Text, mapping)
	}
	output.RestoredCount = countRestored(input, mapping)

	h.logger.Info("content restored", map[string]interface{}{
		"requestId":     input.RequestID,
		"mappingRef":    input.MappingRef,
		"mappingSize":   mapping.Len(),
		"restoredCount": output.RestoredCount,
	})
	return output, nil
}

// countRestored counts the placeholders of mapping that appear in the input.
func countRestored(input *Input, mapping *anonymizer.Mapping) int {
	raw, _ := json.Marshal(input.Content)
	haystack := string(raw) + "\n" + input.Text

	n := 0
	for _, p := range mapping.Placeholders() {
		if strings.Contains(haystack, p) {
			n++
		}
	}
	return n
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
	case errors.Is(err, ErrMappingNotFound):
		return apperrors.NewMappingNotFoundError(strings.TrimPrefix(err.Error(), ErrMappingNotFound.Error()+": "))
	case errors.Is(err, ErrMappingStoreFailed):
		return apperrors.NewMappingStoreFailedError(err)
	default:
		return apperrors.NewRestoreFailedError(err)
	}
}

// Execute method for direct usage
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
