// internal/workers/document/render-document/handler.go
package renderdocument

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
	"enrichment-workers/internal/injector"
	"enrichment-workers/internal/templatestore"
)

const (
	TaskType = "render-document"
)

var (
	ErrInvalidInput       = errors.New("INVALID_INPUT")
	ErrTemplateNotFound   = errors.New("TEMPLATE_NOT_FOUND")
	ErrTemplateLoadFailed = errors.New("TEMPLATE_LOAD_FAILED")
	ErrTemplateMalformed  = errors.New("TEMPLATE_MALFORMED")
	ErrRenderFailed       = errors.New("RENDER_FAILED")
)

var schema = validation.MustCompile(inputSchema)

// templateError keeps the template id for the BPMN error details.
type templateError struct {
	kind error
	id   string
	err  error
}

func (e *templateError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.kind, e.id, e.err)
}

func (e *templateError) Unwrap() error { return e.kind }

type Handler struct {
	config    *Config
	templates templatestore.Loader
	injector  *injector.Injector
	errors    *apperrors.ErrorHandler
	logger    logger.Logger
}

func NewHandler(config *Config, templates templatestore.Loader, inj *injector.Injector, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		templates: templates,
		injector:  inj,
		errors:    apperrors.NewErrorHandler(log),
		logger:    log,
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
	if input.TemplateID == "" {
		return nil, fmt.Errorf("%w: templateId is required", ErrInvalidInput)
	}
	if input.Data == nil {
		return nil, fmt.Errorf("%w: data is required", ErrInvalidInput)
	}

	tpl, err := h.templates.Load(ctx, input.TemplateID)
	switch {
	case errors.Is(err, templatestore.ErrTemplateNotFound):
		return nil, &templateError{kind: ErrTemplateNotFound, id: input.TemplateID, err: err}
	case err != nil:
		return nil, &templateError{kind: ErrTemplateLoadFailed, id: input.TemplateID, err: err}
	}

	flags := injector.MergeFlags(injector.ComputeFlags(input.Data), input.Flags)

	start := time.Now()
	document, err := h.injector.Render(tpl, input.Data, flags)
	metrics.TemplateRenderDuration.WithLabelValues(input.TemplateID).Observe(time.Since(start).Seconds())
	switch {
	case errors.Is(err, injector.ErrMalformedTemplate):
		return nil, &templateError{kind: ErrTemplateMalformed, id: input.TemplateID, err: err}
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	h.logger.Info("document rendered", map[string]interface{}{
		"requestId":      input.RequestID,
		"templateId":     input.TemplateID,
		"documentLength": len(document),
	})

	return &Output{
		Document:       document,
		TemplateID:     input.TemplateID,
		DocumentLength: len(document),
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
	stdErr := toStandardError(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errors.HandleJobError(ctx, client, job, stdErr)
}

func toStandardError(err error) *apperrors.StandardError {
	var tplErr *templateError
	if errors.As(err, &tplErr) {
		switch tplErr.kind {
		case ErrTemplateNotFound:
			return apperrors.NewTemplateNotFoundError(tplErr.id)
		case ErrTemplateLoadFailed:
			return apperrors.NewTemplateLoadFailedError(tplErr.id, tplErr.err)
		case ErrTemplateMalformed:
			return apperrors.NewTemplateMalformedError(tplErr.id, tplErr.err)
		}
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		return apperrors.NewInvalidInputError(err.Error())
	default:
		return apperrors.NewRenderFailedError(err)
	}
}

// Execute method for direct usage
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
