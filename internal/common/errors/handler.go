// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// ErrorHandler fails or throws Zeebe jobs from StandardErrors.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Decision tells how a job error is reported to the broker.
type Decision struct {
	Throw   bool
	Retries int32
	Error   *BPMNError
}

// Decide picks between failing with retries and throwing a BPMN error. A
// retryable error keeps min(retries left - 1, policy) retries; once the job
// is on its last attempt the error is thrown.
func Decide(err error, retriesLeft int32) Decision {
	stdErr := Normalize(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	retries := int32(bpmnErr.Retries)
	if retries > 0 && retriesLeft > 1 {
		if retriesLeft-1 < retries {
			retries = retriesLeft - 1
		}
		return Decision{Retries: retries, Error: bpmnErr}
	}
	return Decision{Throw: true, Error: bpmnErr}
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// HandleJobError reports err for job.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	d := Decide(err, job.Retries)
	h.logError(job, Normalize(err), d)

	vars, _ := json.Marshal(d.Error.ToErrorVariables())

	var sendErr error
	if d.Throw {
		cmd := client.NewThrowErrorCommand().
			JobKey(job.Key).
			ErrorCode(d.Error.Code).
			ErrorMessage(d.Error.Message)
		if withVars, verr := cmd.VariablesFromString(string(vars)); verr == nil {
			_, sendErr = withVars.Send(ctx)
		} else {
			_, sendErr = cmd.Send(ctx)
		}
	} else {
		cmd := client.NewFailJobCommand().
			JobKey(job.Key).
			Retries(d.Retries).
			ErrorMessage(d.Error.Message)
		if withVars, verr := cmd.VariablesFromString(string(vars)); verr == nil {
			_, sendErr = withVars.Send(ctx)
		} else {
			_, sendErr = cmd.Send(ctx)
		}
	}

	if sendErr != nil {
		h.logger.Error("failed to report job error", map[string]interface{}{
			"jobKey": job.Key,
			"thrown": d.Throw,
			"error":  sendErr.Error(),
		})
	}
}

func (h *ErrorHandler) logError(job entities.Job, stdErr *StandardError, d Decision) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        string(stdErr.Code),
		"bpmnErrorCode":    d.Error.Code,
		"message":          d.Error.Message,
		"details":          stdErr.Details,
		"retryable":        stdErr.Retryable,
		"retries":          d.Retries,
		"thrown":           d.Throw,
		"errorCategory":    GetErrorCategory(stdErr.Code),
		"workflowInstance": job.ProcessInstanceKey,
	})
}
