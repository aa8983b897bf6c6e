// Package pipeline chains anonymization, enrichment, restoration and
// rendering for one document in a single process. The mapping never leaves
// Run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"enrichment-workers/internal/anonymizer"
	"enrichment-workers/internal/common/logger"
	"enrichment-workers/internal/common/metrics"
	"enrichment-workers/internal/enrichment"
	"enrichment-workers/internal/injector"
	"enrichment-workers/internal/templatestore"
)

var (
	ErrInvalidRequest = errors.New("invalid pipeline request")
	ErrTemplate       = errors.New("template unavailable")
)

type Request struct {
	RequestID  string
	Kind       string
	TemplateID string
	Content    map[string]interface{}
	Flags      injector.Flags // override computed flags
}

type Result struct {
	RequestID      string                 `json:"requestId"`
	Document       string                 `json:"document"`
	Content        map[string]interface{} `json:"content"`
	Enriched       bool                   `json:"enriched"`
	FallbackReason string                 `json:"fallbackReason,omitempty"`
	Stats          anonymizer.Stats       `json:"entityStats"`
}

type Pipeline struct {
	engine    *anonymizer.Engine
	enricher  *enrichment.Enricher
	templates templatestore.Loader
	injector  *injector.Injector
	logger    logger.Logger
}

func New(engine *anonymizer.Engine, enricher *enrichment.Enricher, templates templatestore.Loader, inj *injector.Injector, log logger.Logger) *Pipeline {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Pipeline{
		engine:    engine,
		enricher:  enricher,
		templates: templates,
		injector:  inj,
		logger:    log,
	}
}

// Run renders req.Content into the template req.TemplateID. The template is
// loaded and checked before the generator is called. Generator failures never
// fail the run: the content is rendered unenriched instead.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Content == nil {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidRequest)
	}
	if req.TemplateID == "" {
		return nil, fmt.Errorf("%w: templateId is required", ErrInvalidRequest)
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	log := p.logger.WithFields(map[string]interface{}{
		"requestId":  req.RequestID,
		"templateId": req.TemplateID,
		"kind":       req.Kind,
	})

	tpl, err := p.templates.Load(ctx, req.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTemplate, err)
	}
	if err := injector.Validate(tpl); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTemplate, err)
	}

	anonymized, anon, err := p.engine.AnonymizeObject(req.Content)
	if err != nil {
		return nil, fmt.Errorf("anonymize content: %w", err)
	}
	metrics.RecordEntities(anon.Stats)
	log.Info("content anonymized", map[string]interface{}{
		"entityCount": anon.Stats.Total(),
	})

	doc, _ := anonymized.(map[string]interface{})
	outcome := p.enricher.Enrich(ctx, req.Kind, doc)
	metrics.EnrichmentOutcomes.WithLabelValues(req.Kind, outcomeLabel(outcome)).Inc()

	restoredAny, err := anonymizer.RestoreObject(outcome.Content, anon.Mapping)
	if err != nil {
		return nil, fmt.Errorf("restore content: %w", err)
	}
	restored, _ := restoredAny.(map[string]interface{})

	flags := injector.MergeFlags(injector.ComputeFlags(restored), req.Flags)

	start := time.Now()
	rendered, err := p.injector.Render(tpl, restored, flags)
	metrics.TemplateRenderDuration.WithLabelValues(req.TemplateID).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}

	log.Info("document rendered", map[string]interface{}{
		"enriched":       outcome.Enriched,
		"fallbackReason": outcome.FallbackReason,
		"documentLength": len(rendered),
	})

	return &Result{
		RequestID:      req.RequestID,
		Document:       rendered,
		Content:        restored,
		Enriched:       outcome.Enriched,
		FallbackReason: outcome.FallbackReason,
		Stats:          anon.Stats,
	}, nil
}

func outcomeLabel(o *enrichment.Outcome) string {
	if o.Enriched {
		return "enriched"
	}
	return o.FallbackReason
}
