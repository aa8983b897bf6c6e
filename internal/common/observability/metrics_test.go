package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestObservability_Lifecycle(t *testing.T) {
	obs, err := New("enrichment-workers-test", "")
	require.NoError(t, err)

	ctx, span := obs.StartSpan(context.Background(), "anonymize-content", attribute.Int64("jobKey", 42))
	assert.True(t, span.SpanContext().IsValid())
	obs.RecordJobProcessed(ctx, "anonymize-content", "completed")
	obs.RecordJobDuration(ctx, "anonymize-content", 15*time.Millisecond, "completed")
	span.End()

	assert.NoError(t, obs.Shutdown(context.Background()))
}

func TestObservability_Nil(t *testing.T) {
	var obs *Observability

	ctx, span := obs.StartSpan(context.Background(), "noop")
	assert.NotNil(t, ctx)
	assert.False(t, span.SpanContext().IsValid())
	obs.RecordJobProcessed(ctx, "noop", "completed")
	assert.NoError(t, obs.Shutdown(context.Background()))
}
