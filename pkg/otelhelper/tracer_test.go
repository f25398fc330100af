package otelhelper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func TestNewTracerProducesRecordingSpans(t *testing.T) {
	tracer, err := NewTracer(t.Context(), "relaykit-test")
	require.NoError(t, err)

	ctx, span := StartSpan(t.Context(), tracer, "triggers.setup",
		attribute.String(TriggerNameKey, "GITHUB_COMMIT_EVENT"),
	)
	defer span.End()

	assert.True(t, span.IsRecording())
	assert.True(t, trace.SpanFromContext(ctx).SpanContext().IsValid())
}
