package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestInitWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), "test-service", "")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestStartSpanWithoutProvider(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test.span",
		attribute.String("key", "value"),
	)
	require.NotNil(t, span)
	defer span.End()

	// Noop provider yields an invalid span context and no trace ID.
	assert.Equal(t, "", GetTraceID(ctx))
	AddSpanEvent(ctx, "event")
	SetSpanError(ctx, assert.AnError)
}

func TestGetTraceIDEmptyContext(t *testing.T) {
	assert.Equal(t, "", GetTraceID(context.Background()))
}

func TestTrimScheme(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://tempo:4318", "tempo:4318"},
		{"https://collector.example.com:4318", "collector.example.com:4318"},
		{"tempo:4318", "tempo:4318"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, trimScheme(tt.in))
	}
}
