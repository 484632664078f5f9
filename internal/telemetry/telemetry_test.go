package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitWithoutEndpoint(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "foodgram-test"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NoError(t, shutdown(context.Background()))
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
}

func TestInitWithEndpoint(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{
		ServiceName:    "foodgram-test",
		ServiceVersion: "test",
		Environment:    "test",
		Endpoint:       "http://localhost:4318",
	})
	require.NoError(t, err)

	// Nothing was recorded, so shutdown does not need the collector.
	assert.NoError(t, shutdown(context.Background()))
}
