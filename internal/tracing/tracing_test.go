package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_DisabledIsNoop(t *testing.T) {
	p, err := Init(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	assert.NotNil(t, p.Tracer())
	assert.NoError(t, p.Shutdown(context.Background()))

	_, span := StartSpan(context.Background(), "noop")
	span.End()
}

func TestInit_EnabledWithoutEndpointIsNoop(t *testing.T) {
	p, err := Init(context.Background(), Config{Enabled: true})
	require.NoError(t, err)
	assert.Nil(t, p.provider)
}
