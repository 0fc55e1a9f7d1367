package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationResolver_Resolve(t *testing.T) {
	t.Parallel()

	correlations := newFakeCorrelationStore()
	resolver := NewCorrelationResolver(correlations, nil)

	computationID := uuid.New()
	correlation, err := resolver.Register(context.Background(), computationID, "soil-moisture", nil, testAOI(), false)
	require.NoError(t, err)

	resolved, err := resolver.Resolve(context.Background(), correlation.ID)
	require.NoError(t, err)
	assert.Equal(t, computationID, resolved)
}

func TestCorrelationResolver_Resolve_Unknown(t *testing.T) {
	t.Parallel()

	resolver := NewCorrelationResolver(newFakeCorrelationStore(), nil)

	_, err := resolver.Resolve(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUnknownCorrelation)
}

func TestCorrelationResolver_Register_SharedComputation(t *testing.T) {
	t.Parallel()

	correlations := newFakeCorrelationStore()
	resolver := NewCorrelationResolver(correlations, nil)

	computationID := uuid.New()

	first, err := resolver.Register(context.Background(), computationID, "soil-moisture", nil, testAOI(), false)
	require.NoError(t, err)
	second, err := resolver.Register(context.Background(), computationID, "soil-moisture", nil, testAOI(), false)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, correlations.len())
}

func TestCorrelationResolver_Register_StoreFailure(t *testing.T) {
	t.Parallel()

	correlations := newFakeCorrelationStore()
	correlations.createErr = errors.New("connection refused")
	resolver := NewCorrelationResolver(correlations, nil)

	_, err := resolver.Register(context.Background(), uuid.New(), "soil-moisture", nil, testAOI(), false)
	assert.Error(t, err)
}
