package agentcore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCostGuard_DisabledByDefault(t *testing.T) {
	g := NewCostGuard(0, 0)
	require.NoError(t, g.RecordTokens(1_000_000))
	require.NoError(t, g.CheckDuration())
	assert.False(t, g.IsExceeded())
}

func TestCostGuard_TokenBudget(t *testing.T) {
	g := NewCostGuard(100, 0)
	require.NoError(t, g.RecordTokens(60))
	err := g.RecordTokens(60)
	assert.Error(t, err)
	assert.True(t, g.IsExceeded())
}

func TestCostGuard_Duration(t *testing.T) {
	g := NewCostGuard(0, 10*time.Millisecond)
	time.Sleep(15 * time.Millisecond)
	err := g.CheckDuration()
	assert.Error(t, err)
	assert.True(t, g.IsExceeded())
}
