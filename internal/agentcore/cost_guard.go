package agentcore

import (
	"fmt"
	"sync/atomic"
	"time"
)

// CostGuard enforces a token budget and a wall-clock duration limit across
// one turn. usedTokens and exceeded are atomic, so RecordTokens,
// CheckDuration and IsExceeded are safe to call from several goroutines at
// once.
type CostGuard struct {
	maxTokens   int64         // 0 = disabled
	maxDuration time.Duration // 0 = disabled
	usedTokens  atomic.Int64
	startTime   time.Time
	exceeded    atomic.Bool
}

// NewCostGuard creates a cost guard with optional token and duration
// limits. Set maxTokens=0 and/or maxDuration=0 to disable that guard.
func NewCostGuard(maxTokens int64, maxDuration time.Duration) *CostGuard {
	return &CostGuard{
		maxTokens:   maxTokens,
		maxDuration: maxDuration,
		startTime:   time.Now(),
	}
}

// RecordTokens adds n tokens (input+output) to the running total and
// reports an error once the budget is exceeded.
func (g *CostGuard) RecordTokens(n int) error {
	if g.maxTokens <= 0 {
		return nil
	}
	total := g.usedTokens.Add(int64(n))
	if total > g.maxTokens {
		g.exceeded.Store(true)
		return fmt.Errorf("token budget exceeded: used %d / limit %d", total, g.maxTokens)
	}
	return nil
}

// CheckDuration reports an error once the turn has run longer than the
// configured duration limit.
func (g *CostGuard) CheckDuration() error {
	if g.maxDuration <= 0 {
		return nil
	}
	if elapsed := time.Since(g.startTime); elapsed > g.maxDuration {
		g.exceeded.Store(true)
		return fmt.Errorf("agent turn exceeded %v (elapsed %v)", g.maxDuration, elapsed.Round(time.Second))
	}
	return nil
}

// IsExceeded reports whether any limit has been exceeded so far.
func (g *CostGuard) IsExceeded() bool { return g.exceeded.Load() }
