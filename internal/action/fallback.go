package action

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// Default delay bounds for the fallback action.
const (
	DefaultMinDelay = 200 * time.Millisecond
	DefaultMaxDelay = 800 * time.Millisecond
)

// SimulatedKey is the output field that marks a fallback result.
const SimulatedKey = "simulated"

// Fallback is the action used for entries without a registered action.
//
// It waits a random delay between MinDelay and MaxDelay and then succeeds with
// a synthesized payload:
//
//	{"simulated": true, "entry_id": "...", "message": "...", "input": <input>}
//
// Use [IsSimulated] to tell its results apart from real action output.
type Fallback struct {
	MinDelay time.Duration
	MaxDelay time.Duration

	// Rand returns a value in [0, n). Defaults to math/rand/v2 Int64N.
	// Tests replace it for deterministic delays.
	Rand func(n int64) int64
}

// NewFallback creates a [Fallback] with the given delay bounds.
func NewFallback(minDelay, maxDelay time.Duration) *Fallback {
	return &Fallback{
		MinDelay: minDelay,
		MaxDelay: maxDelay,
		Rand:     rand.Int64N,
	}
}

// Delay picks the next simulated duration.
func (f *Fallback) Delay() time.Duration {
	if f.MaxDelay <= f.MinDelay {
		return max(f.MinDelay, 0)
	}
	pick := f.Rand
	if pick == nil {
		pick = rand.Int64N
	}
	span := int64(f.MaxDelay - f.MinDelay)
	return f.MinDelay + time.Duration(pick(span+1))
}

// Invoke waits the simulated delay and returns the synthesized payload.
func (f *Fallback) Invoke(ctx context.Context, entryID string, input any) (any, error) {
	if d := f.Delay(); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return map[string]any{
		SimulatedKey: true,
		"entry_id":   entryID,
		"message":    fmt.Sprintf("%s executed without a registered action", entryID),
		"input":      input,
	}, nil
}

// IsSimulated returns true if output was produced by the fallback action.
func IsSimulated(output any) bool {
	m, ok := output.(map[string]any)
	if !ok {
		return false
	}
	simulated, _ := m[SimulatedKey].(bool)
	return simulated
}
