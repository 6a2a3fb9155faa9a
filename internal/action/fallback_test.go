package action

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallback_Delay(t *testing.T) {
	tests := []struct {
		name string
		min  time.Duration
		max  time.Duration
		pick int64
		want time.Duration
	}{
		{name: "lower bound", min: 200 * time.Millisecond, max: 800 * time.Millisecond, pick: 0, want: 200 * time.Millisecond},
		{name: "upper bound is inclusive", min: 200 * time.Millisecond, max: 800 * time.Millisecond, pick: int64(600 * time.Millisecond), want: 800 * time.Millisecond},
		{name: "fixed delay", min: 50 * time.Millisecond, max: 50 * time.Millisecond, want: 50 * time.Millisecond},
		{name: "max below min uses min", min: 50 * time.Millisecond, max: 10 * time.Millisecond, want: 50 * time.Millisecond},
		{name: "negative is clamped", min: -time.Second, max: -time.Second, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFallback(tt.min, tt.max)
			var gotN int64
			f.Rand = func(n int64) int64 {
				gotN = n
				return tt.pick
			}

			assert.Equal(t, tt.want, f.Delay())
			if tt.max > tt.min {
				assert.Equal(t, int64(tt.max-tt.min)+1, gotN)
			}
		})
	}
}

func TestFallback_Invoke(t *testing.T) {
	f := NewFallback(0, 0)

	out, err := f.Invoke(context.Background(), "github", map[string]any{"q": 1})
	require.NoError(t, err)

	assert.True(t, IsSimulated(out))
	m := out.(map[string]any)
	assert.Equal(t, "github", m["entry_id"])
	assert.Equal(t, "github executed without a registered action", m["message"])
	assert.Equal(t, map[string]any{"q": 1}, m["input"])
}

func TestFallback_InvokeHonoursContext(t *testing.T) {
	f := NewFallback(time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Invoke(ctx, "github", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsSimulated(t *testing.T) {
	assert.True(t, IsSimulated(map[string]any{SimulatedKey: true}))
	assert.False(t, IsSimulated(map[string]any{SimulatedKey: "yes"}))
	assert.False(t, IsSimulated(map[string]any{"ok": true}))
	assert.False(t, IsSimulated("simulated"))
	assert.False(t, IsSimulated(nil))
}
