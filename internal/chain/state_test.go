package chain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPending, StatusRunning, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusCompleted, false},
		{StatusRunning, StatusCompleted, true},
		{StatusRunning, StatusFailed, true},
		{StatusRunning, StatusPending, false},
		{StatusCompleted, StatusRunning, false},
		{StatusCompleted, StatusFailed, false},
		{StatusFailed, StatusRunning, false},
		{StatusFailed, StatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, canTransition(tt.from, tt.to))
		})
	}
}

func TestStep_Lifecycle(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("complete measures from begin", func(t *testing.T) {
		s := Step{ID: "a", Status: StatusPending}
		require.NoError(t, s.begin(start))
		assert.Equal(t, StatusRunning, s.Status)
		assert.Equal(t, start, s.StartedAt)

		require.NoError(t, s.complete("out", start.Add(250*time.Millisecond)))
		assert.Equal(t, StatusCompleted, s.Status)
		assert.Equal(t, "out", s.Output)
		assert.Equal(t, 250*time.Millisecond, s.Duration)
		assert.Equal(t, int64(250), s.DurationMs())
	})

	t.Run("fail while running records reason and duration", func(t *testing.T) {
		s := Step{ID: "a", Status: StatusPending}
		require.NoError(t, s.begin(start))
		require.NoError(t, s.fail("boom", start.Add(time.Second)))
		assert.Equal(t, StatusFailed, s.Status)
		assert.Equal(t, "boom", s.Error)
		assert.Equal(t, time.Second, s.Duration)
	})

	t.Run("fail from pending is stamped with zero duration", func(t *testing.T) {
		s := Step{ID: "a", Status: StatusPending}
		require.NoError(t, s.fail("server not found: a", start))
		assert.Equal(t, StatusFailed, s.Status)
		assert.Equal(t, start, s.StartedAt)
		assert.Zero(t, s.Duration)
	})

	t.Run("terminal steps reject further transitions", func(t *testing.T) {
		s := Step{ID: "a", Status: StatusCompleted}
		err := s.fail("late", start)
		require.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, StatusCompleted, s.Status)
		assert.Empty(t, s.Error)

		require.ErrorIs(t, s.begin(start), ErrInvalidTransition)
	})

	t.Run("pending cannot complete", func(t *testing.T) {
		s := Step{ID: "a", Status: StatusPending}
		require.ErrorIs(t, s.complete("out", start), ErrInvalidTransition)
		assert.Nil(t, s.Output)
	})
}
