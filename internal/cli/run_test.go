package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcpchain/internal/action"
	"mcpchain/internal/chain"
	"mcpchain/internal/manifest"
)

func TestRunCommand(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		failing      string
		wantExitCode int
		wantOutput   []string
	}{
		{
			name:         "all steps complete",
			args:         []string{"run", "github", "filesystem", "slack"},
			wantExitCode: ExitCodeSuccess,
			wantOutput:   []string{"Chain: 3 steps", "GitHub → Filesystem → Slack", "CHAIN COMPLETE", "3/3 steps completed"},
		},
		{
			name:         "failed step degrades the run",
			args:         []string{"run", "github", "filesystem", "slack"},
			failing:      "filesystem",
			wantExitCode: ExitCodePartial,
			wantOutput:   []string{"CHAIN DEGRADED", "2/3 steps completed", "mock failure"},
		},
		{
			name:         "unknown entry fails its step",
			args:         []string{"run", "github", "ghost"},
			wantExitCode: ExitCodePartial,
			wantOutput:   []string{"Unknown Server", "server not found: ghost", "1/2 steps completed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actions := map[string]action.Action{}
			mocks := map[string]*MockAction{}
			for _, e := range testEntries() {
				m := &MockAction{Output: e.ID + "-out"}
				if e.ID == tt.failing {
					m.Err = errMockFailure
				}
				mocks[e.ID] = m
				actions[e.ID] = m
			}
			app, buf := newTestApp(t, actions, nil)

			result, _ := runCLI(t, app, tt.args...)

			assert.Equal(t, tt.wantExitCode, result.ExitCode, "err: %v", result.Err)
			for _, want := range tt.wantOutput {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestRunCommand_CarriesOutputs(t *testing.T) {
	github := &MockAction{Output: "repos"}
	filesystem := &MockAction{Err: errMockFailure}
	slack := &MockAction{Output: "posted"}
	app, _ := newTestApp(t, map[string]action.Action{
		"github":     github,
		"filesystem": filesystem,
		"slack":      slack,
	}, nil)

	result, _ := runCLI(t, app, "run", "github", "filesystem", "slack")
	require.Equal(t, ExitCodePartial, result.ExitCode)

	assert.Equal(t, []any{nil}, github.Inputs)
	assert.Equal(t, []any{"repos"}, filesystem.Inputs)
	assert.Equal(t, []any{nil}, slack.Inputs)
}

func TestRunCommand_CarryForwardFlag(t *testing.T) {
	filesystem := &MockAction{Err: errMockFailure}
	slack := &MockAction{Output: "posted"}
	app, _ := newTestApp(t, map[string]action.Action{
		"github":     &MockAction{Output: "repos"},
		"filesystem": filesystem,
		"slack":      slack,
	}, nil)

	result, _ := runCLI(t, app, "run", "--carry-forward", "last-success", "github", "filesystem", "slack")
	require.Equal(t, ExitCodePartial, result.ExitCode)
	assert.Equal(t, []any{"repos"}, slack.Inputs)

	result, _ = runCLI(t, app, "run", "--carry-forward", "sideways", "github")
	assert.Equal(t, ExitCodeError, result.ExitCode)
	assert.Contains(t, result.Err.Error(), "unknown carry policy")
}

func TestRunCommand_FallbackForUnregisteredEntries(t *testing.T) {
	app, _ := newTestApp(t, nil, nil)
	executor, err := app.NewExecutor()
	require.NoError(t, err)

	_, err = executor.Start(t.Context(), []string{"github", "slack"})
	require.NoError(t, err)

	run := executor.Snapshot()
	assert.Equal(t, chain.OutcomeSuccess, run.Outcome.Kind)
	assert.True(t, action.IsSimulated(run.Steps[0].Output))

	out := run.Steps[1].Output.(map[string]any)
	assert.Equal(t, "slack", out["entry_id"])
	assert.Equal(t, run.Steps[0].Output, out["input"], "simulated outputs are carried forward")
}

func TestRunCommand_JSON(t *testing.T) {
	app, buf := newTestApp(t, map[string]action.Action{
		"github": &MockAction{Output: map[string]any{"repos": 2}},
	}, nil)

	result, _ := runCLI(t, app, "run", "--json", "github")
	require.Equal(t, ExitCodeSuccess, result.ExitCode, "err: %v", result.Err)

	var run chain.Run
	require.NoError(t, json.Unmarshal(buf.Bytes(), &run), buf.String())
	require.NotNil(t, run.Outcome)
	assert.Equal(t, chain.OutcomeSuccess, run.Outcome.Kind)
	require.Len(t, run.Steps, 1)
	assert.Equal(t, chain.StatusCompleted, run.Steps[0].Status)
	assert.NotContains(t, buf.String(), "Chain:", "no progress lines in json mode")
}

func TestRunCommand_Metrics(t *testing.T) {
	app, _ := newTestApp(t, map[string]action.Action{"github": &MockAction{}}, nil)

	result, out := runCLI(t, app, "run", "--metrics", "github")
	require.Equal(t, ExitCodeSuccess, result.ExitCode, "err: %v", result.Err)
	assert.Contains(t, out, "mcpchain_runs_total")
}

func TestRunCommand_EntrySources(t *testing.T) {
	m, err := manifest.ReadFromString("chain,entry_id\nonboarding,slack\nonboarding,github\n")
	require.NoError(t, err)

	t.Run("named chain from manifest", func(t *testing.T) {
		app, buf := newTestApp(t, nil, m)
		result, _ := runCLI(t, app, "run", "--chain", "onboarding")
		require.Equal(t, ExitCodeSuccess, result.ExitCode, "err: %v", result.Err)
		assert.Contains(t, buf.String(), "Slack → GitHub")
	})

	t.Run("unknown chain", func(t *testing.T) {
		app, _ := newTestApp(t, nil, m)
		result, _ := runCLI(t, app, "run", "--chain", "nightly")
		assert.Equal(t, ExitCodeError, result.ExitCode)
		assert.ErrorIs(t, result.Err, manifest.ErrChainNotFound)
	})

	t.Run("chain without manifest", func(t *testing.T) {
		app, _ := newTestApp(t, nil, nil)
		result, _ := runCLI(t, app, "run", "--chain", "onboarding")
		assert.Equal(t, ExitCodeError, result.ExitCode)
		assert.Contains(t, result.Err.Error(), "requires manifest.path")
	})

	t.Run("entries and chain together", func(t *testing.T) {
		app, _ := newTestApp(t, nil, m)
		result, _ := runCLI(t, app, "run", "--chain", "onboarding", "github")
		assert.Equal(t, ExitCodeError, result.ExitCode)
		assert.Contains(t, result.Err.Error(), "not both")
	})

	t.Run("configured default chain", func(t *testing.T) {
		app, buf := newTestApp(t, nil, nil)
		app.Config.Chain.Steps = []string{"filesystem"}
		result, _ := runCLI(t, app, "run")
		require.Equal(t, ExitCodeSuccess, result.ExitCode, "err: %v", result.Err)
		assert.Contains(t, buf.String(), "1/1 steps completed")
	})

	t.Run("nothing to run", func(t *testing.T) {
		app, _ := newTestApp(t, nil, nil)
		result, _ := runCLI(t, app, "run")
		assert.Equal(t, ExitCodeError, result.ExitCode)
		assert.Contains(t, result.Err.Error(), "no entries to run")
	})
}

func TestRunCommand_ManifestBindings(t *testing.T) {
	m, err := manifest.ReadFromString("chain,entry_id,action\nsync,github,git\nsync,filesystem,git\n")
	require.NoError(t, err)

	git := &MockAction{Output: "synced"}
	app, _ := newTestApp(t, map[string]action.Action{"git": git}, m)

	result, _ := runCLI(t, app, "run", "--chain", "sync")
	require.Equal(t, ExitCodeSuccess, result.ExitCode, "err: %v", result.Err)
	assert.Equal(t, []any{nil, "synced"}, git.Inputs)
}

func TestProgressPrinter(t *testing.T) {
	app, buf := newTestApp(t, nil, nil)
	pp := newProgressPrinter(app.Printer)

	steps := []chain.Step{
		{ID: "github", EntryID: "github", DisplayName: "GitHub", Status: chain.StatusPending},
		{ID: "ghost", EntryID: "ghost", DisplayName: chain.UnknownDisplayName, Status: chain.StatusPending},
	}
	snapshot := func(statuses ...chain.Status) chain.Run {
		s := make([]chain.Step, len(steps))
		copy(s, steps)
		for i, st := range statuses {
			s[i].Status = st
		}
		return chain.Run{Steps: s}
	}

	pp.update(chain.Run{})
	assert.Empty(t, buf.String(), "idle snapshots are ignored")

	pp.update(snapshot(chain.StatusPending, chain.StatusPending))
	pp.update(snapshot(chain.StatusRunning, chain.StatusPending))
	pp.update(snapshot(chain.StatusCompleted, chain.StatusPending))
	pp.update(snapshot(chain.StatusCompleted, chain.StatusFailed))

	out := buf.String()
	assert.Contains(t, out, "Chain: 2 steps")
	assert.Contains(t, out, "[1/2] GitHub (github)")
	assert.Contains(t, out, "[2/2] Unknown Server (ghost)", "steps failing from pending still get a header")
	assert.Contains(t, out, "✓")
	assert.Contains(t, out, "✗")
}
