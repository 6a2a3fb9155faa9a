package cli

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"mcpchain/internal/action"
	"mcpchain/internal/catalog"
	"mcpchain/internal/config"
	"mcpchain/internal/manifest"
	"mcpchain/internal/output"
)

// MockAction records invocations and returns a fixed result.
type MockAction struct {
	mu sync.Mutex
	// Inputs records the input of every invocation in order.
	Inputs []any
	// Output is returned on success.
	Output any
	// Err, if set, fails every invocation.
	Err error
}

func (m *MockAction) Invoke(_ context.Context, _ string, input any) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Inputs = append(m.Inputs, input)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Output, nil
}

var errMockFailure = errors.New("mock failure")

func testEntries() []catalog.Entry {
	return []catalog.Entry{
		{ID: "github", DisplayName: "GitHub", Category: "dev"},
		{ID: "filesystem", DisplayName: "Filesystem", Category: "storage"},
		{ID: "slack", DisplayName: "Slack", Category: "chat"},
	}
}

// newTestApp wires an App around an in-memory catalog, the given actions and
// an optional manifest. The fallback action runs without delay.
func newTestApp(t *testing.T, actions map[string]action.Action, m *manifest.Manifest) (*App, *bytes.Buffer) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Fallback.MinDelay = 0
	cfg.Fallback.MaxDelay = 0

	registry := NewRegistry(cfg, m)
	for name, a := range actions {
		registry.Register(name, a)
	}

	buf := &bytes.Buffer{}
	return &App{
		Config:   cfg,
		Catalog:  catalog.NewMemory(testEntries()...),
		Actions:  registry,
		Manifest: m,
		Printer:  output.NewPrinterWithWriter(buf),
	}, buf
}

// runCLI executes args against app and returns the result plus cobra's own output.
func runCLI(t *testing.T, app *App, args ...string) (ExecuteResult, string) {
	t.Helper()

	cmd := NewRootCommand(app)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	if code, ok := IsExitError(err); ok {
		return ExecuteResult{ExitCode: code, Err: err}, out.String()
	}
	if err != nil {
		return ExecuteResult{ExitCode: ExitCodeError, Err: err}, out.String()
	}
	return ExecuteResult{ExitCode: ExitCodeSuccess}, out.String()
}
