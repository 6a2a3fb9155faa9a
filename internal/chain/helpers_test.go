package chain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mcpchain/internal/catalog"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Invocation records one call to MockProvider.
type Invocation struct {
	EntryID string
	Input   any
}

// MockProvider implements ActionProvider for testing.
type MockProvider struct {
	mu sync.Mutex
	// Handlers maps entry ids to behaviour. Entries without a handler return
	// "<entry-id>-out".
	Handlers map[string]func(ctx context.Context, input any) (any, error)
	// Invocations records all calls in order.
	Invocations []Invocation
}

func (m *MockProvider) Invoke(ctx context.Context, entryID string, input any) (any, error) {
	m.mu.Lock()
	m.Invocations = append(m.Invocations, Invocation{EntryID: entryID, Input: input})
	h := m.Handlers[entryID]
	m.mu.Unlock()

	if h != nil {
		return h(ctx, input)
	}
	return fmt.Sprintf("%s-out", entryID), nil
}

func (m *MockProvider) calls() []Invocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Invocation(nil), m.Invocations...)
}

// advanceBy returns a handler that takes d on the clock and succeeds with out.
func advanceBy(clock *fakeClock, d time.Duration, out any) func(context.Context, any) (any, error) {
	return func(context.Context, any) (any, error) {
		clock.Advance(d)
		return out, nil
	}
}

// failAfter returns a handler that takes d on the clock and fails with msg.
func failAfter(clock *fakeClock, d time.Duration, msg string) func(context.Context, any) (any, error) {
	return func(context.Context, any) (any, error) {
		clock.Advance(d)
		return nil, fmt.Errorf("%s", msg)
	}
}

func testCatalog() *catalog.Memory {
	return catalog.NewMemory(
		catalog.Entry{ID: "github", DisplayName: "GitHub", Category: "dev"},
		catalog.Entry{ID: "filesystem", DisplayName: "Filesystem", Category: "storage"},
		catalog.Entry{ID: "slack", DisplayName: "Slack", Category: "chat"},
		catalog.Entry{ID: "postgres", DisplayName: "PostgreSQL", Category: "data"},
	)
}

func newTestExecutor(provider ActionProvider, clock *fakeClock) *Executor {
	e := NewExecutor(testCatalog(), provider)
	e.SetClock(clock.Now)
	return e
}
