package chain

import (
	"context"
	"fmt"

	"mcpchain/internal/catalog"
)

// Resolve turns an ordered list of entry identifiers into Pending steps.
//
// Duplicates are allowed; each occurrence becomes its own step. Entries that
// cannot be found get [UnknownDisplayName] instead of failing the resolution:
// the missing entry surfaces later as a step failure. An empty list returns
// [ErrEmptyChain].
func Resolve(ctx context.Context, lookup EntryLookup, entryIDs []string) ([]Step, error) {
	if len(entryIDs) == 0 {
		return nil, ErrEmptyChain
	}

	seen := make(map[string]int, len(entryIDs))
	steps := make([]Step, len(entryIDs))
	for i, entryID := range entryIDs {
		steps[i] = Step{
			ID:          stepID(entryID, seen),
			EntryID:     entryID,
			DisplayName: displayName(ctx, lookup, entryID),
			Status:      StatusPending,
		}
	}
	return steps, nil
}

func displayName(ctx context.Context, lookup EntryLookup, entryID string) string {
	entry, err := lookup.FindEntry(ctx, entryID)
	if err != nil {
		return UnknownDisplayName
	}
	return entry.Label()
}

func stepID(entryID string, seen map[string]int) string {
	seen[entryID]++
	if n := seen[entryID]; n > 1 {
		return fmt.Sprintf("%s#%d", entryID, n)
	}
	return entryID
}

// compile-time check that the catalog implementations fit the lookup contract.
var _ EntryLookup = (*catalog.Memory)(nil)
