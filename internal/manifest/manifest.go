// Package manifest reads chain manifest files.
//
// A chain manifest (typically chains.csv) defines named chains as ordered
// lists of catalog entries, and optionally binds entries to named actions.
// This lets teams share chains without passing entry lists on the command line.
//
// CSV format:
//
//	chain,entry_id,action
//	onboarding,github,git-clone
//	onboarding,filesystem,
//	onboarding,slack,notify
//	nightly,postgres,backup
//	nightly,filesystem,
//
// Rows are ordered by execution sequence within each chain. An entry may
// appear several times in the same chain; each row becomes its own step.
package manifest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrChainNotFound is returned when a manifest has no chain with the requested name.
var ErrChainNotFound = errors.New("chain not found in manifest")

// ChainEntry represents a single row in the manifest CSV.
type ChainEntry struct {
	// Chain is the name of the chain this row belongs to.
	Chain string

	// EntryID is the catalog entry executed by this step.
	EntryID string

	// Action optionally names the action that serves EntryID.
	// Empty means the entry is routed by its own identifier.
	Action string
}

// Manifest holds all rows parsed from a manifest CSV file.
type Manifest struct {
	// Entries are the manifest rows in file order.
	Entries []ChainEntry
}

// ReadFromFile reads and parses a chain manifest CSV file.
func ReadFromFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	return readFromReader(f)
}

// ReadFromString parses a chain manifest from a CSV string.
func ReadFromString(data string) (*Manifest, error) {
	return readFromReader(strings.NewReader(data))
}

func readFromReader(r io.Reader) (*Manifest, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest header: %w", err)
	}

	colIndex := buildColumnIndex(header)
	if err := validateColumns(colIndex); err != nil {
		return nil, err
	}

	var entries []ChainEntry
	lineNum := 1 // header was line 1
	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest line %d: %w", lineNum, err)
		}

		entry := ChainEntry{
			Chain:   getField(record, colIndex, "chain"),
			EntryID: getField(record, colIndex, "entry_id"),
			Action:  getField(record, colIndex, "action"),
		}

		if entry.Chain == "" {
			return nil, fmt.Errorf("manifest line %d: chain name is required", lineNum)
		}
		if entry.EntryID == "" {
			return nil, fmt.Errorf("manifest line %d: entry_id is required", lineNum)
		}

		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("manifest contains no chain entries")
	}

	return &Manifest{Entries: entries}, nil
}

// requiredColumns are the columns that must be present in the manifest CSV.
var requiredColumns = []string{"chain", "entry_id"}

func buildColumnIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(strings.ToLower(col))] = i
	}
	return index
}

func validateColumns(colIndex map[string]int) error {
	for _, col := range requiredColumns {
		if _, ok := colIndex[col]; !ok {
			return fmt.Errorf("manifest missing required column: %s", col)
		}
	}
	return nil
}

func getField(record []string, colIndex map[string]int, column string) string {
	idx, ok := colIndex[column]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// Chains returns the unique chain names in order of first appearance.
func (m *Manifest) Chains() []string {
	seen := make(map[string]bool)
	var chains []string
	for _, e := range m.Entries {
		if !seen[e.Chain] {
			seen[e.Chain] = true
			chains = append(chains, e.Chain)
		}
	}
	return chains
}

// HasChain returns true if the manifest defines the named chain.
func (m *Manifest) HasChain(name string) bool {
	for _, e := range m.Entries {
		if e.Chain == name {
			return true
		}
	}
	return false
}

// Chain returns the ordered entry identifiers of the named chain.
func (m *Manifest) Chain(name string) ([]string, error) {
	var ids []string
	for _, e := range m.Entries {
		if e.Chain == name {
			ids = append(ids, e.EntryID)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrChainNotFound, name)
	}
	return ids, nil
}

// Bindings returns the entry-to-action bindings declared in the manifest.
// When an entry is bound more than once, the first binding wins.
func (m *Manifest) Bindings() map[string]string {
	bindings := make(map[string]string)
	for _, e := range m.Entries {
		if e.Action == "" {
			continue
		}
		if _, ok := bindings[e.EntryID]; !ok {
			bindings[e.EntryID] = e.Action
		}
	}
	return bindings
}
