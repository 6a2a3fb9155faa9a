package manifest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFromFile_Valid(t *testing.T) {
	m, err := ReadFromFile(filepath.Join("testdata", "valid.csv"))

	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Len(t, m.Entries, 5)

	assert.Equal(t, ChainEntry{Chain: "onboarding", EntryID: "github", Action: "git-clone"}, m.Entries[0])
	assert.Equal(t, ChainEntry{Chain: "onboarding", EntryID: "filesystem"}, m.Entries[1])
	assert.Equal(t, "nightly", m.Entries[4].Chain)
}

func TestReadFromFile_Minimal(t *testing.T) {
	m, err := ReadFromFile(filepath.Join("testdata", "minimal.csv"))

	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Len(t, m.Entries, 2)

	// Minimal CSV only has required columns
	assert.Equal(t, "github", m.Entries[0].EntryID)
	assert.Equal(t, "", m.Entries[0].Action)
	assert.Empty(t, m.Bindings())
}

func TestReadFromFile_NotFound(t *testing.T) {
	m, err := ReadFromFile(filepath.Join("testdata", "nonexistent.csv"))

	assert.Error(t, err)
	assert.Nil(t, m)
	assert.Contains(t, err.Error(), "failed to open manifest")
}

func TestReadFromFile_MissingColumn(t *testing.T) {
	m, err := ReadFromFile(filepath.Join("testdata", "missing_column.csv"))

	assert.Error(t, err)
	assert.Nil(t, m)
	assert.Contains(t, err.Error(), "missing required column: entry_id")
}

func TestReadFromString_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{name: "empty input", data: "", wantErr: "failed to read manifest header"},
		{name: "header only", data: "chain,entry_id\n", wantErr: "no chain entries"},
		{name: "missing chain", data: "chain,entry_id\n,github\n", wantErr: "line 2: chain name is required"},
		{name: "missing entry", data: "chain,entry_id\nonboarding,github\nonboarding,\n", wantErr: "line 3: entry_id is required"},
		{name: "unterminated quote", data: "chain,entry_id\n\"onboarding,github\n", wantErr: "failed to read manifest line"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ReadFromString(tt.data)
			require.Error(t, err)
			assert.Nil(t, m)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReadFromString_HeaderIsCaseInsensitive(t *testing.T) {
	m, err := ReadFromString("Entry_ID, Chain\ngithub, review\n")

	require.NoError(t, err)
	assert.Equal(t, ChainEntry{Chain: "review", EntryID: "github"}, m.Entries[0])
}

func TestManifest_Chains(t *testing.T) {
	m, err := ReadFromFile(filepath.Join("testdata", "valid.csv"))
	require.NoError(t, err)

	assert.Equal(t, []string{"onboarding", "nightly"}, m.Chains())
	assert.True(t, m.HasChain("nightly"))
	assert.False(t, m.HasChain("weekly"))

	ids, err := m.Chain("onboarding")
	require.NoError(t, err)
	assert.Equal(t, []string{"github", "filesystem", "slack"}, ids)

	_, err = m.Chain("weekly")
	assert.ErrorIs(t, err, ErrChainNotFound)
}

func TestManifest_DuplicateEntriesInChain(t *testing.T) {
	m, err := ReadFromString("chain,entry_id\nloop,github\nloop,github\n")
	require.NoError(t, err)

	ids, err := m.Chain("loop")
	require.NoError(t, err)
	assert.Equal(t, []string{"github", "github"}, ids)
}

func TestManifest_Bindings(t *testing.T) {
	m, err := ReadFromString(`chain,entry_id,action
a,github,git-clone
b,github,git-fetch
b,slack,notify
b,filesystem,
`)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"github": "git-clone",
		"slack":  "notify",
	}, m.Bindings(), "first binding wins and empty actions are skipped")
}
