package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "repos.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRead(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, `username,repo_name,language
alice,mcp-weather,Python
bob,shell-tools,Python
carol,fast-api,Go
`)

	entries, err := Read(path, nil)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, Entry{Owner: "alice", Repo: "mcp-weather", Language: "Python"}, entries[0])
	assert.Equal(t, "alice_mcp-weather", entries[0].RepoID())
	assert.Equal(t, "carol_fast-api", entries[2].RepoID())
}

func TestReadSkipsBlankRequiredFields(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, `username,repo_name,language
alice,mcp-weather,Python
,missing-owner,Python
bob,,Python
`)

	entries, err := Read(path, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].Owner)
}

func TestReadMissingRequiredColumn(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, "owner,project\nalice,demo\n")

	_, err := Read(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required column")
}

func TestReadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Read(filepath.Join(t.TempDir(), "nope.csv"), nil)
	require.Error(t, err)
}

func TestReadNoLanguageColumn(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, "username,repo_name\nalice,demo\n")

	entries, err := Read(path, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Language)
}

func TestFilter(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{Owner: "alice", Repo: "a", Language: "Python"},
		{Owner: "bob", Repo: "b", Language: "Go"},
		{Owner: "carol", Repo: "c", Language: "python"},
		{Owner: "dave", Repo: "d"},
	}

	kept := Filter(entries, "Python")
	require.Len(t, kept, 3)
	assert.Equal(t, "alice", kept[0].Owner)
	assert.Equal(t, "carol", kept[1].Owner)
	// Untagged entries cannot be filtered out.
	assert.Equal(t, "dave", kept[2].Owner)

	assert.Len(t, Filter(entries, ""), 4)
	assert.Len(t, Filter(entries, "Rust"), 1)
}
