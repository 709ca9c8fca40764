package source_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magicmcp/hub/internal/source"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadServers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, source.ServersFile, `[
		{"id": "srv-1", "name": "acme/tool", "slug": "acme-tool",
		 "description": {"en": "a tool"}, "category": "dev",
		 "stats": {"stars": 10, "forks": 2}, "links": {}}
	]`)

	servers, err := source.NewLoader(dir).LoadServers()
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.Equal(t, "srv-1", servers[0].ID)
	assert.Equal(t, "a tool", servers[0].Description.Get("en"))
	assert.Equal(t, 10, servers[0].Stats.Stars)
}

func TestLoadServersMissingFileIsFatal(t *testing.T) {
	_, err := source.NewLoader(t.TempDir()).LoadServers()
	require.Error(t, err)
	assert.Contains(t, err.Error(), source.ServersFile)
}

func TestLoadCategoriesInvalidJSONIsFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, source.CategoriesFile, `{not json`)

	_, err := source.NewLoader(dir).LoadCategories()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestFindReadmeCandidateStrategies(t *testing.T) {
	const readme = `{"overview": {"content": "hi"}, "raw_content": "# hi"}`

	tests := []struct {
		name       string
		serverName string
		files      []string
		expected   string
	}{
		{
			name:       "slash to underscore",
			serverName: "acme/tool",
			files:      []string{"acme_tool.json"},
			expected:   "acme_tool.json",
		},
		{
			name:       "special characters stripped",
			serverName: "acme/we!rd",
			files:      []string{"acme_werd.json"},
			expected:   "acme_werd.json",
		},
		{
			name:       "repo segment only",
			serverName: "acme/tool",
			files:      []string{"tool.json"},
			expected:   "tool.json",
		},
		{
			name:       "lowercased",
			serverName: "Acme/Tool",
			files:      []string{"acme_tool.json"},
			expected:   "acme_tool.json",
		},
		{
			name:       "earlier strategy wins",
			serverName: "acme/tool",
			files:      []string{"acme_tool.json", "tool.json"},
			expected:   "acme_tool.json",
		},
		{
			name:       "no match",
			serverName: "acme/tool",
			files:      []string{"unrelated.json"},
			expected:   "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			readmeDir := filepath.Join(dir, source.ReadmeDir)
			for _, f := range tc.files {
				writeFile(t, readmeDir, f, readme)
			}

			result := source.NewLoader(dir).FindReadme(tc.serverName)
			if tc.expected == "" {
				assert.Nil(t, result)
				return
			}
			require.NotNil(t, result)
			assert.Equal(t, tc.expected, result.Filename)
			require.NotNil(t, result.Readme)
			assert.Equal(t, "hi", result.Readme.Overview.Content)
		})
	}
}

func TestFindReadmeUnparseableFallsThrough(t *testing.T) {
	dir := t.TempDir()
	readmeDir := filepath.Join(dir, source.ReadmeDir)
	writeFile(t, readmeDir, "acme_tool.json", `{broken`)
	writeFile(t, readmeDir, "tool.json", `{"raw_content": "# ok"}`)

	result := source.NewLoader(dir).FindReadme("acme/tool")
	require.NotNil(t, result)
	assert.Equal(t, "tool.json", result.Filename)
	assert.Equal(t, "# ok", result.Readme.RawContent)
}

func TestFindReadmeAbsenceIsNormal(t *testing.T) {
	assert.Nil(t, source.NewLoader(t.TempDir()).FindReadme("acme/tool"))
}
