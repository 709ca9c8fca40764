package sitemap_test

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magicmcp/hub/internal/database"
	"github.com/magicmcp/hub/internal/sitemap"
)

const baseURL = "https://magicmcp.net"

func newTestGenerator() *sitemap.Generator {
	return &sitemap.Generator{
		BaseURL: baseURL,
		Now:     time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC),
	}
}

func generateSample(t *testing.T) map[string]string {
	t.Helper()
	servers := []database.PublishedServer{
		{Slug: "acme-fs", Stars: 1500, LastUpdated: "2024-01-02T03:04:05Z"},
		{Slug: "beta-search", Stars: 150},
		{Slug: "gamma-tool", Stars: 15},
	}
	categories := []database.PublishedCategory{{ID: "files"}, {ID: "search"}}
	tags := []string{"files", "machine learning"}

	files, err := newTestGenerator().Generate(servers, categories, tags)
	require.NoError(t, err)

	byName := make(map[string]string, len(files))
	for _, f := range files {
		byName[f.Name] = f.Content
	}
	return byName
}

func TestGenerateProducesFamily(t *testing.T) {
	byName := generateSample(t)

	for _, name := range []string{
		"sitemap.xml",
		"sitemap-servers.xml",
		"sitemap-categories.xml",
		"sitemap-tags.xml",
		"sitemap-complete.xml",
		"sitemapindex.xml",
	} {
		content, ok := byName[name]
		require.True(t, ok, "missing %s", name)
		assert.True(t, strings.HasPrefix(content, xml.Header), "%s missing XML header", name)
	}
}

func TestServerSitemapPriorities(t *testing.T) {
	byName := generateSample(t)

	var set sitemap.URLSet
	require.NoError(t, xml.Unmarshal([]byte(byName["sitemap-servers.xml"]), &set))
	require.Len(t, set.URLs, 3)

	popular := set.URLs[0]
	assert.Equal(t, baseURL+"/servers/acme-fs", popular.Loc)
	assert.Equal(t, "0.9", popular.Priority)
	assert.Equal(t, "2024-01-02", popular.Lastmod)
	assert.Equal(t, "weekly", popular.Changefreq)

	assert.Equal(t, "0.8", set.URLs[1].Priority)
	assert.Equal(t, "0.7", set.URLs[2].Priority)
	// Servers without an update time stamp with the generation date.
	assert.Equal(t, "2025-07-01", set.URLs[1].Lastmod)
}

func TestStaticPages(t *testing.T) {
	byName := generateSample(t)

	var set sitemap.URLSet
	require.NoError(t, xml.Unmarshal([]byte(byName["sitemap.xml"]), &set))
	require.Len(t, set.URLs, 6)

	assert.Equal(t, baseURL+"/", set.URLs[0].Loc)
	assert.Equal(t, "1.0", set.URLs[0].Priority)
	assert.Equal(t, "daily", set.URLs[0].Changefreq)
	assert.Equal(t, baseURL+"/docs", set.URLs[3].Loc)
	assert.Equal(t, "monthly", set.URLs[3].Changefreq)
}

func TestTagURLsAreEscaped(t *testing.T) {
	byName := generateSample(t)

	var set sitemap.URLSet
	require.NoError(t, xml.Unmarshal([]byte(byName["sitemap-tags.xml"]), &set))
	require.Len(t, set.URLs, 2)
	assert.Equal(t, baseURL+"/tags/machine%20learning", set.URLs[1].Loc)
	assert.Equal(t, "0.6", set.URLs[1].Priority)
}

func TestCompleteSitemapCoversEverything(t *testing.T) {
	byName := generateSample(t)

	var set sitemap.URLSet
	require.NoError(t, xml.Unmarshal([]byte(byName["sitemap-complete.xml"]), &set))
	// 6 static + 3 servers + 2 categories + 2 tags.
	assert.Len(t, set.URLs, 13)
}

func TestSitemapIndex(t *testing.T) {
	byName := generateSample(t)

	var index sitemap.Index
	require.NoError(t, xml.Unmarshal([]byte(byName["sitemapindex.xml"]), &index))
	require.Len(t, index.Sitemaps, 5)
	assert.Equal(t, baseURL+"/sitemap.xml", index.Sitemaps[0].Loc)
	assert.Equal(t, baseURL+"/sitemap-complete.xml", index.Sitemaps[4].Loc)
	for _, entry := range index.Sitemaps {
		assert.Equal(t, "2025-07-01", entry.Lastmod)
	}
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "public")

	files, err := newTestGenerator().Generate(nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, sitemap.Write(dir, files))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 6)
}
