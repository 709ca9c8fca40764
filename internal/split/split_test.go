package split_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magicmcp/hub/internal/enrich"
	"github.com/magicmcp/hub/internal/split"
	"github.com/magicmcp/hub/pkg/model"
)

var refTime = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func sampleReadme() *model.StructuredReadme {
	return &model.StructuredReadme{
		Overview: &model.ReadmeSection{Content: "A filesystem server"},
		Installation: &model.ReadmeSection{
			Content:    "Install it",
			CodeBlocks: []model.CodeBlock{{Language: "bash", Code: "npm install @acme/fs"}},
		},
		RawContent: "# acme/fs\nA filesystem server",
	}
}

func sampleCorpus(t *testing.T) ([]enrich.EnrichedServer, []model.Category) {
	t.Helper()
	enricher := &enrich.Enricher{Now: refTime}

	servers := []model.ServerRecord{
		{
			ID:              "srv-1111",
			Name:            "acme/fs",
			Slug:            "acme-fs",
			Description:     model.LocalizedText{"zh-CN": "文件服务", "en": "Filesystem server"},
			FullDescription: "A long-form description of the filesystem server",
			Category:        "files",
			Subcategory:     "local",
			Tags:            []string{"files", "fs", "io", "storage", "disk"},
			TechStack:       []model.TechEntry{"Node.js", "TypeScript"},
			Stats:           model.Stats{Stars: 50, Forks: 7, LastUpdated: "2024-03-05T10:00:00Z"},
			Links:           model.Links{GitHub: "https://github.com/acme/fs", Docs: "https://acme.dev/docs"},
			Featured:        true,
		},
		{
			ID:          "srv-2222",
			Name:        "beta/search",
			Slug:        "beta-search",
			Description: model.LocalizedText{"en": "Search server"},
			Category:    "search",
			Tags:        []string{"search"},
			Stats:       model.Stats{Stars: 3, Forks: 1},
			Usage:       &model.Usage{Downloads: 42, Dependents: 2, WeeklyDownloads: 9},
		},
	}
	categories := []model.Category{
		{
			ID: "files", Name: "文件", NameEn: "Files", Icon: "folder", Color: "#123456",
			Subcategories: []model.Subcategory{{ID: "local", Name: "本地", NameEn: "Local"}},
		},
		{ID: "search", Name: "搜索", NameEn: "Search"},
	}

	enriched := []enrich.EnrichedServer{
		enricher.Enrich(servers[0], sampleReadme(), "acme_fs.json"),
		enricher.Enrich(servers[1], nil, ""),
	}
	return enriched, categories
}

func TestSplitDeterminism(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()

	for _, dir := range []string{dirA, dirB} {
		enriched, categories := sampleCorpus(t)
		res, err := split.Split(enriched, categories)
		require.NoError(t, err)
		require.NoError(t, res.Write(dir))
	}

	var relPaths []string
	require.NoError(t, filepath.Walk(dirA, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dirA, path)
		if err != nil {
			return err
		}
		relPaths = append(relPaths, rel)
		return nil
	}))
	require.NotEmpty(t, relPaths)

	for _, rel := range relPaths {
		a, err := os.ReadFile(filepath.Join(dirA, rel))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(dirB, rel))
		require.NoError(t, err, "file %s missing from second run", rel)
		assert.Equal(t, string(a), string(b), "artifact %s differs between runs", rel)
	}
}

func TestSplitCoreExcludesHeavyFields(t *testing.T) {
	enriched, categories := sampleCorpus(t)
	res, err := split.Split(enriched, categories)
	require.NoError(t, err)

	require.Len(t, res.Core, 2)
	core := res.Core[0]
	assert.Equal(t, "srv-1111", core.ID)
	assert.Equal(t, "acme", core.Owner)
	// Core tags are truncated to the first three; the full set lives in the
	// extended entry.
	assert.Equal(t, []string{"files", "fs", "io"}, core.Tags)
	assert.Equal(t, []string{"files", "fs", "io", "storage", "disk"}, res.Extended["srv-1111"].AllTags)

	data, err := json.Marshal(core)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "fullDescription")
	assert.NotContains(t, string(data), "techStack")

	ext := res.Extended["srv-1111"]
	assert.Equal(t, "A long-form description of the filesystem server", ext.FullDescription)
	assert.Equal(t, []string{"Node.js", "TypeScript"}, ext.TechStack)
	assert.True(t, ext.Documentation.HasReadme)
	assert.True(t, ext.Documentation.HasInstallation)
	assert.False(t, ext.Documentation.HasExamples)
}

func TestSplitUsageFallback(t *testing.T) {
	enriched, categories := sampleCorpus(t)
	res, err := split.Split(enriched, categories)
	require.NoError(t, err)

	derived := res.Extended["srv-1111"].Usage
	assert.Equal(t, 500, derived.Downloads)
	assert.Equal(t, 7, derived.Dependents)
	assert.Equal(t, 100, derived.WeeklyDownloads)

	explicit := res.Extended["srv-2222"].Usage
	assert.Equal(t, model.Usage{Downloads: 42, Dependents: 2, WeeklyDownloads: 9}, explicit)
}

func TestSearchIndex(t *testing.T) {
	enriched, categories := sampleCorpus(t)
	res, err := split.Split(enriched, categories)
	require.NoError(t, err)

	require.Len(t, res.SearchIndex, 2)
	seen := make(map[string]int)
	for _, entry := range res.SearchIndex {
		seen[entry.ID]++
		assert.Equal(t, strings.ToLower(entry.SearchTerms), entry.SearchTerms)
		assert.NotContains(t, entry.SearchTerms, "undefined")
		assert.NotContains(t, entry.SearchTerms, "null")
	}
	assert.Equal(t, map[string]int{"srv-1111": 1, "srv-2222": 1}, seen)

	first := res.SearchIndex[0]
	for _, term := range []string{"acme/fs", "文件服务", "filesystem server", "files", "node.js"} {
		assert.Contains(t, first.SearchTerms, term)
	}
}

func TestReadmeIndexAgreement(t *testing.T) {
	enriched, categories := sampleCorpus(t)
	res, err := split.Split(enriched, categories)
	require.NoError(t, err)

	withReadme := res.ReadmeIndex["srv-1111"]
	require.NotNil(t, withReadme.Filename)
	assert.Equal(t, "acme_fs.json", *withReadme.Filename)
	assert.True(t, withReadme.HasContent)
	assert.Equal(t, []string{"overview", "installation"}, withReadme.Sections)

	optimized, ok := res.Readmes["srv-1111"]
	require.True(t, ok)
	serialized, err := json.Marshal(optimized)
	require.NoError(t, err)
	assert.Equal(t, len(serialized), withReadme.Size)
	assert.NotContains(t, string(serialized), "raw_content")

	withoutReadme := res.ReadmeIndex["srv-2222"]
	assert.Nil(t, withoutReadme.Filename)
	assert.False(t, withoutReadme.HasContent)
	assert.Equal(t, []string{}, withoutReadme.Sections)
	assert.Equal(t, 0, withoutReadme.Size)
	_, ok = res.Readmes["srv-2222"]
	assert.False(t, ok)
}

func TestWriteArtifactLayout(t *testing.T) {
	dir := t.TempDir()
	enriched, categories := sampleCorpus(t)
	res, err := split.Split(enriched, categories)
	require.NoError(t, err)
	require.NoError(t, res.Write(dir))

	for _, name := range []string{
		split.CoreFile,
		split.ExtendedFile,
		split.CategoriesFile,
		split.SearchIndexFile,
		filepath.Join(split.ReadmeSubdir, split.ReadmeIndexFile),
		filepath.Join(split.ReadmeSubdir, "srv-1111.json"),
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "expected artifact %s", name)
	}

	// Servers without a README get an index entry but no payload file.
	_, err = os.Stat(filepath.Join(dir, split.ReadmeSubdir, "srv-2222.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestAllTags(t *testing.T) {
	enriched, categories := sampleCorpus(t)
	res, err := split.Split(enriched, categories)
	require.NoError(t, err)

	assert.Equal(t, []string{"disk", "files", "fs", "io", "search", "storage"}, res.AllTags())
}
