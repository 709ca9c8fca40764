package model_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magicmcp/hub/pkg/model"
)

func TestTechEntryUnmarshal(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "plain strings",
			input:    `["go", "redis"]`,
			expected: []string{"go", "redis"},
		},
		{
			name:     "object with name",
			input:    `[{"name": "postgres"}]`,
			expected: []string{"postgres"},
		},
		{
			name:     "object with label",
			input:    `[{"label": "TypeScript"}]`,
			expected: []string{"TypeScript"},
		},
		{
			name:     "mixed entries",
			input:    `["go", {"name": "redis"}, {"label": "pg"}]`,
			expected: []string{"go", "redis", "pg"},
		},
		{
			name:     "name wins over label",
			input:    `[{"name": "node", "label": "Node.js"}]`,
			expected: []string{"node"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var stack []model.TechEntry
			require.NoError(t, json.Unmarshal([]byte(tc.input), &stack))
			assert.Equal(t, tc.expected, model.TechStackStrings(stack))
		})
	}
}

func TestTechStackStringsDropsEmpties(t *testing.T) {
	stack := []model.TechEntry{"go", "", "redis"}
	assert.Equal(t, []string{"go", "redis"}, model.TechStackStrings(stack))
}

func TestLocalizedTextDefault(t *testing.T) {
	assert.Equal(t, "你好", model.LocalizedText{"zh-CN": "你好", "en": "hello"}.Default())
	assert.Equal(t, "hello", model.LocalizedText{"en": "hello"}.Default())
	assert.Equal(t, "", model.LocalizedText(nil).Default())
	assert.Equal(t, "", model.LocalizedText{"fr": "salut"}.Get("en"))
}

func TestInstallationMethods(t *testing.T) {
	inst := &model.Installation{NPM: "@acme/tool", Docker: "docker run acme", UV: "uv run acme"}
	assert.Equal(t, [][2]string{
		{"npm", "@acme/tool"},
		{"docker", "docker run acme"},
		{"uv", "uv run acme"},
	}, inst.Methods())

	var nilInst *model.Installation
	assert.Nil(t, nilInst.Methods())
	assert.Empty(t, (&model.Installation{}).Methods())
}

func TestStructuredReadmeAccounting(t *testing.T) {
	readme := &model.StructuredReadme{
		Overview: &model.ReadmeSection{
			Content:    "about",
			CodeBlocks: []model.CodeBlock{{Language: "go", Code: "x"}},
		},
		Installation: &model.ReadmeSection{
			Content:    "install",
			CodeBlocks: []model.CodeBlock{{Language: "bash", Code: "a"}, {Language: "bash", Code: "b"}},
		},
		Examples: &model.ReadmeSection{
			CodeBlocks: []model.CodeBlock{{Language: "bash", Code: "c"}},
		},
	}

	// Overview blocks are excluded from the count.
	assert.Equal(t, 3, readme.CodeBlockCount())
	assert.Equal(t, []string{"overview", "installation", "examples"}, readme.Sections())

	var nilReadme *model.StructuredReadme
	assert.Equal(t, 0, nilReadme.CodeBlockCount())
	assert.Nil(t, nilReadme.Sections())
}

func TestReadmeSectionHasContent(t *testing.T) {
	var nilSection *model.ReadmeSection
	assert.False(t, nilSection.HasContent())
	assert.False(t, (&model.ReadmeSection{}).HasContent())
	assert.True(t, (&model.ReadmeSection{Content: "x"}).HasContent())
}

func TestServerRecordFallbacks(t *testing.T) {
	s := model.ServerRecord{Name: "acme/tool"}
	assert.Equal(t, "acme", s.EffectiveOwner())
	assert.Equal(t, "tool", s.RepoName())

	s.Owner = "other"
	assert.Equal(t, "other", s.EffectiveOwner())

	bare := model.ServerRecord{Name: "standalone"}
	assert.Equal(t, "standalone", bare.RepoName())

	flagged := model.ServerRecord{Metadata: &model.Metadata{Featured: true, Verified: true}}
	assert.True(t, flagged.IsFeatured())
	assert.True(t, flagged.IsVerified())
	assert.Equal(t, "", flagged.Maturity())
}
