// Package split partitions the enriched corpus into the tiered artifacts the
// web client loads progressively: a small core slice, an extended detail map,
// a flat search index, and per-server README payloads with an index.
//
// The split is deterministic: identical input produces byte-identical output,
// so deployments can diff and cache-bust the artifacts.
package split

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/magicmcp/hub/internal/enrich"
	"github.com/magicmcp/hub/pkg/model"
)

// CoreStats is the stat triple kept in the core slice.
type CoreStats struct {
	Stars       int    `json:"stars"`
	Forks       int    `json:"forks"`
	LastUpdated string `json:"lastUpdated"`
}

// CoreServer is one row of servers-core.json: the list/search essentials.
// It deliberately excludes fullDescription, techStack and README content.
type CoreServer struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Owner        string              `json:"owner"`
	Slug         string              `json:"slug"`
	Description  model.LocalizedText `json:"description"`
	Category     string              `json:"category"`
	Subcategory  string              `json:"subcategory,omitempty"`
	Featured     bool                `json:"featured"`
	Verified     bool                `json:"verified"`
	Stats        CoreStats           `json:"stats"`
	QualityScore int                 `json:"qualityScore"`
	Tags         []string            `json:"tags"`
	Links        model.Links         `json:"links"`
}

// DocSummary is the documentation-presence summary kept in the extended map.
// Booleans only; the content itself lives in the README artifacts.
type DocSummary struct {
	HasReadme       bool   `json:"hasReadme"`
	HasExamples     bool   `json:"hasExamples"`
	HasAPIReference bool   `json:"hasApiReference"`
	HasInstallation bool   `json:"hasInstallation"`
	API             string `json:"api,omitempty"`
}

// ExtendedServer is one entry of servers-extended.json, keyed by server id.
type ExtendedServer struct {
	FullDescription string                `json:"fullDescription,omitempty"`
	TechStack       []string              `json:"techStack"`
	ServiceTypes    []string              `json:"serviceTypes"`
	Quality         model.Quality         `json:"quality"`
	Metadata        model.Metadata        `json:"metadata"`
	Categorization  model.Categorization  `json:"categorization"`
	Usage           model.Usage           `json:"usage"`
	Installation    model.Installation    `json:"installation"`
	Repository      model.Repository      `json:"repository"`
	Compatibility   model.Compatibility   `json:"compatibility"`
	Documentation   DocSummary            `json:"documentation"`
	AllTags         []string              `json:"allTags"`
	Badges          []string              `json:"badges"`
	Icon            string                `json:"icon,omitempty"`
}

// SearchEntry is one row of search-index.json.
type SearchEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SearchTerms string `json:"searchTerms"`
}

// ReadmeMeta summarizes an optimized README payload.
type ReadmeMeta struct {
	HasContent bool     `json:"hasContent"`
	Sections   []string `json:"sections"`
	CodeBlocks int      `json:"codeBlocks"`
}

// OptimizedReadme is the per-server README payload with raw_content stripped.
type OptimizedReadme struct {
	Overview     *model.ReadmeSection `json:"overview"`
	Installation *model.ReadmeSection `json:"installation"`
	Examples     *model.ReadmeSection `json:"examples"`
	APIReference *model.ReadmeSection `json:"api_reference"`
	Metadata     ReadmeMeta           `json:"metadata"`
}

// ReadmeIndexEntry is one row of readme/index.json.
type ReadmeIndexEntry struct {
	ServerID   string   `json:"serverId"`
	ServerName string   `json:"serverName"`
	Filename   *string  `json:"filename"`
	HasContent bool     `json:"hasContent"`
	Sections   []string `json:"sections"`
	Size       int      `json:"size"`
}

// Result holds all artifacts of one split run.
type Result struct {
	Core        []CoreServer
	Extended    map[string]ExtendedServer
	SearchIndex []SearchEntry
	ReadmeIndex map[string]ReadmeIndexEntry
	Readmes     map[string]OptimizedReadme
	Categories  []model.Category
}

// Split partitions the enriched corpus. Input order is preserved in the core
// slice and the search index; map artifacts serialize with sorted keys.
func Split(servers []enrich.EnrichedServer, categories []model.Category) (*Result, error) {
	res := &Result{
		Core:        make([]CoreServer, 0, len(servers)),
		Extended:    make(map[string]ExtendedServer, len(servers)),
		SearchIndex: make([]SearchEntry, 0, len(servers)),
		ReadmeIndex: make(map[string]ReadmeIndexEntry, len(servers)),
		Readmes:     make(map[string]OptimizedReadme),
		Categories:  categories,
	}

	for i := range servers {
		e := &servers[i]
		res.Core = append(res.Core, coreServer(e))
		res.Extended[e.Server.ID] = extendedServer(e)
		res.SearchIndex = append(res.SearchIndex, searchEntry(e))
		if err := addReadme(res, e); err != nil {
			return nil, err
		}
	}

	return res, nil
}

func coreServer(e *enrich.EnrichedServer) CoreServer {
	s := &e.Server
	owner, _, _ := strings.Cut(s.Name, "/")

	tags := s.Tags
	if len(tags) > 3 {
		tags = tags[:3]
	}
	if tags == nil {
		tags = []string{}
	}

	return CoreServer{
		ID:          s.ID,
		Name:        s.Name,
		Owner:       owner,
		Slug:        s.Slug,
		Description: s.Description,
		Category:    s.Category,
		Subcategory: s.Subcategory,
		Featured:    s.IsFeatured(),
		Verified:    s.IsVerified(),
		Stats: CoreStats{
			Stars:       s.Stats.Stars,
			Forks:       s.Stats.Forks,
			LastUpdated: s.Stats.LastUpdated,
		},
		QualityScore: e.Quality.Score,
		Tags:         tags,
		Links:        s.Links,
	}
}

func extendedServer(e *enrich.EnrichedServer) ExtendedServer {
	s := &e.Server

	usage := model.Usage{
		Downloads:       s.Stats.Stars * 10,
		Dependents:      s.Stats.Forks,
		WeeklyDownloads: int(math.Floor(float64(s.Stats.Stars) * 2)),
	}
	if s.Usage != nil {
		usage = *s.Usage
	}

	var meta model.Metadata
	if s.Metadata != nil {
		meta = *s.Metadata
	}
	var categorization model.Categorization
	if s.Categorization != nil {
		categorization = *s.Categorization
	}

	structured := e.Documentation.Structured

	return ExtendedServer{
		FullDescription: s.FullDescription,
		TechStack:       orEmpty(model.TechStackStrings(s.TechStack)),
		ServiceTypes:    orEmpty(s.ServiceTypes),
		Quality:         e.Quality,
		Metadata:        meta,
		Categorization:  categorization,
		Usage:           usage,
		Installation:    e.Installation,
		Repository:      e.Repository,
		Compatibility:   e.Compatibility,
		Documentation: DocSummary{
			HasReadme:       structured != nil,
			HasExamples:     structured != nil && structured.Examples != nil,
			HasAPIReference: structured != nil && structured.APIReference != nil,
			HasInstallation: structured != nil && structured.Installation != nil,
			API:             s.Links.Docs,
		},
		AllTags: orEmpty(s.Tags),
		Badges:  orEmpty(s.Badges),
		Icon:    s.Icon,
	}
}

func searchEntry(e *enrich.EnrichedServer) SearchEntry {
	s := &e.Server

	terms := []string{
		s.Name,
		s.EffectiveOwner(),
		s.Description.Get("zh-CN"),
		s.Description.Get("en"),
		s.FullDescription,
		s.Category,
		s.Subcategory,
	}
	terms = append(terms, s.Tags...)
	terms = append(terms, model.TechStackStrings(s.TechStack)...)

	// Empty fields are dropped from the join, never rendered as a literal
	// "null" or "undefined".
	joined := make([]string, 0, len(terms))
	for _, t := range terms {
		if t != "" {
			joined = append(joined, strings.ToLower(t))
		}
	}

	return SearchEntry{
		ID:          s.ID,
		Name:        s.Name,
		SearchTerms: strings.Join(joined, " "),
	}
}

func addReadme(res *Result, e *enrich.EnrichedServer) error {
	s := &e.Server
	structured := e.Documentation.Structured

	if structured == nil {
		res.ReadmeIndex[s.ID] = ReadmeIndexEntry{
			ServerID:   s.ID,
			ServerName: s.Name,
			Filename:   nil,
			HasContent: false,
			Sections:   []string{},
			Size:       0,
		}
		return nil
	}

	optimized := OptimizedReadme{
		Overview:     structured.Overview,
		Installation: structured.Installation,
		Examples:     structured.Examples,
		APIReference: structured.APIReference,
		Metadata: ReadmeMeta{
			HasContent: structured.RawContent != "",
			Sections:   orEmpty(structured.Sections()),
			CodeBlocks: structured.CodeBlockCount(),
		},
	}

	serialized, err := json.Marshal(optimized)
	if err != nil {
		return fmt.Errorf("failed to serialize README for server %s: %w", s.ID, err)
	}

	filename := e.ReadmeFilename
	res.ReadmeIndex[s.ID] = ReadmeIndexEntry{
		ServerID:   s.ID,
		ServerName: s.Name,
		Filename:   &filename,
		HasContent: true,
		Sections:   orEmpty(structured.Sections()),
		Size:       len(serialized),
	}
	res.Readmes[s.ID] = optimized

	return nil
}

// AllTags returns the distinct tag names across the core tag lists and the
// extended full tag lists, sorted. Both the SQL emitter and the remote
// migrator seed the tags table from this set.
func (r *Result) AllTags() []string {
	seen := make(map[string]bool)
	var tags []string
	add := func(tag string) {
		if tag != "" && !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	for _, core := range r.Core {
		for _, t := range core.Tags {
			add(t)
		}
	}
	for _, core := range r.Core {
		if ext, ok := r.Extended[core.ID]; ok {
			for _, t := range ext.AllTags {
				add(t)
			}
		}
	}
	sort.Strings(tags)
	return tags
}

// Artifact filenames under the output directory.
const (
	CoreFile        = "servers-core.json"
	ExtendedFile    = "servers-extended.json"
	CategoriesFile  = "categories.json"
	SearchIndexFile = "search-index.json"
	ReadmeSubdir    = "readme"
	ReadmeIndexFile = "index.json"
)

// Write persists all artifacts under outputDir, creating directories as needed.
func (r *Result) Write(outputDir string) error {
	readmeDir := filepath.Join(outputDir, ReadmeSubdir)
	if err := os.MkdirAll(readmeDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	files := []struct {
		path string
		data any
	}{
		{filepath.Join(outputDir, CoreFile), r.Core},
		{filepath.Join(outputDir, ExtendedFile), r.Extended},
		{filepath.Join(outputDir, CategoriesFile), r.Categories},
		{filepath.Join(outputDir, SearchIndexFile), r.SearchIndex},
		{filepath.Join(readmeDir, ReadmeIndexFile), r.ReadmeIndex},
	}
	for _, f := range files {
		if err := writeJSON(f.path, f.data); err != nil {
			return err
		}
	}

	for id, readme := range r.Readmes {
		if err := writeJSON(filepath.Join(readmeDir, id+".json"), readme); err != nil {
			return err
		}
	}

	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
