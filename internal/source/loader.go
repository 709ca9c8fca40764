// Package source loads the raw JSON corpus from a content directory.
package source

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/magicmcp/hub/pkg/model"
)

const (
	// ServersFile is the primary server corpus inside the data dir.
	ServersFile = "serversnew.json"
	// CategoriesFile is the category corpus inside the data dir.
	CategoriesFile = "categories_full_updated.json"
	// ReadmeDir holds the per-server structured README JSON files.
	ReadmeDir = "structured_readme_data"
)

// Loader reads the source corpus for one pipeline run.
type Loader struct {
	dataDir string
}

// NewLoader returns a Loader rooted at the given content directory.
func NewLoader(dataDir string) *Loader {
	return &Loader{dataDir: dataDir}
}

// LoadServers reads and parses the primary server corpus. A missing or
// malformed file is fatal for the run.
func (l *Loader) LoadServers() ([]model.ServerRecord, error) {
	path := filepath.Join(l.dataDir, ServersFile)
	var servers []model.ServerRecord
	if err := loadJSON(path, &servers); err != nil {
		return nil, fmt.Errorf("failed to load server corpus %s: %w", path, err)
	}
	return servers, nil
}

// LoadCategories reads and parses the category corpus. A missing or malformed
// file is fatal for the run.
func (l *Loader) LoadCategories() ([]model.Category, error) {
	path := filepath.Join(l.dataDir, CategoriesFile)
	var categories []model.Category
	if err := loadJSON(path, &categories); err != nil {
		return nil, fmt.Errorf("failed to load category corpus %s: %w", path, err)
	}
	return categories, nil
}

var nonReadmeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// readmeCandidates derives the ordered list of candidate filename stems for a
// server name. The match is heuristic and lossy: most servers legitimately
// have no README file, so absence is a normal outcome.
func readmeCandidates(serverName string) []string {
	underscored := strings.Replace(serverName, "/", "_", 1)
	repo := serverName
	if _, after, ok := strings.Cut(serverName, "/"); ok && after != "" {
		repo = after
	}
	return []string{
		underscored,
		nonReadmeChars.ReplaceAllString(underscored, ""),
		repo,
		strings.ToLower(underscored),
	}
}

// ReadmeResult is a resolved structured README with the filename it came from.
type ReadmeResult struct {
	Filename string
	Readme   *model.StructuredReadme
}

// FindReadme resolves a server name to its structured README, trying each
// candidate filename in order and returning nil when none exists. A file that
// exists but fails to parse is treated as not found.
func (l *Loader) FindReadme(serverName string) *ReadmeResult {
	dir := filepath.Join(l.dataDir, ReadmeDir)
	for _, stem := range readmeCandidates(serverName) {
		filename := stem + ".json"
		path := filepath.Join(dir, filename)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		var readme model.StructuredReadme
		if err := loadJSON(path, &readme); err != nil {
			continue
		}
		return &ReadmeResult{Filename: filename, Readme: &readme}
	}
	return nil
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
