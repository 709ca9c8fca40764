// Package enrich derives repository, installation, documentation,
// compatibility and quality data for a single server record. Everything in
// this package is a pure function of the record and its optional structured
// README; missing fields degrade to defaults, never errors.
package enrich

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/magicmcp/hub/pkg/model"
)

// defaultPerformanceScore is fixed: the source data carries no performance signal.
const defaultPerformanceScore = 85

// EnrichedServer is a server record together with its derived blocks.
type EnrichedServer struct {
	Server         model.ServerRecord
	Repository     model.Repository
	Installation   model.Installation
	Documentation  model.Documentation
	Compatibility  model.Compatibility
	Quality        model.Quality
	ReadmeFilename string
}

// Enricher computes derived server data. The zero value uses the wall clock
// for recency scoring.
type Enricher struct {
	// Now overrides the reference time for last-updated recency scoring.
	Now time.Time
}

func (e *Enricher) now() time.Time {
	if e.Now.IsZero() {
		return time.Now()
	}
	return e.Now
}

// Enrich derives all computed blocks for one server. readme may be nil and
// readmeFilename empty when no structured README was resolved.
func (e *Enricher) Enrich(server model.ServerRecord, readme *model.StructuredReadme, readmeFilename string) EnrichedServer {
	factors := model.QualityFactors{
		Documentation: documentationScore(readme, &server),
		Maintenance:   e.maintenanceScore(&server),
		Community:     communityScore(&server),
		Performance:   defaultPerformanceScore,
	}

	return EnrichedServer{
		Server:         server,
		Repository:     repositoryInfo(&server),
		Installation:   installationInfo(&server, readme),
		Documentation:  documentationInfo(&server, readme),
		Compatibility:  compatibilityInfo(&server, readme),
		Quality:        model.Quality{Score: overallScore(factors), Factors: factors},
		ReadmeFilename: readmeFilename,
	}
}

// overallScore is the rounded mean of the four factor scores.
func overallScore(f model.QualityFactors) int {
	sum := f.Documentation + f.Maintenance + f.Community + f.Performance
	return int(math.Round(float64(sum) / 4))
}

var githubRepoPattern = regexp.MustCompile(`github\.com/([^/]+)/([^/]+)`)

// ParseGitHubURL extracts the owner and repo segments from a GitHub URL.
// Both are empty when the URL is absent or does not match.
func ParseGitHubURL(url string) (owner, repo string) {
	m := githubRepoPattern.FindStringSubmatch(url)
	if m == nil {
		return "", ""
	}
	return m[1], m[2]
}

func repositoryInfo(server *model.ServerRecord) model.Repository {
	owner, repo := ParseGitHubURL(server.Links.GitHub)
	if owner == "" {
		owner = server.EffectiveOwner()
	}
	if repo == "" {
		repo = server.RepoName()
	}
	return model.Repository{
		URL:         server.Links.GitHub,
		Owner:       owner,
		Name:        repo,
		Stars:       server.Stats.Stars,
		Forks:       server.Stats.Forks,
		LastUpdated: server.Stats.LastUpdated,
		Watchers:    server.Stats.Stars, // no watcher signal in the corpus
		OpenIssues:  0,
	}
}

var (
	npmInstallPattern = regexp.MustCompile(`npm install\s+([\w@/-]+)`)
	pipInstallPattern = regexp.MustCompile(`pip install\s+([\w-]+)`)
)

func installationInfo(server *model.ServerRecord, readme *model.StructuredReadme) model.Installation {
	var inst model.Installation

	if readme != nil && readme.Installation != nil {
		for _, block := range readme.Installation.CodeBlocks {
			if block.Language != "bash" && block.Language != "shell" {
				continue
			}
			if strings.Contains(block.Code, "npm install") {
				if m := npmInstallPattern.FindStringSubmatch(block.Code); m != nil {
					inst.NPM = m[1]
				}
			}
			if strings.Contains(block.Code, "pip install") {
				if m := pipInstallPattern.FindStringSubmatch(block.Code); m != nil {
					inst.Pip = m[1]
				}
			}
			if strings.Contains(block.Code, "uv run") {
				inst.UV = block.Code
			}
			if strings.Contains(block.Code, "docker") {
				inst.Docker = block.Code
			}
		}

		inst.Manual = readme.Installation.Content

		for _, block := range readme.Installation.CodeBlocks {
			lang := block.Language
			if lang == "" {
				lang = "text"
			}
			inst.Instructions = append(inst.Instructions, model.Instruction{
				Type:        lang,
				Content:     block.Code,
				Description: lang + " installation",
			})
		}
	}

	// Without README evidence, guess the package manager from the tech stack
	// and presume the package is named after the repository.
	if inst.NPM == "" && server.Links.GitHub != "" {
		repoName := server.Links.GitHub[strings.LastIndex(server.Links.GitHub, "/")+1:]
		stack := strings.ToLower(strings.Join(model.TechStackStrings(server.TechStack), " "))

		if strings.Contains(stack, "node") || strings.Contains(stack, "javascript") || strings.Contains(stack, "npm") {
			inst.NPM = repoName
		}
		if strings.Contains(stack, "python") || strings.Contains(stack, "pip") {
			inst.Pip = repoName
		}
	}

	return inst
}

func documentationInfo(server *model.ServerRecord, readme *model.StructuredReadme) model.Documentation {
	doc := model.Documentation{
		Readme:     server.FullDescription,
		API:        server.Links.Docs,
		Structured: readme,
	}
	if readme != nil {
		if readme.RawContent != "" {
			doc.Readme = readme.RawContent
		}
		doc.Overview = readme.Overview
		doc.Installation = readme.Installation
		doc.Examples = readme.Examples
		doc.APIReference = readme.APIReference
	}
	return doc
}

var (
	nodeVersionPattern   = regexp.MustCompile(`(?i)Node\.js\s+(\d+[\d.]*)`)
	pythonVersionPattern = regexp.MustCompile(`(?i)Python\s+(\d+[\d.]*)`)
)

func compatibilityInfo(server *model.ServerRecord, readme *model.StructuredReadme) model.Compatibility {
	compat := model.Compatibility{
		Platforms:    []string{"web", "desktop"},
		Requirements: []string{},
	}

	stack := strings.ToLower(strings.Join(model.TechStackStrings(server.TechStack), " "))
	if strings.Contains(stack, "node") || strings.Contains(stack, "javascript") {
		compat.NodeVersion = "16+"
	}
	if strings.Contains(stack, "python") {
		compat.PythonVersion = "3.8+"
	}

	if readme != nil && readme.RawContent != "" {
		content := readme.RawContent
		if m := nodeVersionPattern.FindStringSubmatch(content); m != nil {
			compat.Requirements = append(compat.Requirements, "Node.js "+m[1]+"+")
		}
		if m := pythonVersionPattern.FindStringSubmatch(content); m != nil {
			compat.Requirements = append(compat.Requirements, "Python "+m[1]+"+")
		}
		if strings.Contains(content, "uv") {
			compat.Requirements = append(compat.Requirements, "uv package manager")
		}
	}

	return compat
}

func documentationScore(readme *model.StructuredReadme, server *model.ServerRecord) int {
	score := 40

	if readme != nil {
		score += 20
		if readme.Overview.HasContent() {
			score += 10
		}
		if readme.Installation.HasContent() {
			score += 15
		}
		if readme.Examples.HasContent() {
			score += 10
		}
		if readme.APIReference.HasContent() {
			score += 15
		}
		score += min(readme.CodeBlockCount()*2, 10)
	}

	if server.Links.Docs != "" {
		score += 5
	}
	if len(server.FullDescription) > 100 {
		score += 5
	}

	return min(score, 100)
}

func (e *Enricher) maintenanceScore(server *model.ServerRecord) int {
	score := 50

	switch strings.ToLower(server.Maturity()) {
	case "stable":
		score += 30
	case "beta":
		score += 20
	case "alpha":
		score += 10
	}

	if server.Stats.LastUpdated != "" {
		if lastUpdate, err := time.Parse(time.RFC3339, server.Stats.LastUpdated); err == nil {
			daysSince := e.now().Sub(lastUpdate).Hours() / 24
			switch {
			case daysSince < 30:
				score += 20
			case daysSince < 90:
				score += 10
			case daysSince < 180:
				score += 5
			}
		}
	}

	return min(score, 100)
}

func communityScore(server *model.ServerRecord) int {
	score := 30

	stars := server.Stats.Stars
	switch {
	case stars > 1000:
		score += 40
	case stars > 500:
		score += 30
	case stars > 100:
		score += 20
	case stars > 50:
		score += 15
	case stars > 10:
		score += 10
	case stars > 0:
		score += 5
	}

	forks := server.Stats.Forks
	switch {
	case forks > 100:
		score += 20
	case forks > 50:
		score += 15
	case forks > 10:
		score += 10
	case forks > 5:
		score += 5
	}

	if server.IsFeatured() {
		score += 10
	}
	if server.IsVerified() {
		score += 5
	}

	return min(score, 100)
}
