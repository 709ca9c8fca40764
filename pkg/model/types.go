package model

import (
	"encoding/json"
	"strings"
)

// LocalizedText maps a locale code (e.g. "en", "zh-CN") to a translated string.
type LocalizedText map[string]string

// Get returns the text for the given locale, or "" if absent.
func (l LocalizedText) Get(locale string) string {
	if l == nil {
		return ""
	}
	return l[locale]
}

// Default returns the default-locale text, falling back to English.
func (l LocalizedText) Default() string {
	if s := l.Get("zh-CN"); s != "" {
		return s
	}
	return l.Get("en")
}

// Stats holds the repository statistics carried on every server record.
type Stats struct {
	Stars       int    `json:"stars"`
	Forks       int    `json:"forks"`
	LastUpdated string `json:"lastUpdated,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// Links holds the outbound links of a server record.
type Links struct {
	GitHub string `json:"github,omitempty"`
	Docs   string `json:"docs,omitempty"`
	NPM    string `json:"npm,omitempty"`
}

// TechEntry is a single tech-stack label. The source corpus is heterogeneous:
// entries may be plain strings or objects carrying a name or label field, so
// the union is collapsed to a string at decode time and never propagated.
type TechEntry string

func (t *TechEntry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = TechEntry(s)
		return nil
	}

	var obj struct {
		Name  string `json:"name"`
		Label string `json:"label"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj.Name != "" {
		*t = TechEntry(obj.Name)
	} else {
		*t = TechEntry(obj.Label)
	}
	return nil
}

// TechStackStrings flattens a tech stack into plain strings, dropping empties.
func TechStackStrings(stack []TechEntry) []string {
	out := make([]string, 0, len(stack))
	for _, t := range stack {
		if t != "" {
			out = append(out, string(t))
		}
	}
	return out
}

// Metadata is the optional per-server metadata block.
type Metadata struct {
	Maturity   string   `json:"maturity,omitempty"`
	Complexity string   `json:"complexity,omitempty"`
	CreatedAt  string   `json:"createdAt,omitempty"`
	Deployment []string `json:"deployment,omitempty"`
	Featured   bool     `json:"featured,omitempty"`
	Verified   bool     `json:"verified,omitempty"`
}

// Categorization records how a server was assigned to its category.
type Categorization struct {
	Confidence      float64  `json:"confidence,omitempty"`
	Reason          string   `json:"reason,omitempty"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
}

// Usage holds download/dependent statistics.
type Usage struct {
	Downloads       int `json:"downloads,omitempty"`
	Dependents      int `json:"dependents,omitempty"`
	WeeklyDownloads int `json:"weeklyDownloads,omitempty"`
}

// QualityFactors are the four sub-scores behind the composite quality score.
type QualityFactors struct {
	Documentation int `json:"documentation"`
	Maintenance   int `json:"maintenance"`
	Community     int `json:"community"`
	Performance   int `json:"performance"`
}

// Quality is the composite 0-100 quality score with its factor breakdown.
type Quality struct {
	Score   int            `json:"score"`
	Factors QualityFactors `json:"factors"`
}

// Instruction is one structured installation step extracted from a README.
type Instruction struct {
	Type        string `json:"type"`
	Content     string `json:"content"`
	Description string `json:"description,omitempty"`
}

// Installation holds per-package-manager install commands for a server.
type Installation struct {
	NPM          string        `json:"npm,omitempty"`
	Pip          string        `json:"pip,omitempty"`
	Docker       string        `json:"docker,omitempty"`
	Manual       string        `json:"manual,omitempty"`
	UV           string        `json:"uv,omitempty"`
	Instructions []Instruction `json:"instructions,omitempty"`
}

// Methods returns the non-empty single-command install methods in a stable order.
func (i *Installation) Methods() [][2]string {
	if i == nil {
		return nil
	}
	var out [][2]string
	for _, m := range [][2]string{
		{"npm", i.NPM},
		{"pip", i.Pip},
		{"docker", i.Docker},
		{"manual", i.Manual},
		{"uv", i.UV},
	} {
		if m[1] != "" {
			out = append(out, m)
		}
	}
	return out
}

// Compatibility describes the platforms and runtimes a server supports.
type Compatibility struct {
	Platforms     []string `json:"platforms"`
	NodeVersion   string   `json:"nodeVersion,omitempty"`
	PythonVersion string   `json:"pythonVersion,omitempty"`
	Requirements  []string `json:"requirements"`
}

// Repository holds derived GitHub repository details.
type Repository struct {
	URL         string `json:"url"`
	Owner       string `json:"owner"`
	Name        string `json:"name"`
	Stars       int    `json:"stars"`
	Forks       int    `json:"forks"`
	LastUpdated string `json:"lastUpdated,omitempty"`
	Watchers    int    `json:"watchers"`
	OpenIssues  int    `json:"openIssues"`
}

// CodeBlock is a fenced code block extracted from a README.
type CodeBlock struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// ReadmeSection is one pre-parsed README section.
type ReadmeSection struct {
	Content    string      `json:"content,omitempty"`
	CodeBlocks []CodeBlock `json:"code_blocks,omitempty"`
}

// HasContent reports whether the section carries any prose.
func (s *ReadmeSection) HasContent() bool {
	return s != nil && s.Content != ""
}

// StructuredReadme is the pre-parsed README data supplied per server.
type StructuredReadme struct {
	Overview     *ReadmeSection `json:"overview,omitempty"`
	Installation *ReadmeSection `json:"installation,omitempty"`
	Examples     *ReadmeSection `json:"examples,omitempty"`
	APIReference *ReadmeSection `json:"api_reference,omitempty"`
	RawContent   string         `json:"raw_content,omitempty"`
}

// CodeBlockCount totals code blocks across the installation, examples and
// api_reference sections, matching the README index accounting.
func (r *StructuredReadme) CodeBlockCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, sec := range []*ReadmeSection{r.Installation, r.Examples, r.APIReference} {
		if sec != nil {
			n += len(sec.CodeBlocks)
		}
	}
	return n
}

// Sections lists the non-empty top-level sections, excluding raw_content.
func (r *StructuredReadme) Sections() []string {
	if r == nil {
		return nil
	}
	var out []string
	for _, s := range []struct {
		name string
		sec  *ReadmeSection
	}{
		{"overview", r.Overview},
		{"installation", r.Installation},
		{"examples", r.Examples},
		{"api_reference", r.APIReference},
	} {
		if s.sec != nil {
			out = append(out, s.name)
		}
	}
	return out
}

// Documentation aggregates everything the pipeline knows about a server's docs.
type Documentation struct {
	Readme       string            `json:"readme,omitempty"`
	Overview     *ReadmeSection    `json:"overview,omitempty"`
	Installation *ReadmeSection    `json:"installation,omitempty"`
	Examples     *ReadmeSection    `json:"examples,omitempty"`
	APIReference *ReadmeSection    `json:"api_reference,omitempty"`
	API          string            `json:"api,omitempty"`
	Structured   *StructuredReadme `json:"structured,omitempty"`
}

// ServerRecord is one raw entry of the source corpus. Optional blocks may be
// partially populated or absent; everything derived from them must tolerate nil.
type ServerRecord struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Slug            string          `json:"slug"`
	Owner           string          `json:"owner,omitempty"`
	Description     LocalizedText   `json:"description"`
	FullDescription string          `json:"fullDescription,omitempty"`
	Category        string          `json:"category"`
	Subcategory     string          `json:"subcategory,omitempty"`
	Tags            []string        `json:"tags,omitempty"`
	Stats           Stats           `json:"stats"`
	Links           Links           `json:"links"`
	Featured        bool            `json:"featured,omitempty"`
	Verified        bool            `json:"verified,omitempty"`
	TechStack       []TechEntry     `json:"techStack,omitempty"`
	ServiceTypes    []string        `json:"serviceTypes,omitempty"`
	Badges          []string        `json:"badges,omitempty"`
	Icon            string          `json:"icon,omitempty"`
	Quality         *Quality        `json:"quality,omitempty"`
	Metadata        *Metadata       `json:"metadata,omitempty"`
	Categorization  *Categorization `json:"categorization,omitempty"`
	Usage           *Usage          `json:"usage,omitempty"`
	Installation    *Installation   `json:"installation,omitempty"`
	Compatibility   *Compatibility  `json:"compatibility,omitempty"`
	Documentation   *Documentation  `json:"documentation,omitempty"`
	Repository      *Repository     `json:"repository,omitempty"`
}

// EffectiveOwner returns the owner field, falling back to the name prefix.
func (s *ServerRecord) EffectiveOwner() string {
	if s.Owner != "" {
		return s.Owner
	}
	owner, _, _ := strings.Cut(s.Name, "/")
	return owner
}

// RepoName returns the name segment after the owner prefix, or the full name
// when the record is not owner-qualified.
func (s *ServerRecord) RepoName() string {
	if _, repo, ok := strings.Cut(s.Name, "/"); ok && repo != "" {
		return repo
	}
	return s.Name
}

// IsFeatured reads the top-level flag with a metadata-block fallback; the
// source corpus is inconsistent about where the flag lives.
func (s *ServerRecord) IsFeatured() bool {
	return s.Featured || (s.Metadata != nil && s.Metadata.Featured)
}

// IsVerified reads the top-level flag with a metadata-block fallback.
func (s *ServerRecord) IsVerified() bool {
	return s.Verified || (s.Metadata != nil && s.Metadata.Verified)
}

// Maturity returns the declared maturity level, or "" when absent.
func (s *ServerRecord) Maturity() string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata.Maturity
}

// Subcategory is a second-level category embedded in a Category.
type Subcategory struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	NameEn        string `json:"nameEn,omitempty"`
	Description   string `json:"description,omitempty"`
	DescriptionEn string `json:"descriptionEn,omitempty"`
}

// Category is one top-level catalog category.
type Category struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	NameEn        string        `json:"nameEn,omitempty"`
	Description   string        `json:"description,omitempty"`
	DescriptionEn string        `json:"descriptionEn,omitempty"`
	Icon          string        `json:"icon,omitempty"`
	Color         string        `json:"color,omitempty"`
	ServerCount   int           `json:"serverCount,omitempty"`
	Subcategories []Subcategory `json:"subcategories,omitempty"`
}
