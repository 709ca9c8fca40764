// Package migrate performs the SQL emitter's work as live upsert calls
// against the hosted PostgREST store, in rate-limited batches with per-batch
// error isolation. This path exists for environments that cannot run raw SQL.
package migrate

import "context"

// Table names on the hosted store.
const (
	TableCategories    = "categories"
	TableSubcategories = "subcategories"
	TableTags          = "tags"
	TableServers       = "mcp_servers"
	TableServerTags    = "server_tags"
	TableTechStack     = "server_tech_stack"
	TableInstallation  = "server_installation"
	TableDeployment    = "server_deployment"
	TableReadmes       = "server_readmes"
)

// Store is the minimal surface the migrator needs from the hosted relational
// store: natural-key upserts plus the tag listing used to resolve tag ids.
type Store interface {
	// Upsert writes rows into table, keyed on the onConflict column list.
	Upsert(ctx context.Context, table string, rows any, onConflict string) error
	// ListTags returns all tags with their store-assigned ids.
	ListTags(ctx context.Context) ([]TagRow, error)
}

// CategoryRow mirrors the categories table. The store denormalizes locales
// into per-language columns; non-Chinese locales fall back to English.
type CategoryRow struct {
	ID              string `json:"id"`
	NameZhCN        string `json:"name_zh_cn"`
	NameEn          string `json:"name_en"`
	NameZhTW        string `json:"name_zh_tw"`
	NameFr          string `json:"name_fr"`
	NameJa          string `json:"name_ja"`
	NameKo          string `json:"name_ko"`
	NameRu          string `json:"name_ru"`
	DescriptionZhCN string `json:"description_zh_cn"`
	DescriptionEn   string `json:"description_en"`
	DescriptionZhTW string `json:"description_zh_tw"`
	DescriptionFr   string `json:"description_fr"`
	DescriptionJa   string `json:"description_ja"`
	DescriptionKo   string `json:"description_ko"`
	DescriptionRu   string `json:"description_ru"`
	Icon            string `json:"icon"`
	Color           string `json:"color"`
	ServerCount     int    `json:"server_count"`
}

// SubcategoryRow mirrors the subcategories table.
type SubcategoryRow struct {
	ID              string `json:"id"`
	CategoryID      string `json:"category_id"`
	NameZhCN        string `json:"name_zh_cn"`
	NameEn          string `json:"name_en"`
	NameZhTW        string `json:"name_zh_tw"`
	NameFr          string `json:"name_fr"`
	NameJa          string `json:"name_ja"`
	NameKo          string `json:"name_ko"`
	NameRu          string `json:"name_ru"`
	DescriptionZhCN string `json:"description_zh_cn"`
	DescriptionEn   string `json:"description_en"`
	DescriptionZhTW string `json:"description_zh_tw"`
	DescriptionFr   string `json:"description_fr"`
	DescriptionJa   string `json:"description_ja"`
	DescriptionKo   string `json:"description_ko"`
	DescriptionRu   string `json:"description_ru"`
}

// TagRow mirrors the tags table. ID is store-assigned.
type TagRow struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name"`
}

// ServerRow mirrors the mcp_servers table.
type ServerRow struct {
	ID                        string   `json:"id"`
	Name                      string   `json:"name"`
	Owner                     string   `json:"owner"`
	Slug                      string   `json:"slug"`
	DescriptionZhCN           string   `json:"description_zh_cn"`
	DescriptionEn             string   `json:"description_en"`
	FullDescription           string   `json:"full_description"`
	Icon                      *string  `json:"icon"`
	CategoryID                string   `json:"category_id"`
	SubcategoryID             *string  `json:"subcategory_id"`
	Featured                  bool     `json:"featured"`
	Verified                  bool     `json:"verified"`
	GitHubURL                 *string  `json:"github_url"`
	DemoURL                   *string  `json:"demo_url"`
	DocsURL                   *string  `json:"docs_url"`
	RepositoryOwner           string   `json:"repository_owner"`
	RepositoryName            string   `json:"repository_name"`
	Stars                     int      `json:"stars"`
	Forks                     int      `json:"forks"`
	Watchers                  int      `json:"watchers"`
	OpenIssues                int      `json:"open_issues"`
	LastUpdated               string   `json:"last_updated"`
	RepoCreatedAt             string   `json:"repo_created_at"`
	QualityScore              int      `json:"quality_score"`
	QualityDocumentation      int      `json:"quality_documentation"`
	QualityMaintenance        int      `json:"quality_maintenance"`
	QualityCommunity          int      `json:"quality_community"`
	QualityPerformance        int      `json:"quality_performance"`
	Complexity                string   `json:"complexity"`
	Maturity                  string   `json:"maturity"`
	Downloads                 int      `json:"downloads"`
	Dependents                int      `json:"dependents"`
	WeeklyDownloads           int      `json:"weekly_downloads"`
	Platforms                 []string `json:"platforms"`
	NodeVersion               *string  `json:"node_version"`
	PythonVersion             *string  `json:"python_version"`
	Requirements              []string `json:"requirements"`
	ReadmeContent             string   `json:"readme_content"`
	APIReference              *string  `json:"api_reference"`
	CategorizationConfidence  float64  `json:"categorization_confidence"`
	CategorizationReason      string   `json:"categorization_reason"`
	CategorizationKeywords    []string `json:"categorization_keywords"`
}

// ServerTagRow mirrors the server_tags join table.
type ServerTagRow struct {
	ServerID string `json:"server_id"`
	TagID    int    `json:"tag_id"`
}

// TechStackRow mirrors the server_tech_stack table.
type TechStackRow struct {
	ServerID   string `json:"server_id"`
	Technology string `json:"technology"`
}

// InstallationRow mirrors the server_installation table.
type InstallationRow struct {
	ServerID     string  `json:"server_id"`
	Method       string  `json:"method"`
	Command      *string `json:"command"`
	Instructions any     `json:"instructions"`
}

// DeploymentRow mirrors the server_deployment table.
type DeploymentRow struct {
	ServerID       string `json:"server_id"`
	DeploymentType string `json:"deployment_type"`
}

// ReadmeRow mirrors the server_readmes table.
type ReadmeRow struct {
	ServerID    string `json:"server_id"`
	Filename    string `json:"filename"`
	ProjectName string `json:"project_name"`
	RawContent  string `json:"raw_content"`
	ContentHash string `json:"content_hash"`
	FileSize    int    `json:"file_size"`
}
