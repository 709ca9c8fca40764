// Package sqlgen converts the split corpus into a single idempotent SQL
// script: every INSERT carries an ON CONFLICT clause keyed on the table's
// natural key, so the whole script is safe to re-run.
package sqlgen

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/magicmcp/hub/internal/split"
	"github.com/magicmcp/hub/pkg/model"
)

// Report counts the rows emitted per table during one run.
type Report struct {
	Categories    int
	Subcategories int
	Tags          int
	Servers       int
	ServerTags    int
	TechStack     int
	Installation  int
	Deployment    int
}

// Emission is the explicit per-run state of the emitter: the seen-slug set
// and the row counters. A fresh Emission is created for every script so runs
// stay independent.
type Emission struct {
	seenSlugs map[string]bool
	Report    Report
}

// NewEmission returns a fresh emission context. The remote migrator shares
// this so both load paths apply the same slug policy.
func NewEmission() *Emission {
	return &Emission{seenSlugs: make(map[string]bool)}
}

// UniqueSlug returns slug unchanged the first time it is seen. On collision
// the last 4 characters of the server id are appended; if that candidate is
// itself taken (ids sharing a suffix under the same base slug), a numeric
// widening suffix is appended until the result is unique.
func (em *Emission) UniqueSlug(slug, serverID string) string {
	if !em.seenSlugs[slug] {
		em.seenSlugs[slug] = true
		return slug
	}

	suffix := serverID
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	candidate := slug + "-" + suffix
	for n := 2; em.seenSlugs[candidate]; n++ {
		candidate = fmt.Sprintf("%s-%s-%d", slug, suffix, n)
	}
	em.seenSlugs[candidate] = true
	return candidate
}

// Emitter generates the data-import script. The zero value timestamps the
// script header with the wall clock.
type Emitter struct {
	// Now overrides the header timestamp.
	Now time.Time
}

func (e *Emitter) now() time.Time {
	if e.Now.IsZero() {
		return time.Now()
	}
	return e.Now.UTC()
}

// Emit produces the complete import script for the split corpus, in strict
// dependency order: categories, subcategories, tags, servers, then the four
// server attribute tables, followed by the category server-count update.
func (e *Emitter) Emit(res *split.Result) (string, *Emission) {
	em := NewEmission()
	var b strings.Builder

	b.WriteString("-- MCP Hub Database Data Import\n")
	fmt.Fprintf(&b, "-- Generated on %s\n", e.now().Format(time.RFC3339))
	b.WriteString("-- This file contains all data converted from JSON files\n\n")

	b.WriteString("-- Disable triggers temporarily for faster import\n")
	b.WriteString("SET session_replication_role = replica;\n\n")

	emitCategories(&b, em, res.Categories)
	emitTags(&b, em, res)
	emitServers(&b, em, res)
	emitServerTags(&b, em, res)
	emitTechStack(&b, em, res)
	emitInstallation(&b, em, res)
	emitDeployment(&b, em, res)

	b.WriteString("-- Re-enable triggers\n")
	b.WriteString("SET session_replication_role = DEFAULT;\n\n")

	b.WriteString("-- Update server counts in categories\n")
	b.WriteString("UPDATE categories SET server_count = (\n")
	b.WriteString("  SELECT COUNT(*) FROM mcp_servers WHERE category_id = categories.id\n")
	b.WriteString(");\n\n")

	b.WriteString("SELECT 'Migration completed!' as status,\n")
	b.WriteString("       (SELECT COUNT(*) FROM categories) as categories_count,\n")
	b.WriteString("       (SELECT COUNT(*) FROM subcategories) as subcategories_count,\n")
	b.WriteString("       (SELECT COUNT(*) FROM mcp_servers) as servers_count,\n")
	b.WriteString("       (SELECT COUNT(*) FROM tags) as tags_count,\n")
	b.WriteString("       (SELECT COUNT(*) FROM server_tags) as server_tags_count;\n")

	return b.String(), em
}

// localeSpread repeats the English value across the non-Chinese locale
// columns, matching the store's denormalized locale schema.
func localeSpread(zh, en string) string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s",
		sqlString(zh), sqlString(en), sqlString(en), sqlString(en),
		sqlString(en), sqlString(en), sqlString(en))
}

func emitCategories(b *strings.Builder, em *Emission, categories []model.Category) {
	b.WriteString("-- Categories data\n")
	b.WriteString("INSERT INTO categories (id, name_zh_cn, name_en, name_zh_tw, name_fr, name_ja, name_ko, name_ru, description_zh_cn, description_en, description_zh_tw, description_fr, description_ja, description_ko, description_ru, icon, color, server_count) VALUES\n")

	rows := make([]string, 0, len(categories))
	for _, cat := range categories {
		rows = append(rows, fmt.Sprintf("(%s, %s, %s, %s, %s, %d)",
			sqlString(cat.ID),
			localeSpread(cat.Name, cat.NameEn),
			localeSpread(cat.Description, cat.DescriptionEn),
			sqlString(cat.Icon), sqlString(cat.Color), cat.ServerCount))
		em.Report.Categories++
	}
	b.WriteString(strings.Join(rows, ",\n"))
	b.WriteString("\nON CONFLICT (id) DO UPDATE SET\n")
	b.WriteString("  name_zh_cn = EXCLUDED.name_zh_cn,\n  name_en = EXCLUDED.name_en,\n")
	b.WriteString("  description_zh_cn = EXCLUDED.description_zh_cn,\n  description_en = EXCLUDED.description_en,\n")
	b.WriteString("  icon = EXCLUDED.icon,\n  color = EXCLUDED.color,\n  server_count = EXCLUDED.server_count,\n")
	b.WriteString("  updated_at = NOW();\n\n")

	b.WriteString("-- Subcategories data\n")
	var subRows []string
	for _, cat := range categories {
		for _, sub := range cat.Subcategories {
			subRows = append(subRows, fmt.Sprintf("(%s, %s, %s, %s)",
				sqlString(sub.ID), sqlString(cat.ID),
				localeSpread(sub.Name, sub.NameEn),
				localeSpread(sub.Description, sub.DescriptionEn)))
			em.Report.Subcategories++
		}
	}
	if len(subRows) == 0 {
		b.WriteString("-- No subcategories to insert\n\n")
		return
	}
	b.WriteString("INSERT INTO subcategories (id, category_id, name_zh_cn, name_en, name_zh_tw, name_fr, name_ja, name_ko, name_ru, description_zh_cn, description_en, description_zh_tw, description_fr, description_ja, description_ko, description_ru) VALUES\n")
	b.WriteString(strings.Join(subRows, ",\n"))
	b.WriteString("\nON CONFLICT (id) DO UPDATE SET\n")
	b.WriteString("  category_id = EXCLUDED.category_id,\n  name_zh_cn = EXCLUDED.name_zh_cn,\n  name_en = EXCLUDED.name_en,\n")
	b.WriteString("  description_zh_cn = EXCLUDED.description_zh_cn,\n  description_en = EXCLUDED.description_en,\n")
	b.WriteString("  updated_at = NOW();\n\n")
}

func emitTags(b *strings.Builder, em *Emission, res *split.Result) {
	tags := res.AllTags()
	b.WriteString("-- Tags data\n")
	if len(tags) == 0 {
		b.WriteString("-- No tags to insert\n\n")
		return
	}
	b.WriteString("INSERT INTO tags (name) VALUES\n")
	rows := make([]string, 0, len(tags))
	for _, tag := range tags {
		rows = append(rows, "("+sqlString(tag)+")")
		em.Report.Tags++
	}
	b.WriteString(strings.Join(rows, ",\n"))
	b.WriteString("\nON CONFLICT (name) DO NOTHING;\n\n")
}

func emitServers(b *strings.Builder, em *Emission, res *split.Result) {
	b.WriteString("-- MCP Servers data\n")
	b.WriteString(`INSERT INTO mcp_servers (
  id, name, owner, slug, description_zh_cn, description_en, full_description, icon,
  category_id, subcategory_id, featured, verified, github_url, demo_url, docs_url,
  repository_owner, repository_name, stars, forks, watchers, open_issues,
  last_updated, repo_created_at, quality_score, quality_documentation,
  quality_maintenance, quality_community, quality_performance, complexity,
  maturity, downloads, dependents, weekly_downloads, platforms, node_version,
  python_version, requirements, readme_content, api_reference,
  categorization_confidence, categorization_reason, categorization_keywords
) VALUES
`)

	rows := make([]string, 0, len(res.Core))
	for _, core := range res.Core {
		ext := res.Extended[core.ID]
		rows = append(rows, serverRow(em, core, ext))
		em.Report.Servers++
	}
	b.WriteString(strings.Join(rows, ",\n"))
	b.WriteString("\nON CONFLICT (id) DO UPDATE SET\n")
	b.WriteString("  name = EXCLUDED.name,\n  description_zh_cn = EXCLUDED.description_zh_cn,\n")
	b.WriteString("  description_en = EXCLUDED.description_en,\n  full_description = EXCLUDED.full_description,\n")
	b.WriteString("  stars = EXCLUDED.stars,\n  forks = EXCLUDED.forks,\n  last_updated = EXCLUDED.last_updated,\n")
	b.WriteString("  quality_score = EXCLUDED.quality_score,\n  updated_at = NOW();\n\n")
}

func serverRow(em *Emission, core split.CoreServer, ext split.ExtendedServer) string {
	slug := em.UniqueSlug(core.Slug, core.ID)

	fullDescription := ext.FullDescription
	if fullDescription == "" {
		fullDescription = core.Description.Default()
	}
	docsURL := ext.Documentation.API
	if docsURL == "" {
		docsURL = core.Links.Docs
	}
	repoName := core.Name
	if _, after, ok := strings.Cut(core.Name, "/"); ok && after != "" {
		repoName = after
	}
	watchers := ext.Repository.Watchers
	if watchers == 0 {
		watchers = core.Stats.Stars
	}

	maturity := ext.Metadata.Maturity
	if maturity == "" {
		maturity = "stable"
	}
	complexity := ext.Metadata.Complexity
	if complexity == "" {
		complexity = "medium"
	}

	confidence := ext.Categorization.Confidence
	if confidence == 0 {
		confidence = 0.8
	}
	reason := ext.Categorization.Reason
	if reason == "" {
		reason = "Automatically categorized"
	}

	platforms := ext.Compatibility.Platforms
	if len(platforms) == 0 {
		platforms = []string{"web", "desktop"}
	}

	fields := []string{
		sqlString(core.ID),
		sqlString(core.Name),
		sqlString(core.Owner),
		sqlString(slug),
		sqlString(core.Description.Get("zh-CN")),
		sqlString(core.Description.Get("en")),
		sqlString(fullDescription),
		sqlString(ext.Icon),
		sqlString(core.Category),
		sqlString(core.Subcategory),
		strconv.FormatBool(core.Featured),
		strconv.FormatBool(core.Verified),
		sqlString(core.Links.GitHub),
		"NULL", // demo_url: not present in the corpus
		sqlString(docsURL),
		sqlString(core.Owner),
		sqlString(repoName),
		strconv.Itoa(core.Stats.Stars),
		strconv.Itoa(core.Stats.Forks),
		strconv.Itoa(watchers),
		strconv.Itoa(ext.Repository.OpenIssues),
		sqlTimestamp(core.Stats.LastUpdated),
		sqlTimestamp(ext.Metadata.CreatedAt),
		strconv.Itoa(core.QualityScore),
		strconv.Itoa(ext.Quality.Factors.Documentation),
		strconv.Itoa(ext.Quality.Factors.Maintenance),
		strconv.Itoa(ext.Quality.Factors.Community),
		strconv.Itoa(ext.Quality.Factors.Performance),
		sqlString(complexity),
		sqlString(maturity),
		strconv.Itoa(ext.Usage.Downloads),
		strconv.Itoa(ext.Usage.Dependents),
		strconv.Itoa(ext.Usage.WeeklyDownloads),
		sqlArray(platforms),
		sqlString(ext.Compatibility.NodeVersion),
		sqlString(ext.Compatibility.PythonVersion),
		sqlArray(ext.Compatibility.Requirements),
		sqlString(fullDescription),
		sqlString(ext.Documentation.API),
		strconv.FormatFloat(confidence, 'g', -1, 64),
		sqlString(reason),
		sqlArray(ext.Categorization.MatchedKeywords),
	}
	return "(" + strings.Join(fields, ", ") + ")"
}

func emitServerTags(b *strings.Builder, em *Emission, res *split.Result) {
	b.WriteString("-- Server Tags relationships\n")

	var rows []string
	for _, core := range res.Core {
		tags := core.Tags
		if ext, ok := res.Extended[core.ID]; ok && len(ext.AllTags) > 0 {
			tags = ext.AllTags
		}
		for _, tag := range tags {
			rows = append(rows, fmt.Sprintf("(%s, %s)", sqlString(core.ID), sqlString(tag)))
			em.Report.ServerTags++
		}
	}
	if len(rows) == 0 {
		b.WriteString("-- No server tags to insert\n\n")
		return
	}

	// Tag ids are resolved by joining on the tag name rather than hardcoding.
	b.WriteString("INSERT INTO server_tags (server_id, tag_id)\nSELECT s.server_id, t.id FROM (VALUES\n")
	b.WriteString(strings.Join(rows, ",\n"))
	b.WriteString("\n) AS s(server_id, tag_name)\nJOIN tags t ON t.name = s.tag_name\n")
	b.WriteString("ON CONFLICT (server_id, tag_id) DO NOTHING;\n\n")
}

func emitTechStack(b *strings.Builder, em *Emission, res *split.Result) {
	b.WriteString("-- Server Tech Stack\n")

	var rows []string
	for _, core := range res.Core {
		ext := res.Extended[core.ID]
		for _, tech := range ext.TechStack {
			if tech == "" {
				continue
			}
			rows = append(rows, fmt.Sprintf("(%s, %s)", sqlString(core.ID), sqlString(tech)))
			em.Report.TechStack++
		}
	}
	if len(rows) == 0 {
		b.WriteString("-- No tech stack data to insert\n\n")
		return
	}
	b.WriteString("INSERT INTO server_tech_stack (server_id, technology) VALUES\n")
	b.WriteString(strings.Join(rows, ",\n"))
	b.WriteString("\nON CONFLICT (server_id, technology) DO NOTHING;\n\n")
}

func emitInstallation(b *strings.Builder, em *Emission, res *split.Result) {
	b.WriteString("-- Server Installation\n")

	var rows []string
	for _, core := range res.Core {
		ext := res.Extended[core.ID]
		for _, method := range ext.Installation.Methods() {
			rows = append(rows, fmt.Sprintf("(%s, %s, %s, NULL)",
				sqlString(core.ID), sqlString(method[0]), sqlString(method[1])))
			em.Report.Installation++
		}
		if len(ext.Installation.Instructions) > 0 {
			instructions, err := marshalInstructions(ext.Installation.Instructions)
			if err != nil {
				continue
			}
			rows = append(rows, fmt.Sprintf("(%s, 'instructions', NULL, %s)",
				sqlString(core.ID), sqlString(instructions)))
			em.Report.Installation++
		}
	}
	if len(rows) == 0 {
		b.WriteString("-- No installation data to insert\n\n")
		return
	}
	b.WriteString("INSERT INTO server_installation (server_id, method, command, instructions) VALUES\n")
	b.WriteString(strings.Join(rows, ",\n"))
	b.WriteString("\nON CONFLICT (server_id, method) DO UPDATE SET\n")
	b.WriteString("  command = EXCLUDED.command,\n  instructions = EXCLUDED.instructions;\n\n")
}

func emitDeployment(b *strings.Builder, em *Emission, res *split.Result) {
	b.WriteString("-- Server Deployment\n")

	var rows []string
	for _, core := range res.Core {
		ext := res.Extended[core.ID]
		deployment := ext.Metadata.Deployment
		if len(deployment) == 0 {
			deployment = []string{"cloud", "local"}
		}
		for _, d := range deployment {
			rows = append(rows, fmt.Sprintf("(%s, %s)", sqlString(core.ID), sqlString(d)))
			em.Report.Deployment++
		}
	}
	if len(rows) == 0 {
		b.WriteString("-- No deployment data to insert\n\n")
		return
	}
	b.WriteString("INSERT INTO server_deployment (server_id, deployment_type) VALUES\n")
	b.WriteString(strings.Join(rows, ",\n"))
	b.WriteString("\nON CONFLICT (server_id, deployment_type) DO NOTHING;\n\n")
}
