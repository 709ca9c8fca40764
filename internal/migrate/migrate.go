package migrate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/magicmcp/hub/internal/split"
	"github.com/magicmcp/hub/internal/sqlgen"
	"github.com/magicmcp/hub/pkg/model"
)

const (
	defaultServerBatchSize = 50
	defaultReadmeBatchSize = 10
	defaultBatchDelay      = 500 * time.Millisecond
	defaultReadmeDelay     = time.Second
)

// Outcome counts successes and failures for one entity kind.
type Outcome struct {
	Succeeded int
	Failed    int
}

// Summary is the final report of a migration run. The run is best-effort:
// partial completion is an expected outcome and must be reported honestly.
type Summary struct {
	RunID         string
	Categories    Outcome
	Subcategories Outcome
	Tags          Outcome
	Servers       Outcome
	Readmes       Outcome
}

// TotalFailed counts failed records across all entity kinds.
func (s *Summary) TotalFailed() int {
	return s.Categories.Failed + s.Subcategories.Failed + s.Tags.Failed +
		s.Servers.Failed + s.Readmes.Failed
}

// MajorityFailed reports whether more records failed than succeeded; the CLI
// exits non-zero in that case.
func (s *Summary) MajorityFailed() bool {
	succeeded := s.Categories.Succeeded + s.Subcategories.Succeeded +
		s.Tags.Succeeded + s.Servers.Succeeded + s.Readmes.Succeeded
	return s.TotalFailed() > succeeded
}

// Migrator bulk-loads the split corpus into a Store.
type Migrator struct {
	store Store
	log   *zap.Logger

	ServerBatchSize int
	ReadmeBatchSize int
	// BatchDelay paces server batches; ReadmeDelay paces README batches,
	// which carry much larger payloads. Both exist purely to respect the
	// store's rate limits, not for correctness.
	BatchDelay  time.Duration
	ReadmeDelay time.Duration

	sleep func(ctx context.Context, d time.Duration)
}

// NewMigrator returns a Migrator with the store's production pacing defaults.
func NewMigrator(store Store, log *zap.Logger) *Migrator {
	return &Migrator{
		store:           store,
		log:             log,
		ServerBatchSize: defaultServerBatchSize,
		ReadmeBatchSize: defaultReadmeBatchSize,
		BatchDelay:      defaultBatchDelay,
		ReadmeDelay:     defaultReadmeDelay,
		sleep:           sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Run migrates the whole corpus in dependency order. readmesDir may be empty
// to skip the README step. Batch failures are logged and skipped; only a
// cancelled context stops the run early.
func (m *Migrator) Run(ctx context.Context, res *split.Result, readmesDir string) (*Summary, error) {
	summary := &Summary{RunID: uuid.New().String()}

	m.migrateCategories(ctx, res.Categories, summary)
	m.migrateTags(ctx, res, summary)
	if err := m.migrateServers(ctx, res, summary); err != nil {
		return summary, err
	}
	if readmesDir != "" {
		if err := m.migrateReadmes(ctx, readmesDir, summary); err != nil {
			return summary, err
		}
	}

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	m.log.Info("migration finished",
		zap.String("run_id", summary.RunID),
		zap.Int("servers_succeeded", summary.Servers.Succeeded),
		zap.Int("servers_failed", summary.Servers.Failed),
		zap.Int("readmes_succeeded", summary.Readmes.Succeeded),
		zap.Int("readmes_failed", summary.Readmes.Failed),
		zap.Int("total_failed", summary.TotalFailed()))

	return summary, nil
}

func (m *Migrator) migrateCategories(ctx context.Context, categories []model.Category, summary *Summary) {
	rows := make([]CategoryRow, 0, len(categories))
	for _, cat := range categories {
		rows = append(rows, CategoryRow{
			ID:       cat.ID,
			NameZhCN: cat.Name,
			NameEn:   cat.NameEn, NameZhTW: cat.NameEn, NameFr: cat.NameEn,
			NameJa: cat.NameEn, NameKo: cat.NameEn, NameRu: cat.NameEn,
			DescriptionZhCN: cat.Description,
			DescriptionEn:   cat.DescriptionEn, DescriptionZhTW: cat.DescriptionEn,
			DescriptionFr: cat.DescriptionEn, DescriptionJa: cat.DescriptionEn,
			DescriptionKo: cat.DescriptionEn, DescriptionRu: cat.DescriptionEn,
			Icon:        cat.Icon,
			Color:       cat.Color,
			ServerCount: cat.ServerCount,
		})
	}
	if len(rows) == 0 {
		return
	}

	if err := m.store.Upsert(ctx, TableCategories, rows, "id"); err != nil {
		m.log.Error("failed to migrate categories", zap.Error(err))
		summary.Categories.Failed += len(rows)
	} else {
		summary.Categories.Succeeded += len(rows)
		m.log.Info("migrated categories", zap.Int("count", len(rows)))
	}

	for _, cat := range categories {
		if len(cat.Subcategories) == 0 {
			continue
		}
		subRows := make([]SubcategoryRow, 0, len(cat.Subcategories))
		for _, sub := range cat.Subcategories {
			subRows = append(subRows, SubcategoryRow{
				ID:         sub.ID,
				CategoryID: cat.ID,
				NameZhCN:   sub.Name,
				NameEn:     sub.NameEn, NameZhTW: sub.NameEn, NameFr: sub.NameEn,
				NameJa: sub.NameEn, NameKo: sub.NameEn, NameRu: sub.NameEn,
				DescriptionZhCN: sub.Description,
				DescriptionEn:   sub.DescriptionEn, DescriptionZhTW: sub.DescriptionEn,
				DescriptionFr: sub.DescriptionEn, DescriptionJa: sub.DescriptionEn,
				DescriptionKo: sub.DescriptionEn, DescriptionRu: sub.DescriptionEn,
			})
		}
		if err := m.store.Upsert(ctx, TableSubcategories, subRows, "id"); err != nil {
			m.log.Error("failed to migrate subcategories",
				zap.String("category", cat.ID), zap.Error(err))
			summary.Subcategories.Failed += len(subRows)
		} else {
			summary.Subcategories.Succeeded += len(subRows)
		}
	}
}

func (m *Migrator) migrateTags(ctx context.Context, res *split.Result, summary *Summary) {
	tags := res.AllTags()
	if len(tags) == 0 {
		return
	}
	rows := make([]TagRow, len(tags))
	for i, tag := range tags {
		rows[i] = TagRow{Name: tag}
	}

	if err := m.store.Upsert(ctx, TableTags, rows, "name"); err != nil {
		m.log.Error("failed to migrate tags", zap.Error(err))
		summary.Tags.Failed += len(rows)
		return
	}
	summary.Tags.Succeeded += len(rows)
	m.log.Info("migrated tags", zap.Int("count", len(rows)))
}

func (m *Migrator) migrateServers(ctx context.Context, res *split.Result, summary *Summary) error {
	tags, err := m.store.ListTags(ctx)
	if err != nil {
		// Without the tag map, server rows can still land; only the join
		// rows are skipped.
		m.log.Error("failed to fetch tag map", zap.Error(err))
	}
	tagIDs := make(map[string]int, len(tags))
	for _, tag := range tags {
		tagIDs[tag.Name] = tag.ID
	}

	em := sqlgen.NewEmission()
	now := time.Now().UTC().Format(time.RFC3339)

	for start := 0; start < len(res.Core); start += m.ServerBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+m.ServerBatchSize, len(res.Core))
		batch := res.Core[start:end]

		rows := make([]ServerRow, 0, len(batch))
		for _, core := range batch {
			rows = append(rows, buildServerRow(em, core, res.Extended[core.ID], now))
		}

		if err := m.store.Upsert(ctx, TableServers, rows, "id"); err != nil {
			m.log.Error("failed to migrate server batch",
				zap.Int("from", start), zap.Int("to", end), zap.Error(err))
			summary.Servers.Failed += len(batch)
			m.sleep(ctx, m.BatchDelay)
			continue
		}
		summary.Servers.Succeeded += len(batch)

		for _, core := range batch {
			m.migrateServerAttributes(ctx, core, res.Extended[core.ID], tagIDs)
		}

		m.log.Info("migrated servers",
			zap.Int("processed", end), zap.Int("total", len(res.Core)))
		m.sleep(ctx, m.BatchDelay)
	}
	return nil
}

// migrateServerAttributes loads the per-server join tables. Failures here are
// logged with the server id and do not fail the server row itself.
func (m *Migrator) migrateServerAttributes(ctx context.Context, core split.CoreServer, ext split.ExtendedServer, tagIDs map[string]int) {
	tags := core.Tags
	if len(ext.AllTags) > 0 {
		tags = ext.AllTags
	}
	var tagRows []ServerTagRow
	for _, tag := range tags {
		if id, ok := tagIDs[tag]; ok {
			tagRows = append(tagRows, ServerTagRow{ServerID: core.ID, TagID: id})
		}
	}
	if len(tagRows) > 0 {
		if err := m.store.Upsert(ctx, TableServerTags, tagRows, "server_id,tag_id"); err != nil {
			m.log.Warn("failed to migrate server tags",
				zap.String("server", core.ID), zap.Error(err))
		}
	}

	var techRows []TechStackRow
	for _, tech := range ext.TechStack {
		if tech != "" {
			techRows = append(techRows, TechStackRow{ServerID: core.ID, Technology: tech})
		}
	}
	if len(techRows) > 0 {
		if err := m.store.Upsert(ctx, TableTechStack, techRows, "server_id,technology"); err != nil {
			m.log.Warn("failed to migrate tech stack",
				zap.String("server", core.ID), zap.Error(err))
		}
	}

	var installRows []InstallationRow
	for _, method := range ext.Installation.Methods() {
		command := method[1]
		installRows = append(installRows, InstallationRow{
			ServerID: core.ID,
			Method:   method[0],
			Command:  &command,
		})
	}
	if len(ext.Installation.Instructions) > 0 {
		installRows = append(installRows, InstallationRow{
			ServerID:     core.ID,
			Method:       "instructions",
			Instructions: ext.Installation.Instructions,
		})
	}
	if len(installRows) > 0 {
		if err := m.store.Upsert(ctx, TableInstallation, installRows, "server_id,method"); err != nil {
			m.log.Warn("failed to migrate installation",
				zap.String("server", core.ID), zap.Error(err))
		}
	}

	deployment := ext.Metadata.Deployment
	if len(deployment) == 0 {
		deployment = []string{"cloud", "local"}
	}
	deployRows := make([]DeploymentRow, len(deployment))
	for i, d := range deployment {
		deployRows[i] = DeploymentRow{ServerID: core.ID, DeploymentType: d}
	}
	if err := m.store.Upsert(ctx, TableDeployment, deployRows, "server_id,deployment_type"); err != nil {
		m.log.Warn("failed to migrate deployment",
			zap.String("server", core.ID), zap.Error(err))
	}
}

func (m *Migrator) migrateReadmes(ctx context.Context, readmesDir string, summary *Summary) error {
	entries, err := os.ReadDir(readmesDir)
	if err != nil {
		m.log.Error("README directory not found", zap.String("dir", readmesDir), zap.Error(err))
		return nil
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".md") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		m.log.Warn("no README files found", zap.String("dir", readmesDir))
		return nil
	}

	for start := 0; start < len(files); start += m.ReadmeBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+m.ReadmeBatchSize, len(files))

		var rows []ReadmeRow
		for _, filename := range files[start:end] {
			content, err := os.ReadFile(filepath.Join(readmesDir, filename))
			if err != nil {
				m.log.Warn("failed to read README file",
					zap.String("file", filename), zap.Error(err))
				summary.Readmes.Failed++
				continue
			}
			serverID := strings.TrimSuffix(filename, ".md")
			digest := sha256.Sum256(content)
			rows = append(rows, ReadmeRow{
				ServerID:    serverID,
				Filename:    filename,
				ProjectName: projectName(serverID),
				RawContent:  string(content),
				ContentHash: hex.EncodeToString(digest[:]),
				FileSize:    len(content),
			})
		}

		if len(rows) > 0 {
			if err := m.store.Upsert(ctx, TableReadmes, rows, "server_id"); err != nil {
				m.log.Error("failed to migrate README batch",
					zap.Int("from", start), zap.Int("to", end), zap.Error(err))
				summary.Readmes.Failed += len(rows)
			} else {
				summary.Readmes.Succeeded += len(rows)
				m.log.Info("migrated READMEs",
					zap.Int("processed", summary.Readmes.Succeeded), zap.Int("total", len(files)))
			}
		}

		m.sleep(ctx, m.ReadmeDelay)
	}
	return nil
}

// buildServerRow flattens a core/extended pair into the store's row shape,
// applying the same fallback defaults as the SQL emitter.
func buildServerRow(em *sqlgen.Emission, core split.CoreServer, ext split.ExtendedServer, now string) ServerRow {
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
	lastUpdated := core.Stats.LastUpdated
	if lastUpdated == "" {
		lastUpdated = now
	}
	createdAt := ext.Metadata.CreatedAt
	if createdAt == "" {
		createdAt = now
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
	requirements := ext.Compatibility.Requirements
	if requirements == nil {
		requirements = []string{}
	}
	keywords := ext.Categorization.MatchedKeywords
	if keywords == nil {
		keywords = []string{}
	}

	return ServerRow{
		ID:                       core.ID,
		Name:                     core.Name,
		Owner:                    core.Owner,
		Slug:                     em.UniqueSlug(core.Slug, core.ID),
		DescriptionZhCN:          core.Description.Get("zh-CN"),
		DescriptionEn:            core.Description.Get("en"),
		FullDescription:          fullDescription,
		Icon:                     nullable(ext.Icon),
		CategoryID:               core.Category,
		SubcategoryID:            nullable(core.Subcategory),
		Featured:                 core.Featured,
		Verified:                 core.Verified,
		GitHubURL:                nullable(core.Links.GitHub),
		DemoURL:                  nil,
		DocsURL:                  nullable(docsURL),
		RepositoryOwner:          core.Owner,
		RepositoryName:           repoName,
		Stars:                    core.Stats.Stars,
		Forks:                    core.Stats.Forks,
		Watchers:                 watchers,
		OpenIssues:               ext.Repository.OpenIssues,
		LastUpdated:              lastUpdated,
		RepoCreatedAt:            createdAt,
		QualityScore:             core.QualityScore,
		QualityDocumentation:     ext.Quality.Factors.Documentation,
		QualityMaintenance:       ext.Quality.Factors.Maintenance,
		QualityCommunity:         ext.Quality.Factors.Community,
		QualityPerformance:       ext.Quality.Factors.Performance,
		Complexity:               complexity,
		Maturity:                 maturity,
		Downloads:                ext.Usage.Downloads,
		Dependents:               ext.Usage.Dependents,
		WeeklyDownloads:          ext.Usage.WeeklyDownloads,
		Platforms:                platforms,
		NodeVersion:              nullable(ext.Compatibility.NodeVersion),
		PythonVersion:            nullable(ext.Compatibility.PythonVersion),
		Requirements:             requirements,
		ReadmeContent:            fullDescription,
		APIReference:             nullable(ext.Documentation.API),
		CategorizationConfidence: confidence,
		CategorizationReason:     reason,
		CategorizationKeywords:   keywords,
	}
}

// projectName drops the owner prefix of an owner_repo filename stem.
func projectName(stem string) string {
	if _, after, ok := strings.Cut(stem, "_"); ok && after != "" {
		return after
	}
	return stem
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
