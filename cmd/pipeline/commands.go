package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/magicmcp/hub/internal/config"
	"github.com/magicmcp/hub/internal/database"
	"github.com/magicmcp/hub/internal/migrate"
	"github.com/magicmcp/hub/internal/sitemap"
	"github.com/magicmcp/hub/internal/sqlgen"
)

func newOptimizeCmd(cfg *config.Config, log *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "optimize",
		Short: "Split the raw corpus into tiered load artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := buildCorpus(cfg, log)
			if err != nil {
				return err
			}
			if err := res.Write(cfg.OutputDir); err != nil {
				return err
			}
			log.Info("wrote artifacts",
				zap.String("dir", cfg.OutputDir),
				zap.Int("servers", len(res.Core)),
				zap.Int("readmes", len(res.Readmes)))
			return nil
		},
	}
}

func newSQLCmd(cfg *config.Config, log *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "sql",
		Short: "Emit the catalog import SQL script",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := buildCorpus(cfg, log)
			if err != nil {
				return err
			}
			emitter := &sqlgen.Emitter{}
			script, em := emitter.Emit(res)

			if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			out := filepath.Join(cfg.OutputDir, "data-import.sql")
			if err := os.WriteFile(out, []byte(script), 0o644); err != nil {
				return fmt.Errorf("failed to write SQL script: %w", err)
			}
			log.Info("wrote import script",
				zap.String("file", out),
				zap.Int("servers", em.Report.Servers),
				zap.Int("tags", em.Report.Tags),
				zap.Int("server_tags", em.Report.ServerTags),
				zap.Int("installation", em.Report.Installation))
			return nil
		},
	}
}

func newReadmeSQLCmd(cfg *config.Config, log *zap.Logger) *cobra.Command {
	var readmesDir string
	cmd := &cobra.Command{
		Use:   "readme-sql",
		Short: "Emit the README import SQL script from raw .md files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			emitter := &sqlgen.Emitter{}
			script, report, err := emitter.EmitReadmeSQL(readmesDir)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			out := filepath.Join(cfg.OutputDir, "readme-import.sql")
			if err := os.WriteFile(out, []byte(script), 0o644); err != nil {
				return fmt.Errorf("failed to write SQL script: %w", err)
			}
			log.Info("wrote README import script",
				zap.String("file", out),
				zap.Int("processed", report.Processed),
				zap.Int("skipped", report.Skipped))
			return nil
		},
	}
	cmd.Flags().StringVar(&readmesDir, "readmes", filepath.Join(cfg.DataDir, "readmes"),
		"directory of raw README .md files named {owner}_{repo}.md")
	return cmd
}

func newMigrateCmd(cfg *config.Config, log *zap.Logger) *cobra.Command {
	var readmesDir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Upsert the corpus into the hosted store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.RequireSupabase(); err != nil {
				return err
			}
			res, err := buildCorpus(cfg, log)
			if err != nil {
				return err
			}
			store, err := migrate.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseServiceKey)
			if err != nil {
				return err
			}

			summary, err := migrate.NewMigrator(store, log).Run(cmd.Context(), res, readmesDir)
			if err != nil {
				return err
			}
			if summary.MajorityFailed() {
				return fmt.Errorf("migration mostly failed: %d records failed", summary.TotalFailed())
			}
			if summary.TotalFailed() > 0 {
				log.Warn("migration completed with failures",
					zap.Int("failed", summary.TotalFailed()))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&readmesDir, "readmes", "",
		"directory of raw README .md files; empty skips the README step")
	return cmd
}

func newApplyCmd(cfg *config.Config, log *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <script.sql>",
		Short: "Apply a generated SQL script to the catalog database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.RequireDatabase(); err != nil {
				return err
			}
			script, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read script: %w", err)
			}
			if len(script) == 0 {
				return errors.New("script is empty")
			}

			db, err := database.NewPostgreSQL(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := db.ApplyScript(cmd.Context(), string(script)); err != nil {
				return err
			}
			log.Info("applied script",
				zap.String("file", args[0]),
				zap.Int("bytes", len(script)))
			return nil
		},
	}
}

func newSitemapCmd(cfg *config.Config, log *zap.Logger) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "sitemap",
		Short: "Generate the sitemap family from the published catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.RequireDatabase(); err != nil {
				return err
			}
			db, err := database.NewPostgreSQL(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			servers, err := db.ListPublishedServers(cmd.Context())
			if err != nil {
				return err
			}
			categories, err := db.ListCategories(cmd.Context())
			if err != nil {
				return err
			}
			tags, err := db.ListTags(cmd.Context())
			if err != nil {
				return err
			}

			gen := sitemap.NewGenerator(cfg.BaseURL)
			files, err := gen.Generate(servers, categories, tags)
			if err != nil {
				return err
			}
			if err := sitemap.Write(outDir, files); err != nil {
				return err
			}
			log.Info("wrote sitemaps",
				zap.String("dir", outDir),
				zap.Int("files", len(files)),
				zap.Int("servers", len(servers)),
				zap.Int("tags", len(tags)))
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "public", "directory to write sitemap files into")
	return cmd
}
