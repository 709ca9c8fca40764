// Command pipeline runs the catalog data pipeline: optimize the raw corpus
// into tiered artifacts, emit import SQL, migrate to the hosted store, apply
// SQL directly, and generate sitemaps.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/magicmcp/hub/internal/config"
	"github.com/magicmcp/hub/internal/enrich"
	"github.com/magicmcp/hub/internal/source"
	"github.com/magicmcp/hub/internal/split"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	root := &cobra.Command{
		Use:           "pipeline",
		Short:         "MCP catalog data pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newOptimizeCmd(cfg, log),
		newSQLCmd(cfg, log),
		newReadmeSQLCmd(cfg, log),
		newMigrateCmd(cfg, log),
		newApplyCmd(cfg, log),
		newSitemapCmd(cfg, log),
	)

	if err := root.Execute(); err != nil {
		log.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}

// buildCorpus runs the load, enrich and split stages shared by the optimize,
// sql and migrate subcommands.
func buildCorpus(cfg *config.Config, log *zap.Logger) (*split.Result, error) {
	loader := source.NewLoader(cfg.DataDir)

	servers, err := loader.LoadServers()
	if err != nil {
		return nil, err
	}
	categories, err := loader.LoadCategories()
	if err != nil {
		return nil, err
	}
	log.Info("loaded corpus",
		zap.Int("servers", len(servers)),
		zap.Int("categories", len(categories)))

	enricher := &enrich.Enricher{}
	enriched := make([]enrich.EnrichedServer, 0, len(servers))
	matched := 0
	for _, server := range servers {
		readme := loader.FindReadme(server.Name)
		if readme != nil {
			matched++
			enriched = append(enriched, enricher.Enrich(server, readme.Readme, readme.Filename))
		} else {
			enriched = append(enriched, enricher.Enrich(server, nil, ""))
		}
	}
	log.Info("enriched servers",
		zap.Int("total", len(enriched)),
		zap.Int("with_readme", matched))

	return split.Split(enriched, categories)
}
