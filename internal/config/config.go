package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config carries every environment-derived setting of the pipeline. Values
// a subcommand does not use may be left empty; the Require helpers gate the
// subcommands that do need them.
type Config struct {
	// DataDir is the content root holding the raw JSON corpus.
	DataDir string `env:"MCPHUB_DATA_DIR" envDefault:"src/data"`
	// OutputDir receives the optimized artifacts and generated SQL.
	OutputDir string `env:"MCPHUB_OUTPUT_DIR" envDefault:"public/data"`
	// BaseURL is the canonical site origin used in sitemaps.
	BaseURL string `env:"MCPHUB_BASE_URL" envDefault:"https://magicmcp.net"`

	// DatabaseURL is a Postgres connection URI for direct catalog access.
	DatabaseURL string `env:"DATABASE_URL"`

	// Supabase credentials for the remote upsert migrator. The service role
	// key is required; the anon key cannot write.
	SupabaseURL        string `env:"SUPABASE_URL"`
	SupabaseServiceKey string `env:"SUPABASE_SERVICE_ROLE_KEY"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &cfg, nil
}

// RequireSupabase reports a fatal configuration error when the hosted store
// credentials are missing.
func (c *Config) RequireSupabase() error {
	if c.SupabaseURL == "" || c.SupabaseServiceKey == "" {
		return errors.New("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY must be set")
	}
	return nil
}

// RequireDatabase reports a fatal configuration error when no Postgres
// connection URI is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL must be set")
	}
	return nil
}
