package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magicmcp/hub/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MCPHUB_DATA_DIR", "")
	t.Setenv("MCPHUB_OUTPUT_DIR", "")
	t.Setenv("MCPHUB_BASE_URL", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "src/data", cfg.DataDir)
	assert.Equal(t, "public/data", cfg.OutputDir)
	assert.Equal(t, "https://magicmcp.net", cfg.BaseURL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("MCPHUB_DATA_DIR", "/srv/data")
	t.Setenv("SUPABASE_URL", "https://proj.supabase.co")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "service-key")
	t.Setenv("DATABASE_URL", "postgres://localhost/catalog")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/data", cfg.DataDir)
	assert.NoError(t, cfg.RequireSupabase())
	assert.NoError(t, cfg.RequireDatabase())
}

func TestRequireSupabase(t *testing.T) {
	cfg := &config.Config{SupabaseURL: "https://proj.supabase.co"}
	require.Error(t, cfg.RequireSupabase())

	cfg.SupabaseServiceKey = "service-key"
	assert.NoError(t, cfg.RequireSupabase())
}

func TestRequireDatabase(t *testing.T) {
	cfg := &config.Config{}
	require.Error(t, cfg.RequireDatabase())

	cfg.DatabaseURL = "postgres://localhost/catalog"
	assert.NoError(t, cfg.RequireDatabase())
}
