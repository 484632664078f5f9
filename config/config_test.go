package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every file lookup at an empty temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SECRETS_DIR", dir)
	t.Setenv(ConfigPathEnvVar, filepath.Join(dir, "missing.yaml"))
	t.Setenv("CI", "")
	t.Setenv("ENV", "test")
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, Test, cfg.Environment)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 30, cfg.RecipeRateLimit)
	assert.False(t, cfg.RedisEnabled())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "foodgram")
	t.Setenv("DB_NAME", "foodgram")
	t.Setenv("TOKEN_TTL", "48h")
	t.Setenv("RECIPE_RATE_LIMIT", "5")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "db", cfg.DBHost)
	assert.Equal(t, 48*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 5, cfg.RecipeRateLimit)
	assert.True(t, cfg.RedisEnabled())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins())
	assert.Contains(t, cfg.PostgresDSN(), "host=db")
}

func TestLoadConfigFileAndSecrets(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_port: \"9000\"\nlog_format: console\n"), 0o644))
	t.Setenv(ConfigPathEnvVar, path)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jwt_secret"), []byte("from-secret\n"), 0o600))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.ServerPort)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, "from-secret", cfg.JWTSecret)
}

func TestValidateConfigProduction(t *testing.T) {
	cfg := defaultConfig()
	cfg.Environment = Production

	err := ValidateConfig(&cfg)
	require.Error(t, err)

	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, err.Error(), "jwt_secret")
	assert.Contains(t, err.Error(), "db_driver")
	assert.Contains(t, err.Error(), "db_password")
}

func TestValidateConfigUnknownDriver(t *testing.T) {
	cfg := defaultConfig()
	cfg.DBDriver = "mysql"

	err := ValidateConfig(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}

func TestParseEnvironment(t *testing.T) {
	assert.Equal(t, Production, ParseEnvironment("production"))
	assert.Equal(t, Production, ParseEnvironment("PROD"))
	assert.Equal(t, Test, ParseEnvironment("test"))
	assert.Equal(t, Development, ParseEnvironment(""))
}
