package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setDatabaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_HOST", "db.local")
	t.Setenv("DATABASE_PORT", "5432")
	t.Setenv("DATABASE_USER", "dokugen")
	t.Setenv("DATABASE_PASSWORD", "secret")
	t.Setenv("DATABASE_NAME", "dokugen")
}

func TestNewConfigFromEnvironmentOnly(t *testing.T) {
	setDatabaseEnv(t)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("BASE_URL", "https://leiar.example.no")
	t.Setenv("PPTX_TEMPLATE_PATH", "/opt/templates/leiar.pptx")

	cfg, err := NewConfig("does-not-exist.yml")
	require.NoError(t, err)

	assert.Equal(t, "db.local", cfg.Database.Host)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "https://leiar.example.no", cfg.Server.BaseURL)
	assert.Equal(t, "/opt/templates/leiar.pptx", cfg.Template.Path)
}

func TestNewConfigDefaults(t *testing.T) {
	setDatabaseEnv(t)

	cfg, err := NewConfig("does-not-exist.yml")
	require.NoError(t, err)

	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Empty(t, cfg.Template.Path)
}

func TestNewConfigIncompleteDatabaseFails(t *testing.T) {
	t.Setenv("DATABASE_HOST", "db.local")

	_, err := NewConfig("does-not-exist.yml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete")
}

func TestGetDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "h", Port: "5432", User: "u", Password: "p", Name: "n", SSLMode: "disable",
	}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=n sslmode=disable", cfg.GetDSN())
}
