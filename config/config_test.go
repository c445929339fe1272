package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Mujanati13/xcite/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("XCITE_PG_USER", "xcite")
	t.Setenv("XCITE_PG_PASSWORD", "secret")
	t.Setenv("XCITE_PG_HOST", "db")
	t.Setenv("XCITE_AUTH_JWT_SECRET", "jwt")
	t.Setenv("XCITE_AUTH_SECRET_KEY", "key")
}

func TestNewConfig_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, 5432, cfg.PG.Port)
	assert.Equal(t, 30, cfg.Auth.TokenDays)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "postgres://xcite:secret@db:5432/xcite?sslmode=disable", cfg.PG.DSN())
}

func TestNewConfig_MissingRequired(t *testing.T) {
	t.Setenv("XCITE_PG_USER", "")
	os.Unsetenv("XCITE_PG_USER")

	_, err := config.NewConfig()

	assert.Error(t, err)
}

func TestNewConfig_EnvFile(t *testing.T) {
	setRequired(t)
	t.Setenv("XCITE_SERVER_PORT", "")
	os.Unsetenv("XCITE_SERVER_PORT")
	t.Setenv("XCITE_CORS_ALLOWED_ORIGINS", "")
	os.Unsetenv("XCITE_CORS_ALLOWED_ORIGINS")
	t.Cleanup(func() {
		os.Unsetenv("XCITE_SERVER_PORT")
		os.Unsetenv("XCITE_CORS_ALLOWED_ORIGINS")
	})

	path := filepath.Join(t.TempDir(), ".env")
	content := "XCITE_SERVER_PORT=8081\nXCITE_CORS_ALLOWED_ORIGINS=http://a.test,http://b.test\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.NewConfig(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}
