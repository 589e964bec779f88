package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad_DefaultsOnly(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, "default.yaml", `
local_addr: localhost
local_port: 15324
log_level: info
database:
  host: localhost
  username: pandapouch
  password: secret
  name: pandapouch
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.LocalAddr)
	assert.Equal(t, 15324, cfg.LocalPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "pandapouch", cfg.Database.Name)
}

func TestLoad_RunModeOverridesDefault(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, "default.yaml", "log_level: info\nlocal_port: 15324\n")
	writeYAML(t, dir, "production.yaml", "log_level: warn\n")
	t.Setenv("RUN_MODE", "production")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 15324, cfg.LocalPort, "production.yaml doesn't set local_port, default.yaml's value survives")
}

func TestLoad_LocalOverridesRunMode(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, "default.yaml", "local_port: 15324\n")
	writeYAML(t, dir, "development.yaml", "local_port: 16000\n")
	writeYAML(t, dir, "local.yaml", "local_port: 17000\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 17000, cfg.LocalPort)
}

func TestLoad_MissingRunModeAndLocalFilesAreOptional(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, "default.yaml", "local_port: 15324\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 15324, cfg.LocalPort)
}

func TestLoad_EnvOverridesFiles(t *testing.T) {
	dir := t.TempDir()
	writeYAML(t, dir, "default.yaml", "local_port: 15324\nlog_level: info\n")
	t.Setenv("APP_LOCAL_PORT", "19000")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 19000, cfg.LocalPort)
	assert.Equal(t, "info", cfg.LogLevel, "env doesn't set log_level, file value survives")
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{Database: Database{Host: "db.internal", Username: "u", Password: "p", Name: "cache"}}
	assert.Equal(t, "postgresql://u:p@db.internal/cache", cfg.DatabaseDSN())
}
