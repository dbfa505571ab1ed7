package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0644))
	return dir
}

func TestLoadConfig(t *testing.T) {
	dir := writeConfig(t, `
server:
  port: "9090"
  mode: debug
jwt:
  secret: short
  expire_hours: 2
storage:
  type: minio
vision_test:
  session_ttl_minutes: 5
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 2*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, 5*time.Minute, cfg.VisionTest.SessionTTL())
	assert.Equal(t, 20, cfg.VisionTest.BaseXP, "default applied")
	assert.Equal(t, "logs/app.log", cfg.Log.File)
	assert.True(t, cfg.Reminder.Enabled)
}

func TestLoadConfig_ReleaseRequiresLongSecret(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: release
jwt:
  secret: too-short
storage:
  type: minio
`)

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestLoadConfig_EnvOverridesSecret(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: release
jwt:
  secret: too-short
storage:
  type: minio
`)
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef-from-env")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef0123456789abcdef-from-env", cfg.JWT.Secret)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(t.TempDir())
	assert.Error(t, err)
}

func TestSessionTTL_Default(t *testing.T) {
	assert.Equal(t, 30*time.Minute, VisionTestConfig{}.SessionTTL())
}
