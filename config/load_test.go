package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9000"
mode: Release
storage:
  driver: mysql
mysql:
  host: db
  db_name: assistant
checkin:
  late_threshold: 10m
  max_attempts: 3
ratelimit:
  rate: 20-M
`), 0o644))
	t.Setenv("MYSQL_HOST", "db.internal")
	t.Setenv("JWT_ACCESS_SECRET", "from-env")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", c.Port)
	assert.Equal(t, ModeRelease, c.Mode)
	assert.Equal(t, StorageMysql, c.Storage.Driver)
	assert.Equal(t, "db.internal", c.Mysql.Host, "环境变量优先")
	assert.Equal(t, "assistant", c.Mysql.DBName)
	assert.Equal(t, "from-env", c.JWT.AccessSecret)
	assert.Equal(t, 10*time.Minute, c.Checkin.LateThreshold)
	assert.Equal(t, 30*time.Minute, c.Checkin.GracePeriod, "未配置时取默认值")
	assert.Equal(t, 3, c.Checkin.MaxAttempts)
	assert.Equal(t, "20-M", c.RateLimit.Rate)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnabled(t *testing.T) {
	assert.False(t, Redis{}.Enabled())
	assert.True(t, Redis{Host: "127.0.0.1"}.Enabled())
	assert.False(t, S3{}.Enabled())
}
