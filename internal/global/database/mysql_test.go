package database

import (
	"activity-assistant/config"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.Mysql{Host: "db", Port: "3306", Username: "root", Password: "p@ss", DBName: "assistant"})
	assert.Contains(t, dsn, "root:p@ss@tcp(db:3306)/assistant?")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestInitMemory(t *testing.T) {
	cfg := *config.Get()
	cfg.Storage.Driver = config.StorageMemory
	config.Set(&cfg)

	require.NoError(t, Init())
	assert.NotNil(t, Store)
	assert.Nil(t, DB)
}
