package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "page-events", cfg.Kafka.Topics.PageEvents)
	assert.Equal(t, "index-changes", cfg.Kafka.Topics.IndexChanges)
	assert.Equal(t, "postgres", cfg.Indexer.StoreDriver)
	assert.True(t, cfg.Indexer.EnglishStopWords)
	assert.Equal(t, time.Minute, cfg.Indexer.SnapshotInterval)
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.Equal(t, 600, cfg.Server.RateLimit)
	assert.Equal(t, 3, cfg.Indexer.StoreRetry.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Indexer.Changefeed.ResetTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9000
indexer:
  storeDriver: sqlite
  sqliteDSN: "file:test.db"
  stopWords: ["wiki", "page"]
  englishStopWords: false
search:
  defaultLimit: 5
  maxResults: 50
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("SP_SERVER_PORT", "9100")
	t.Setenv("SP_INDEXER_SNAPSHOT_PATH", "/tmp/wiki.snapshot")
	t.Setenv("SP_SERVER_CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Indexer.StoreDriver)
	assert.Equal(t, "file:test.db", cfg.Indexer.SQLiteDSN)
	assert.Equal(t, []string{"wiki", "page"}, cfg.Indexer.StopWords)
	assert.False(t, cfg.Indexer.EnglishStopWords)
	assert.Equal(t, "/tmp/wiki.snapshot", cfg.Indexer.SnapshotPath)
	assert.Equal(t, 5, cfg.Search.DefaultLimit)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown driver", "indexer:\n  storeDriver: mongo\n"},
		{"negative rate limit", "server:\n  rateLimit: -1\n"},
		{"zero default limit", "search:\n  defaultLimit: 0\n"},
		{"max below default", "search:\n  defaultLimit: 20\n  maxResults: 10\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
