package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 500, cfg.VerifiedContent.ChunkSize)
	assert.Equal(t, "verified_content", cfg.VerifiedContent.CollectionName)
	assert.Equal(t, "local", cfg.VectorStore.Backend)
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.True(t, cfg.WebSearch.Enabled)
	assert.False(t, cfg.UsesPostgres())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_READ_TIMEOUT", "5")
	t.Setenv("JWT_EXPIRATION_HOURS", "2")
	t.Setenv("VERIFIED_CONTENT_CHUNK_SIZE", "250")
	t.Setenv("WEB_SEARCH_ENABLED", "false")
	t.Setenv("STORE_BACKEND", "postgres")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 2*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 250, cfg.VerifiedContent.ChunkSize)
	assert.False(t, cfg.WebSearch.Enabled)
	assert.True(t, cfg.UsesPostgres())
}

func TestLoad_TOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[verified_content]
collection_name = "dti5902"
base_dir = "/srv/courses"

[vectorstore]
backend = "postgres"

[rag]
top_k = 8
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("RAG_TOP_K", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dti5902", cfg.VerifiedContent.CollectionName)
	assert.Equal(t, "/srv/courses", cfg.VerifiedContent.BaseDir)
	assert.Equal(t, "postgres", cfg.VectorStore.Backend)
	assert.Equal(t, 8, cfg.RAG.TopK)
	// untouched sections keep their defaults
	assert.Equal(t, 500, cfg.VerifiedContent.ChunkSize)
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[rag\nchunk_size = "), 0o644))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	_, err = Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown vectorstore", func(c *Config) { c.VectorStore.Backend = "chroma" }},
		{"unknown store", func(c *Config) { c.Store.Backend = "sqlite" }},
		{"empty collection", func(c *Config) { c.VerifiedContent.CollectionName = "" }},
		{"zero chunk size", func(c *Config) { c.VerifiedContent.ChunkSize = 0 }},
		{"negative overlap", func(c *Config) { c.RAG.ChunkOverlap = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
