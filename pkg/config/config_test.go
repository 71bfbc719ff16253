package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"PORT", "LOG_LEVEL", "CORS_ORIGIN", "NEO4J_URL", "NEO4J_USER", "NEO4J_PASS",
	"NEO4J_DATABASE", "NATS_URL", "NATS_SUBJECT", "SEED_FILE", "RELGRAPH_CREDENTIALS",
	"WRITE_RATE", "CONNECT_RETRIES",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "*", cfg.CORSOrigin)
	assert.Empty(t, cfg.Neo4jURL)
	assert.Equal(t, "neo4j", cfg.Neo4jUser)
	assert.Equal(t, "relgraph.relations.committed", cfg.NATSSubject)
	assert.Equal(t, "configs/seed.yaml", cfg.SeedFile)
	assert.Equal(t, 3, cfg.ConnectRetries)
	assert.Zero(t, cfg.WriteRate)
	assert.Equal(t, "credentials.yaml", filepath.Base(cfg.CredentialsPath))
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("NEO4J_URL", "bolt://db:7687")
	t.Setenv("WRITE_RATE", "12.5")
	t.Setenv("CONNECT_RETRIES", "5")
	t.Setenv("RELGRAPH_CREDENTIALS", "/tmp/creds.yaml")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "bolt://db:7687", cfg.Neo4jURL)
	assert.Equal(t, 12.5, cfg.WriteRate)
	assert.Equal(t, 5, cfg.ConnectRetries)
	assert.Equal(t, "/tmp/creds.yaml", cfg.CredentialsPath)
}

func TestFromEnvInvalid(t *testing.T) {
	for key, val := range map[string]string{
		"LOG_LEVEL":       "loud",
		"WRITE_RATE":      "-1",
		"CONNECT_RETRIES": "zero",
	} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("NEO4J_URL=neo4j://from-file:7687\nPORT=7000\n"), 0o600))
	t.Setenv("PORT", "7100")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "neo4j://from-file:7687", cfg.Neo4jURL)
	assert.Equal(t, "7100", cfg.Port)
	os.Unsetenv("NEO4J_URL")
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.env"))
	assert.NoError(t, err)
}
