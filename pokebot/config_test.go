package pokebot

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pokepacks/pokepacks/internal/domain/catalog"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[log]
level = "debug"

[bot]
token = "file-token"

[catalog]
api_key = "file-key"
chunk_size = 100
fetch_timeout = "5s"

[cache]
refresh_after = "12h"
refresh_retries = -1

[db]
driver = "postgres"

[db.postgres]
host = "localhost"
user = "poke"
database = "pokepacks"
`)
	t.Setenv("POKEPACKS_BOT_TOKEN", "env-token")
	t.Setenv("POKEPACKS_DB_PASSWORD", "env-password")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Log.Level != slog.LevelDebug {
		t.Errorf("Log.Level = %v, want debug", cfg.Log.Level)
	}
	if cfg.Bot.Token != "env-token" {
		t.Errorf("Bot.Token = %q, want the environment to win", cfg.Bot.Token)
	}
	if cfg.Catalog.APIKey != "file-key" {
		t.Errorf("Catalog.APIKey = %q, want file-key", cfg.Catalog.APIKey)
	}
	if cfg.Catalog.ChunkSize != 100 || cfg.Catalog.FetchTimeout.Duration != 5*time.Second {
		t.Errorf("Catalog = %+v", cfg.Catalog)
	}
	if cfg.Cache.RefreshAfter.Duration != 12*time.Hour {
		t.Errorf("Cache.RefreshAfter = %v, want 12h", cfg.Cache.RefreshAfter)
	}
	if cfg.Cache.RefreshRetries != 0 {
		t.Errorf("Cache.RefreshRetries = %d, want retries disabled", cfg.Cache.RefreshRetries)
	}
	if cfg.Cache.Retention.Duration != catalog.DefaultRetention {
		t.Errorf("Cache.Retention = %v, want default", cfg.Cache.Retention)
	}
	if cfg.DB.Postgres.Password != "env-password" || cfg.DB.Postgres.Port != 5432 {
		t.Errorf("DB.Postgres = %+v", cfg.DB.Postgres)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `[bot]
token = "t"
`))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Catalog.ChunkSize != catalog.DefaultChunkSize {
		t.Errorf("ChunkSize = %d, want %d", cfg.Catalog.ChunkSize, catalog.DefaultChunkSize)
	}
	if cfg.Cache.RefreshInterval.Duration != time.Hour || cfg.Cache.RefreshRetries != catalog.DefaultMaxRetries {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.DB.Driver != DriverNone || cfg.DB.Mongo.Database != "poketcg" {
		t.Errorf("DB = %+v", cfg.DB)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad duration": "[cache]\nretention = \"forever\"\n",
		"bad driver":   "[db]\ndriver = \"sqlite\"\n",
		"mongo no uri": "[db]\ndriver = \"mongo\"\n",
	}
	for name, contents := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("MONGODB_URI", "")
			if _, err := LoadConfig(writeConfig(t, contents)); err == nil {
				t.Error("LoadConfig() error = nil, want failure")
			}
		})
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("LoadConfig() on a missing file error = nil")
	}
}
