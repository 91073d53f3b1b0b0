package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultCarriesKeywordSets(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if len(cfg.Keywords.WinnerKeys) == 0 || len(cfg.Keywords.BanTokens) == 0 || len(cfg.Keywords.CompanyHints) == 0 {
		t.Fatalf("keyword defaults missing: %+v", cfg.Keywords)
	}
	if cfg.Extraction.ChunkLimit != 9000 {
		t.Fatalf("unexpected chunk limit: %d", cfg.Extraction.ChunkLimit)
	}
	if cfg.Extraction.Retries != 2 {
		t.Fatalf("unexpected retries: %d", cfg.Extraction.Retries)
	}
	if cfg.Intel.ConcentrationNorm != 40 {
		t.Fatalf("unexpected concentration normalizer: %v", cfg.Intel.ConcentrationNorm)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
logging:
  level: debug
chatgpt:
  model: gpt-4o-mini
extraction:
  chunkLimit: 4000
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("AWARD_SCANNER_CONFIG", path)
	t.Setenv("CHATGPT_MODEL", "")

	cfg := Load()
	if cfg.Logging.Level != "debug" {
		t.Fatalf("file level not applied: %q", cfg.Logging.Level)
	}
	if cfg.ChatGPT.Model != "gpt-4o-mini" {
		t.Fatalf("file model not applied: %q", cfg.ChatGPT.Model)
	}
	if cfg.Extraction.ChunkLimit != 4000 {
		t.Fatalf("file chunk limit not applied: %d", cfg.Extraction.ChunkLimit)
	}
	// Untouched sections keep their defaults.
	if len(cfg.Keywords.WinnerKeys) == 0 {
		t.Fatalf("defaults lost in merge")
	}
}

func TestLoadEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
chatgpt:
  model: gpt-from-file
  apiKey: file-key
database:
  dsn: postgres://file
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("AWARD_SCANNER_CONFIG", path)
	t.Setenv("CHATGPT_MODEL", "gpt-from-env")
	t.Setenv("CHATGPT_API_KEY", "env-key")
	t.Setenv("DATABASE_DSN", "postgres://env")

	cfg := Load()
	if cfg.ChatGPT.Model != "gpt-from-env" {
		t.Fatalf("env model did not win: %q", cfg.ChatGPT.Model)
	}
	if cfg.ChatGPT.APIKey != "env-key" {
		t.Fatalf("env api key did not win: %q", cfg.ChatGPT.APIKey)
	}
	if cfg.Database.DSN != "postgres://env" {
		t.Fatalf("env dsn did not win: %q", cfg.Database.DSN)
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	t.Setenv("AWARD_SCANNER_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := Load()
	if cfg.Extraction.ChunkLimit != 9000 {
		t.Fatalf("defaults lost on missing file: %d", cfg.Extraction.ChunkLimit)
	}
}

func TestRetryDelay(t *testing.T) {
	t.Parallel()

	e := ExtractionConfig{RetryDelayMS: 500}
	if e.RetryDelay() != 500*time.Millisecond {
		t.Fatalf("unexpected delay: %v", e.RetryDelay())
	}
}
