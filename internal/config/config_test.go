package config

import (
	"os"
	"testing"
	"time"
)

func TestConfigLoad_HistoryDefaults(t *testing.T) {
	// clear env vars
	_ = os.Unsetenv("FOODIARY_MAX_RECORD_COUNT")
	_ = os.Unsetenv("FOODIARY_HISTORY_TTL")
	_ = os.Unsetenv("FOODIARY_MAX_USER_COUNT")
	_ = os.Unsetenv("FOODIARY_EVICTION_INTERVAL")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.MaxRecordCount != 5 || cfg.HistoryTTL != time.Hour || cfg.MaxUserCount != 9000 || cfg.EvictionInterval != time.Hour {
		t.Fatalf("unexpected default history config: %+v", cfg)
	}
}

func TestConfigLoad_HistoryEnvOverride(t *testing.T) {
	_ = os.Setenv("FOODIARY_MAX_RECORD_COUNT", "10")
	_ = os.Setenv("FOODIARY_HISTORY_TTL", "30m")
	defer func() {
		_ = os.Unsetenv("FOODIARY_MAX_RECORD_COUNT")
		_ = os.Unsetenv("FOODIARY_HISTORY_TTL")
	}()

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.MaxRecordCount != 10 {
		t.Fatalf("max record count env override failed, got %d", cfg.MaxRecordCount)
	}
	if cfg.HistoryTTL != 30*time.Minute {
		t.Fatalf("history ttl env override failed, got %s", cfg.HistoryTTL)
	}
}

func TestConfigLoad_GenerationDefaults(t *testing.T) {
	_ = os.Unsetenv("FOODIARY_GEN_MODEL")
	_ = os.Unsetenv("FOODIARY_EMBED_MODEL")
	_ = os.Unsetenv("FOODIARY_DEFAULT_LANGUAGE")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.GenModel != "gemini-1.5-flash" || cfg.EmbedModel != "text-embedding-004" || cfg.DefaultLanguage != "zh-TW" {
		t.Fatalf("unexpected default generation config: %+v", cfg)
	}
}

func TestGetHTTPAddr(t *testing.T) {
	cfg := NewForTesting()
	if got := cfg.GetHTTPAddr(); got != ":8080" {
		t.Fatalf("unexpected http addr: %s", got)
	}
}

func TestEnvironmentHelpers(t *testing.T) {
	cfg := NewForTesting()
	if !cfg.IsTesting() || cfg.IsProduction() {
		t.Fatalf("unexpected environment flags: %+v", cfg.Environment)
	}
}
