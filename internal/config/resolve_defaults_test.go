package config

import "testing"

func TestResolveDefaults_DerivesMongoFromAuto(t *testing.T) {
	for _, driver := range []string{"", "auto"} {
		cfg := NewForTesting()
		cfg.DBDriver = driver
		if err := cfg.ResolveDefaults(); err != nil {
			t.Fatalf("ResolveDefaults(%q): %v", driver, err)
		}
		if cfg.DBDriver != "mongo" {
			t.Fatalf("driver %q resolved to %q, want mongo", driver, cfg.DBDriver)
		}
	}
}

func TestResolveDefaults_KeepsExplicitDriver(t *testing.T) {
	cfg := NewForTesting()
	cfg.DBDriver = "postgres"
	if err := cfg.ResolveDefaults(); err != nil {
		t.Fatalf("ResolveDefaults: %v", err)
	}
	if cfg.DBDriver != "postgres" {
		t.Fatalf("driver changed to %q", cfg.DBDriver)
	}
}

func TestResolveDefaults_RejectsUnknownDriver(t *testing.T) {
	cfg := NewForTesting()
	cfg.DBDriver = "spanner"
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestResolveDefaults_RejectsUnknownDurabilityMode(t *testing.T) {
	cfg := NewForTesting()
	cfg.DurabilityMode = "eventually"
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatal("expected error for unknown durability mode")
	}
}

func TestResolveDefaults_RejectsNonPositiveBounds(t *testing.T) {
	cfg := NewForTesting()
	cfg.MaxRecordCount = 0
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatal("expected error for zero record count")
	}

	cfg = NewForTesting()
	cfg.MaxUserCount = -1
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatal("expected error for negative user count")
	}
}
