package infra

import "testing"

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/quizforge")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("port = %q, want 8080", cfg.Port)
	}
	if cfg.GenerateMode != "batch" {
		t.Fatalf("generate mode = %q, want batch", cfg.GenerateMode)
	}
	if cfg.RenderMode != "single" || cfg.AssembleMode != "single" || cfg.PublishMode != "single" {
		t.Fatalf("expensive stages must default to single: %q/%q/%q", cfg.RenderMode, cfg.AssembleMode, cfg.PublishMode)
	}
	if cfg.GenerateBatchSize != 5 {
		t.Fatalf("batch size = %d, want 5", cfg.GenerateBatchSize)
	}
	if cfg.GenerateTemperature != 0.7 {
		t.Fatalf("temperature = %v, want 0.7", cfg.GenerateTemperature)
	}
}

func TestLoadConfigRejectsUnknownStageMode(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/quizforge")
	t.Setenv("RENDER_STAGE_MODE", "parallel")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.RenderMode != "single" {
		t.Fatalf("unknown mode should fall back to single, got %q", cfg.RenderMode)
	}
}

func TestLoadConfigParsesAccountList(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/quizforge")
	t.Setenv("RECONCILE_ACCOUNTS", " acct-1, acct-2 ,,acct-3 ")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	want := []string{"acct-1", "acct-2", "acct-3"}
	if len(cfg.ReconcileAccounts) != len(want) {
		t.Fatalf("accounts = %v, want %v", cfg.ReconcileAccounts, want)
	}
	for i := range want {
		if cfg.ReconcileAccounts[i] != want[i] {
			t.Fatalf("accounts[%d] = %q, want %q", i, cfg.ReconcileAccounts[i], want[i])
		}
	}
}
