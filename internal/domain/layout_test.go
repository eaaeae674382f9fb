package domain

import "testing"

func TestTableForFallsBackForUnknownPersona(t *testing.T) {
	cfg := DefaultLayoutConfig()
	table := cfg.TableFor("never_configured")
	if len(table) == 0 {
		t.Fatalf("expected fallback table for unknown persona")
	}
	for i := range table {
		if table[i].Name != cfg.Fallback[i].Name {
			t.Fatalf("table[%d] = %q, want fallback entry %q", i, table[i].Name, cfg.Fallback[i].Name)
		}
	}
}

func TestKnownIncludesDefaultLayout(t *testing.T) {
	cfg := LayoutConfig{Fallback: []LayoutWeight{{Name: "minimal", Weight: 1}}}
	if !cfg.Known(DefaultLayout) {
		t.Fatalf("default layout must always be recognized")
	}
	if !cfg.Known("minimal") {
		t.Fatalf("fallback entry should be recognized")
	}
	if cfg.Known("made_up") {
		t.Fatalf("unknown layout should not be recognized")
	}
	if cfg.Known("") {
		t.Fatalf("empty name should not be recognized")
	}
}

func TestParseLayoutConfigRejectsZeroWeightTable(t *testing.T) {
	_, err := ParseLayoutConfig([]byte(`{"tables":{"brain_teaser":[{"name":"a","weight":0}]}}`))
	if err == nil {
		t.Fatalf("expected error for table without positive weight")
	}
}

func TestParseLayoutConfigFillsFallback(t *testing.T) {
	cfg, err := ParseLayoutConfig([]byte(`{"tables":{"brain_teaser":[{"name":"a","weight":10}]}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(cfg.Fallback) == 0 {
		t.Fatalf("expected default fallback table to be filled in")
	}
}
