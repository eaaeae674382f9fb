package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultLayout is the hardcoded fallback used when a weight table is empty
// or malformed. Layout selection must never fail.
const DefaultLayout = "classic_card"

// LayoutWeight is one (layout, weight) entry in a persona's weight table.
// Weights sum to an arbitrary positive total.
type LayoutWeight struct {
	Name   string `json:"name"`
	Weight int    `json:"weight"`
}

// LayoutConfig holds the per-persona weight tables plus a fallback table for
// unconfigured personas. It is immutable at runtime and injected into the
// selector at construction.
type LayoutConfig struct {
	Tables   map[string][]LayoutWeight `json:"tables"`
	Fallback []LayoutWeight            `json:"fallback"`
}

// TableFor returns the weight table for a persona, falling back to the
// default table when the persona is unconfigured.
func (c LayoutConfig) TableFor(persona string) []LayoutWeight {
	if table, ok := c.Tables[strings.ToLower(strings.TrimSpace(persona))]; ok && len(table) > 0 {
		return table
	}
	return c.Fallback
}

// Known reports whether name appears in any configured table. Used to decide
// if an explicit override is a recognized layout.
func (c LayoutConfig) Known(name string) bool {
	if name == "" {
		return false
	}
	for _, table := range c.Tables {
		for _, entry := range table {
			if entry.Name == name {
				return true
			}
		}
	}
	for _, entry := range c.Fallback {
		if entry.Name == name {
			return true
		}
	}
	return name == DefaultLayout
}

// DefaultLayoutConfig returns the built-in weight tables used when no config
// file is provided.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		Tables: map[string][]LayoutWeight{
			"vocab_builder": {
				{Name: "word_spotlight", Weight: 60},
				{Name: "classic_card", Weight: 25},
				{Name: "split_reveal", Weight: 15},
			},
			"health_tips": {
				{Name: "tip_stack", Weight: 70},
				{Name: "classic_card", Weight: 30},
			},
			"brain_teaser": {
				{Name: "countdown_quiz", Weight: 50},
				{Name: "classic_card", Weight: 30},
				{Name: "split_reveal", Weight: 20},
			},
		},
		Fallback: []LayoutWeight{
			{Name: "classic_card", Weight: 70},
			{Name: "split_reveal", Weight: 30},
		},
	}
}

// ParseLayoutConfig decodes a JSON layout configuration and validates that
// every table carries a positive total weight.
func ParseLayoutConfig(data []byte) (LayoutConfig, error) {
	var cfg LayoutConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return LayoutConfig{}, fmt.Errorf("parse layout config: %w", err)
	}
	for persona, table := range cfg.Tables {
		if totalWeight(table) <= 0 {
			return LayoutConfig{}, fmt.Errorf("layout table for %q has no positive weight", persona)
		}
	}
	if len(cfg.Fallback) == 0 {
		cfg.Fallback = DefaultLayoutConfig().Fallback
	}
	return cfg, nil
}

func totalWeight(table []LayoutWeight) int {
	total := 0
	for _, entry := range table {
		if entry.Weight > 0 {
			total += entry.Weight
		}
	}
	return total
}
