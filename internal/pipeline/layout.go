package pipeline

import (
	"math/rand"
	"sync"

	"quizforge/internal/domain"
)

// LayoutSelector picks a rendering layout for a persona using weighted random
// choice over an injected immutable weight configuration.
type LayoutSelector struct {
	cfg domain.LayoutConfig

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewLayoutSelector constructs a selector. rnd may be nil, in which case a
// time-seeded source is used; tests inject a fixed seed.
func NewLayoutSelector(cfg domain.LayoutConfig, rnd *rand.Rand) *LayoutSelector {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63()))
	}
	return &LayoutSelector{cfg: cfg, rnd: rnd}
}

// Select returns the layout for the persona. A recognized override always
// wins. Otherwise a uniform draw in [0, totalWeight) walks the persona's
// table; empty or malformed tables fall back to the hardcoded default so
// selection never fails.
func (s *LayoutSelector) Select(persona, override string) string {
	if override != "" && s.cfg.Known(override) {
		return override
	}

	table := s.cfg.TableFor(persona)
	total := 0
	for _, entry := range table {
		if entry.Weight > 0 {
			total += entry.Weight
		}
	}
	if total <= 0 {
		return domain.DefaultLayout
	}

	s.mu.Lock()
	draw := s.rnd.Intn(total)
	s.mu.Unlock()

	acc := 0
	for _, entry := range table {
		if entry.Weight <= 0 {
			continue
		}
		acc += entry.Weight
		if draw < acc {
			return entry.Name
		}
	}
	return domain.DefaultLayout
}
