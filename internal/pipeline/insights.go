package pipeline

import "context"

// InsightProvider feeds performance themes from the analytics subsystem into
// generation prompts. The scoring engine itself lives elsewhere; this is a
// read-only input and failures are non-fatal.
type InsightProvider interface {
	TopThemes(ctx context.Context, accountID, persona string) ([]string, error)
}

// StaticInsights is the default provider used when no analytics engine is
// wired. It returns nothing, which generation treats as "no steer".
type StaticInsights struct{}

func (StaticInsights) TopThemes(ctx context.Context, accountID, persona string) ([]string, error) {
	return nil, nil
}
