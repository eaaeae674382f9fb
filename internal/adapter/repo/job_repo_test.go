package repo

import (
	"testing"
	"time"
)

func TestLeaseSeconds(t *testing.T) {
	cases := []struct {
		name  string
		lease time.Duration
		want  int
	}{
		{"default ten minutes", 0, 600},
		{"sub-minute lease keeps its seconds", 30 * time.Second, 30},
		{"ninety seconds", 90 * time.Second, 90},
		{"sub-second lease floors to one", 200 * time.Millisecond, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewJobRepository(nil, tc.lease)
			if got := r.leaseSeconds(); got != tc.want {
				t.Fatalf("leaseSeconds() = %d, want %d", got, tc.want)
			}
		})
	}
}
