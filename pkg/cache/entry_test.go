package cache

import (
	"testing"
	"time"
)

func TestEntry_IsExpired(t *testing.T) {
	storedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	entry := &Entry{
		Data:     []byte(`["food","housing"]`),
		StoredAt: storedAt,
		TTL:      300000 * time.Millisecond,
	}

	tests := []struct {
		name    string
		elapsed time.Duration
		expired bool
	}{
		{"fresh", 1 * time.Second, false},
		{"just inside window", 299999 * time.Millisecond, false},
		{"exactly at boundary", 300000 * time.Millisecond, false},
		{"just past window", 300001 * time.Millisecond, true},
		{"long past window", 1 * time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := storedAt.Add(tt.elapsed)
			if got := entry.IsExpired(now); got != tt.expired {
				t.Errorf("IsExpired at +%v = %v, want %v", tt.elapsed, got, tt.expired)
			}
		})
	}
}

func TestEntry_Remaining(t *testing.T) {
	storedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	entry := &Entry{
		StoredAt: storedAt,
		TTL:      5 * time.Minute,
	}

	if got := entry.Remaining(storedAt.Add(2 * time.Minute)); got != 3*time.Minute {
		t.Errorf("Remaining = %v, want 3m", got)
	}

	if got := entry.Remaining(storedAt.Add(10 * time.Minute)); got != 0 {
		t.Errorf("Remaining after expiry = %v, want 0", got)
	}
}
