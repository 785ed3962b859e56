package rules

import (
	"testing"
	"time"
)

func TestCanonicalPairIsOrderInsensitive(t *testing.T) {
	a1, b1 := CanonicalPair(42, 7)
	a2, b2 := CanonicalPair(7, 42)
	if a1 != 7 || b1 != 42 {
		t.Fatalf("unexpected pair: got (%d,%d) want (7,42)", a1, b1)
	}
	if a1 != a2 || b1 != b2 {
		t.Fatalf("pair depends on argument order: (%d,%d) vs (%d,%d)", a1, b1, a2, b2)
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		name     string
		limit    int
		fallback int
		max      int
		want     int
	}{
		{name: "zero uses fallback", limit: 0, fallback: 20, max: 100, want: 20},
		{name: "negative uses fallback", limit: -5, fallback: 20, max: 100, want: 20},
		{name: "above max", limit: 500, fallback: 20, max: 100, want: 100},
		{name: "inside range", limit: 37, fallback: 20, max: 100, want: 37},
		{name: "fallback below one", limit: 0, fallback: 0, max: 100, want: 1},
		{name: "unset max uses default", limit: 1000, fallback: 20, max: 0, want: MaxPageLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampLimit(tt.limit, tt.fallback, tt.max); got != tt.want {
				t.Fatalf("unexpected limit: got %d want %d", got, tt.want)
			}
		})
	}
}

func TestAgeAtBeforeAndAfterBirthday(t *testing.T) {
	birth := time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC)

	if got := AgeAt(birth, time.Date(2026, 6, 14, 23, 0, 0, 0, time.UTC)); got != 25 {
		t.Fatalf("unexpected age before birthday: %d", got)
	}
	if got := AgeAt(birth, time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)); got != 26 {
		t.Fatalf("unexpected age on birthday: %d", got)
	}
	if got := AgeAt(time.Time{}, time.Now()); got != 0 {
		t.Fatalf("unexpected age for zero birthdate: %d", got)
	}
}
