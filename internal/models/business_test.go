package models

import (
	"testing"
	"time"
)

// 2025-03-03 is a Monday
func mondayAt(hour, min int) time.Time {
	return time.Date(2025, time.March, 3, hour, min, 0, 0, time.UTC)
}

func TestIsOpenAt(t *testing.T) {
	b := Business{
		Name: "Test Cafe",
		OpeningHours: WeeklyHours{
			"monday": {Open: 930, Close: 1730},
		},
	}

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"before opening", mondayAt(9, 0), false},
		{"at opening", mondayAt(9, 30), true},
		{"midday", mondayAt(12, 0), true},
		{"just before close", mondayAt(17, 29), true},
		{"at closing", mondayAt(17, 30), false},
		{"after closing", mondayAt(20, 0), false},
		{"day without hours", mondayAt(12, 0).AddDate(0, 0, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.IsOpenAt(tt.at); got != tt.want {
				t.Errorf("IsOpenAt(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestIsOpenAtNoHoursConfigured(t *testing.T) {
	b := Business{Name: "No Hours"}
	if b.IsOpenAt(mondayAt(12, 0)) {
		t.Error("business without opening hours reported open")
	}
}

func TestBusinessBeforeCreateDefaults(t *testing.T) {
	b := Business{Name: "Defaults", OwnerUsername: "owner"}
	if err := b.BeforeCreate(nil); err != nil {
		t.Fatalf("BeforeCreate returned error: %v", err)
	}
	if b.Category != CategoryOther {
		t.Errorf("category = %q, want %q", b.Category, CategoryOther)
	}
	if b.CreatedAt.IsZero() || b.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
}
