package sim

import "testing"

// === Clock Tests ===

func TestClock_StartsBeforeFirstTick(t *testing.T) {
	c := NewClock(10)
	if c.CurrentTick() != -1 {
		t.Errorf("CurrentTick before Advance = %d, want -1", c.CurrentTick())
	}
	if c.IsEndOfDay() {
		t.Error("IsEndOfDay true before first tick")
	}
}

func TestClock_AdvanceAndDayBoundaries(t *testing.T) {
	tests := []struct {
		name        string
		ticksPerDay int64
		advances    int
		wantTick    int64
		wantDay     int64
		wantTOD     int64
		wantEOD     bool
	}{
		{"first tick", 4, 1, 0, 0, 0, false},
		{"mid day", 4, 3, 2, 0, 2, false},
		{"last tick of day 0", 4, 4, 3, 0, 3, true},
		{"first tick of day 1", 4, 5, 4, 1, 0, false},
		{"last tick of day 1", 4, 8, 7, 1, 3, true},
		{"single-tick days", 1, 3, 2, 2, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClock(tt.ticksPerDay)
			for i := 0; i < tt.advances; i++ {
				c.Advance()
			}
			if c.CurrentTick() != tt.wantTick {
				t.Errorf("CurrentTick = %d, want %d", c.CurrentTick(), tt.wantTick)
			}
			if c.CurrentDay() != tt.wantDay {
				t.Errorf("CurrentDay = %d, want %d", c.CurrentDay(), tt.wantDay)
			}
			if c.TickOfDay() != tt.wantTOD {
				t.Errorf("TickOfDay = %d, want %d", c.TickOfDay(), tt.wantTOD)
			}
			if c.IsEndOfDay() != tt.wantEOD {
				t.Errorf("IsEndOfDay = %v, want %v", c.IsEndOfDay(), tt.wantEOD)
			}
		})
	}
}

func TestClock_DayOf(t *testing.T) {
	c := NewClock(10)
	if d := c.DayOf(25); d != 2 {
		t.Errorf("DayOf(25) = %d, want 2", d)
	}
	if d := c.DayOf(-1); d != 0 {
		t.Errorf("DayOf(-1) = %d, want 0", d)
	}
}
