package screentime

import (
	"testing"
	"time"

	"github.com/dukerupert/healthybuddy/internal/model"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{"07:00", Clock{7, 0}, false},
		{"00:00", Clock{0, 0}, false},
		{"23:59", Clock{23, 59}, false},
		{"24:00", Clock{}, true},
		{"12:60", Clock{}, true},
		{"7:00", Clock{}, true},
		{"07-00", Clock{}, true},
		{"ab:cd", Clock{}, true},
		{"", Clock{}, true},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseClock(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestClockString(t *testing.T) {
	if s := (Clock{7, 5}).String(); s != "07:05" {
		t.Errorf("String = %q, want 07:05", s)
	}
}

// 2026-02-02 is a Monday.
func at(day, hour, min int) time.Time {
	return time.Date(2026, 2, day, hour, min, 0, 0, time.UTC)
}

var schoolHours = model.ScreenTimeBlock{Start: "07:00", End: "15:00", Days: []int{1, 2, 3, 4, 5}}

func TestEvaluateDaytimeWindow(t *testing.T) {
	tests := []struct {
		name  string
		now   time.Time
		want  bool
		until time.Time
	}{
		{"monday before start", at(2, 6, 59), false, time.Time{}},
		{"monday at start", at(2, 7, 0), true, at(2, 15, 0)},
		{"monday midday", at(2, 12, 30), true, at(2, 15, 0)},
		{"monday at end", at(2, 15, 0), false, time.Time{}},
		{"friday midday", at(6, 12, 0), true, at(6, 15, 0)},
		{"saturday midday", at(7, 12, 0), false, time.Time{}},
		{"sunday midday", at(8, 12, 0), false, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := Evaluate(schoolHours, tt.now)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if st.Blocked != tt.want {
				t.Fatalf("blocked = %v, want %v", st.Blocked, tt.want)
			}
			if tt.want && !st.Until.Equal(tt.until) {
				t.Errorf("until = %v, want %v", st.Until, tt.until)
			}
			if !tt.want && st.Until != nil {
				t.Errorf("until = %v, want nil", st.Until)
			}
		})
	}
}

func TestEvaluateOvernightWindow(t *testing.T) {
	bedtime := model.ScreenTimeBlock{Start: "21:00", End: "07:00", Days: []int{0, 1, 2, 3, 4}}

	tests := []struct {
		name  string
		now   time.Time
		want  bool
		until time.Time
	}{
		{"monday evening", at(2, 22, 0), true, at(3, 7, 0)},
		{"tuesday early morning", at(3, 6, 30), true, at(3, 7, 0)},
		{"tuesday after end", at(3, 7, 0), false, time.Time{}},
		{"friday evening not listed", at(6, 22, 0), false, time.Time{}},
		{"saturday morning after friday", at(7, 6, 0), false, time.Time{}},
		{"friday morning after thursday", at(6, 6, 0), true, at(6, 7, 0)},
		{"monday morning after sunday", at(2, 5, 0), true, at(2, 7, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := Evaluate(bedtime, tt.now)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if st.Blocked != tt.want {
				t.Fatalf("blocked = %v, want %v", st.Blocked, tt.want)
			}
			if tt.want && !st.Until.Equal(tt.until) {
				t.Errorf("until = %v, want %v", st.Until, tt.until)
			}
		})
	}
}

func TestEvaluateEmptyWindow(t *testing.T) {
	block := model.ScreenTimeBlock{Start: "09:00", End: "09:00", Days: []int{0, 1, 2, 3, 4, 5, 6}}
	st, err := Evaluate(block, at(2, 9, 0))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if st.Blocked {
		t.Error("equal start and end should never block")
	}
}

func TestEvaluateUnsetBlock(t *testing.T) {
	st, err := Evaluate(model.ScreenTimeBlock{}, at(2, 12, 0))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if st.Blocked {
		t.Error("unset block should not block")
	}
}

func TestEvaluateMalformed(t *testing.T) {
	block := model.ScreenTimeBlock{Start: "9am", End: "15:00", Days: []int{1}}
	st, err := Evaluate(block, at(2, 10, 0))
	if err == nil {
		t.Error("expected error for malformed start")
	}
	if st.Blocked {
		t.Error("malformed block should not block")
	}
}
