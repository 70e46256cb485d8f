// Package screentime evaluates a child's screen-time block against the
// wall clock.
package screentime

import (
	"fmt"
	"slices"
	"time"

	"github.com/dukerupert/healthybuddy/internal/model"
)

// Clock is a time of day parsed from "HH:MM".
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses a 24-hour "HH:MM" string. Both fields need two digits.
func ParseClock(s string) (Clock, error) {
	if len(s) != 5 || s[2] != ':' {
		return Clock{}, fmt.Errorf("parse clock %q: want HH:MM", s)
	}
	h, okH := twoDigits(s[0:2])
	m, okM := twoDigits(s[3:5])
	if !okH || !okM || h > 23 || m > 59 {
		return Clock{}, fmt.Errorf("parse clock %q: out of range", s)
	}
	return Clock{Hour: h, Minute: m}, nil
}

func twoDigits(s string) (int, bool) {
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// On returns the instant of c on the calendar day of t, in t's location.
func (c Clock) On(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), c.Hour, c.Minute, 0, 0, t.Location())
}

// Status is the evaluation of a block at one instant.
type Status struct {
	Blocked bool       `json:"blocked"`
	Until   *time.Time `json:"until,omitempty"`
}

// Evaluate reports whether now falls inside the block. The window is
// [Start, End) on each listed day; when Start is after End it runs past
// midnight into the next day. Start equal to End never blocks, nor does
// an unset block.
func Evaluate(block model.ScreenTimeBlock, now time.Time) (Status, error) {
	if block.Start == "" && block.End == "" {
		return Status{}, nil
	}
	start, err := ParseClock(block.Start)
	if err != nil {
		return Status{}, err
	}
	end, err := ParseClock(block.End)
	if err != nil {
		return Status{}, err
	}
	if start == end {
		return Status{}, nil
	}

	minute := now.Hour()*60 + now.Minute()
	today := int(now.Weekday())
	yesterday := (today + 6) % 7

	if start.Minutes() < end.Minutes() {
		if slices.Contains(block.Days, today) && minute >= start.Minutes() && minute < end.Minutes() {
			until := end.On(now)
			return Status{Blocked: true, Until: &until}, nil
		}
		return Status{}, nil
	}

	// Overnight window.
	if slices.Contains(block.Days, today) && minute >= start.Minutes() {
		until := end.On(now.AddDate(0, 0, 1))
		return Status{Blocked: true, Until: &until}, nil
	}
	if slices.Contains(block.Days, yesterday) && minute < end.Minutes() {
		until := end.On(now)
		return Status{Blocked: true, Until: &until}, nil
	}
	return Status{}, nil
}
