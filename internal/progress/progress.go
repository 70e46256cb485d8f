// Package progress derives a child's progress from task completion
// timestamps.
package progress

import (
	"log/slog"
	"time"

	"github.com/dukerupert/healthybuddy/internal/model"
)

const (
	DailyTarget  = 1
	WeeklyTarget = 7
	week         = 7 * 24 * time.Hour
)

type Entry struct {
	TaskID     string           `json:"taskId"`
	Title      string           `json:"title"`
	Recurrence model.Recurrence `json:"recurrence"`
	Completed  int              `json:"completed"`
	Target     int              `json:"target"`
	Met        bool             `json:"met"`
}

// Daily counts, for every daily task, completions on now's calendar day.
func Daily(tasks []model.Task, now time.Time) []Entry {
	today := startOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)

	var out []Entry
	for _, t := range tasks {
		if t.Recurrence != model.RecurrenceDaily || t.Status == model.TaskArchived {
			continue
		}
		n := countBetween(t.CompletedDates, today, tomorrow)
		out = append(out, entry(t, n, DailyTarget))
	}
	return out
}

// Weekly counts, for every weekly task, completions in the seven days
// before now. Completions stamped after now still count.
func Weekly(tasks []model.Task, now time.Time) []Entry {
	since := now.Add(-week)

	var out []Entry
	for _, t := range tasks {
		if t.Recurrence != model.RecurrenceWeekly || t.Status == model.TaskArchived {
			continue
		}
		n := 0
		for _, d := range t.CompletedDates {
			if d.After(since) {
				n++
			}
		}
		out = append(out, entry(t, n, WeeklyTarget))
	}
	return out
}

type Summary struct {
	Daily          []Entry      `json:"daily"`
	Weekly         []Entry      `json:"weekly"`
	AwaitingReview int          `json:"awaitingReview"`
	Approved       int          `json:"approved"`
	Completed      []model.Task `json:"completed"`
	// Statuses holds ComputeStatus for every non-archived task by id.
	Statuses map[string]Status `json:"statuses"`
}

// Summarize builds the progress view for a set of tasks.
func Summarize(tasks []model.Task, now time.Time) Summary {
	s := Summary{
		Daily:     Daily(tasks, now),
		Weekly:    Weekly(tasks, now),
		Completed: []model.Task{},
		Statuses:  make(map[string]Status, len(tasks)),
	}
	if s.Daily == nil {
		s.Daily = []Entry{}
	}
	if s.Weekly == nil {
		s.Weekly = []Entry{}
	}
	for _, t := range tasks {
		switch t.Status {
		case model.TaskSubmitted:
			s.AwaitingReview++
		case model.TaskApproved:
			s.Approved++
		}
		if t.Completed {
			s.Completed = append(s.Completed, t)
		}
		if t.Status != model.TaskArchived {
			s.Statuses[t.ID] = ComputeStatus(t, now)
		}
	}
	return s
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusOverdue   Status = "overdue"
)

// DueDateLayout is the layout of Task.DueDate.
const DueDateLayout = "2006-01-02"

// ComputeStatus reports whether the task has been done for its current
// period. Daily tasks reset at midnight, weekly tasks after seven days,
// one-off tasks never. A task past its due date that is not done is
// overdue.
func ComputeStatus(task model.Task, now time.Time) Status {
	last := task.LastCompletion()
	today := startOfDay(now)

	done := false
	if last != nil {
		switch task.Recurrence {
		case model.RecurrenceDaily:
			done = !startOfDay(*last).Before(today)
		case model.RecurrenceWeekly:
			done = last.After(now.Add(-week))
		default:
			done = true
		}
	}
	if task.Status == model.TaskDeclined {
		done = false
	}
	if done {
		return StatusCompleted
	}

	if task.DueDate != "" {
		due, err := time.ParseInLocation(DueDateLayout, task.DueDate, now.Location())
		if err != nil {
			slog.Warn("invalid due date", "task_id", task.ID, "due_date", task.DueDate, "error", err)
			return StatusPending
		}
		if due.Before(today) {
			return StatusOverdue
		}
	}
	return StatusPending
}

func entry(t model.Task, completed, target int) Entry {
	return Entry{
		TaskID:     t.ID,
		Title:      t.Title,
		Recurrence: t.Recurrence,
		Completed:  completed,
		Target:     target,
		Met:        completed >= target,
	}
}

func countBetween(dates []time.Time, start, end time.Time) int {
	n := 0
	for _, d := range dates {
		d = d.In(start.Location())
		if !d.Before(start) && d.Before(end) {
			n++
		}
	}
	return n
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
