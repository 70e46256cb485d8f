package model

import "time"

type ProofKind string

const (
	ProofNone  ProofKind = "none"
	ProofPhoto ProofKind = "photo"
	ProofVideo ProofKind = "video"
)

func (p ProofKind) Valid() bool {
	switch p {
	case ProofNone, ProofPhoto, ProofVideo:
		return true
	}
	return false
}

type Recurrence string

const (
	RecurrenceNone   Recurrence = "none"
	RecurrenceDaily  Recurrence = "daily"
	RecurrenceWeekly Recurrence = "weekly"
)

func (r Recurrence) Valid() bool {
	switch r {
	case "", RecurrenceNone, RecurrenceDaily, RecurrenceWeekly:
		return true
	}
	return false
}

// Recurs reports whether the task resets on a daily or weekly cadence.
func (r Recurrence) Recurs() bool {
	return r == RecurrenceDaily || r == RecurrenceWeekly
}

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskSubmitted TaskStatus = "submitted"
	TaskApproved  TaskStatus = "approved"
	TaskDeclined  TaskStatus = "declined"
	TaskArchived  TaskStatus = "archived"
)

// Completed reports whether a task in this status counts as done.
func (s TaskStatus) Completed() bool {
	return s == TaskSubmitted || s == TaskApproved
}

type Task struct {
	ID             string      `json:"id"`
	FamilyID       string      `json:"familyId"`
	Title          string      `json:"title"`
	AssignedTo     string      `json:"assignedTo"`
	RewardID       string      `json:"rewardId"`
	Completed      bool        `json:"completed"`
	Status         TaskStatus  `json:"status"`
	ProofRequired  ProofKind   `json:"proofRequired"`
	Recurrence     Recurrence  `json:"recurrence,omitempty"`
	DueDate        string      `json:"dueDate,omitempty"`
	CompletedDates []time.Time `json:"completedDates"`
	LastProof      string      `json:"lastProof,omitempty"`
	CreatedBy      string      `json:"createdBy"`
	Version        int         `json:"version"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// Clone returns a deep copy so callers never share the completion slice.
func (t Task) Clone() Task {
	t.CompletedDates = append([]time.Time{}, t.CompletedDates...)
	return t
}

// LastCompletion returns the most recent completion timestamp, if any.
func (t Task) LastCompletion() *time.Time {
	if len(t.CompletedDates) == 0 {
		return nil
	}
	last := t.CompletedDates[len(t.CompletedDates)-1]
	return &last
}
