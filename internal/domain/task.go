package domain

import (
	"context"
	"time"

	"github.com/dukerupert/healthybuddy/internal/model"
)

// NewTask holds the caller-supplied fields of a task.
type NewTask struct {
	Title         string           `json:"title" validate:"required,max=200"`
	AssignedTo    string           `json:"assignedTo" validate:"required"`
	RewardID      string           `json:"rewardId"`
	ProofRequired model.ProofKind  `json:"proofRequired" validate:"omitempty,enum"`
	Recurrence    model.Recurrence `json:"recurrence" validate:"omitempty,enum"`
	DueDate       string           `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
}

// AddTask creates a pending task. assignedTo and rewardId are stored as
// given; they are not checked against the child and reward collections.
func (s *Store) AddTask(ctx context.Context, in NewTask) (*model.Task, error) {
	ac, err := parent(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.check(in); err != nil {
		return nil, err
	}
	if in.ProofRequired == "" {
		in.ProofRequired = model.ProofNone
	}
	if in.Recurrence == "" {
		in.Recurrence = model.RecurrenceNone
	}

	now := s.now().UTC()
	t := &model.Task{
		ID:             s.taskIDs.NewID(),
		FamilyID:       ac.FamilyID,
		Title:          in.Title,
		AssignedTo:     in.AssignedTo,
		RewardID:       in.RewardID,
		ProofRequired:  in.ProofRequired,
		Recurrence:     in.Recurrence,
		DueDate:        in.DueDate,
		CompletedDates: []time.Time{},
		CreatedBy:      ac.UserID,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	setStatus(t, model.TaskPending)

	s.mu.Lock()
	s.tasks = append(s.tasks, t)
	out := t.Clone()
	s.mu.Unlock()

	s.broadcast(ac.FamilyID, "task", "created", out.ID, nil)
	s.logger.Debug("task created", "task_id", out.ID, "family_id", ac.FamilyID)
	return &out, nil
}

// CompleteTask records a completion: the task becomes submitted and the
// current time is appended to completedDates. proof is kept as the
// task's latest proof reference. An unknown id returns (nil, nil).
func (s *Store) CompleteTask(ctx context.Context, id, proof string, opts ...MutateOption) (*model.Task, error) {
	ac, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	return s.mutateTask(ac.FamilyID, id, "completed", opts, func(t *model.Task) error {
		switch {
		case t.Status == model.TaskPending, t.Status == model.TaskDeclined:
		case t.Status == model.TaskApproved && t.Recurrence.Recurs():
		default:
			return ErrInvalidTransition
		}
		t.CompletedDates = append(t.CompletedDates, s.now().UTC())
		t.LastProof = proof
		setStatus(t, model.TaskSubmitted)
		return nil
	})
}

// DeclineTask rejects a completion. Under DeclineRevert the completion
// timestamp is removed as well. An unknown id returns (nil, nil).
func (s *Store) DeclineTask(ctx context.Context, id string, opts ...MutateOption) (*model.Task, error) {
	ac, err := parent(ctx)
	if err != nil {
		return nil, err
	}
	return s.mutateTask(ac.FamilyID, id, "declined", opts, func(t *model.Task) error {
		if t.Status != model.TaskSubmitted && t.Status != model.TaskApproved {
			return ErrInvalidTransition
		}
		if s.policy == DeclineRevert && len(t.CompletedDates) > 0 {
			t.CompletedDates = t.CompletedDates[:len(t.CompletedDates)-1]
		}
		setStatus(t, model.TaskDeclined)
		return nil
	})
}

// ApproveTask accepts a submitted completion. An unknown id returns (nil, nil).
func (s *Store) ApproveTask(ctx context.Context, id string, opts ...MutateOption) (*model.Task, error) {
	ac, err := parent(ctx)
	if err != nil {
		return nil, err
	}
	t, err := s.mutateTask(ac.FamilyID, id, "approved", opts, func(t *model.Task) error {
		if t.Status != model.TaskSubmitted {
			return ErrInvalidTransition
		}
		setStatus(t, model.TaskApproved)
		return nil
	})
	if t != nil {
		s.logger.Info("task approved", "task_id", id, "approved_by", ac.UserID)
	}
	return t, err
}

// ArchiveTask retires a task that is not awaiting review. An unknown id
// returns (nil, nil).
func (s *Store) ArchiveTask(ctx context.Context, id string, opts ...MutateOption) (*model.Task, error) {
	ac, err := parent(ctx)
	if err != nil {
		return nil, err
	}
	return s.mutateTask(ac.FamilyID, id, "archived", opts, func(t *model.Task) error {
		switch t.Status {
		case model.TaskPending, model.TaskApproved, model.TaskDeclined:
		default:
			return ErrInvalidTransition
		}
		setStatus(t, model.TaskArchived)
		return nil
	})
}

// mutateTask applies fn to the family's task under the write lock,
// bumps the version and broadcasts the change.
func (s *Store) mutateTask(familyID, id, action string, opts []MutateOption, fn func(*model.Task) error) (*model.Task, error) {
	var o mutateOptions
	for _, opt := range opts {
		opt(&o)
	}

	s.mu.Lock()
	t := s.findTask(familyID, id)
	if t == nil {
		s.mu.Unlock()
		return nil, nil
	}
	if o.version != nil && *o.version != t.Version {
		s.mu.Unlock()
		return nil, ErrVersionConflict
	}
	if err := fn(t); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	t.Version++
	t.UpdatedAt = s.now().UTC()
	out := t.Clone()
	s.mu.Unlock()

	s.broadcast(familyID, "task", action, out.ID, map[string]any{
		"status":  string(out.Status),
		"version": out.Version,
	})
	s.logger.Debug("task "+action, "task_id", out.ID, "version", out.Version)
	return &out, nil
}

func (s *Store) findTask(familyID, id string) *model.Task {
	for _, t := range s.tasks {
		if t.ID == id && t.FamilyID == familyID {
			return t
		}
	}
	return nil
}

func setStatus(t *model.Task, st model.TaskStatus) {
	t.Status = st
	t.Completed = st.Completed()
}

// Task returns one task of the caller's family, or nil.
func (s *Store) Task(ctx context.Context, id string) (*model.Task, error) {
	ac, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := s.findTask(ac.FamilyID, id)
	if t == nil {
		return nil, nil
	}
	out := t.Clone()
	return &out, nil
}

// Tasks returns every task of the caller's family in creation order.
func (s *Store) Tasks(ctx context.Context) ([]model.Task, error) {
	return s.filterTasks(ctx, func(*model.Task) bool { return true })
}

// PendingReview returns the submitted tasks waiting for a parent.
func (s *Store) PendingReview(ctx context.Context) ([]model.Task, error) {
	return s.filterTasks(ctx, func(t *model.Task) bool { return t.Status == model.TaskSubmitted })
}

// OpenTasks returns the tasks that still need doing.
func (s *Store) OpenTasks(ctx context.Context) ([]model.Task, error) {
	return s.filterTasks(ctx, func(t *model.Task) bool {
		return t.Status == model.TaskPending || t.Status == model.TaskDeclined
	})
}

// TasksFor returns the non-archived tasks assigned to a child profile.
func (s *Store) TasksFor(ctx context.Context, childID string) ([]model.Task, error) {
	return s.filterTasks(ctx, func(t *model.Task) bool {
		return t.AssignedTo == childID && t.Status != model.TaskArchived
	})
}

func (s *Store) filterTasks(ctx context.Context, keep func(*model.Task) bool) ([]model.Task, error) {
	ac, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Task{}
	for _, t := range s.tasks {
		if t.FamilyID == ac.FamilyID && keep(t) {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}
