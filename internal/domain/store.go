// Package domain holds a family's tasks, rewards and child profiles, and
// the operations that create and transition them. Every operation reads
// the caller from auth.FromContext and only ever sees the caller's family.
package domain

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/healthybuddy/internal/auth"
	"github.com/dukerupert/healthybuddy/internal/ids"
	"github.com/dukerupert/healthybuddy/internal/model"
	"github.com/dukerupert/healthybuddy/internal/websocket"
)

// DeclinePolicy decides what declining does to the completion timestamp
// recorded by the completion being declined.
type DeclinePolicy string

const (
	// DeclineRevert removes the last completion timestamp.
	DeclineRevert DeclinePolicy = "revert"
	// DeclineKeep leaves completedDates untouched.
	DeclineKeep DeclinePolicy = "keep"
)

func ParseDeclinePolicy(s string) (DeclinePolicy, error) {
	switch DeclinePolicy(s) {
	case "", DeclineRevert:
		return DeclineRevert, nil
	case DeclineKeep:
		return DeclineKeep, nil
	}
	return "", fmt.Errorf("unknown decline policy %q", s)
}

type Broadcaster interface {
	Broadcast(msg websocket.Message)
}

type Config struct {
	DeclinePolicy DeclinePolicy
	// Id generators default to UUIDs, one per collection.
	TaskIDs   ids.Generator
	RewardIDs ids.Generator
	ChildIDs  ids.Generator
	// Now defaults to time.Now.
	Now func() time.Time
}

type Store struct {
	policy    DeclinePolicy
	taskIDs   ids.Generator
	rewardIDs ids.Generator
	childIDs  ids.Generator
	now       func() time.Time
	validate  *validator.Validate
	hub       Broadcaster
	logger    *slog.Logger

	mu       sync.RWMutex
	tasks    []*model.Task
	rewards  []*model.Reward
	children []*model.Child
}

// New builds an empty store. hub may be nil.
func New(cfg Config, hub Broadcaster, logger *slog.Logger) *Store {
	s := &Store{
		policy:    cfg.DeclinePolicy,
		taskIDs:   cfg.TaskIDs,
		rewardIDs: cfg.RewardIDs,
		childIDs:  cfg.ChildIDs,
		now:       cfg.Now,
		validate:  newValidator(),
		hub:       hub,
		logger:    logger,
	}
	if s.policy == "" {
		s.policy = DeclineRevert
	}
	if s.taskIDs == nil {
		s.taskIDs = ids.UUID{}
	}
	if s.rewardIDs == nil {
		s.rewardIDs = ids.UUID{}
	}
	if s.childIDs == nil {
		s.childIDs = ids.UUID{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// MutateOption adjusts a single task mutation.
type MutateOption func(*mutateOptions)

type mutateOptions struct {
	version *int
}

// IfVersion makes the mutation fail with ErrVersionConflict unless the
// task is still at version v.
func IfVersion(v int) MutateOption {
	return func(o *mutateOptions) {
		o.version = &v
	}
}

func caller(ctx context.Context) (auth.AuthContext, error) {
	ac, ok := auth.FromContext(ctx)
	if !ok || ac.FamilyID == "" || ac.UserID == "" {
		return auth.AuthContext{}, ErrUnauthenticated
	}
	return ac, nil
}

func parent(ctx context.Context) (auth.AuthContext, error) {
	ac, err := caller(ctx)
	if err != nil {
		return ac, err
	}
	if ac.Role != model.RoleParent {
		return ac, ErrForbidden
	}
	return ac, nil
}

func (s *Store) broadcast(familyID, entity, action, id string, extra map[string]any) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(websocket.NewMessage(familyID, entity, action, id, extra))
}
