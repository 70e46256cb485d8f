package domain

import (
	"context"

	"github.com/dukerupert/healthybuddy/internal/model"
)

type NewReward struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=1000"`
}

// AddReward creates a reward owned by the calling parent.
func (s *Store) AddReward(ctx context.Context, in NewReward) (*model.Reward, error) {
	ac, err := parent(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.check(in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	r := &model.Reward{
		ID:          s.rewardIDs.NewID(),
		FamilyID:    ac.FamilyID,
		Title:       in.Title,
		Description: in.Description,
		CreatedBy:   ac.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	s.rewards = append(s.rewards, r)
	out := *r
	s.mu.Unlock()

	s.broadcast(ac.FamilyID, "reward", "created", out.ID, nil)
	return &out, nil
}

// UpdateReward replaces a reward's title and description. An unknown id
// returns (nil, nil).
func (s *Store) UpdateReward(ctx context.Context, id string, in NewReward) (*model.Reward, error) {
	ac, err := parent(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.check(in); err != nil {
		return nil, err
	}

	s.mu.Lock()
	i := s.rewardIndex(ac.FamilyID, id)
	if i < 0 {
		s.mu.Unlock()
		return nil, nil
	}
	r := s.rewards[i]
	r.Title = in.Title
	r.Description = in.Description
	r.UpdatedAt = s.now().UTC()
	out := *r
	s.mu.Unlock()

	s.broadcast(ac.FamilyID, "reward", "updated", id, nil)
	return &out, nil
}

// DeleteReward removes a reward and reports whether it existed. Tasks
// that reference it keep their rewardId.
func (s *Store) DeleteReward(ctx context.Context, id string) (bool, error) {
	ac, err := parent(ctx)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	i := s.rewardIndex(ac.FamilyID, id)
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}
	s.rewards = append(s.rewards[:i], s.rewards[i+1:]...)
	s.mu.Unlock()

	s.broadcast(ac.FamilyID, "reward", "deleted", id, nil)
	return true, nil
}

// Reward returns one reward of the caller's family, or nil.
func (s *Store) Reward(ctx context.Context, id string) (*model.Reward, error) {
	ac, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.rewardIndex(ac.FamilyID, id)
	if i < 0 {
		return nil, nil
	}
	out := *s.rewards[i]
	return &out, nil
}

func (s *Store) Rewards(ctx context.Context) ([]model.Reward, error) {
	ac, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Reward{}
	for _, r := range s.rewards {
		if r.FamilyID == ac.FamilyID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *Store) rewardIndex(familyID, id string) int {
	for i, r := range s.rewards {
		if r.ID == id && r.FamilyID == familyID {
			return i
		}
	}
	return -1
}
