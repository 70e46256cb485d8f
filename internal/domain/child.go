package domain

import (
	"context"

	"github.com/dukerupert/healthybuddy/internal/model"
)

type NewChild struct {
	Name            string                `json:"name" validate:"required,max=100"`
	Age             int                   `json:"age" validate:"gte=0,lte=21"`
	ScreenTimeBlock model.ScreenTimeBlock `json:"screenTimeBlock"`
}

// AddChild creates a child profile whose parentId is the calling parent.
func (s *Store) AddChild(ctx context.Context, in NewChild) (*model.Child, error) {
	ac, err := parent(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.check(in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	c := &model.Child{
		ID:              s.childIDs.NewID(),
		FamilyID:        ac.FamilyID,
		Name:            in.Name,
		Age:             in.Age,
		ParentID:        ac.UserID,
		ScreenTimeBlock: in.ScreenTimeBlock,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	c.ScreenTimeBlock.Days = append([]int{}, in.ScreenTimeBlock.Days...)

	s.mu.Lock()
	s.children = append(s.children, c)
	out := c.Clone()
	s.mu.Unlock()

	s.broadcast(ac.FamilyID, "child", "created", out.ID, nil)
	return &out, nil
}

// UpdateChild replaces a profile's name, age and screen-time block. An
// unknown id returns (nil, nil).
func (s *Store) UpdateChild(ctx context.Context, id string, in NewChild) (*model.Child, error) {
	ac, err := parent(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.check(in); err != nil {
		return nil, err
	}

	s.mu.Lock()
	i := s.childIndex(ac.FamilyID, id)
	if i < 0 {
		s.mu.Unlock()
		return nil, nil
	}
	c := s.children[i]
	c.Name = in.Name
	c.Age = in.Age
	c.ScreenTimeBlock = in.ScreenTimeBlock
	c.ScreenTimeBlock.Days = append([]int{}, in.ScreenTimeBlock.Days...)
	c.UpdatedAt = s.now().UTC()
	out := c.Clone()
	s.mu.Unlock()

	s.broadcast(ac.FamilyID, "child", "updated", id, nil)
	return &out, nil
}

// DeleteChild removes a profile and reports whether it existed. Tasks
// assigned to it are left in place.
func (s *Store) DeleteChild(ctx context.Context, id string) (bool, error) {
	ac, err := parent(ctx)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	i := s.childIndex(ac.FamilyID, id)
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}
	s.children = append(s.children[:i], s.children[i+1:]...)
	s.mu.Unlock()

	s.broadcast(ac.FamilyID, "child", "deleted", id, nil)
	return true, nil
}

// Child returns one profile of the caller's family, or nil.
func (s *Store) Child(ctx context.Context, id string) (*model.Child, error) {
	ac, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.childIndex(ac.FamilyID, id)
	if i < 0 {
		return nil, nil
	}
	out := s.children[i].Clone()
	return &out, nil
}

func (s *Store) Children(ctx context.Context) ([]model.Child, error) {
	ac, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Child{}
	for _, c := range s.children {
		if c.FamilyID == ac.FamilyID {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

func (s *Store) childIndex(familyID, id string) int {
	for i, c := range s.children {
		if c.ID == id && c.FamilyID == familyID {
			return i
		}
	}
	return -1
}
