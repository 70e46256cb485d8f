package model

import "time"

// ScreenTimeBlock is a daily window during which the child's screen time
// is blocked. Start and End are "HH:MM"; Days are weekdays with 0 = Sunday.
type ScreenTimeBlock struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  []int  `json:"days"`
}

type Child struct {
	ID              string          `json:"id"`
	FamilyID        string          `json:"familyId"`
	Name            string          `json:"name"`
	Age             int             `json:"age"`
	ParentID        string          `json:"parentId"`
	ScreenTimeBlock ScreenTimeBlock `json:"screenTimeBlock"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Clone returns a deep copy so callers never share the days slice.
func (c Child) Clone() Child {
	c.ScreenTimeBlock.Days = append([]int{}, c.ScreenTimeBlock.Days...)
	return c
}
