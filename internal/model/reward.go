package model

import "time"

type Reward struct {
	ID          string    `json:"id"`
	FamilyID    string    `json:"familyId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
