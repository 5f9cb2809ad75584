package models

import "time"

// Reward status values shared by Click.RewardStatus and Reward.Status
const (
	RewardStatusPending   = "pending"
	RewardStatusCompleted = "completed"
	RewardStatusFailed    = "failed"
)

// Click represents a single redirect event on a link
// IPAddress and UserAgent capture click-time context
// RewardStatus is the only mutable field: it starts as pending and is written
// once by the reward worker when the job reaches a terminal state
type Click struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	LinkID       uint      `gorm:"not null;index:idx_clicks_link_id" json:"link_id"`
	ClickedAt    time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_clicks_clicked_at" json:"clicked_at"`
	IPAddress    *string   `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent    *string   `gorm:"type:text" json:"user_agent,omitempty"`
	RewardStatus string    `gorm:"size:20;not null;default:pending;index:idx_clicks_reward_status" json:"reward_status"`
}

// TableName returns the table name for Click
func (Click) TableName() string { return "clicks" }

// ClickFilter provides filter fields for repository queries
type ClickFilter struct {
	ID            *uint
	LinkID        *uint
	RewardStatus  *string
	ClickedAfter  *time.Time
	ClickedBefore *time.Time
}
