package models

import "time"

// Reward records the outcome of one crediting attempt
// Rows are append-only: a reward is written exactly once per processed job,
// for failed outcomes as well as completed ones, and never mutated afterwards
// ClickID is nullable so a reward can be recorded without a traceable click
// TransactionID is the identifier returned by the external crediting service
type Reward struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	SellerID      string  `gorm:"size:255;not null;index:idx_rewards_seller_id" json:"seller_id"`
	LinkID        uint    `gorm:"not null;index:idx_rewards_link_id" json:"link_id"`
	ClickID       *uint   `gorm:"index:idx_rewards_click_id" json:"click_id,omitempty"`
	AmountCents   int64   `gorm:"not null" json:"amount_cents"`
	Status        string  `gorm:"size:20;not null;default:pending;index:idx_rewards_status" json:"status"`
	TransactionID *string `gorm:"size:255" json:"transaction_id,omitempty"`

	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TableName returns the table name for Reward
func (Reward) TableName() string { return "rewards" }

// RewardFilter provides filter fields for repository queries
type RewardFilter struct {
	ID            *uint
	SellerID      *string
	LinkID        *uint
	ClickID       *uint
	Status        *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
