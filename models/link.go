package models

import "time"

// Link represents a seller's shortened gig URL together with its running
// click and credit totals
// ShortCode is the globally unique token the redirect endpoint resolves
// The (SellerID, OriginalURL) pair is unique so repeated submissions reuse
// the existing row
// CreditsEarnedCents is the accumulated reward total in cents; both counters
// are only ever moved forward by single-statement atomic updates
type Link struct {
	ID                 uint   `gorm:"primaryKey" json:"id"`
	SellerID           string `gorm:"size:255;not null;uniqueIndex:uk_links_seller_url,priority:1;index:idx_links_seller_id" json:"seller_id"`
	OriginalURL        string `gorm:"type:text;not null;uniqueIndex:uk_links_seller_url,priority:2" json:"original_url"`
	ShortCode          string `gorm:"size:10;not null;uniqueIndex:uk_links_short_code" json:"short_code"`
	ClickCount         int64  `gorm:"not null;default:0" json:"click_count"`
	CreditsEarnedCents int64  `gorm:"not null;default:0" json:"credits_earned_cents"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_links_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

// TableName returns the table name for Link
func (Link) TableName() string { return "links" }

// LinkFilter provides filter fields for repository queries
type LinkFilter struct {
	ID            *uint
	SellerID      *string
	OriginalURL   *string
	ShortCode     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
