// Package businessflow contains the business logic for the application.
package businessflow

import (
	"fmt"
	"time"

	"github.com/gigshare/sharelinks/app/dto"
	"github.com/gigshare/sharelinks/models"
	"github.com/gigshare/sharelinks/utils"
)

// ClientMetadata holds click-time client information captured by the redirect path
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToLinkDTO converts a link model to its API representation. The short URL is
// rendered from the configured public domain; credits are formatted from the
// exact cent total only here at the presentation boundary.
func ToLinkDTO(link *models.Link, publicDomain string) dto.LinkDTO {
	return dto.LinkDTO{
		ID:            link.ID,
		SellerID:      link.SellerID,
		OriginalURL:   link.OriginalURL,
		ShortCode:     link.ShortCode,
		ShortURL:      fmt.Sprintf("%s/s/%s", publicDomain, link.ShortCode),
		ClickCount:    link.ClickCount,
		CreditsEarned: utils.FormatCents(link.CreditsEarnedCents),
		CreatedAt:     link.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     link.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
