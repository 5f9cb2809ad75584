package dto

// CreateLinkRequest defines input for creating a short link
type CreateLinkRequest struct {
	SellerID    string `json:"seller_id" validate:"required,min=1,max=255"`
	OriginalURL string `json:"original_url" validate:"required,url,max=2048"`
}

// LinkDTO is the API representation of a link with its current counters
// CreditsEarned is a decimal string rendered from the exact cent total
type LinkDTO struct {
	ID            uint   `json:"id"`
	SellerID      string `json:"seller_id"`
	OriginalURL   string `json:"original_url"`
	ShortCode     string `json:"short_code"`
	ShortURL      string `json:"short_url"`
	ClickCount    int64  `json:"click_count"`
	CreditsEarned string `json:"credits_earned"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// CreateLinkResponse wraps the created (or reused) link
type CreateLinkResponse struct {
	Message string  `json:"message"`
	Link    LinkDTO `json:"link"`
}

// PaginationDTO describes one page of a listing
type PaginationDTO struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// LinkListResponse is the paginated analytics listing of links
type LinkListResponse struct {
	Data       []LinkDTO     `json:"data"`
	Pagination PaginationDTO `json:"pagination"`
}
