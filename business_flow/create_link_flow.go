package businessflow

import (
	"context"
	"strings"

	"github.com/gigshare/sharelinks/app/dto"
	"github.com/gigshare/sharelinks/models"
	"github.com/gigshare/sharelinks/repository"
)

// CreateLinkFlow handles short link creation for sellers
// Creation is idempotent on (seller, original URL): re-submission returns the
// existing link and its short code instead of creating a duplicate
type CreateLinkFlow interface {
	CreateLink(ctx context.Context, req *dto.CreateLinkRequest) (*dto.CreateLinkResponse, bool, error)
}

type CreateLinkFlowImpl struct {
	linkRepo     repository.LinkRepository
	codeGen      ShortCodeGenerator
	publicDomain string
}

func NewCreateLinkFlow(linkRepo repository.LinkRepository, codeGen ShortCodeGenerator, publicDomain string) CreateLinkFlow {
	return &CreateLinkFlowImpl{linkRepo: linkRepo, codeGen: codeGen, publicDomain: publicDomain}
}

// CreateLink returns the link DTO and whether a new row was created.
func (f *CreateLinkFlowImpl) CreateLink(ctx context.Context, req *dto.CreateLinkRequest) (*dto.CreateLinkResponse, bool, error) {
	if req == nil {
		return nil, false, NewBusinessError("VALIDATION_ERROR", "Request body is required", nil)
	}
	sellerID := strings.TrimSpace(req.SellerID)
	originalURL := strings.TrimSpace(req.OriginalURL)
	if sellerID == "" || originalURL == "" {
		return nil, false, NewBusinessError("VALIDATION_ERROR", "seller_id and original_url are required", nil)
	}

	existing, err := f.linkRepo.BySellerAndURL(ctx, sellerID, originalURL)
	if err != nil {
		return nil, false, NewBusinessError("LINK_LOOKUP_FAILED", "Failed to look up existing link", err)
	}
	if existing != nil {
		return &dto.CreateLinkResponse{
			Message: "Link already exists (reusing existing short code)",
			Link:    ToLinkDTO(existing, f.publicDomain),
		}, false, nil
	}

	code, err := f.codeGen.Generate(ctx)
	if err != nil {
		return nil, false, err
	}

	row := &models.Link{
		SellerID:    sellerID,
		OriginalURL: originalURL,
		ShortCode:   code,
	}
	if err := f.linkRepo.Save(ctx, row); err != nil {
		// The unique constraints on (seller_id, original_url) and short_code
		// backstop races between concurrent submissions.
		return nil, false, NewBusinessError("CREATE_LINK_FAILED", "Failed to create short link", err)
	}

	return &dto.CreateLinkResponse{
		Message: "Short link created successfully",
		Link:    ToLinkDTO(row, f.publicDomain),
	}, true, nil
}
