package businessflow

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gigshare/sharelinks/app/dto"
	"github.com/gigshare/sharelinks/models"
	"github.com/gigshare/sharelinks/repository"
	"github.com/gigshare/sharelinks/utils"
	"github.com/xuri/excelize/v2"
)

// LinkReportFlow exposes the per-link analytics state: every link with its
// short URL, click count, and credits earned, paginated and optionally
// scoped to a single seller. ExportXLSX produces the same listing as a
// spreadsheet for offline review
type LinkReportFlow interface {
	List(ctx context.Context, sellerID string, page, limit int) (*dto.LinkListResponse, error)
	ExportXLSX(ctx context.Context, sellerID string) (string, []byte, error)
}

type LinkReportFlowImpl struct {
	linkRepo     repository.LinkRepository
	publicDomain string
}

func NewLinkReportFlow(linkRepo repository.LinkRepository, publicDomain string) LinkReportFlow {
	return &LinkReportFlowImpl{linkRepo: linkRepo, publicDomain: publicDomain}
}

func (f *LinkReportFlowImpl) List(ctx context.Context, sellerID string, page, limit int) (*dto.LinkListResponse, error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}
	if limit < 1 || limit > utils.MaxPageSize {
		return nil, ErrInvalidPageSize
	}

	filter := models.LinkFilter{}
	if sellerID != "" {
		filter.SellerID = utils.ToPtr(sellerID)
	}

	total, err := f.linkRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("LINK_LIST_FAILED", "Failed to count links", err)
	}

	offset := (page - 1) * limit
	links, err := f.linkRepo.ByFilter(ctx, filter, "created_at DESC, id DESC", limit, offset)
	if err != nil {
		return nil, NewBusinessError("LINK_LIST_FAILED", "Failed to list links", err)
	}

	data := make([]dto.LinkDTO, 0, len(links))
	for _, link := range links {
		data = append(data, ToLinkDTO(link, f.publicDomain))
	}

	pages := (total + int64(limit) - 1) / int64(limit)
	return &dto.LinkListResponse{
		Data: data,
		Pagination: dto.PaginationDTO{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: pages,
		},
	}, nil
}

// ExportXLSX renders the full listing (no pagination) to a workbook with one
// row per link.
func (f *LinkReportFlowImpl) ExportXLSX(ctx context.Context, sellerID string) (string, []byte, error) {
	filter := models.LinkFilter{}
	if sellerID != "" {
		filter.SellerID = utils.ToPtr(sellerID)
	}

	links, err := f.linkRepo.ByFilter(ctx, filter, "seller_id ASC, id ASC", 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("LINK_EXPORT_FAILED", "Failed to fetch links for export", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := xl.GetSheetName(0)
	header := []string{"id", "seller_id", "original_url", "short_code", "short_url", "click_count", "credits_earned", "created_at", "updated_at"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for ri, link := range links {
		record := []string{
			strconv.FormatUint(uint64(link.ID), 10),
			link.SellerID,
			link.OriginalURL,
			link.ShortCode,
			fmt.Sprintf("%s/s/%s", f.publicDomain, link.ShortCode),
			strconv.FormatInt(link.ClickCount, 10),
			utils.FormatCents(link.CreditsEarnedCents),
			link.CreatedAt.UTC().Format(time.RFC3339),
			link.UpdatedAt.UTC().Format(time.RFC3339),
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	filename := fmt.Sprintf("links_state_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	return filename, buf.Bytes(), nil
}
