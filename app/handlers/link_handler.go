package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/gigshare/sharelinks/app/dto"
	businessflow "github.com/gigshare/sharelinks/business_flow"
	"github.com/gigshare/sharelinks/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// LinkHandlerInterface defines the contract for link handlers
type LinkHandlerInterface interface {
	CreateLink(c fiber.Ctx) error
	Redirect(c fiber.Ctx) error
	State(c fiber.Ctx) error
	StateExport(c fiber.Ctx) error
}

// LinkHandler handles link creation, redirects, and the analytics state
type LinkHandler struct {
	createFlow businessflow.CreateLinkFlow
	visitFlow  businessflow.LinkVisitFlow
	reportFlow businessflow.LinkReportFlow
	validator  *validator.Validate
}

// NewLinkHandler creates a new link handler
func NewLinkHandler(
	createFlow businessflow.CreateLinkFlow,
	visitFlow businessflow.LinkVisitFlow,
	reportFlow businessflow.LinkReportFlow,
) *LinkHandler {
	return &LinkHandler{
		createFlow: createFlow,
		visitFlow:  visitFlow,
		reportFlow: reportFlow,
		validator:  validator.New(),
	}
}

func (h *LinkHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *LinkHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreateLink handles short link creation
// @Summary Create Short Link
// @Description Create a short link for a seller's gig URL; idempotent per (seller_id, original_url)
// @Tags Links
// @Accept json
// @Produce json
// @Param request body dto.CreateLinkRequest true "Link creation data"
// @Success 201 {object} dto.APIResponse{data=dto.CreateLinkResponse} "Link created"
// @Success 200 {object} dto.APIResponse{data=dto.CreateLinkResponse} "Existing link reused"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/link [post]
func (h *LinkHandler) CreateLink(c fiber.Ctx) error {
	var req dto.CreateLinkRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/link")
	defer cancel()

	result, created, err := h.createFlow.CreateLink(ctx, &req)
	if err != nil {
		if businessflow.IsShortCodeSpaceExhausted(err) {
			return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Could not allocate a short code", "SHORT_CODE_EXHAUSTED", nil)
		}
		log.Println("Create link failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create short link", "INTERNAL_ERROR", nil)
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return h.SuccessResponse(c, status, result.Message, result)
}

// Redirect resolves a short code, records the click, and redirects
// @Summary Visit Short Link
// @Description Redirect to the original URL; the click is recorded and the seller reward is queued
// @Tags Links
// @Produce json
// @Param code path string true "Short code"
// @Success 302 {string} string "Redirect"
// @Failure 400 {object} any
// @Failure 404 {object} any
// @Failure 500 {object} any
// @Router /s/{code} [get]
func (h *LinkHandler) Redirect(c fiber.Ctx) error {
	code := c.Params("code")
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	ctx, cancel := h.createRequestContext(c, "/s/"+code)
	defer cancel()

	target, err := h.visitFlow.Visit(ctx, code, metadata)
	if err != nil {
		if businessflow.IsInvalidShortCode(err) {
			return c.Status(fiber.StatusBadRequest).SendString("invalid short link")
		}
		if businessflow.IsLinkNotFound(err) {
			return c.Status(fiber.StatusNotFound).SendString("not found")
		}
		log.Println("Visit short link failed", err)
		return c.Status(fiber.StatusInternalServerError).SendString("internal error")
	}
	c.Redirect().Status(fiber.StatusFound).To(target)
	return nil
}

// State returns the paginated analytics listing of links
// @Summary Links State
// @Description List every link with its click count and credits earned
// @Tags Links
// @Produce json
// @Param seller_id query string false "Filter by seller"
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 10, max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.LinkListResponse} "Links state"
// @Failure 400 {object} dto.APIResponse "Invalid pagination"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/state [get]
func (h *LinkHandler) State(c fiber.Ctx) error {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", utils.DefaultPageSize)
	sellerID := c.Query("seller_id")

	ctx, cancel := h.createRequestContext(c, "/api/v1/state")
	defer cancel()

	result, err := h.reportFlow.List(ctx, sellerID, page, limit)
	if err != nil {
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "VALIDATION_ERROR", nil)
		}
		log.Println("List links failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list links", "INTERNAL_ERROR", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Links state retrieved successfully", result)
}

// StateExport downloads the links state as an Excel workbook
// @Summary Export Links State
// @Tags Links
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param seller_id query string false "Filter by seller"
// @Success 200 {file} binary "XLSX export"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/state/export [get]
func (h *LinkHandler) StateExport(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContextWithTimeout(c, "/api/v1/state/export", 60*time.Second)
	defer cancel()

	filename, data, err := h.reportFlow.ExportXLSX(ctx, c.Query("seller_id"))
	if err != nil {
		log.Println("Export links failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export links", "INTERNAL_ERROR", nil)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}

func queryInt(c fiber.Ctx, key string, defaultValue int) int {
	raw := c.Query(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

func (h *LinkHandler) createRequestContext(c fiber.Ctx, endpoint string) (context.Context, context.CancelFunc) {
	return h.createRequestContextWithTimeout(c, endpoint, 10*time.Second)
}

func (h *LinkHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	return ctx, cancel
}
