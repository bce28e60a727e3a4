// internal/handlers/promotion/promotion.go
package promotion

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tiffin-promotions/internal/domain/promotion"
	"tiffin-promotions/internal/middleware"
	xerrors "tiffin-promotions/internal/pkg/errors"
	"tiffin-promotions/internal/pkg/response"
	service "tiffin-promotions/internal/service/promotion"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PromotionHandler struct {
	promotionService *service.PromotionService
	logger           *zap.Logger
}

func NewPromotionHandler(promotionService *service.PromotionService, logger *zap.Logger) *PromotionHandler {
	return &PromotionHandler{
		promotionService: promotionService,
		logger:           logger,
	}
}

// SearchPromotions answers the dashboard's filtered, paginated list
func (h *PromotionHandler) SearchPromotions(c *gin.Context) {
	query, err := parseSearchQuery(c)
	if err != nil {
		h.writeError(c, "invalid search query", err)
		return
	}

	page, err := h.promotionService.SearchPromotions(c.Request.Context(), query)
	if err != nil {
		h.writeError(c, "failed to search promotions", err)
		return
	}

	response.Success(c, http.StatusOK, "promotions retrieved successfully", page)
}

// GetPromotion returns a single promotion by id
func (h *PromotionHandler) GetPromotion(c *gin.Context) {
	p, err := h.promotionService.GetPromotion(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "failed to get promotion", err)
		return
	}
	if p == nil {
		response.NotFound(c, "promotion not found")
		return
	}

	response.Success(c, http.StatusOK, "promotion retrieved successfully", p)
}

// CreatePromotion creates a promotion
func (h *PromotionHandler) CreatePromotion(c *gin.Context) {
	var req promotion.CreatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	p, err := h.promotionService.CreatePromotion(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, "failed to create promotion", err)
		return
	}

	response.Success(c, http.StatusCreated, "promotion created successfully", p)
}

// UpdatePromotion merges the given fields onto a promotion (PUT and PATCH)
func (h *PromotionHandler) UpdatePromotion(c *gin.Context) {
	var req promotion.UpdatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	p, err := h.promotionService.UpdatePromotion(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.writeError(c, "failed to update promotion", err)
		return
	}
	if p == nil {
		response.NotFound(c, "promotion not found")
		return
	}

	response.Success(c, http.StatusOK, "promotion updated successfully", p)
}

// UpdatePromotionStatus pauses, resumes or drafts a promotion
func (h *PromotionHandler) UpdatePromotionStatus(c *gin.Context) {
	var req promotion.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	p, err := h.promotionService.UpdatePromotionStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.writeError(c, "failed to update promotion status", err)
		return
	}
	if p == nil {
		response.NotFound(c, "promotion not found")
		return
	}

	response.Success(c, http.StatusOK, "promotion status updated successfully", p)
}

// DeletePromotion permanently removes a promotion
func (h *PromotionHandler) DeletePromotion(c *gin.Context) {
	deleted, err := h.promotionService.DeletePromotion(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "failed to delete promotion", err)
		return
	}
	if !deleted {
		response.NotFound(c, "promotion not found")
		return
	}

	response.Success(c, http.StatusOK, "promotion deleted successfully", nil)
}

// GetPromotionStats returns counts for the dashboard summary tiles
func (h *PromotionHandler) GetPromotionStats(c *gin.Context) {
	stats, err := h.promotionService.GetPromotionStats(c.Request.Context())
	if err != nil {
		h.writeError(c, "failed to get promotion stats", err)
		return
	}

	response.Success(c, http.StatusOK, "promotion stats retrieved successfully", stats)
}

func (h *PromotionHandler) writeError(c *gin.Context, message string, err error) {
	var verr *promotion.ValidationError
	if errors.As(err, &verr) {
		response.ValidationError(c, message, err, gin.H{"violations": verr.Violations})
		return
	}
	if errors.Is(err, xerrors.ErrAlreadyExists) {
		response.Error(c, http.StatusConflict, message, err)
		return
	}

	middleware.LoggerFromContext(c.Request.Context(), h.logger).Error(message, zap.Error(err))
	response.InternalError(c, message)
}

// parseSearchQuery reads search parameters. Enum filters may repeat or be
// comma-separated; dates are RFC 3339 or YYYY-MM-DD, where a bare end date
// covers the whole day.
func parseSearchQuery(c *gin.Context) (promotion.SearchQuery, error) {
	q := promotion.SearchQuery{
		Search: c.Query("search"),
		Sort:   c.Query("sort"),
	}

	for _, v := range listParam(c, "status") {
		q.Statuses = append(q.Statuses, promotion.Status(v))
	}
	for _, v := range listParam(c, "category") {
		q.Categories = append(q.Categories, promotion.Category(v))
	}
	for _, v := range listParam(c, "free_item_sub_type") {
		q.FreeItemSubTypes = append(q.FreeItemSubTypes, promotion.FreeItemSubType(v))
	}

	var err error
	if q.Page, err = intParam(c, "page"); err != nil {
		return q, err
	}
	if q.PageSize, err = intParam(c, "page_size"); err != nil {
		return q, err
	}

	start, err := dateParam(c, "start_date", false)
	if err != nil {
		return q, err
	}
	end, err := dateParam(c, "end_date", true)
	if err != nil {
		return q, err
	}
	if start != nil || end != nil {
		q.DateRange = &promotion.DateRange{Start: start, End: end}
	}

	return q, nil
}

func listParam(c *gin.Context, name string) []string {
	var out []string
	for _, raw := range c.QueryArray(name) {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func intParam(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, promotion.NewValidationError(name, "integer", fmt.Sprintf("%s must be an integer", name))
	}
	return n, nil
}

func dateParam(c *gin.Context, name string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, promotion.NewValidationError(name, "date", fmt.Sprintf("%s must be RFC 3339 or YYYY-MM-DD", name))
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
