package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"

	"brickfund/internal/aggregate"
	"brickfund/internal/analytics"
	"brickfund/internal/models"
	"brickfund/internal/service"
)

type Handler struct {
	svc    *service.Service
	logger *logrus.Logger
}

type PropertyRequest struct {
	OwnerID      string     `json:"owner_id" binding:"required"`
	Title        string     `json:"title" binding:"required"`
	Categories   []string   `json:"categories"`
	Price        float64    `json:"price"`
	TIG          float64    `json:"tig"`
	MIA          float64    `json:"mia"`
	ListingStart *time.Time `json:"listing_start"`
	ListingEnd   *time.Time `json:"listing_end"`
	Latitude     *float64   `json:"latitude"`
	Longitude    *float64   `json:"longitude"`
}

type StatusRequest struct {
	Status models.PropertyStatus `json:"status" binding:"required"`
}

type InvestmentRequest struct {
	PropertyID       string                  `json:"property_id" binding:"required"`
	InvestorID       string                  `json:"investor_id" binding:"required"`
	Amount           float64                 `json:"amount" binding:"required"`
	EstimatedReturns float64                 `json:"estimated_returns"`
	SharesAssigned   float64                 `json:"shares_assigned"`
	Status           models.InvestmentStatus `json:"status"`
	Date             *time.Time              `json:"date"`
}

type ReviewRequest struct {
	PropertyID string `json:"property_id" binding:"required"`
	ReviewerID string `json:"reviewer_id" binding:"required"`
	Rating     int    `json:"rating" binding:"required"`
	Comment    string `json:"comment"`
}

func NewHandler(svc *service.Service, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Handler{svc: svc, logger: logger}
}

// respondError maps service errors to HTTP statuses. Unexpected errors are
// logged and reported with the generic message.
func (h *Handler) respondError(c *gin.Context, err error, message string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrPropertyNotFound),
		errors.Is(err, service.ErrInvestmentNotFound),
		errors.Is(err, service.ErrReviewNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidProperty),
		errors.Is(err, service.ErrInvalidInvestment),
		errors.Is(err, service.ErrInvalidReview),
		errors.Is(err, service.ErrInvalidTokenomics),
		errors.Is(err, service.ErrInvalidDistribution),
		errors.Is(err, service.ErrBelowMinimumInvestment),
		errors.Is(err, service.ErrUnsupportedCategory),
		errors.Is(err, aggregate.ErrInvalidRating):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrPropertyNotOpen),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrInsufficientTokens),
		errors.Is(err, service.ErrDuplicateReview):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.WithError(err).Error(message)
		c.JSON(status, gin.H{"error": message})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handler) badRequest(c *gin.Context, err error, message string) {
	h.logger.WithError(err).Debug(message)
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

func parseFloatQuery(c *gin.Context, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &v, nil
}

func splitQuery(c *gin.Context, key string) []string {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}

// parseBounds reads bbox=minLon,minLat,maxLon,maxLat.
func parseBounds(raw string) (*orb.Bound, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("bbox needs four comma separated values")
	}
	var v [4]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bbox value %q: %w", part, err)
		}
		v[i] = f
	}
	bound := orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}
	if bound.Min.X() > bound.Max.X() || bound.Min.Y() > bound.Max.Y() {
		return nil, fmt.Errorf("bbox minimum exceeds maximum")
	}
	return &bound, nil
}

func parseFilters(c *gin.Context) (*models.PropertyFilters, error) {
	filters := &models.PropertyFilters{
		Categories: splitQuery(c, "category"),
		OwnerID:    c.Query("owner_id"),
	}

	var err error
	if filters.MinPrice, err = parseFloatQuery(c, "min_price"); err != nil {
		return nil, err
	}
	if filters.MaxPrice, err = parseFloatQuery(c, "max_price"); err != nil {
		return nil, err
	}
	for _, status := range splitQuery(c, "status") {
		s := models.PropertyStatus(status)
		if !s.IsValid() {
			return nil, fmt.Errorf("unknown status %q", status)
		}
		filters.Statuses = append(filters.Statuses, s)
	}
	if raw := c.Query("bbox"); raw != "" {
		if filters.Bounds, err = parseBounds(raw); err != nil {
			return nil, err
		}
	}
	return filters, nil
}

func (h *Handler) ListProperties(c *gin.Context) {
	filters, err := parseFilters(c)
	if err != nil {
		h.badRequest(c, err, err.Error())
		return
	}

	properties, err := h.svc.ListProperties(c.Request.Context(), filters)
	if err != nil {
		h.respondError(c, err, "Failed to get properties")
		return
	}
	c.JSON(http.StatusOK, properties)
}

func (h *Handler) CreateProperty(c *gin.Context) {
	var req PropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err, "Invalid request body")
		return
	}

	property, err := h.svc.CreateProperty(c.Request.Context(), &models.Property{
		OwnerID:      req.OwnerID,
		Title:        req.Title,
		Categories:   req.Categories,
		Price:        req.Price,
		TIG:          req.TIG,
		MIA:          req.MIA,
		ListingStart: req.ListingStart,
		ListingEnd:   req.ListingEnd,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
	})
	if err != nil {
		h.respondError(c, err, "Failed to create property")
		return
	}
	c.JSON(http.StatusCreated, property)
}

// GetProperty serves the property detail page and counts the visit.
func (h *Handler) GetProperty(c *gin.Context) {
	property, err := h.svc.ViewProperty(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to get property")
		return
	}
	c.JSON(http.StatusOK, property)
}

func (h *Handler) DeleteProperty(c *gin.Context) {
	if err := h.svc.DeleteProperty(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err, "Failed to delete property")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetAggregate(c *gin.Context) {
	agg, err := h.svc.GetAggregate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to get property statistics")
		return
	}
	c.JSON(http.StatusOK, agg)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err, "Invalid request body")
		return
	}

	property, err := h.svc.TransitionStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.respondError(c, err, "Failed to update property status")
		return
	}
	c.JSON(http.StatusOK, property)
}

func (h *Handler) SetTokenomics(c *gin.Context) {
	var req models.Tokenomics
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err, "Invalid request body")
		return
	}

	tokenomics, err := h.svc.SetTokenomics(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.respondError(c, err, "Failed to set tokenomics")
		return
	}
	c.JSON(http.StatusOK, tokenomics)
}

func (h *Handler) CreateInvestment(c *gin.Context) {
	var req InvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err, "Invalid request body")
		return
	}

	inv := &models.Investment{
		PropertyID:       req.PropertyID,
		InvestorID:       req.InvestorID,
		Amount:           req.Amount,
		EstimatedReturns: req.EstimatedReturns,
		SharesAssigned:   req.SharesAssigned,
		Status:           req.Status,
	}
	if req.Date != nil {
		inv.Date = *req.Date
	}

	created, err := h.svc.CreateInvestment(c.Request.Context(), inv)
	if err != nil {
		h.respondError(c, err, "Failed to create investment")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetInvestment(c *gin.Context) {
	inv, err := h.svc.GetInvestment(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to get investment")
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *Handler) UpdateInvestment(c *gin.Context) {
	var req service.InvestmentUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err, "Invalid request body")
		return
	}

	inv, err := h.svc.UpdateInvestment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err, "Failed to update investment")
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *Handler) DeleteInvestment(c *gin.Context) {
	if err := h.svc.DeleteInvestment(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err, "Failed to delete investment")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CreateReview(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err, "Invalid request body")
		return
	}

	review, err := h.svc.CreateReview(c.Request.Context(), &models.Review{
		PropertyID: req.PropertyID,
		ReviewerID: req.ReviewerID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		h.respondError(c, err, "Failed to create review")
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h *Handler) UpdateReview(c *gin.Context) {
	var req service.ReviewUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err, "Invalid request body")
		return
	}

	review, err := h.svc.UpdateReview(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err, "Failed to update review")
		return
	}
	c.JSON(http.StatusOK, review)
}

func (h *Handler) DeleteReview(c *gin.Context) {
	if err := h.svc.DeleteReview(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err, "Failed to delete review")
		return
	}
	c.Status(http.StatusNoContent)
}

// parseReportQuery reads period (day, week, month) and an optional RFC 3339 anchor.
func parseReportQuery(c *gin.Context) (analytics.Period, time.Time, error) {
	period, err := analytics.ParsePeriod(c.Query("period"))
	if err != nil {
		return "", time.Time{}, err
	}

	var anchor time.Time
	if raw := c.Query("anchor"); raw != "" {
		if anchor, err = time.Parse(time.RFC3339, raw); err != nil {
			return "", time.Time{}, fmt.Errorf("invalid anchor: %w", err)
		}
	}
	return period, anchor, nil
}

func (h *Handler) GetMetrics(c *gin.Context) {
	period, anchor, err := parseReportQuery(c)
	if err != nil {
		h.badRequest(c, err, err.Error())
		return
	}

	report, err := h.svc.Metrics(c.Request.Context(), period, anchor)
	if err != nil {
		h.respondError(c, err, "Failed to get metrics")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) GetInvestorMetrics(c *gin.Context) {
	period, anchor, err := parseReportQuery(c)
	if err != nil {
		h.badRequest(c, err, err.Error())
		return
	}

	report, err := h.svc.InvestorMetrics(c.Request.Context(), c.Param("id"), period, anchor)
	if err != nil {
		h.respondError(c, err, "Failed to get investor metrics")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) GetPortfolio(c *gin.Context) {
	report, err := h.svc.Portfolio(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to get portfolio")
		return
	}
	c.JSON(http.StatusOK, report)
}
