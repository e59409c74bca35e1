package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopsmart/backend/internal/domain"
	"github.com/shopsmart/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	coordinator *usecase.Coordinator
	prober      *usecase.CapabilityProber
	store       domain.KeyValueStore
	extractor   domain.ProductExtractor
	logger      *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	coordinator *usecase.Coordinator,
	prober *usecase.CapabilityProber,
	store domain.KeyValueStore,
	extractor domain.ProductExtractor,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		coordinator: coordinator,
		prober:      prober,
		store:       store,
		extractor:   extractor,
		logger:      logger.With("component", "http"),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "shopsmart-backend",
		"version": "1.0.0",
	})
}

// HandleMessage services the extension message protocol
func (h *Handler) HandleMessage(c *gin.Context) {
	var req domain.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if req.Action != domain.ActionAnalyzeProduct {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "Unknown action: " + req.Action})
		return
	}

	resp, err := h.coordinator.HandleAnalyzeRequest(c.Request.Context(), req.Mode, &req.Data)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

type modeRequest struct {
	Mode domain.Mode `json:"mode" binding:"required"`
}

// GetMode returns the current analysis mode
func (h *Handler) GetMode(c *gin.Context) {
	mode, err := h.coordinator.CurrentMode(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mode": mode})
}

// SwitchMode persists a new mode and re-analyzes the current product, if any
func (h *Handler) SwitchMode(c *gin.Context) {
	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "mode is required"})
		return
	}

	resp, err := h.coordinator.SwitchMode(c.Request.Context(), req.Mode)
	if err != nil {
		h.respondError(c, err)
		return
	}

	body := gin.H{"mode": req.Mode}
	if resp != nil {
		body["analysis"] = resp
	}
	c.JSON(http.StatusOK, body)
}

// VisitProduct records the product the user is looking at and analyzes it
func (h *Handler) VisitProduct(c *gin.Context) {
	var product domain.ProductData
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := h.coordinator.VisitProduct(c.Request.Context(), &product)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CurrentProduct returns the current product with its latest analysis
func (h *Handler) CurrentProduct(c *gin.Context) {
	view, err := h.coordinator.CurrentView(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type extractRequest struct {
	URL  string `json:"url" binding:"required"`
	HTML string `json:"html" binding:"required"`
}

// ExtractProduct parses a storefront page into product data
func (h *Handler) ExtractProduct(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "url and html are required"})
		return
	}

	product, err := h.extractor.Extract(req.URL, req.HTML)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// Capabilities returns the last probed capability status
func (h *Handler) Capabilities(c *gin.Context) {
	c.JSON(http.StatusOK, h.coordinator.Runtime().Capabilities())
}

// RefreshCapabilities re-probes the model endpoints
func (h *Handler) RefreshCapabilities(c *gin.Context) {
	status := h.prober.Run(c.Request.Context(), h.coordinator.Runtime(), h.store)
	c.JSON(http.StatusOK, status)
}

// respondError maps domain errors to HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, domain.ErrUnsupportedMode):
		status = http.StatusBadRequest
		message = "Unsupported analysis mode"
	case errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, domain.ErrUnsupportedSite):
		status = http.StatusUnprocessableEntity
		message = "Unsupported shopping site"
	case errors.Is(err, domain.ErrCacheUnavailable):
		status = http.StatusServiceUnavailable
		message = "Storage temporarily unavailable"
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", c.FullPath(), "error", err, "request_id", c.GetString(requestIDKey))
	} else {
		h.logger.Debug("request rejected", "path", c.FullPath(), "error", err)
	}

	c.JSON(status, domain.ErrorResponse{Success: false, Error: message})
}
