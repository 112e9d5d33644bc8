package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/yt-backup-go/internal/domain"
)

// RequestQueue is the queue side of request management
type RequestQueue interface {
	AddRequest(url string, kind domain.RequestKind, apiKey string) (*domain.Request, error)
	GetRequest(id string) (*domain.Request, error)
	ListRequests(filters map[string]interface{}) ([]*domain.Request, error)
	DeleteRequest(id string) error
	GetStats() (*domain.RequestStats, error)
}

// RequestController changes the state of individual requests
type RequestController interface {
	CancelRequest(id string) error
	RetryRequest(id string) error
}

// RequestHandler handles archive request HTTP endpoints
type RequestHandler struct {
	queue      RequestQueue
	controller RequestController
	logger     *zap.Logger
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(queue RequestQueue, controller RequestController, logger *zap.Logger) *RequestHandler {
	return &RequestHandler{
		queue:      queue,
		controller: controller,
		logger:     logger,
	}
}

// AddRequestBody is the payload of POST /api/v1/requests
type AddRequestBody struct {
	URL    string `json:"url" binding:"required"`
	Kind   string `json:"kind,omitempty"`
	APIKey string `json:"api_key,omitempty"`
}

// AddRequest handles POST /api/v1/requests
func (h *RequestHandler) AddRequest(c *gin.Context) {
	var body AddRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.queue.AddRequest(body.URL, domain.RequestKind(body.Kind), body.APIKey)
	if errors.Is(err, domain.ErrDuplicateRequest) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "request": request})
		return
	}
	if err != nil {
		h.respondError(c, "Failed to add request", err)
		return
	}

	c.JSON(http.StatusCreated, request)
}

// GetRequest handles GET /api/v1/requests/:id
func (h *RequestHandler) GetRequest(c *gin.Context) {
	request, err := h.queue.GetRequest(c.Param("id"))
	if err != nil {
		h.respondError(c, "Failed to get request", err)
		return
	}
	c.JSON(http.StatusOK, request)
}

// ListRequests handles GET /api/v1/requests
func (h *RequestHandler) ListRequests(c *gin.Context) {
	filters := make(map[string]interface{})
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	if kind := c.Query("kind"); kind != "" {
		filters["kind"] = kind
	}

	requests, err := h.queue.ListRequests(filters)
	if err != nil {
		h.respondError(c, "Failed to list requests", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"count":    len(requests),
	})
}

// GetStats handles GET /api/v1/requests/stats
func (h *RequestHandler) GetStats(c *gin.Context) {
	stats, err := h.queue.GetStats()
	if err != nil {
		h.respondError(c, "Failed to get stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// CancelRequest handles POST /api/v1/requests/:id/cancel
func (h *RequestHandler) CancelRequest(c *gin.Context) {
	id := c.Param("id")
	if err := h.controller.CancelRequest(id); err != nil {
		h.respondError(c, "Failed to cancel request", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "request cancelled", "id": id})
}

// RetryRequest handles POST /api/v1/requests/:id/retry
func (h *RequestHandler) RetryRequest(c *gin.Context) {
	id := c.Param("id")
	if err := h.controller.RetryRequest(id); err != nil {
		h.respondError(c, "Failed to retry request", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "request queued for retry", "id": id})
}

// DeleteRequest handles DELETE /api/v1/requests/:id
func (h *RequestHandler) DeleteRequest(c *gin.Context) {
	id := c.Param("id")
	if err := h.queue.DeleteRequest(id); err != nil {
		h.respondError(c, "Failed to delete request", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "request deleted", "id": id})
}

func (h *RequestHandler) respondError(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrRequestNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDuplicateRequest), errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
