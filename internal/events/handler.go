package events

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/luca-ama/ama/internal/middleware"
	"github.com/luca-ama/ama/internal/models"
	"github.com/luca-ama/ama/pkg/response"
)

// CreateRequest is the body for POST /events.
type CreateRequest struct {
	Title    string    `json:"title" binding:"required"`
	StartsAt time.Time `json:"starts_at" binding:"required"`
	EndsAt   time.Time `json:"ends_at" binding:"required"`
}

// UpdateRequest is the body for PATCH /events/:id.
type UpdateRequest struct {
	IsOpen *bool `json:"is_open"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates an events handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /events.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list events")
		return
	}
	response.OK(c, gin.H{"events": list})
}

// Create handles POST /events (moderate capability required).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	e := &models.Event{
		Title:     req.Title,
		StartsAt:  req.StartsAt,
		EndsAt:    req.EndsAt,
		IsOpen:    true,
		CreatedBy: userID,
	}
	if err := h.repo.Create(c.Request.Context(), e); err != nil {
		response.Internal(c, "failed to create event")
		return
	}
	response.Created(c, e)
}

// GetByID handles GET /events/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	response.OK(c, e)
}

// Update handles PATCH /events/:id (moderate capability required).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.IsOpen != nil {
		if err := h.repo.SetOpen(c.Request.Context(), id, *req.IsOpen); err != nil {
			response.Internal(c, "failed to update event")
			return
		}
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	response.OK(c, e)
}

// Stats handles GET /events/:id/stats.
func (h *Handler) Stats(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	s, err := h.repo.Stats(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load event stats")
		return
	}
	response.OK(c, s)
}
