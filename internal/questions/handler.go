package questions

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/luca-ama/ama/internal/middleware"
	"github.com/luca-ama/ama/internal/models"
	"github.com/luca-ama/ama/internal/realtime"
	"github.com/luca-ama/ama/pkg/response"
)

// CreateRequest is the body for POST /events/:id/questions.
type CreateRequest struct {
	Text        string `json:"text" binding:"required"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// UpdateRequest is the body for PATCH /questions/:id.
type UpdateRequest struct {
	IsStarred     *bool   `json:"is_starred"`
	IsAnswered    *bool   `json:"is_answered"`
	ModeratorNote *string `json:"moderator_note"`
}

// VoteResponse is the body returned by POST /questions/:id/vote.
type VoteResponse struct {
	Upvotes        int  `json:"upvotes"`
	HasUserUpvoted bool `json:"has_user_upvoted"`
}

// StageResponse is the body returned by POST /questions/:id/stage. StagedID
// is the event's authoritative staged question after the toggle, which may
// differ from the target when two moderators raced.
type StageResponse struct {
	Question models.Question `json:"question"`
	StagedID *uuid.UUID      `json:"staged_question_id,omitempty"`
}

// Handler handles question HTTP and realtime events.
type Handler struct {
	repo *Repository
	hub  *realtime.Hub
}

// NewHandler creates a questions handler.
func NewHandler(repo *Repository, hub *realtime.Hub) *Handler {
	return &Handler{repo: repo, hub: hub}
}

// ListByEvent handles GET /events/:id/questions.
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	viewerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	list, err := h.repo.ListByEvent(c.Request.Context(), eventID, viewerID)
	if err != nil {
		response.Internal(c, "failed to list questions")
		return
	}
	if !h.canModerate(c) {
		for i := range list {
			list[i].ModeratorNote = ""
		}
	}
	response.OK(c, gin.H{"questions": list})
}

// Create handles POST /events/:id/questions (participant asks a question).
func (h *Handler) Create(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	q := &models.Question{
		EventID:     eventID,
		AuthorID:    userID,
		Text:        req.Text,
		IsAnonymous: req.IsAnonymous,
	}
	if err := h.repo.Create(c.Request.Context(), q); err != nil {
		response.Internal(c, "failed to create question")
		return
	}

	h.hub.PublishToEventOnly(eventID, "question_created", q)
	response.Created(c, q)
}

// ToggleVote handles POST /questions/:id/vote. The toggle is idempotent in
// the sense that two calls are two toggles, never two increments.
func (h *Handler) ToggleVote(c *gin.Context) {
	questionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid question id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	q, err := h.repo.GetByID(c.Request.Context(), questionID, userID)
	if err != nil {
		response.NotFound(c, "question not found")
		return
	}
	upvotes, voted, err := h.repo.ToggleVote(c.Request.Context(), questionID, userID)
	if err != nil {
		response.Internal(c, "failed to toggle vote")
		return
	}

	h.hub.PublishToEventOnly(q.EventID, "vote_updated", gin.H{
		"id": questionID, "upvotes": upvotes,
	})
	response.OK(c, VoteResponse{Upvotes: upvotes, HasUserUpvoted: voted})
}

// Update handles PATCH /questions/:id (moderate capability required).
func (h *Handler) Update(c *gin.Context) {
	questionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid question id")
		return
	}
	actorID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	q, err := h.repo.GetByID(c.Request.Context(), questionID, actorID)
	if err != nil {
		response.NotFound(c, "question not found")
		return
	}
	params := UpdateParams{
		IsStarred:     req.IsStarred,
		IsAnswered:    req.IsAnswered,
		ModeratorNote: req.ModeratorNote,
	}
	if err := h.repo.UpdateFields(c.Request.Context(), questionID, actorID, params); err != nil {
		response.Internal(c, "failed to update question")
		return
	}

	updated, err := h.repo.GetByID(c.Request.Context(), questionID, actorID)
	if err != nil {
		response.Internal(c, "failed to load question")
		return
	}

	h.hub.PublishToEventOnly(q.EventID, "question_updated", updated)
	response.OK(c, updated)
}

// ToggleStage handles POST /questions/:id/stage (moderate capability
// required). The response carries the event's authoritative staged question
// id so clients can reconcile after a lost race.
func (h *Handler) ToggleStage(c *gin.Context) {
	questionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid question id")
		return
	}
	actorID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	q, err := h.repo.GetByID(c.Request.Context(), questionID, actorID)
	if err != nil {
		response.NotFound(c, "question not found")
		return
	}
	if _, err := h.repo.ToggleStage(c.Request.Context(), questionID); err != nil {
		response.Internal(c, "failed to toggle stage")
		return
	}

	stagedID, err := h.repo.StagedQuestion(c.Request.Context(), q.EventID)
	if err != nil {
		response.Internal(c, "failed to load staged question")
		return
	}
	updated, err := h.repo.GetByID(c.Request.Context(), questionID, actorID)
	if err != nil {
		response.Internal(c, "failed to load question")
		return
	}

	h.hub.PublishToEventOnly(q.EventID, "stage_changed", gin.H{
		"staged_question_id": stagedID,
	})
	response.OK(c, StageResponse{Question: *updated, StagedID: stagedID})
}

func (h *Handler) canModerate(c *gin.Context) bool {
	roleVal, ok := c.Get(middleware.ContextUserRole)
	if !ok {
		return false
	}
	role, _ := roleVal.(models.Role)
	return role.CanModerate()
}
