package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/caseprep/practice-service/internal/models"
	"github.com/caseprep/practice-service/internal/repositories"
	"github.com/caseprep/practice-service/internal/services"
	"github.com/caseprep/practice-service/internal/utils"
)

// SessionHandler exposes the case-interview session surface.
type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
	}
}

// StartSession opens a case-interview session for the authenticated student
func (h *SessionHandler) StartSession(c *gin.Context) {
	var meta models.CaseMetadata
	if err := c.ShouldBindJSON(&meta); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Starting case session", "case_id", meta.CaseID)

	view, err := h.sessionService.Start(c.Request.Context(), meta, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// GetSessionState returns the live session snapshot for the student
func (h *SessionHandler) GetSessionState(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	view, err := h.sessionService.Get(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// QuestionRequest carries one interview question
type QuestionRequest struct {
	Question string `json:"question" validate:"required"`
}

// SubmitQuestion sends a question to the coach and returns the new turn
func (h *SessionHandler) SubmitQuestion(c *gin.Context) {
	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	turn, err := h.sessionService.SubmitQuestion(c.Request.Context(), userID, req.Question)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, turn)
}

// FrameworkRequest carries the framework submission text
type FrameworkRequest struct {
	Framework string `json:"framework" validate:"required"`
}

// SubmitFramework records the framework once enough turns have been taken
func (h *SessionHandler) SubmitFramework(c *gin.Context) {
	var req FrameworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	if err := h.sessionService.SubmitFramework(c.Request.Context(), userID, req.Framework); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Framework submitted"})
}

// CompleteSession finishes the session and returns the score report
func (h *SessionHandler) CompleteSession(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Completing case session")

	report, err := h.sessionService.Complete(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// ResetSession discards the live session state
func (h *SessionHandler) ResetSession(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	if err := h.sessionService.Reset(c.Request.Context(), userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Session reset"})
}

// ===== REVIEW SURFACE =====

// GetSession retrieves a persisted session with its turns by session ID
func (h *SessionHandler) GetSession(c *gin.Context) {
	sessionID := ParseStringIDParam(c, "session_id")
	if sessionID == "" {
		return
	}

	session, err := h.sessionService.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// ListMySessions lists the authenticated student's sessions
func (h *SessionHandler) ListMySessions(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	filters := h.parseSessionFilters(c)

	sessions, total, err := h.sessionService.ListByStudent(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: sessions, Total: total})
}

func (h *SessionHandler) parseSessionFilters(c *gin.Context) repositories.SessionFilters {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 20)

	filters := repositories.SessionFilters{
		Limit:  size,
		Offset: (page - 1) * size,
	}

	if status := c.Query("status"); status != "" {
		s := models.SessionStatus(status)
		filters.Status = &s
	}
	if caseID := c.Query("case_id"); caseID != "" {
		filters.CaseID = &caseID
	}
	if from := c.Query("date_from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filters.DateFrom = &t
		}
	}
	if to := c.Query("date_to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filters.DateTo = &t
		}
	}
	return filters
}
