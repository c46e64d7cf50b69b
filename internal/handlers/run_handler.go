package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caseprep/practice-service/internal/models"
	"github.com/caseprep/practice-service/internal/services"
	"github.com/caseprep/practice-service/internal/utils"
)

// RunHandler exposes the interactive module-run surface: one student
// stepping through one published module, part by part.
type RunHandler struct {
	BaseHandler
	runService services.RunService
}

func NewRunHandler(runService services.RunService, logger utils.Logger) *RunHandler {
	return &RunHandler{
		BaseHandler: NewBaseHandler(logger),
		runService:  runService,
	}
}

// StartRun begins or resumes a module run for the authenticated student
func (h *RunHandler) StartRun(c *gin.Context) {
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Starting module run", "module_id", moduleID)

	view, err := h.runService.Start(c.Request.Context(), moduleID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetRun returns the current run snapshot
func (h *RunHandler) GetRun(c *gin.Context) {
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	view, err := h.runService.Get(c.Request.Context(), moduleID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SetInput replaces the in-progress answer for the current part
func (h *RunHandler) SetInput(c *gin.Context) {
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}

	var input models.AttemptInput
	if err := c.ShouldBindJSON(&input); err != nil {
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

	view, err := h.runService.SetInput(c.Request.Context(), moduleID, userID, input)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SubmitAttempt evaluates the current input against the part's answer key
func (h *RunHandler) SubmitAttempt(c *gin.Context) {
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	view, err := h.runService.Submit(c.Request.Context(), moduleID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// RetryPart clears feedback and allows another attempt
func (h *RunHandler) RetryPart(c *gin.Context) {
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	view, err := h.runService.Retry(c.Request.Context(), moduleID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SkipPart marks an exhausted, skippable part as completed-but-skipped
func (h *RunHandler) SkipPart(c *gin.Context) {
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	view, err := h.runService.Skip(c.Request.Context(), moduleID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Advance moves forward one part when the navigation gate allows it
func (h *RunHandler) Advance(c *gin.Context) {
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	view, err := h.runService.Advance(c.Request.Context(), moduleID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Retreat moves back one part; always allowed above index zero
func (h *RunHandler) Retreat(c *gin.Context) {
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	view, err := h.runService.Retreat(c.Request.Context(), moduleID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// AbandonRun drops the live run, keeping the persisted progress snapshot
func (h *RunHandler) AbandonRun(c *gin.Context) {
	moduleID := h.parseIDParam(c, "id")
	if moduleID == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	if err := h.runService.Abandon(c.Request.Context(), moduleID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Run abandoned"})
}
