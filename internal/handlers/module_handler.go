package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caseprep/practice-service/internal/models"
	"github.com/caseprep/practice-service/internal/repositories"
	"github.com/caseprep/practice-service/internal/services"
	"github.com/caseprep/practice-service/internal/utils"
)

type ModuleHandler struct {
	BaseHandler
	moduleService services.ModuleService
	importExport  services.ImportExportService
}

func NewModuleHandler(
	moduleService services.ModuleService,
	importExport services.ImportExportService,
	logger utils.Logger,
) *ModuleHandler {
	return &ModuleHandler{
		BaseHandler:   NewBaseHandler(logger),
		moduleService: moduleService,
		importExport:  importExport,
	}
}

// CreateModule creates a new learning module in draft status
func (h *ModuleHandler) CreateModule(c *gin.Context) {
	var req services.CreateModuleRequest
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

	module, err := h.moduleService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, module)
}

// GetModule retrieves a module by ID
func (h *ModuleHandler) GetModule(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	module, err := h.moduleService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, module)
}

// GetModuleWithParts retrieves a module including its ordered parts
func (h *ModuleHandler) GetModuleWithParts(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	module, err := h.moduleService.GetByIDWithParts(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, module)
}

// ListModules lists modules with filtering and pagination
func (h *ModuleHandler) ListModules(c *gin.Context) {
	filters := h.parseModuleFilters(c)

	modules, total, err := h.moduleService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: modules, Total: total})
}

// UpdateModule updates module metadata
func (h *ModuleHandler) UpdateModule(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateModuleRequest
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

	module, err := h.moduleService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, module)
}

// DeleteModule soft-deletes a module
func (h *ModuleHandler) DeleteModule(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	if err := h.moduleService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Module deleted"})
}

// PublishModule validates all part content and moves the module to Published
func (h *ModuleHandler) PublishModule(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Publishing module", "module_id", id)

	if err := h.moduleService.Publish(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Module published"})
}

// ArchiveModule moves the module to Archived
func (h *ModuleHandler) ArchiveModule(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	if err := h.moduleService.Archive(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Module archived"})
}

// ===== PART AUTHORING =====

// AddPart appends a part to the module
func (h *ModuleHandler) AddPart(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.CreatePartRequest
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

	part, err := h.moduleService.AddPart(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, part)
}

// UpdatePart replaces a part's content and settings
func (h *ModuleHandler) UpdatePart(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	partID := h.parseIDParam(c, "part_id")
	if partID == 0 {
		return
	}

	var req services.CreatePartRequest
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

	part, err := h.moduleService.UpdatePart(c.Request.Context(), id, partID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, part)
}

// DeletePart removes a part from the module
func (h *ModuleHandler) DeletePart(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	partID := h.parseIDParam(c, "part_id")
	if partID == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	if err := h.moduleService.DeletePart(c.Request.Context(), id, partID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Part deleted"})
}

// ReorderPartsRequest carries the full part ID list in new order
type ReorderPartsRequest struct {
	PartIDs []uint `json:"part_ids" validate:"required,min=1"`
}

// ReorderParts rewrites part positions to match the given ID order
func (h *ModuleHandler) ReorderParts(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req ReorderPartsRequest
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

	if err := h.moduleService.ReorderParts(c.Request.Context(), id, req.PartIDs, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Parts reordered"})
}

// ===== IMPORT / EXPORT =====

// ImportParts bulk-imports parts from an uploaded CSV or Excel file
func (h *ModuleHandler) ImportParts(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing file upload",
			Details: err.Error(),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to open uploaded file",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	h.LogRequest(c, "Importing module parts", "module_id", id, "filename", fileHeader.Filename)

	summary, err := h.importExport.ImportPartsFromFile(c.Request.Context(), id, file, fileHeader.Filename, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ExportParts downloads module parts as CSV or Excel
func (h *ModuleHandler) ExportParts(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	req := &models.ExportRequest{
		ModuleID:       id,
		Format:         c.DefaultQuery("format", "xlsx"),
		IncludeAnswers: c.Query("include_answers") == "true",
		Kinds:          c.QueryArray("kind"),
	}

	data, filename, err := h.importExport.ExportParts(c.Request.Context(), req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	contentType := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	if req.Format == "csv" {
		contentType = "text/csv"
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, data)
}

// ===== HELPERS =====

func (h *ModuleHandler) parseModuleFilters(c *gin.Context) repositories.ModuleFilters {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 20)

	filters := repositories.ModuleFilters{
		Limit:     size,
		Offset:    (page - 1) * size,
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}

	if status := c.Query("status"); status != "" {
		s := models.ModuleStatus(status)
		filters.Status = &s
	}
	if creator := c.Query("created_by"); creator != "" {
		filters.CreatedBy = &creator
	}
	return filters
}
