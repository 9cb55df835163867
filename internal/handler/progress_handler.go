package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/greenlake-gma/progress-api/internal/service"
	appErrors "github.com/greenlake-gma/progress-api/pkg/errors"
	"github.com/greenlake-gma/progress-api/pkg/response"
)

// ProgressHandler exposes student progress endpoints.
type ProgressHandler struct {
	progress *service.ProgressService
	exports  *service.ExportService
}

// NewProgressHandler constructs ProgressHandler.
func NewProgressHandler(progress *service.ProgressService, exports *service.ExportService) *ProgressHandler {
	return &ProgressHandler{progress: progress, exports: exports}
}

// List godoc
// @Summary List all progress records
// @Tags Progress
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student-progress [get]
func (h *ProgressHandler) List(c *gin.Context) {
	details, err := h.progress.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details, nil)
}

// Get godoc
// @Summary Get one progress record
// @Tags Progress
// @Produce json
// @Param id path int true "Progress record ID"
// @Success 200 {object} response.Envelope
// @Router /student-progress/{id} [get]
func (h *ProgressHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	detail, err := h.progress.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// GetByStudent godoc
// @Summary Get a student's report for their current level
// @Tags Progress
// @Produce json
// @Param studentId path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/progress [get]
func (h *ProgressHandler) GetByStudent(c *gin.Context) {
	studentID, err := pathID(c, "studentId")
	if err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.progress.GetByStudent(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// GetByStudentAndLevel godoc
// @Summary Get a student's report for one level
// @Tags Progress
// @Produce json
// @Param studentId path int true "Student ID"
// @Param levelId path int true "Level ID"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/progress/level/{levelId} [get]
func (h *ProgressHandler) GetByStudentAndLevel(c *gin.Context) {
	studentID, err := pathID(c, "studentId")
	if err != nil {
		response.Error(c, err)
		return
	}
	levelID, err := pathID(c, "levelId")
	if err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.progress.GetByStudentAndLevel(c.Request.Context(), studentID, levelID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Create godoc
// @Summary Create a progress record
// @Tags Progress
// @Accept json
// @Produce json
// @Param payload body service.CreateProgressRequest true "Progress payload"
// @Success 201 {object} response.Envelope
// @Router /student-progress [post]
func (h *ProgressHandler) Create(c *gin.Context) {
	var req service.CreateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.progress.Create(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Update godoc
// @Summary Update a progress record's status or attempts
// @Tags Progress
// @Accept json
// @Produce json
// @Param id path int true "Progress record ID"
// @Param payload body service.UpdateProgressRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Router /student-progress/{id} [put]
func (h *ProgressHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	updated, err := h.progress.Update(c.Request.Context(), id, req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !updated {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "progress record not found"))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"updated": true}, nil)
}

// BulkUpdate godoc
// @Summary Apply the same update to many progress records
// @Tags Progress
// @Accept json
// @Produce json
// @Param payload body service.BulkUpdateProgressRequest true "Bulk update payload"
// @Success 200 {object} response.Envelope
// @Router /student-progress [put]
func (h *ProgressHandler) BulkUpdate(c *gin.Context) {
	var req service.BulkUpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	count, err := h.progress.BulkUpdate(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"updated": count, "total": len(req.ProgressIDs)}, nil)
}

// Delete godoc
// @Summary Delete a progress record
// @Tags Progress
// @Produce json
// @Param id path int true "Progress record ID"
// @Success 204
// @Router /student-progress/{id} [delete]
func (h *ProgressHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	deleted, err := h.progress.Delete(c.Request.Context(), id, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !deleted {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "progress record not found"))
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export a student's level report as CSV or PDF
// @Tags Progress
// @Produce text/csv
// @Produce application/pdf
// @Param studentId path int true "Student ID"
// @Param levelId path int true "Level ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200
// @Router /students/{studentId}/progress/level/{levelId}/export [get]
func (h *ProgressHandler) Export(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "exports are disabled"))
		return
	}
	studentID, err := pathID(c, "studentId")
	if err != nil {
		response.Error(c, err)
		return
	}
	levelID, err := pathID(c, "levelId")
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.exports.ExportLevelReport(c.Request.Context(), studentID, levelID, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+result.Filename)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
