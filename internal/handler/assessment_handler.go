package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edutrack/edutrack-api/internal/models"
	"github.com/edutrack/edutrack-api/internal/service"
	appErrors "github.com/edutrack/edutrack-api/pkg/errors"
	"github.com/edutrack/edutrack-api/pkg/response"
)

// AssessmentHandler wires HTTP endpoints to the assessment service.
type AssessmentHandler struct {
	service *service.AssessmentService
}

// NewAssessmentHandler creates a new handler.
func NewAssessmentHandler(svc *service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{service: svc}
}

// Create godoc
// @Summary Create assessment
// @Description Create an assessment; status is classified from the due date at write time
// @Tags Assessments
// @Accept json
// @Produce json
// @Param payload body models.CreateAssessmentRequest true "Assessment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /assessments [post]
func (h *AssessmentHandler) Create(c *gin.Context) {
	var req models.CreateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assessment payload"))
		return
	}

	a, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, a)
}

// Get godoc
// @Summary Get assessment
// @Tags Assessments
// @Produce json
// @Param id path int true "Assessment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assessments/{id} [get]
func (h *AssessmentHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	a, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, a, nil)
}

// List godoc
// @Summary List assessments
// @Tags Assessments
// @Produce json
// @Param student_id query int false "Filter by student"
// @Param status query string false "Filter by stored status"
// @Param type query string false "Filter by type"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param refresh query bool false "Recompute statuses against today for display"
// @Success 200 {object} response.Envelope
// @Router /assessments [get]
func (h *AssessmentHandler) List(c *gin.Context) {
	filter := models.AssessmentFilter{
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if raw := c.Query("student_id"); raw != "" {
		filter.StudentID, _ = strconv.ParseInt(raw, 10, 64)
	}
	if raw := c.Query("status"); raw != "" {
		status := models.AssessmentStatus(raw)
		filter.Status = &status
	}
	if raw := c.Query("type"); raw != "" {
		kind := models.AssessmentType(raw)
		filter.Type = &kind
	}
	if raw := c.Query("due_from"); raw != "" {
		from, err := models.ParseDate(raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		filter.DueFrom = &from
	}
	if raw := c.Query("due_to"); raw != "" {
		to, err := models.ParseDate(raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		filter.DueTo = &to
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	rows, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	// Stored statuses go stale; refresh recomputes for this response only.
	if c.Query("refresh") == "true" {
		today := time.Now()
		for i := range rows {
			rows[i].Status = rows[i].CurrentStatus(today)
		}
	}

	response.JSON(c, http.StatusOK, rows, pagination)
}

// Update godoc
// @Summary Update assessment
// @Description Overwrite fields and reclassify status against today
// @Tags Assessments
// @Accept json
// @Produce json
// @Param id path int true "Assessment ID"
// @Param payload body models.UpdateAssessmentRequest true "Assessment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assessments/{id} [put]
func (h *AssessmentHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req models.UpdateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assessment payload"))
		return
	}

	a, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, a, nil)
}

// Delete godoc
// @Summary Delete assessment
// @Description Remove an assessment; deleting an unknown ID succeeds quietly
// @Tags Assessments
// @Produce json
// @Param id path int true "Assessment ID"
// @Success 204 {object} response.Envelope
// @Router /assessments/{id} [delete]
func (h *AssessmentHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Summary godoc
// @Summary Assessment status summary
// @Description Break down a student's assessments by current status
// @Tags Assessments
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/assessments/summary [get]
func (h *AssessmentHandler) Summary(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil)
}

// RefreshStatuses godoc
// @Summary Refresh stored statuses
// @Description Rewrite a student's stored statuses from their due dates
// @Tags Assessments
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/assessments/refresh [post]
func (h *AssessmentHandler) RefreshStatuses(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	changed, err := h.service.RefreshStatuses(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"changed": changed}, nil)
}
