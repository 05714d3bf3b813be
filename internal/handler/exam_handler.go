package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ecampus-api/internal/models"
	appErrors "github.com/noah-isme/ecampus-api/pkg/errors"
	"github.com/noah-isme/ecampus-api/pkg/response"
)

type examService interface {
	CreateSchedule(ctx context.Context, input models.ExamScheduleInput) (*models.ExamSchedule, error)
	ListSchedules(ctx context.Context) ([]models.ExamSchedule, error)
	CreateResult(ctx context.Context, req models.CreateExamResultRequest) (*models.ExamResult, error)
	ListResults(ctx context.Context, actor *models.JWTClaims) ([]models.ExamResult, error)
	ListResultsByStudent(ctx context.Context, actor *models.JWTClaims, studentID string) ([]models.ExamResult, error)
	UpdateResult(ctx context.Context, id string, req models.UpdateExamResultRequest) (*models.ExamResult, error)
	DeleteResult(ctx context.Context, id string) error
}

// ExamHandler exposes exam schedule and result endpoints.
type ExamHandler struct {
	exams   examService
	uploads *Uploader
}

// NewExamHandler constructs ExamHandler.
func NewExamHandler(exams examService, uploads *Uploader) *ExamHandler {
	return &ExamHandler{exams: exams, uploads: uploads}
}

// CreateSchedule godoc
// @Summary Publish exam schedule
// @Tags Exams
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param date formData string true "Exam date (YYYY-MM-DD)"
// @Param file formData file false "Attachment"
// @Success 201 {object} response.Envelope
// @Router /examschedule [post]
func (h *ExamHandler) CreateSchedule(c *gin.Context) {
	var input models.ExamScheduleInput
	if err := c.ShouldBind(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid exam schedule payload"))
		return
	}
	file, err := h.uploads.Save(c, "file", false)
	if err != nil {
		response.Error(c, err)
		return
	}
	input.File = file

	schedule, err := h.exams.CreateSchedule(c.Request.Context(), input)
	if err != nil {
		h.uploads.Discard(file)
		response.Error(c, err)
		return
	}
	response.Created(c, schedule)
}

// ListSchedules godoc
// @Summary List exam schedules
// @Tags Exams
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /examschedule [get]
func (h *ExamHandler) ListSchedules(c *gin.Context) {
	schedules, err := h.exams.ListSchedules(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, schedules, nil)
}

// CreateResult godoc
// @Summary Record exam result
// @Tags Exams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateExamResultRequest true "Result"
// @Success 201 {object} response.Envelope
// @Router /examresults [post]
func (h *ExamHandler) CreateResult(c *gin.Context) {
	var req models.CreateExamResultRequest
	if !bindJSON(c, &req, "invalid exam result payload") {
		return
	}
	result, err := h.exams.CreateResult(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// ListResults godoc
// @Summary List exam results
// @Description Students only see their own results
// @Tags Exams
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /examresults [get]
func (h *ExamHandler) ListResults(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	results, err := h.exams.ListResults(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, results, nil)
}

// ListResultsByStudent godoc
// @Summary List exam results of a student
// @Tags Exams
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /examresults/{id} [get]
func (h *ExamHandler) ListResultsByStudent(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	results, err := h.exams.ListResultsByStudent(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, results, nil)
}

// UpdateResult godoc
// @Summary Update exam result
// @Tags Exams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Result ID"
// @Param payload body models.UpdateExamResultRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Router /examresults/{id} [put]
func (h *ExamHandler) UpdateResult(c *gin.Context) {
	var req models.UpdateExamResultRequest
	if !bindJSON(c, &req, "invalid exam result payload") {
		return
	}
	result, err := h.exams.UpdateResult(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// DeleteResult godoc
// @Summary Delete exam result
// @Tags Exams
// @Security BearerAuth
// @Param id path string true "Result ID"
// @Success 200 {object} response.Envelope
// @Router /examresults/{id} [delete]
func (h *ExamHandler) DeleteResult(c *gin.Context) {
	if err := h.exams.DeleteResult(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "exam result deleted")
}
