package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ecampus-api/internal/middleware"
	"github.com/noah-isme/ecampus-api/internal/models"
	appErrors "github.com/noah-isme/ecampus-api/pkg/errors"
	"github.com/noah-isme/ecampus-api/pkg/response"
)

type studentService interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentSummary, *models.Pagination, bool, error)
	Get(ctx context.Context, id string) (*models.StudentDetail, error)
	Create(ctx context.Context, input models.StudentInput) (*models.Student, error)
	Update(ctx context.Context, id string, input models.StudentInput) (*models.Student, error)
	Delete(ctx context.Context, id string) error
	AddSubject(ctx context.Context, studentID string, req models.SubjectRequest) (*models.Subject, error)
	UpdateSubject(ctx context.Context, studentID string, req models.SubjectRequest) error
	DeleteSubject(ctx context.Context, studentID string, req models.DeleteSubjectRequest) error
	MarkAttendance(ctx context.Context, studentID string, req models.AttendanceRequest) (*models.AttendanceRecord, error)
	BulkAttendance(ctx context.Context, entries []models.BulkAttendanceEntry) (int, error)
}

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	students studentService
	uploads  *Uploader
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentService, uploads *Uploader) *StudentHandler {
	return &StudentHandler{students: students, uploads: uploads}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search by name or registration number"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	var filter models.StudentFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}

	students, pagination, hit, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	respond(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Create godoc
// @Summary Create student
// @Tags Students
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param name formData string true "Name"
// @Param registration_no formData string true "Registration number"
// @Param photo formData file false "Photo"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	input, ok := h.bindInput(c)
	if !ok {
		return
	}
	student, err := h.students.Create(c.Request.Context(), input)
	if err != nil {
		h.uploads.Discard(input.Photo)
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param name formData string false "Name"
// @Param registration_no formData string false "Registration number"
// @Param photo formData file false "Photo"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	input, ok := h.bindInput(c)
	if !ok {
		return
	}
	student, err := h.students.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		h.uploads.Discard(input.Photo)
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Delete godoc
// @Summary Delete student
// @Tags Students
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.students.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "student deleted")
}

// AddSubject godoc
// @Summary Add subject marks
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body models.SubjectRequest true "Subject"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/{id}/add-subject [put]
func (h *StudentHandler) AddSubject(c *gin.Context) {
	var req models.SubjectRequest
	if !bindJSON(c, &req, "invalid subject payload") {
		return
	}
	subject, err := h.students.AddSubject(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// UpdateSubject godoc
// @Summary Update subject marks
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body models.SubjectRequest true "Subject"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/update-subject [put]
func (h *StudentHandler) UpdateSubject(c *gin.Context) {
	var req models.SubjectRequest
	if !bindJSON(c, &req, "invalid subject payload") {
		return
	}
	if err := h.students.UpdateSubject(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "subject updated")
}

// DeleteSubject godoc
// @Summary Delete subject
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body models.DeleteSubjectRequest true "Subject"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/delete-subject [delete]
func (h *StudentHandler) DeleteSubject(c *gin.Context) {
	var req models.DeleteSubjectRequest
	if !bindJSON(c, &req, "invalid subject payload") {
		return
	}
	if err := h.students.DeleteSubject(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "subject deleted")
}

// MarkAttendance godoc
// @Summary Record attendance for a day
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body models.AttendanceRequest true "Attendance"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/add-attendance [put]
func (h *StudentHandler) MarkAttendance(c *gin.Context) {
	var req models.AttendanceRequest
	if !bindJSON(c, &req, "invalid attendance payload") {
		return
	}
	record, err := h.students.MarkAttendance(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// BulkAttendance godoc
// @Summary Record attendance for many students
// @Description All entries are applied or none is
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body []models.BulkAttendanceEntry true "Attendance entries"
// @Success 200 {object} response.Envelope
// @Router /attendance/bulk-update [post]
func (h *StudentHandler) BulkAttendance(c *gin.Context) {
	var entries []models.BulkAttendanceEntry
	if !bindJSON(c, &entries, "invalid attendance payload") {
		return
	}
	updated, err := h.students.BulkAttendance(c.Request.Context(), entries)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "attendance updated successfully", "updated": updated}, nil)
}

func (h *StudentHandler) bindInput(c *gin.Context) (models.StudentInput, bool) {
	var input models.StudentInput
	if err := c.ShouldBind(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return input, false
	}
	photo, err := h.uploads.Save(c, "photo", false)
	if err != nil {
		response.Error(c, err)
		return input, false
	}
	input.Photo = photo
	return input, true
}
