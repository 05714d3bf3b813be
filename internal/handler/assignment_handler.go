package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ecampus-api/internal/models"
	appErrors "github.com/noah-isme/ecampus-api/pkg/errors"
	"github.com/noah-isme/ecampus-api/pkg/response"
)

type assignmentService interface {
	Create(ctx context.Context, input models.AssignmentInput) (*models.Assignment, error)
	List(ctx context.Context, actor *models.JWTClaims) ([]models.Assignment, error)
	Submit(ctx context.Context, actor *models.JWTClaims, assignmentID, file string) (*models.Submission, error)
	Grade(ctx context.Context, assignmentID, studentID string, req models.GradeRequest) (*models.Submission, error)
}

// AssignmentHandler exposes homework endpoints.
type AssignmentHandler struct {
	assignments assignmentService
	uploads     *Uploader
}

// NewAssignmentHandler constructs AssignmentHandler.
func NewAssignmentHandler(assignments assignmentService, uploads *Uploader) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments, uploads: uploads}
}

// Create godoc
// @Summary Publish assignment
// @Tags Assignments
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param due_date formData string true "Due date (YYYY-MM-DD)"
// @Param file formData file false "Attachment"
// @Success 201 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	var input models.AssignmentInput
	if err := c.ShouldBind(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	file, err := h.uploads.Save(c, "file", false)
	if err != nil {
		response.Error(c, err)
		return
	}
	input.File = file

	assignment, err := h.assignments.Create(c.Request.Context(), input)
	if err != nil {
		h.uploads.Discard(file)
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// List godoc
// @Summary List assignments
// @Description Students only see their own submissions
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	assignments, err := h.assignments.List(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, assignments, nil)
}

// Submit godoc
// @Summary Submit assignment
// @Tags Assignments
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Param submissionFile formData file true "Submission"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignments/{id}/submit [post]
func (h *AssignmentHandler) Submit(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	file, err := h.uploads.Save(c, "submissionFile", true)
	if err != nil {
		response.Error(c, err)
		return
	}
	submission, err := h.assignments.Submit(c.Request.Context(), claims, c.Param("id"), *file)
	if err != nil {
		h.uploads.Discard(file)
		response.Error(c, err)
		return
	}
	response.Created(c, submission)
}

// Grade godoc
// @Summary Grade submission
// @Tags Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Param studentId path string true "Student ID"
// @Param payload body models.GradeRequest true "Grade"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/grade/{studentId} [put]
func (h *AssignmentHandler) Grade(c *gin.Context) {
	var req models.GradeRequest
	if !bindJSON(c, &req, "invalid grade payload") {
		return
	}
	submission, err := h.assignments.Grade(c.Request.Context(), c.Param("id"), c.Param("studentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}
