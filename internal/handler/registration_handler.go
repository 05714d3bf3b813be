package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ecampus-api/internal/models"
	"github.com/noah-isme/ecampus-api/pkg/response"
)

type approvalService interface {
	SubmitRegistration(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error)
	CheckApprovalStatus(ctx context.Context, trackID string) (*models.ApprovalStatusResponse, error)
	ListPending(ctx context.Context) ([]models.Account, error)
	ApproveRequest(ctx context.Context, trackID string, req models.ApproveRequest) (*models.ApproveResponse, error)
	SetInitialPassword(ctx context.Context, accountID string, req models.CreatePasswordRequest) error
	ChangePassword(ctx context.Context, accountID string, req models.ChangePasswordRequest) error
}

type teacherDirectoryInvalidator interface {
	Invalidate(ctx context.Context)
}

// RegistrationHandler exposes the registration and approval workflow.
type RegistrationHandler struct {
	approvals approvalService
	teachers  teacherDirectoryInvalidator
}

// NewRegistrationHandler constructs a RegistrationHandler. teachers may be
// nil.
func NewRegistrationHandler(approvals approvalService, teachers teacherDirectoryInvalidator) *RegistrationHandler {
	return &RegistrationHandler{approvals: approvals, teachers: teachers}
}

// Register godoc
// @Summary Submit a registration
// @Description Teachers are approved immediately and receive a token; students receive a track id and wait for approval
// @Tags Registration
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /register [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req, "invalid registration payload") {
		return
	}
	res, err := h.approvals.SubmitRegistration(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if res.Role == models.RoleTeacher && h.teachers != nil {
		h.teachers.Invalidate(c.Request.Context())
	}
	response.Created(c, res)
}

// UserDetails godoc
// @Summary Check approval status
// @Tags Registration
// @Produce json
// @Param trackId path string true "Track ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /user-details/{trackId} [get]
func (h *RegistrationHandler) UserDetails(c *gin.Context) {
	res, err := h.approvals.CheckApprovalStatus(c.Request.Context(), c.Param("trackId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Pending godoc
// @Summary List pending registrations
// @Tags Registration
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /pending-requests [get]
func (h *RegistrationHandler) Pending(c *gin.Context) {
	accounts, err := h.approvals.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, accounts, nil)
}

// Approve godoc
// @Summary Approve a registration
// @Tags Registration
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param trackId path string true "Track ID"
// @Param payload body models.ApproveRequest true "Registration number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approve-user/{trackId} [put]
func (h *RegistrationHandler) Approve(c *gin.Context) {
	var req models.ApproveRequest
	if !bindJSON(c, &req, "invalid approval payload") {
		return
	}
	res, err := h.approvals.ApproveRequest(c.Request.Context(), c.Param("trackId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// CreatePassword godoc
// @Summary Set the first password
// @Tags Registration
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreatePasswordRequest true "Password"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /create-password [put]
func (h *RegistrationHandler) CreatePassword(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	var req models.CreatePasswordRequest
	if !bindJSON(c, &req, "invalid create password payload") {
		return
	}
	if err := h.approvals.SetInitialPassword(c.Request.Context(), claims.AccountID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "password created successfully")
}

// ChangePassword godoc
// @Summary Change password
// @Tags Registration
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.ChangePasswordRequest true "Passwords"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /change-password [put]
func (h *RegistrationHandler) ChangePassword(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	var req models.ChangePasswordRequest
	if !bindJSON(c, &req, "invalid change password payload") {
		return
	}
	if err := h.approvals.ChangePassword(c.Request.Context(), claims.AccountID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "password updated successfully")
}
