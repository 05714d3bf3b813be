package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/ecampus-api/internal/models"
	"github.com/noah-isme/ecampus-api/internal/repository"
	appErrors "github.com/noah-isme/ecampus-api/pkg/errors"
)

type accountRepository interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
	FindByTrackID(ctx context.Context, trackID string) (*models.Account, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, account *models.Account) error
	ListPending(ctx context.Context) ([]models.Account, error)
	Approve(ctx context.Context, trackID, username, registrationNo, profileName string, at time.Time) error
	SetPasswordIfEmpty(ctx context.Context, id, hash string, at time.Time) error
	UpdatePassword(ctx context.Context, id, hash string, at time.Time) error
}

type tokenIssuer interface {
	Issue(accountID string, role models.Role) (string, time.Time, error)
}

// ApprovalService turns registration requests into credentialed accounts.
// Teachers are usable immediately; students wait for a teacher to approve
// them, which also materialises their student profile.
type ApprovalService struct {
	accounts   accountRepository
	tokens     tokenIssuer
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	bcryptCost int
	now        func() time.Time
}

// NewApprovalService constructs an ApprovalService. bcryptCost outside the
// bcrypt range falls back to bcrypt.DefaultCost.
func NewApprovalService(accounts accountRepository, tokens tokenIssuer, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, bcryptCost int) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &ApprovalService{
		accounts:   accounts,
		tokens:     tokens,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// DeriveUsername builds the username of an approved student: the name with
// all whitespace removed, lower-cased, followed by the registration number.
func DeriveUsername(name, registrationNo string) string {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)
	return strings.ToLower(compact) + registrationNo
}

// SubmitRegistration records a registration request. Teacher accounts are
// created approved with their credentials and receive a session token;
// student accounts are created pending and receive only a track id.
func (s *ApprovalService) SubmitRegistration(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	switch req.Role {
	case models.RoleTeacher:
		if req.Username == "" || req.Password == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "teachers must provide a username and password")
		}
		return s.registerTeacher(ctx, req)
	case models.RoleStudent:
		if req.Username != "" || req.Password != "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "students receive their username on approval")
		}
		return s.registerStudent(ctx, req)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "role must be teacher or student")
	}
}

func (s *ApprovalService) registerTeacher(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error) {
	taken, err := s.accounts.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to check username")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a user with this username already exists")
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		TrackID:      uuid.NewString(),
		Name:         req.Name,
		Role:         models.RoleTeacher,
		MobileNumber: req.MobileNumber,
		Username:     &req.Username,
		PasswordHash: &hash,
		IsApproved:   true,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a user with this username already exists")
		}
		return nil, appErrors.Storage(err, "failed to create account")
	}

	token, expiresAt, err := s.tokens.Issue(account.ID, account.Role)
	if err != nil {
		return nil, err
	}
	s.logger.Info("teacher registered", zap.String("account_id", account.ID), zap.String("username", req.Username))

	return &models.RegisterResponse{
		TrackID:      account.TrackID,
		Role:         account.Role,
		Username:     req.Username,
		MobileNumber: account.MobileNumber,
		Token:        token,
		ExpiresAt:    &expiresAt,
	}, nil
}

func (s *ApprovalService) registerStudent(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error) {
	account := &models.Account{
		TrackID:      uuid.NewString(),
		Name:         req.Name,
		Role:         models.RoleStudent,
		MobileNumber: req.MobileNumber,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, appErrors.Storage(err, "failed to create registration request")
	}
	s.logger.Info("registration request submitted", zap.String("account_id", account.ID), zap.String("track_id", account.TrackID))

	return &models.RegisterResponse{TrackID: account.TrackID, Role: account.Role}, nil
}

// CheckApprovalStatus reports the username of an approved registration and
// issues a session so the student can set a first password. Unknown and
// still pending track ids are both NOT_FOUND.
func (s *ApprovalService) CheckApprovalStatus(ctx context.Context, trackID string) (*models.ApprovalStatusResponse, error) {
	account, err := s.accounts.FindByTrackID(ctx, trackID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not approved or track id invalid")
		}
		return nil, appErrors.Storage(err, "failed to load registration")
	}
	if !account.IsApproved || account.Username == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not approved or track id invalid")
	}

	token, expiresAt, err := s.tokens.Issue(account.ID, account.Role)
	if err != nil {
		return nil, err
	}
	return &models.ApprovalStatusResponse{
		Username:   *account.Username,
		IsApproved: true,
		Token:      token,
		ExpiresAt:  expiresAt,
	}, nil
}

// ListPending returns registration requests awaiting approval.
func (s *ApprovalService) ListPending(ctx context.Context) ([]models.Account, error) {
	accounts, err := s.accounts.ListPending(ctx)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to list pending requests")
	}
	return accounts, nil
}

// ApproveRequest approves a pending registration under the given
// registration number and returns the generated username. The approval and
// the student profile are written together by a conditional update, so of
// two racing approvals only one succeeds and a failed approval leaves the
// request pending.
func (s *ApprovalService) ApproveRequest(ctx context.Context, trackID string, req models.ApproveRequest) (*models.ApproveResponse, error) {
	req.RegistrationNo = strings.TrimSpace(req.RegistrationNo)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid approval payload")
	}

	account, err := s.accounts.FindByTrackID(ctx, trackID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordApproval(ApprovalOutcomeNotFound)
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		s.metrics.RecordApproval(ApprovalOutcomeError)
		return nil, appErrors.Storage(err, "failed to load registration")
	}
	if account.IsApproved {
		s.metrics.RecordApproval(ApprovalOutcomeConflict)
		return nil, appErrors.Clone(appErrors.ErrConflict, "user is already approved")
	}

	username := DeriveUsername(account.Name, req.RegistrationNo)
	usernameTaken := appErrors.Clone(appErrors.ErrConflict, "registration number results in a username that already exists, please choose a different one")

	taken, err := s.accounts.ExistsByUsername(ctx, username)
	if err != nil {
		s.metrics.RecordApproval(ApprovalOutcomeError)
		return nil, appErrors.Storage(err, "failed to check username")
	}
	if taken {
		s.metrics.RecordApproval(ApprovalOutcomeConflict)
		return nil, usernameTaken
	}

	if err := s.accounts.Approve(ctx, trackID, username, req.RegistrationNo, account.Name, s.now().UTC()); err != nil {
		switch {
		case errors.Is(err, repository.ErrNoChange):
			s.metrics.RecordApproval(ApprovalOutcomeConflict)
			return nil, appErrors.Clone(appErrors.ErrConflict, "user is already approved")
		case errors.Is(err, repository.ErrDuplicate):
			s.metrics.RecordApproval(ApprovalOutcomeConflict)
			return nil, usernameTaken
		default:
			s.metrics.RecordApproval(ApprovalOutcomeError)
			return nil, appErrors.Storage(err, "failed to approve user")
		}
	}

	s.metrics.RecordApproval(ApprovalOutcomeApproved)
	s.logger.Info("registration approved", zap.String("track_id", trackID), zap.String("username", username))
	return &models.ApproveResponse{Username: username, Message: "student approved and added to student records"}, nil
}

// SetInitialPassword stores the first password of an account. Accounts that
// already have one must use ChangePassword.
func (s *ApprovalService) SetInitialPassword(ctx context.Context, accountID string, req models.CreatePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create password payload")
	}

	account, err := s.loadAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if account.HasPassword() {
		return appErrors.Clone(appErrors.ErrConflict, "password already exists, use change password")
	}
	return s.setFirstPassword(ctx, accountID, req.NewPassword)
}

// ChangePassword replaces the password after verifying the old one. An
// account without a password accepts only an empty old password, in which
// case the call sets the first password.
func (s *ApprovalService) ChangePassword(ctx context.Context, accountID string, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid change password payload")
	}

	account, err := s.loadAccount(ctx, accountID)
	if err != nil {
		return err
	}

	if !account.HasPassword() {
		if req.OldPassword != "" {
			s.metrics.RecordAuthFailure(appErrors.ErrInvalidCredentials.Code)
			return appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid old password")
		}
		return s.setFirstPassword(ctx, accountID, req.NewPassword)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*account.PasswordHash), []byte(req.OldPassword)); err != nil {
		s.metrics.RecordAuthFailure(appErrors.ErrInvalidCredentials.Code)
		return appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid old password")
	}

	hash, err := s.hash(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.accounts.UpdatePassword(ctx, accountID, hash, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNoChange) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Storage(err, "failed to update password")
	}
	s.logger.Info("password changed", zap.String("account_id", accountID))
	return nil
}

func (s *ApprovalService) setFirstPassword(ctx context.Context, accountID, password string) error {
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	if err := s.accounts.SetPasswordIfEmpty(ctx, accountID, hash, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNoChange) {
			return appErrors.Clone(appErrors.ErrConflict, "password already exists, use change password")
		}
		return appErrors.Storage(err, "failed to store password")
	}
	s.logger.Info("initial password set", zap.String("account_id", accountID))
	return nil
}

func (s *ApprovalService) loadAccount(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Storage(err, "failed to load user")
	}
	return account, nil
}

func (s *ApprovalService) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	return string(hash), nil
}
