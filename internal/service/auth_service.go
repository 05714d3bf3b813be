package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/ecampus-api/internal/models"
	appErrors "github.com/noah-isme/ecampus-api/pkg/errors"
)

type authAccountRepository interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
}

// AuthService provides authentication use cases.
type AuthService struct {
	accounts  authAccountRepository
	tokens    tokenIssuer
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(accounts authAccountRepository, tokens tokenIssuer, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{accounts: accounts, tokens: tokens, metrics: metrics, validator: validate, logger: logger}
}

// Login authenticates an account by username and password. Unknown users,
// pending registrations and accounts without a password all fail the same
// way so the response does not reveal which one applied.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	account, err := s.accounts.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.invalidCredentials(req.Username, "unknown username")
		}
		return nil, appErrors.Storage(err, "failed to fetch user")
	}
	if !account.IsApproved || !account.HasPassword() {
		return nil, s.invalidCredentials(req.Username, "account not ready for login")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, s.invalidCredentials(req.Username, "password mismatch")
	}

	token, expiresAt, err := s.tokens.Issue(account.ID, account.Role)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", zap.String("account_id", account.ID), zap.String("role", string(account.Role)))

	return &models.LoginResponse{
		Token:          token,
		ExpiresAt:      expiresAt,
		Role:           account.Role,
		Username:       req.Username,
		RegistrationNo: account.RegistrationNo,
		Name:           account.Name,
	}, nil
}

// Me returns the account behind the current session.
func (s *AuthService) Me(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Storage(err, "failed to fetch user")
	}
	return account, nil
}

func (s *AuthService) invalidCredentials(username, reason string) error {
	s.metrics.RecordAuthFailure(appErrors.ErrInvalidCredentials.Code)
	s.logger.Debug("login rejected", zap.String("username", username), zap.String("reason", reason))
	return appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid username or password")
}
