package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/ecampus-api/internal/models"
	appErrors "github.com/noah-isme/ecampus-api/pkg/errors"
)

type accountLookup interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
}

type profileLookup interface {
	FindByRegistrationNo(ctx context.Context, registrationNo string) (*models.Student, error)
}

// ProfileResolver links a signed-in student account to its student profile
// through the registration number assigned at approval.
type ProfileResolver struct {
	accounts accountLookup
	students profileLookup
}

// NewProfileResolver constructs a ProfileResolver.
func NewProfileResolver(accounts accountLookup, students profileLookup) *ProfileResolver {
	return &ProfileResolver{accounts: accounts, students: students}
}

// Resolve returns the profile of the account. Accounts without a linked
// profile get FORBIDDEN.
func (r *ProfileResolver) Resolve(ctx context.Context, accountID string) (*models.Student, error) {
	notLinked := appErrors.Clone(appErrors.ErrForbidden, "your account is not linked to a student profile")

	account, err := r.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notLinked
		}
		return nil, appErrors.Storage(err, "failed to load account")
	}
	if account.RegistrationNo == nil || *account.RegistrationNo == "" {
		return nil, notLinked
	}

	student, err := r.students.FindByRegistrationNo(ctx, *account.RegistrationNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notLinked
		}
		return nil, appErrors.Storage(err, "failed to load student profile")
	}
	return student, nil
}
