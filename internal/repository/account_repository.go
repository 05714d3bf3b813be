package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ecampus-api/internal/models"
)

const accountColumns = `id, track_id, name, role, mobile_number, username, password_hash, is_approved, registration_no, created_at, updated_at`

// AccountRepository provides database access for accounts and their
// credentials.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository creates a new instance of AccountRepository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// FindByID returns an account by identifier.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	return r.findOne(ctx, "id", id)
}

// FindByTrackID returns an account by its registration track id.
func (r *AccountRepository) FindByTrackID(ctx context.Context, trackID string) (*models.Account, error) {
	return r.findOne(ctx, "track_id", trackID)
}

// FindByUsername returns an account by username.
func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	return r.findOne(ctx, "username", username)
}

func (r *AccountRepository) findOne(ctx context.Context, column, value string) (*models.Account, error) {
	query := fmt.Sprintf("SELECT %s FROM accounts WHERE %s = $1 LIMIT 1", accountColumns, column)
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find account by %s: %w", column, err)
	}
	return &account, nil
}

// ExistsByUsername reports whether any account already holds username.
func (r *AccountRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	const query = `SELECT 1 FROM accounts WHERE username = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check username: %w", err)
	}
	return true, nil
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	const query = `INSERT INTO accounts (` + accountColumns + `) VALUES (:id, :track_id, :name, :role, :mobile_number, :username, :password_hash, :is_approved, :registration_no, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, account); err != nil {
		return mapWriteError("create account", err)
	}
	return nil
}

// ListPending returns accounts awaiting approval, oldest first.
func (r *AccountRepository) ListPending(ctx context.Context) ([]models.Account, error) {
	query := fmt.Sprintf("SELECT %s FROM accounts WHERE is_approved = FALSE ORDER BY created_at ASC", accountColumns)
	accounts := []models.Account{}
	if err := r.db.SelectContext(ctx, &accounts, query); err != nil {
		return nil, fmt.Errorf("list pending accounts: %w", err)
	}
	return accounts, nil
}

// ListTeachers returns the contact details of all teacher accounts.
func (r *AccountRepository) ListTeachers(ctx context.Context) ([]models.TeacherContact, error) {
	const query = `SELECT id, name, username, mobile_number FROM accounts WHERE role = $1 ORDER BY name ASC`
	teachers := []models.TeacherContact{}
	if err := r.db.SelectContext(ctx, &teachers, query, models.RoleTeacher); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// Approve marks a pending account approved under username and
// registrationNo and ensures a student profile with that registration number
// exists, all in one transaction. The update only matches accounts that are
// not yet approved and returns ErrNoChange otherwise. An existing profile is
// kept as is.
func (r *AccountRepository) Approve(ctx context.Context, trackID, username, registrationNo, profileName string, at time.Time) error {
	const approveQuery = `UPDATE accounts SET username = $2, registration_no = $3, is_approved = TRUE, updated_at = $4 WHERE track_id = $1 AND is_approved = FALSE`
	const profileQuery = `INSERT INTO students (id, registration_no, name, created_at, updated_at) VALUES ($1, $2, $3, $4, $4) ON CONFLICT (registration_no) DO NOTHING`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin approve account: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback() //nolint:errcheck
		}
	}()

	res, err := tx.ExecContext(ctx, approveQuery, trackID, username, registrationNo, at)
	if err != nil {
		return mapWriteError("approve account", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("approve account: %w", err)
	}
	if err := expectOneRow("approve account", affected); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, profileQuery, uuid.NewString(), registrationNo, profileName, at); err != nil {
		return mapWriteError("ensure student profile", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit approve account: %w", err)
	}
	commit = true
	return nil
}

// SetPasswordIfEmpty stores hash only when the account has no password yet.
// It returns ErrNoChange otherwise.
func (r *AccountRepository) SetPasswordIfEmpty(ctx context.Context, id, hash string, at time.Time) error {
	const query = `UPDATE accounts SET password_hash = $2, updated_at = $3 WHERE id = $1 AND password_hash IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, hash, at)
	if err != nil {
		return fmt.Errorf("set initial password: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set initial password: %w", err)
	}
	return expectOneRow("set initial password", affected)
}

// UpdatePassword replaces the stored password hash.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id, hash string, at time.Time) error {
	const query = `UPDATE accounts SET password_hash = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, hash, at)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return expectOneRow("update password", affected)
}
