package models

import "time"

// Role identifies what an account may do through the access gate.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Valid reports whether r is one of the recognized roles.
func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

// Account represents a person who may log in, stored in the accounts table.
// Student accounts start unapproved with no username, password or
// registration number.
type Account struct {
	ID             string    `db:"id" json:"id"`
	TrackID        string    `db:"track_id" json:"track_id"`
	Name           string    `db:"name" json:"name"`
	Role           Role      `db:"role" json:"role"`
	MobileNumber   string    `db:"mobile_number" json:"mobile_number"`
	Username       *string   `db:"username" json:"username,omitempty"`
	PasswordHash   *string   `db:"password_hash" json:"-"`
	IsApproved     bool      `db:"is_approved" json:"is_approved"`
	RegistrationNo *string   `db:"registration_no" json:"registration_no,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// HasPassword reports whether a password hash has been stored.
func (a *Account) HasPassword() bool {
	return a.PasswordHash != nil && *a.PasswordHash != ""
}

// TeacherContact is the public view of a teacher account.
type TeacherContact struct {
	ID           string  `db:"id" json:"id"`
	Name         string  `db:"name" json:"name"`
	Username     *string `db:"username" json:"username,omitempty"`
	MobileNumber string  `db:"mobile_number" json:"mobile_number"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
