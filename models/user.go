package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole represents what a user may do on the platform
type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleStaff    UserRole = "staff"
	RoleAdmin    UserRole = "admin"
)

// User is the local record for a person authenticated by the identity provider.
// ExternalSubjectID is immutable once stored; Email and DisplayName follow the
// latest identity-provider claims.
type User struct {
	ID                uuid.UUID `json:"id" db:"id"`
	ExternalSubjectID string    `json:"-" db:"external_subject_id"`
	Email             string    `json:"email" db:"email"`
	DisplayName       string    `json:"name" db:"display_name"`
	Role              UserRole  `json:"role" db:"role"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// NewUser creates a new customer User for an external subject
func NewUser(externalSubjectID, email, displayName string) *User {
	now := time.Now().UTC()
	return &User{
		ID:                uuid.New(),
		ExternalSubjectID: externalSubjectID,
		Email:             email,
		DisplayName:       displayName,
		Role:              RoleCustomer,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// HasRole returns true if the user holds any of the given roles
func (u *User) HasRole(roles ...UserRole) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// ProfileDrifted reports whether the stored profile differs from the given claims.
// Comparison is exact, so a case-only email change is stored too.
func (u *User) ProfileDrifted(email, displayName string) bool {
	return u.Email != email || u.DisplayName != displayName
}

// ApplyProfile copies email and display name onto the user and bumps UpdatedAt
func (u *User) ApplyProfile(email, displayName string) {
	u.Email = email
	u.DisplayName = displayName
	u.UpdatedAt = time.Now().UTC()
}
