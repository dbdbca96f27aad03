package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// User tests
func TestNewUser(t *testing.T) {
	user := NewUser("sub-123", "ana@upb.edu.co", "Ana Gómez")

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "sub-123", user.ExternalSubjectID)
	assert.Equal(t, "ana@upb.edu.co", user.Email)
	assert.Equal(t, "Ana Gómez", user.DisplayName)
	assert.Equal(t, RoleCustomer, user.Role)
	assert.False(t, user.CreatedAt.IsZero())
	assert.Equal(t, user.CreatedAt, user.UpdatedAt)
}

func TestUser_HasRole(t *testing.T) {
	user := &User{Role: RoleStaff}

	assert.True(t, user.HasRole(RoleStaff))
	assert.True(t, user.HasRole(RoleAdmin, RoleStaff))
	assert.False(t, user.HasRole(RoleAdmin))
	assert.False(t, user.HasRole())
}

func TestUser_ProfileDrifted(t *testing.T) {
	user := NewUser("sub", "ana@upb.edu.co", "Ana")

	t.Run("same profile", func(t *testing.T) {
		assert.False(t, user.ProfileDrifted("ana@upb.edu.co", "Ana"))
	})

	t.Run("email case only", func(t *testing.T) {
		assert.True(t, user.ProfileDrifted("Ana@upb.edu.co", "Ana"))
	})

	t.Run("new display name", func(t *testing.T) {
		assert.True(t, user.ProfileDrifted("ana@upb.edu.co", "Ana María"))
	})

	t.Run("new email", func(t *testing.T) {
		assert.True(t, user.ProfileDrifted("ana.m@upb.edu.co", "Ana"))
	})
}

func TestUser_ApplyProfile(t *testing.T) {
	user := NewUser("sub", "old@upb.edu.co", "Old")
	before := user.UpdatedAt

	user.ApplyProfile("new@upb.edu.co", "New")

	assert.Equal(t, "new@upb.edu.co", user.Email)
	assert.Equal(t, "New", user.DisplayName)
	assert.False(t, user.UpdatedAt.Before(before))
	assert.Equal(t, "sub", user.ExternalSubjectID)
}

func TestUser_JSONHidesSubject(t *testing.T) {
	user := NewUser("secret-subject", "ana@upb.edu.co", "Ana")

	data, err := json.Marshal(user)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "secret-subject")
	assert.Contains(t, string(data), `"name":"Ana"`)
}

// Restaurant tests
func TestNewRestaurant(t *testing.T) {
	r := NewRestaurant("La Cafetería", "Bloque 11")

	assert.NotEqual(t, uuid.Nil, r.ID)
	assert.Equal(t, "La Cafetería", r.Name)
	assert.Equal(t, "Bloque 11", r.Location)
	assert.False(t, r.IsOpen)
}
