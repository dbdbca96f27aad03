package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/campus-eats/services"
	"github.com/upb/campus-eats/utils"
	"go.uber.org/zap"
)

func TestHandleServiceError(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedMessage string
	}{
		{
			name:            "not found error",
			err:             services.ErrUserNotFound,
			expectedStatus:  http.StatusNotFound,
			expectedMessage: "user not found",
		},
		{
			name:            "validation error",
			err:             services.ErrMissingIdentifier,
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "identity is missing a subject or email",
		},
		{
			name:            "unauthorized error",
			err:             services.ErrUnauthenticated,
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Not authenticated",
		},
		{
			name:            "forbidden error",
			err:             services.ErrForbidden,
			expectedStatus:  http.StatusForbidden,
			expectedMessage: "access forbidden",
		},
		{
			name:            "conflict error",
			err:             services.ErrDuplicateSubject,
			expectedStatus:  http.StatusConflict,
			expectedMessage: "external subject already registered",
		},
		{
			name:            "issuer rejected",
			err:             services.ErrIssuerRejected,
			expectedStatus:  http.StatusBadGateway,
			expectedMessage: "identity provider rejected the authentication",
		},
		{
			name:            "directory unavailable hides cause",
			err:             services.NewDomainError(services.ErrorTypeInternal, "user directory unavailable", errors.New("dial tcp 10.0.0.1:5432")),
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: "An internal error occurred",
		},
		{
			name:            "unknown error",
			err:             errors.New("some unknown error"),
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleServiceError(w, tt.err, logger)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response utils.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.False(t, response.Success)
			assert.Equal(t, tt.expectedMessage, response.Message)
		})
	}
}

func TestHandleServiceErrorWithDetails(t *testing.T) {
	err := services.NewDomainError(services.ErrorTypeValidation, "invalid input", nil).
		WithDetail("email", "email must be a valid email address")

	w := httptest.NewRecorder()
	HandleServiceError(w, err, zap.NewNop())

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response utils.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "email must be a valid email address", response.Details["email"])
}

func TestHandleServiceErrorNil(t *testing.T) {
	w := httptest.NewRecorder()
	HandleServiceError(w, nil, zap.NewNop())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}
