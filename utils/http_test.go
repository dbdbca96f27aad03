package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteJSON(t *testing.T) {
	t.Run("successful write", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := WriteJSON(w, http.StatusOK, map[string]string{"message": "test"})
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Equal(t, "test", decodeBody(t, w)["message"])
	})

	t.Run("nil data", func(t *testing.T) {
		w := httptest.NewRecorder()

		require.NoError(t, WriteJSON(w, http.StatusNoContent, nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

func TestWriteOK(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, WriteOK(w, map[string]string{"result": "done"}))

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "done", body["data"].(map[string]interface{})["result"])
}

func TestWriteUnauthorized(t *testing.T) {
	t.Run("default message", func(t *testing.T) {
		w := httptest.NewRecorder()

		require.NoError(t, WriteUnauthorized(w, ""))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"success":false,"message":"Not authenticated"}`, w.Body.String())
	})

	t.Run("custom message", func(t *testing.T) {
		w := httptest.NewRecorder()

		require.NoError(t, WriteUnauthorized(w, "Login failed"))

		assert.JSONEq(t, `{"success":false,"message":"Login failed"}`, w.Body.String())
	})
}

func TestWriteErrorStatuses(t *testing.T) {
	tests := []struct {
		name    string
		write   func(w http.ResponseWriter) error
		status  int
		message string
	}{
		{"bad request", func(w http.ResponseWriter) error { return WriteBadRequest(w, "bad", nil) }, http.StatusBadRequest, "bad"},
		{"forbidden", func(w http.ResponseWriter) error { return WriteForbidden(w, "") }, http.StatusForbidden, "Access forbidden"},
		{"not found", func(w http.ResponseWriter) error { return WriteNotFound(w, "") }, http.StatusNotFound, "Resource not found"},
		{"conflict", func(w http.ResponseWriter) error { return WriteConflict(w, "taken", nil) }, http.StatusConflict, "taken"},
		{"bad gateway", func(w http.ResponseWriter) error { return WriteBadGateway(w, "") }, http.StatusBadGateway, "Upstream service error"},
		{"internal", func(w http.ResponseWriter) error { return WriteInternalServerError(w, "") }, http.StatusInternalServerError, "Internal server error"},
		{"generic falls back to status text", func(w http.ResponseWriter) error { return WriteError(w, http.StatusTeapot, "", nil) }, http.StatusTeapot, "I'm a teapot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			require.NoError(t, tt.write(w))

			assert.Equal(t, tt.status, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["message"])
		})
	}
}

func TestWriteBadRequest_Details(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, WriteBadRequest(w, "Validation failed", map[string]interface{}{"Email": "Email is required"}))

	body := decodeBody(t, w)
	assert.Equal(t, "Email is required", body["details"].(map[string]interface{})["Email"])
}

func TestQueryInt(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"missing", "", 20},
		{"valid", "limit=5", 5},
		{"garbage", "limit=abc", 20},
		{"below min", "limit=0", 1},
		{"above max", "limit=500", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/orders?"+tt.query, nil)
			assert.Equal(t, tt.want, QueryInt(r, "limit", 20, 1, 100))
		})
	}
}
