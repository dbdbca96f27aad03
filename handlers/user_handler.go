package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/upb/campus-eats/middleware"
	"github.com/upb/campus-eats/models"
	"github.com/upb/campus-eats/utils"
	"go.uber.org/zap"
)

// UserView is the public shape of the logged-in user
type UserView struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Role  models.UserRole `json:"role"`
}

// CurrentUserResponse is the body of GET /api/user
type CurrentUserResponse struct {
	Success bool     `json:"success"`
	User    UserView `json:"user"`
}

// NewUserView builds the public view of u
func NewUserView(u *models.User) UserView {
	return UserView{
		ID:    u.ID,
		Name:  u.DisplayName,
		Email: u.Email,
		Role:  u.Role,
	}
}

// UserHandler handles requests about the current user
type UserHandler struct {
	logger *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(logger *zap.Logger) *UserHandler {
	return &UserHandler{logger: logger}
}

// HandleCurrentUser handles GET /api/user
func (h *UserHandler) HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, CurrentUserResponse{
		Success: true,
		User:    NewUserView(user),
	}); err != nil {
		h.logger.Error("failed to write user response", zap.Error(err))
	}
}

// HandleLoginFailed handles GET /login-failed, the default failure redirect target
func (h *UserHandler) HandleLoginFailed(w http.ResponseWriter, r *http.Request) {
	var details map[string]interface{}
	if code := r.URL.Query().Get("error"); code != "" {
		details = map[string]interface{}{"error": code}
	}
	_ = utils.WriteError(w, http.StatusUnauthorized, "Login failed", details)
}
