package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"userhub/internal/httputil"
	"userhub/internal/model"
	"userhub/internal/service"
	"userhub/internal/transport/http/middleware"
)

// UserHandler groups the user HTTP endpoints.
type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetUser returns a single user by nickname
// GET /users/{nickname}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	nickname := chi.URLParam(r, "nickname")
	if nickname == "" {
		httputil.WriteBadRequest(w, "Nickname is required")
		return
	}

	user, err := h.userService.Get(r.Context(), nickname)
	if err != nil {
		writeUserError(w, err, "Failed to get user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// GetCollection returns all users
// GET /users
func (h *UserHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.GetCollection(r.Context())
	if err != nil {
		writeUserError(w, err, "Failed to list users")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string][]model.User{"users": users})
}

// Update applies a partial update to the authenticated user
// PUT /users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	authUserID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user id")
		return
	}
	if id != authUserID {
		httputil.WriteForbidden(w, "Cannot update another user")
		return
	}

	var req model.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userService.Update(r.Context(), id, &req)
	if err != nil {
		writeUserError(w, err, "Failed to update user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// Delete removes the authenticated user's account
// DELETE /users/{nickname}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	authUserID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	nickname := chi.URLParam(r, "nickname")
	if nickname == "" {
		httputil.WriteBadRequest(w, "Nickname is required")
		return
	}

	// Ownership check: the nickname must belong to the caller.
	user, err := h.userService.Get(r.Context(), nickname)
	if err != nil {
		writeUserError(w, err, "Failed to delete user")
		return
	}
	if user.ID != authUserID {
		httputil.WriteForbidden(w, "Cannot delete another user")
		return
	}

	resp, err := h.userService.Delete(r.Context(), nickname)
	if err != nil {
		writeUserError(w, err, "Failed to delete user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// writeUserError maps domain errors to HTTP responses. Domain errors
// keep their identity so clients can react to them ("nickname taken"
// vs generic failure).
func writeUserError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		httputil.WriteNotFound(w, "User not found")
	case errors.Is(err, model.ErrNicknameTaken):
		httputil.WriteConflict(w, "Nickname already taken")
	case errors.Is(err, model.ErrInvalidCredentials):
		httputil.WriteUnauthorized(w, "Invalid credentials")
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrInvalidPasswordFormat):
		httputil.WriteBadRequest(w, err.Error())
	case errors.Is(err, model.ErrStoreUnavailable):
		httputil.WriteServiceUnavailable(w, "Service temporarily unavailable")
	default:
		httputil.WriteInternalError(w, fallback)
	}
}
