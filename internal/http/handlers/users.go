package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/pribylovaa/go-bodytrack/internal/errors"
	"github.com/pribylovaa/go-bodytrack/internal/http/middleware"
	"github.com/pribylovaa/go-bodytrack/internal/models"
	"github.com/pribylovaa/go-bodytrack/internal/service"
)

// Me — GET /users/me: профиль текущего пользователя.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrUnauthenticated)
		return
	}

	user, err := h.svc.Profile(r.Context(), id.UserID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{Success: true, User: user})
}

// CreateUser — POST /users (admin): создание пользователя без выпуска токенов.
func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in createUserRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	input := in.toInput()
	input.Role = models.Role(in.Role)

	user, err := h.svc.CreateUser(r.Context(), input)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{Success: true, User: user})
}

// DeleteUser — DELETE /users/{id} (admin). Refresh-токены пользователя удаляются вместе с ним.
func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, &service.ValidationError{
			Fields: []service.FieldError{{Field: "id", Message: "Id must be an UUID"}},
		})
		return
	}

	if err := h.svc.DeleteUser(r.Context(), userID); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
