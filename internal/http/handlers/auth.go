package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/go-bodytrack/internal/errors"
	"github.com/pribylovaa/go-bodytrack/internal/http/middleware"
	"github.com/pribylovaa/go-bodytrack/internal/service"
)

// Login — POST /users/login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	user, pair, err := h.svc.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.setRefreshCookie(w, pair.RefreshToken, pair.RefreshExpiresAt)
	writeJSON(w, http.StatusOK, authResponse{Success: true, User: user, AccessToken: pair.AccessToken})
}

// Signup — POST /users/signup.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var in signupRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	user, pair, err := h.svc.Signup(r.Context(), in.toInput())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.setRefreshCookie(w, pair.RefreshToken, pair.RefreshExpiresAt)
	writeJSON(w, http.StatusCreated, authResponse{Success: true, User: user, AccessToken: pair.AccessToken})
}

// Logout — POST /users/logout: отзывает текущую сессию и стирает cookie.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrUnauthenticated)
		return
	}

	if err := h.svc.Logout(r.Context(), id.UserID, h.refreshCookie(r)); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.clearRefreshCookie(w)
	w.WriteHeader(http.StatusResetContent)
}

// MasterLogout — POST /users/master-logout: отзывает все сессии пользователя.
func (h *Handlers) MasterLogout(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrUnauthenticated)
		return
	}

	if err := h.svc.LogoutAll(r.Context(), id.UserID); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.clearRefreshCookie(w)
	w.WriteHeader(http.StatusResetContent)
}

// Reauth — POST /users/reauth: новый access-токен по refresh-cookie.
func (h *Handlers) Reauth(w http.ResponseWriter, r *http.Request) {
	access, _, err := h.svc.Refresh(r.Context(), h.refreshCookie(r))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	writeJSON(w, http.StatusCreated, reauthResponse{Success: true, AccessToken: access})
}
