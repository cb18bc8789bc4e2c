package handlers

import (
	"net/http"
	"time"
)

// setRefreshCookie кладёт refresh-токен в cookie: HttpOnly всегда, Secure вне локальной разработки.
// Max-Age совпадает с оставшимся сроком жизни токена.
func (h *Handlers) setRefreshCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Round(time.Second).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     h.cookie.Path,
		Domain:   h.cookie.Domain,
		MaxAge:   maxAge,
		Expires:  expiresAt.UTC(),
		HttpOnly: true,
		Secure:   !h.cookie.Insecure,
		SameSite: h.cookie.SameSiteMode(),
	})
}

// clearRefreshCookie удаляет cookie (Max-Age=0) с теми же атрибутами.
func (h *Handlers) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     h.cookie.Path,
		Domain:   h.cookie.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		HttpOnly: true,
		Secure:   !h.cookie.Insecure,
		SameSite: h.cookie.SameSiteMode(),
	})
}

// refreshCookie возвращает значение cookie или пустую строку.
func (h *Handlers) refreshCookie(r *http.Request) string {
	c, err := r.Cookie(h.cookie.Name)
	if err != nil {
		return ""
	}
	return c.Value
}
