package middleware

import (
	"context"
	"net/http"

	apierrors "github.com/pribylovaa/go-bodytrack/internal/errors"
	"github.com/pribylovaa/go-bodytrack/internal/models"
	logctx "github.com/pribylovaa/go-bodytrack/internal/pkg/log"
	"github.com/pribylovaa/go-bodytrack/internal/service"
)

type identityKey struct{}

// Authenticator проверяет значение заголовка Authorization.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (*models.Identity, error)
}

// AuthGuard пропускает запрос дальше только с действительным access-токеном
// и кладёт Identity в контекст. Иначе — 401 с WWW-Authenticate.
func AuthGuard(auth Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := auth.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				apierrors.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey{}, id)
			ctx = logctx.With(ctx, "user_id", id.UserID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFrom возвращает субъект запроса, положенный AuthGuard.
func IdentityFrom(ctx context.Context) (*models.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*models.Identity)
	return id, ok && id != nil
}

// RequireRole пропускает только субъектов с заданной ролью. Ставится после AuthGuard.
func RequireRole(role models.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, _ := IdentityFrom(r.Context())
			if err := service.RequireRole(id, role); err != nil {
				apierrors.WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
