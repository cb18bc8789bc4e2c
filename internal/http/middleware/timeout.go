package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout навешивает deadline на контекст запроса, если его ещё нет.
// Значение <=0 делает мидлвар no-op. Хранилище и сервис уважают этот deadline,
// а истечение отдаётся клиенту как 500 Internal Server Error.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := r.Context().Deadline(); ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
