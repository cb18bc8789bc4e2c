package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/go-bodytrack/internal/config"
	apierrors "github.com/pribylovaa/go-bodytrack/internal/errors"
	"github.com/pribylovaa/go-bodytrack/internal/http/handlers"
	"github.com/pribylovaa/go-bodytrack/internal/http/middleware"
	"github.com/pribylovaa/go-bodytrack/internal/metrics"
	"github.com/pribylovaa/go-bodytrack/internal/models"
)

// Service — то, что роутеру нужно от сервиса: хендлеры и проверка access-токена.
type Service interface {
	handlers.AuthService
	middleware.Authenticator
}

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.
	Cookie   config.CookieConfig
	Metrics  *metrics.Metrics // nil — без HTTP-метрик
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		middleware.Metrics(opts.Metrics),
		middleware.Timeout(opts.Timeout), // общий дедлайн запроса
	)

	notFound := func(w http.ResponseWriter, r *http.Request) {
		apierrors.WriteError(w, r, apierrors.ErrRouteNotFound)
	}
	methodNotAllowed := func(w http.ResponseWriter, r *http.Request) {
		apierrors.WriteError(w, r, apierrors.ErrMethodNotAllowed)
	}
	root.NotFound(notFound)
	root.MethodNotAllowed(methodNotAllowed)

	h := handlers.New(svc, opts.Cookie)

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		sub.NotFound(notFound)
		sub.MethodNotAllowed(methodNotAllowed)
		registerRoutes(sub, h, svc)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h, svc)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, auth middleware.Authenticator) {
	r.Route("/users", func(r chi.Router) {
		// публичные
		r.Post("/login", h.Login)
		r.Post("/signup", h.Signup)
		r.Post("/reauth", h.Reauth)

		// требуют access-токен
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthGuard(auth))

			r.Post("/logout", h.Logout)
			r.Post("/master-logout", h.MasterLogout)
			r.Get("/me", h.Me)

			// только admin
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin))

				r.Post("/", h.CreateUser)
				r.Delete("/{id}", h.DeleteUser)
			})
		})
	})
}
