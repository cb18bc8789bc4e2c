// errors — единая граница перевода ошибок сервиса в HTTP-ответы.
// Хендлеры не пишут ответы об ошибках сами, а передают ошибку в WriteError,
// который классифицирует её по виду и выдаёт:
//   - HTTP-статус;
//   - безопасное тело {error, feedback?, validationErrors?} без утечки деталей;
//   - заголовок WWW-Authenticate для 401.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pribylovaa/go-bodytrack/internal/pkg/log"
	"github.com/pribylovaa/go-bodytrack/internal/service"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// Ошибки HTTP-слоя, не относящиеся к сервису.
var (
	// ErrBadRequest — тело запроса не разбирается как JSON нужной формы.
	ErrBadRequest = errors.New("bad request")
	// ErrRouteNotFound — неизвестный маршрут.
	ErrRouteNotFound = errors.New("route not found")
	// ErrMethodNotAllowed — метод не поддерживается маршрутом.
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// ErrorResponse — тело ответа об ошибке.
type ErrorResponse struct {
	Error            string               `json:"error"`
	Feedback         string               `json:"feedback,omitempty"`
	ValidationErrors []service.FieldError `json:"validationErrors,omitempty"`
}

// Response — результат классификации ошибки.
type Response struct {
	Status int
	Body   ErrorResponse
	// Challenge — значение WWW-Authenticate (только для 401).
	Challenge string
}

// ToHTTP классифицирует ошибку.
//
// Поведение:
//   - err == nil — это программная ошибка вызова: 500, чтобы не отдать "200 OK" с телом ошибки;
//   - неизвестная ошибка — 500 {"error":"Internal Server Error"} без деталей.
func ToHTTP(err error) Response {
	var (
		ve *service.ValidationError
		ae *service.AuthError
	)

	switch {
	case err == nil:
		return internal()

	case errors.As(err, &ve):
		return Response{
			Status: http.StatusUnprocessableEntity,
			Body:   ErrorResponse{Error: "Validation error", ValidationErrors: ve.Fields},
		}

	case errors.As(err, &ae) && errors.Is(ae.Kind, service.ErrForbidden):
		return Response{
			Status: http.StatusForbidden,
			Body:   ErrorResponse{Error: "Authorization Error", Feedback: "You are not authorized!"},
		}

	case errors.As(err, &ae):
		feedback := "You are unauthenticated!"
		if ae.Expired() {
			feedback = "Token lifetime exceeded!"
		}
		return Response{
			Status:    http.StatusUnauthorized,
			Body:      ErrorResponse{Error: "Authentication Error", Feedback: feedback},
			Challenge: challenge(ae),
		}

	case errors.Is(err, service.ErrUnauthenticated):
		return Response{
			Status:    http.StatusUnauthorized,
			Body:      ErrorResponse{Error: "Authentication Error", Feedback: "You are unauthenticated!"},
			Challenge: challenge(&service.AuthError{Realm: service.RealmDefault}),
		}

	case errors.Is(err, service.ErrForbidden):
		return Response{
			Status: http.StatusForbidden,
			Body:   ErrorResponse{Error: "Authorization Error", Feedback: "You are not authorized!"},
		}

	case errors.Is(err, service.ErrWrongCredentials):
		return Response{
			Status: http.StatusBadRequest,
			Body:   ErrorResponse{Error: "Wrong credentials", Feedback: "Email or password is wrong!"},
		}

	case errors.Is(err, service.ErrUserNotFound):
		return Response{
			Status: http.StatusNotFound,
			Body:   ErrorResponse{Error: "User not found", Feedback: "User does not exist"},
		}

	case errors.Is(err, service.ErrTooManyAttempts):
		return Response{
			Status: http.StatusTooManyRequests,
			Body:   ErrorResponse{Error: "Too many requests"},
		}

	case errors.Is(err, ErrBadRequest):
		return Response{Status: http.StatusBadRequest, Body: ErrorResponse{Error: "Bad request"}}

	case errors.Is(err, ErrRouteNotFound):
		return Response{Status: http.StatusNotFound, Body: ErrorResponse{Error: "Resource not found"}}

	case errors.Is(err, ErrMethodNotAllowed):
		return Response{Status: http.StatusMethodNotAllowed, Body: ErrorResponse{Error: "Method not allowed"}}

	case errors.Is(err, context.Canceled):
		return Response{Status: StatusClientClosedRequest, Body: ErrorResponse{Error: "Request canceled"}}

	default:
		return internal()
	}
}

// WriteError — хелпер для HTTP-хендлеров и мидлваров.
// Ошибки 5xx логируются с деталями, клиенту уходит только общее сообщение.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ToHTTP(err)

	if resp.Status >= http.StatusInternalServerError {
		attrs := []slog.Attr{slog.String("path", r.URL.Path), slog.Int("status", resp.Status)}
		if err != nil {
			attrs = append(attrs, slog.String("err", err.Error()))
		}
		log.From(r.Context()).LogAttrs(r.Context(), slog.LevelError, "request_failed", attrs...)
	}

	if resp.Challenge != "" {
		w.Header().Set("WWW-Authenticate", resp.Challenge)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	_ = json.NewEncoder(w).Encode(resp.Body)
}

// challenge собирает значение WWW-Authenticate: Bearer realm=X, error=Y, error_description=Z.
func challenge(ae *service.AuthError) string {
	realm := ae.Realm
	if realm == "" {
		realm = service.RealmDefault
	}

	parts := []string{"realm=" + realm}
	if ae.Reason != "" {
		parts = append(parts, "error="+ae.Reason)
	}
	if ae.Description != "" {
		parts = append(parts, "error_description="+ae.Description)
	}

	return "Bearer " + strings.Join(parts, ", ")
}

func internal() Response {
	return Response{
		Status: http.StatusInternalServerError,
		Body:   ErrorResponse{Error: "Internal Server Error"},
	}
}
