package handler

// ERROR MAPPING:
// Services return apperror values; this is the one place they become HTTP.
//
//	ErrValidation, ErrConflict → 500 + the plain-text message ("Passwords must match!")
//	ErrNotFound                → 303 to a safe page chosen by the caller
//	ErrUnauthorized            → 303 to /login
//	ErrForbidden               → 403 + the plain-text message
//	anything else              → logged, 500 "Internal Server Error"

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sakif/espresso-self/internal/apperror"
	"github.com/sakif/espresso-self/internal/session"
)

// Safe pages to land on when something is missing.
const (
	homeURL  = "/"
	loginURL = "/login"
)

// redirect answers with 303 See Other, so a POST is followed by a GET.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

// writeError maps err to a response. notFound is where a missing record
// sends the visitor.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, notFound string) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		switch {
		case errors.Is(err, apperror.ErrValidation), errors.Is(err, apperror.ErrConflict):
			writeText(w, http.StatusInternalServerError, appErr.Message)
			return
		case errors.Is(err, apperror.ErrNotFound):
			logger.Debug("not found, redirecting",
				slog.String("path", r.URL.Path),
				slog.String("reason", appErr.Message),
				slog.String("to", notFound),
			)
			redirect(w, r, notFound)
			return
		case errors.Is(err, apperror.ErrUnauthorized):
			redirect(w, r, loginURL)
			return
		case errors.Is(err, apperror.ErrForbidden):
			writeText(w, http.StatusForbidden, appErr.Message)
			return
		}
	}

	logger.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeText(w, http.StatusInternalServerError, "Internal Server Error")
}

// actor is the logged-in username. Routes that need one sit behind
// session.Require, so "" only happens on public routes.
func actor(r *http.Request) string {
	return session.Username(r.Context())
}

// cafeIDParam reads ?cafe_id=. A missing or non-numeric value is reported
// as a not-found café.
func cafeIDParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("cafe_id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.NotFound("cafe", raw)
	}
	return id, nil
}

// cafeURL is the café detail page. The logged-in variant carries the
// ownership and voting controls.
func cafeURL(cafeID int, loggedIn bool, filter string) string {
	path := "/cafe1"
	if loggedIn {
		path = "/cafe1_user"
	}
	q := url.Values{}
	q.Set("cafe_id", strconv.Itoa(cafeID))
	if filter != "" {
		q.Set("searchInputReview", filter)
	}
	return path + "?" + q.Encode()
}

func profileURL(username string) string {
	return "/profile_user?" + url.Values{"username": {username}}.Encode()
}
