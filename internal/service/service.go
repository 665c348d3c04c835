// Package service contains the business logic of the café site.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses forms, renders pages, redirects
//	Service (Business layer) → validates, checks permissions, orchestrates
//	Repository (Data layer)  → reads/writes the document store
//
// Services take plain values (usernames, IDs, form strings) and return
// models or apperror values. They never see an *http.Request, so the same
// rules apply to the web handlers and to the seed command.
//
// WHO IS ASKING?
// Every mutating method takes the acting username as its first argument
// after ctx. It comes from the request's session, never from a form field,
// and the service decides whether that user may perform the action.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sakif/espresso-self/internal/apperror"
	"github.com/sakif/espresso-self/internal/model"
	"github.com/sakif/espresso-self/internal/repository"
)

// containsFold reports whether substr is within s, ignoring case.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// lookupViewer resolves the logged-in user. An empty username, or one whose
// account no longer exists, is an anonymous viewer (nil, nil).
func lookupViewer(ctx context.Context, users repository.UserRepository, username string) (*model.User, error) {
	if username == "" {
		return nil, nil
	}
	u, err := users.GetByUsername(ctx, username)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, nil
	}
	return u, err
}
