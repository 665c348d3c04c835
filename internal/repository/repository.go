// Package repository defines the storage contracts the services depend on.
//
// Two backends implement them: repository/sqlite (embedded, the default) and
// repository/mongo (the document database the café data originally lived
// in). Services only ever see these interfaces.
//
// Conventions shared by every implementation:
//   - a lookup that finds nothing returns an apperror.NotFound error
//   - a duplicate username returns an apperror.Conflict error
//   - every mutation is a single atomic store operation; no caller ever
//     loads a document, changes it in memory and writes it back
package repository

import (
	"context"

	"github.com/sakif/espresso-self/internal/model"
)

// ProfileUpdate holds the editable profile fields. An empty PasswordHash
// keeps the current password.
type ProfileUpdate struct {
	Description  string
	PasswordHash string
}

// UserRepository stores User documents, keyed by username.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateProfile(ctx context.Context, username string, update ProfileUpdate) error

	// AddVote records that username voted on reviewID. It reports whether
	// the vote was new; a repeated vote leaves the user unchanged.
	AddVote(ctx context.Context, username, reviewID string) (added bool, err error)

	Count(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) error
}

// CafeRepository stores Cafe documents. Cafés are only written by seeding.
type CafeRepository interface {
	Create(ctx context.Context, cafe *model.Cafe) error
	GetByCafeID(ctx context.Context, cafeID int) (*model.Cafe, error)
	GetByName(ctx context.Context, name string) (*model.Cafe, error)
	List(ctx context.Context) ([]model.Cafe, error)
	Count(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) error
}

// ReviewRepository stores Review documents.
type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	GetByID(ctx context.Context, id string) (*model.Review, error)
	ListByCafe(ctx context.Context, cafeName string) ([]model.Review, error)
	ListByAuthor(ctx context.Context, username string) ([]model.Review, error)

	// UpdateContent replaces the rating and comment and marks the review
	// edited.
	UpdateContent(ctx context.Context, id string, rating int, comment string) error

	SetOwnerResponse(ctx context.Context, id, response string) error

	// IncrementVote adds one to the helpful counter, or to the unhelpful
	// counter when helpful is false.
	IncrementVote(ctx context.Context, id string, helpful bool) error

	// Delete removes the review and returns it as it was.
	Delete(ctx context.Context, id string) (*model.Review, error)

	Count(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) error
}
