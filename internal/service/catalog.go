package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/espresso-self/internal/model"
	"github.com/sakif/espresso-self/internal/repository"
)

// ProfileView says whose eyes a profile page is seen through.
type ProfileView string

const (
	ViewOwn       ProfileView = "own"       // the logged-in user's own profile
	ViewOther     ProfileView = "other"     // someone else's, while logged in
	ViewAnonymous ProfileView = "anonymous" // nobody is logged in
)

// HomePage is the café listing.
type HomePage struct {
	Cafes  []model.Cafe
	Filter string
	Viewer *model.User // nil when anonymous
}

// CafePage is a café with its reviews.
type CafePage struct {
	Cafe    *model.Cafe
	Reviews []model.Review
	Filter  string
	IsOwner bool
	Viewer  *model.User
}

// ProfilePage is a user with the reviews they wrote.
type ProfilePage struct {
	User    *model.User
	Reviews []model.Review
	View    ProfileView
	Viewer  *model.User
}

// CatalogService builds the read-only pages. Every method takes the viewing
// username ("" when anonymous) and loads that user fresh, so a page always
// reflects the latest votes and profile edits.
type CatalogService struct {
	users   repository.UserRepository
	cafes   repository.CafeRepository
	reviews repository.ReviewRepository
	logger  *slog.Logger
}

func NewCatalogService(
	users repository.UserRepository,
	cafes repository.CafeRepository,
	reviews repository.ReviewRepository,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		users:   users,
		cafes:   cafes,
		reviews: reviews,
		logger:  logger,
	}
}

// Home lists cafés. A non-empty filter keeps the cafés whose name or
// description contains it, ignoring case.
func (s *CatalogService) Home(ctx context.Context, filter, viewer string) (*HomePage, error) {
	cafes, err := s.cafes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/catalog: listing cafes: %w", err)
	}

	v, err := lookupViewer(ctx, s.users, viewer)
	if err != nil {
		return nil, fmt.Errorf("service/catalog: loading viewer: %w", err)
	}

	return &HomePage{
		Cafes:  FilterCafes(cafes, filter),
		Filter: filter,
		Viewer: v,
	}, nil
}

// Viewer loads the logged-in user, or nil for an anonymous visitor.
func (s *CatalogService) Viewer(ctx context.Context, username string) (*model.User, error) {
	v, err := lookupViewer(ctx, s.users, username)
	if err != nil {
		return nil, fmt.Errorf("service/catalog: loading viewer: %w", err)
	}
	return v, nil
}

// Cafe returns one café by its public ID.
func (s *CatalogService) Cafe(ctx context.Context, cafeID int) (*model.Cafe, error) {
	cafe, err := s.cafes.GetByCafeID(ctx, cafeID)
	if err != nil {
		return nil, fmt.Errorf("service/catalog: loading cafe %d: %w", cafeID, err)
	}
	return cafe, nil
}

// CafeDetail resolves the café, then its reviews by café name, then applies
// the review filter (author, café name or comment, ignoring case).
//
// IsOwner is an exact membership test of the café's name in the viewer's
// owned-cafés list.
func (s *CatalogService) CafeDetail(ctx context.Context, cafeID int, filter, viewer string) (*CafePage, error) {
	cafe, err := s.Cafe(ctx, cafeID)
	if err != nil {
		return nil, err
	}

	reviews, err := s.reviews.ListByCafe(ctx, cafe.Name)
	if err != nil {
		return nil, fmt.Errorf("service/catalog: listing reviews for %q: %w", cafe.Name, err)
	}

	v, err := lookupViewer(ctx, s.users, viewer)
	if err != nil {
		return nil, fmt.Errorf("service/catalog: loading viewer: %w", err)
	}

	return &CafePage{
		Cafe:    cafe,
		Reviews: FilterReviews(reviews, filter),
		Filter:  filter,
		IsOwner: v.OwnsCafe(cafe.Name),
		Viewer:  v,
	}, nil
}

// Profile shows username's profile and reviews.
func (s *CatalogService) Profile(ctx context.Context, username, viewer string) (*ProfilePage, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("service/catalog: loading profile %q: %w", username, err)
	}

	reviews, err := s.reviews.ListByAuthor(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("service/catalog: listing reviews by %q: %w", username, err)
	}

	v, err := lookupViewer(ctx, s.users, viewer)
	if err != nil {
		return nil, fmt.Errorf("service/catalog: loading viewer: %w", err)
	}

	view := ViewAnonymous
	switch {
	case v == nil:
	case v.Username == user.Username:
		view = ViewOwn
	default:
		view = ViewOther
	}

	return &ProfilePage{
		User:    user,
		Reviews: reviews,
		View:    view,
		Viewer:  v,
	}, nil
}

// FilterCafes keeps the cafés whose name or description contains filter,
// ignoring case. An empty filter keeps everything.
func FilterCafes(cafes []model.Cafe, filter string) []model.Cafe {
	if filter == "" {
		return cafes
	}
	out := []model.Cafe{}
	for _, c := range cafes {
		if containsFold(c.Name, filter) || containsFold(c.Description, filter) {
			out = append(out, c)
		}
	}
	return out
}

// FilterReviews keeps the reviews whose author, café name or comment
// contains filter, ignoring case. An empty filter keeps everything.
func FilterReviews(reviews []model.Review, filter string) []model.Review {
	if filter == "" {
		return reviews
	}
	out := []model.Review{}
	for _, r := range reviews {
		if containsFold(r.Username, filter) || containsFold(r.Cafe, filter) || containsFold(r.Comment, filter) {
			out = append(out, r)
		}
	}
	return out
}
