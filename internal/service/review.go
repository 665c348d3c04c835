package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/espresso-self/internal/apperror"
	"github.com/sakif/espresso-self/internal/model"
	"github.com/sakif/espresso-self/internal/repository"
)

// Review rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Validation messages for the review form.
const (
	MsgRatingInvalid   = "Rating must be a whole number from 1 to 5!"
	MsgCommentRequired = "Review must not be empty!"
)

// ParseRating converts the rating form field.
func ParseRating(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < MinRating || n > MaxRating {
		return 0, apperror.ValidationFailed("rating", MsgRatingInvalid)
	}
	return n, nil
}

// ReviewService handles writing, editing, deleting, voting on and answering
// reviews.
type ReviewService struct {
	users   repository.UserRepository
	cafes   repository.CafeRepository
	reviews repository.ReviewRepository
	now     func() time.Time
	logger  *slog.Logger
}

func NewReviewService(
	users repository.UserRepository,
	cafes repository.CafeRepository,
	reviews repository.ReviewRepository,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		users:   users,
		cafes:   cafes,
		reviews: reviews,
		now:     time.Now,
		logger:  logger,
	}
}

// WithClock replaces the clock used to date new reviews. Tests use it.
func (s *ReviewService) WithClock(now func() time.Time) *ReviewService {
	s.now = now
	return s
}

func validateContent(rating int, comment string) (string, error) {
	if rating < MinRating || rating > MaxRating {
		return "", apperror.ValidationFailed("rating", MsgRatingInvalid)
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return "", apperror.ValidationFailed("comment", MsgCommentRequired)
	}
	return comment, nil
}

// Submit writes a new review of the café named cafeName by author.
//
// A new review starts with no votes, no owner response and not edited. It
// copies the café's numeric ID and image and is dated today (MM/DD/YY).
func (s *ReviewService) Submit(ctx context.Context, author, cafeName string, rating int, comment string) (*model.Review, error) {
	comment, err := validateContent(rating, comment)
	if err != nil {
		return nil, err
	}

	// The session can outlive its user (a reseed while serving).
	if _, err := s.users.GetByUsername(ctx, author); err != nil {
		return nil, fmt.Errorf("service/review: loading author %s: %w", author, err)
	}

	cafe, err := s.cafes.GetByName(ctx, cafeName)
	if err != nil {
		return nil, fmt.Errorf("service/review: loading cafe %q: %w", cafeName, err)
	}

	review := &model.Review{
		Username:      author,
		Cafe:          cafe.Name,
		CafeID:        cafe.CafeID,
		ImageSrc:      cafe.ImageName,
		Rating:        rating,
		Comment:       comment,
		Date:          s.now().Format(model.DateLayout),
		Helpful:       0,
		Unhelpful:     0,
		OwnerResponse: "",
		Edited:        false,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("service/review: creating review: %w", err)
	}

	s.logger.Info("review submitted",
		slog.String("reviewID", review.ID),
		slog.String("author", author),
		slog.String("cafe", cafe.Name),
	)
	return review, nil
}

// Get returns one review.
func (s *ReviewService) Get(ctx context.Context, id string) (*model.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/review: loading review %s: %w", id, err)
	}
	return review, nil
}

// GetForEdit returns a review its author is about to edit.
func (s *ReviewService) GetForEdit(ctx context.Context, actor, id string) (*model.Review, error) {
	review, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.Username != actor {
		return nil, apperror.Forbidden("only the author can edit this review")
	}
	return review, nil
}

// Edit replaces the rating and comment of actor's own review and marks it
// edited. The ID, author and votes are untouched.
func (s *ReviewService) Edit(ctx context.Context, actor, id string, rating int, comment string) (*model.Review, error) {
	comment, err := validateContent(rating, comment)
	if err != nil {
		return nil, err
	}

	review, err := s.GetForEdit(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := s.reviews.UpdateContent(ctx, id, rating, comment); err != nil {
		return nil, fmt.Errorf("service/review: updating review %s: %w", id, err)
	}

	review.Rating = rating
	review.Comment = comment
	review.Edited = true
	return review, nil
}

// Delete removes actor's own review and returns it.
func (s *ReviewService) Delete(ctx context.Context, actor, id string) (*model.Review, error) {
	review, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.Username != actor {
		return nil, apperror.Forbidden("only the author can delete this review")
	}

	deleted, err := s.reviews.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/review: deleting review %s: %w", id, err)
	}

	s.logger.Info("review deleted", slog.String("reviewID", id), slog.String("author", actor))
	return deleted, nil
}

// Vote marks a review helpful (or unhelpful when helpful is false).
//
// ONE VOTE PER USER PER REVIEW:
// The voter's helpful list is the record of which reviews they voted on.
// AddVote only appends when the review isn't there yet, and the counter is
// only bumped when it did. A repeated vote returns counted=false and no
// error, so N distinct voters move the counter by exactly N.
func (s *ReviewService) Vote(ctx context.Context, voter, id string, helpful bool) (review *model.Review, counted bool, err error) {
	review, err = s.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}

	added, err := s.users.AddVote(ctx, voter, id)
	if err != nil {
		return nil, false, fmt.Errorf("service/review: recording vote by %s: %w", voter, err)
	}
	if !added {
		return review, false, nil
	}

	if err := s.reviews.IncrementVote(ctx, id, helpful); err != nil {
		return nil, false, fmt.Errorf("service/review: counting vote on %s: %w", id, err)
	}

	if helpful {
		review.Helpful++
	} else {
		review.Unhelpful++
	}
	return review, true, nil
}

// Respond sets the owner's response on a review. Only a user whose owned
// cafés include the review's café may respond.
func (s *ReviewService) Respond(ctx context.Context, actor, id, response string) (*model.Review, error) {
	review, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	owner, err := s.users.GetByUsername(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("service/review: loading user %s: %w", actor, err)
	}
	if !owner.OwnsCafe(review.Cafe) {
		return nil, apperror.Forbidden("only the cafe's owner can respond to its reviews")
	}

	response = strings.TrimSpace(response)
	if err := s.reviews.SetOwnerResponse(ctx, id, response); err != nil {
		return nil, fmt.Errorf("service/review: responding to %s: %w", id, err)
	}

	review.OwnerResponse = response
	return review, nil
}
