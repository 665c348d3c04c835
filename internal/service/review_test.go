package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/espresso-self/internal/apperror"
)

var fixedNow = time.Date(2024, time.March, 9, 15, 4, 5, 0, time.UTC)

func newTestReviews(t *testing.T) (*ReviewService, *fixture) {
	t.Helper()
	f := newFixture(t)
	svc := NewReviewService(f.users, f.cafes, f.reviews, f.logger).
		WithClock(func() time.Time { return fixedNow })
	return svc, f
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"1", 1, false},
		{" 5 ", 5, false},
		{"0", 0, true},
		{"6", 0, true},
		{"4.5", 0, true},
		{"", 0, true},
		{"five", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRating(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperror.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// =========================================================================
// SUBMIT TESTS
// =========================================================================

func TestSubmit_Defaults(t *testing.T) {
	svc, f := newTestReviews(t)
	f.addUser(t, "ana")
	f.addCafe(t, 3, "Bean Town", "")

	review, err := svc.Submit(context.Background(), "ana", "Bean Town", 4, "  smooth flat white  ")
	require.NoError(t, err)

	assert.NotEmpty(t, review.ID)
	assert.Equal(t, "ana", review.Username)
	assert.Equal(t, "Bean Town", review.Cafe)
	assert.Equal(t, 3, review.CafeID)
	assert.Equal(t, "Photos/Bean Town.webp", review.ImageSrc)
	assert.Equal(t, "smooth flat white", review.Comment)
	assert.Equal(t, "03/09/24", review.Date)
	assert.Zero(t, review.Helpful)
	assert.Zero(t, review.Unhelpful)
	assert.Empty(t, review.OwnerResponse)
	assert.False(t, review.Edited)
}

func TestSubmit_AppearsOnCafePage(t *testing.T) {
	svc, f := newTestReviews(t)
	f.addUser(t, "ana")
	f.addCafe(t, 1, "Bean Town", "")
	catalog := NewCatalogService(f.users, f.cafes, f.reviews, f.logger)

	review, err := svc.Submit(context.Background(), "ana", "Bean Town", 5, "best in town")
	require.NoError(t, err)

	page, err := catalog.CafeDetail(context.Background(), 1, "", "")
	require.NoError(t, err)
	require.Len(t, page.Reviews, 1)
	assert.Equal(t, review.ID, page.Reviews[0].ID)
}

func TestSubmit_Rejections(t *testing.T) {
	svc, f := newTestReviews(t)
	f.addUser(t, "ana")
	f.addCafe(t, 1, "Bean Town", "")

	_, err := svc.Submit(context.Background(), "ana", "Bean Town", 0, "ok")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Submit(context.Background(), "ana", "Bean Town", 3, "   ")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Submit(context.Background(), "ana", "Nowhere", 3, "ok")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	n, _ := f.reviews.Count(context.Background())
	assert.Zero(t, n)
}

func TestSubmit_UnknownAuthor(t *testing.T) {
	svc, f := newTestReviews(t)
	f.addUser(t, "ana")
	f.addCafe(t, 1, "Bean Town", "")

	// The user is gone but their session still names them.
	require.NoError(t, f.users.DeleteAll(context.Background()))

	_, err := svc.Submit(context.Background(), "ana", "Bean Town", 4, "still here?")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	n, _ := f.reviews.Count(context.Background())
	assert.Zero(t, n, "no review may be stored for a missing author")
}

// =========================================================================
// EDIT / DELETE TESTS
// =========================================================================

func TestEdit_ReplacesContentAndMarksEdited(t *testing.T) {
	svc, f := newTestReviews(t)
	original := f.addReview(t, "ana", "Bean Town", 2, "meh")

	edited, err := svc.Edit(context.Background(), "ana", original.ID, 5, "grew on me")
	require.NoError(t, err)
	assert.True(t, edited.Edited)

	stored, err := f.reviews.GetByID(context.Background(), original.ID)
	require.NoError(t, err)
	assert.Equal(t, original.ID, stored.ID)
	assert.Equal(t, "ana", stored.Username)
	assert.Equal(t, 5, stored.Rating)
	assert.Equal(t, "grew on me", stored.Comment)
	assert.True(t, stored.Edited)
}

func TestEdit_OnlyAuthor(t *testing.T) {
	svc, f := newTestReviews(t)
	original := f.addReview(t, "ana", "Bean Town", 2, "meh")

	_, err := svc.Edit(context.Background(), "ben", original.ID, 1, "vandalised")
	require.ErrorIs(t, err, apperror.ErrForbidden)

	stored, _ := f.reviews.GetByID(context.Background(), original.ID)
	assert.Equal(t, "meh", stored.Comment)
	assert.False(t, stored.Edited)

	_, err = svc.GetForEdit(context.Background(), "ben", original.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestDelete(t *testing.T) {
	svc, f := newTestReviews(t)
	f.addCafe(t, 1, "Bean Town", "")
	catalog := NewCatalogService(f.users, f.cafes, f.reviews, f.logger)
	keep := f.addReview(t, "ben", "Bean Town", 4, "keep me")
	gone := f.addReview(t, "ana", "Bean Town", 1, "delete me")

	_, err := svc.Delete(context.Background(), "ben", gone.ID)
	require.ErrorIs(t, err, apperror.ErrForbidden)

	deleted, err := svc.Delete(context.Background(), "ana", gone.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana", deleted.Username)

	page, err := catalog.CafeDetail(context.Background(), 1, "", "")
	require.NoError(t, err)
	require.Len(t, page.Reviews, 1)
	assert.Equal(t, keep.ID, page.Reviews[0].ID)

	_, err = svc.Delete(context.Background(), "ana", gone.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

// =========================================================================
// VOTE TESTS
// =========================================================================

func TestVote_DistinctVotersCountOnce(t *testing.T) {
	svc, f := newTestReviews(t)
	review := f.addReview(t, "ana", "Bean Town", 4, "nice")

	const voters = 7
	for i := 0; i < voters; i++ {
		name := fmt.Sprintf("voter%d", i)
		f.addUser(t, name)
		_, counted, err := svc.Vote(context.Background(), name, review.ID, true)
		require.NoError(t, err)
		assert.True(t, counted)
	}

	stored, _ := f.reviews.GetByID(context.Background(), review.ID)
	assert.Equal(t, voters, stored.Helpful)
	assert.Zero(t, stored.Unhelpful)
}

func TestVote_RepeatIsNoOp(t *testing.T) {
	svc, f := newTestReviews(t)
	review := f.addReview(t, "ana", "Bean Town", 4, "nice")
	f.addUser(t, "ben")

	_, counted, err := svc.Vote(context.Background(), "ben", review.ID, true)
	require.NoError(t, err)
	require.True(t, counted)

	// A second vote in either direction is ignored.
	_, counted, err = svc.Vote(context.Background(), "ben", review.ID, true)
	require.NoError(t, err)
	assert.False(t, counted)
	_, counted, err = svc.Vote(context.Background(), "ben", review.ID, false)
	require.NoError(t, err)
	assert.False(t, counted)

	stored, _ := f.reviews.GetByID(context.Background(), review.ID)
	assert.Equal(t, 1, stored.Helpful)
	assert.Zero(t, stored.Unhelpful)

	user, _ := f.users.GetByUsername(context.Background(), "ben")
	assert.Equal(t, []string{review.ID}, user.Helpful)
}

func TestVote_Unhelpful(t *testing.T) {
	svc, f := newTestReviews(t)
	review := f.addReview(t, "ana", "Bean Town", 4, "nice")
	f.addUser(t, "ben")

	got, counted, err := svc.Vote(context.Background(), "ben", review.ID, false)
	require.NoError(t, err)
	assert.True(t, counted)
	assert.Equal(t, 1, got.Unhelpful)
	assert.Zero(t, got.Helpful)
}

func TestVote_Concurrent(t *testing.T) {
	svc, f := newTestReviews(t)
	review := f.addReview(t, "ana", "Bean Town", 4, "nice")
	f.addUser(t, "ben")
	f.addUser(t, "cara")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		for _, voter := range []string{"ben", "cara"} {
			wg.Add(1)
			go func(voter string) {
				defer wg.Done()
				if _, _, err := svc.Vote(context.Background(), voter, review.ID, true); err != nil {
					t.Errorf("Vote(%s) error = %v", voter, err)
				}
			}(voter)
		}
	}
	wg.Wait()

	stored, _ := f.reviews.GetByID(context.Background(), review.ID)
	assert.Equal(t, 2, stored.Helpful)
}

func TestVote_UnknownReview(t *testing.T) {
	svc, f := newTestReviews(t)
	f.addUser(t, "ben")

	_, _, err := svc.Vote(context.Background(), "ben", "review-404", true)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

// =========================================================================
// RESPOND TESTS
// =========================================================================

func TestRespond_OwnerOnly(t *testing.T) {
	svc, f := newTestReviews(t)
	review := f.addReview(t, "ana", "Bean Town", 3, "ok")
	f.addUser(t, "owner", "Bean Town")
	f.addUser(t, "impostor", "Bean")

	_, err := svc.Respond(context.Background(), "impostor", review.ID, "thanks!")
	require.ErrorIs(t, err, apperror.ErrForbidden)

	got, err := svc.Respond(context.Background(), "owner", review.ID, "  Thanks for visiting!  ")
	require.NoError(t, err)
	assert.Equal(t, "Thanks for visiting!", got.OwnerResponse)

	stored, _ := f.reviews.GetByID(context.Background(), review.ID)
	assert.Equal(t, "Thanks for visiting!", stored.OwnerResponse)
}
