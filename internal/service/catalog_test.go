package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/espresso-self/internal/apperror"
	"github.com/sakif/espresso-self/internal/model"
)

func newTestCatalog(t *testing.T) (*CatalogService, *fixture) {
	t.Helper()
	f := newFixture(t)
	return NewCatalogService(f.users, f.cafes, f.reviews, f.logger), f
}

func cafeNames(cafes []model.Cafe) []string {
	names := make([]string, 0, len(cafes))
	for _, c := range cafes {
		names = append(names, c.Name)
	}
	return names
}

// =========================================================================
// FILTER TESTS
// =========================================================================

func TestFilterCafes(t *testing.T) {
	cafes := []model.Cafe{
		{Name: "Bean Town", Description: "Cozy corner for pour-overs"},
		{Name: "Kape Co", Description: "Filipino barako and pastries"},
		{Name: "Brewed Awakening", Description: "Late-night study spot"},
	}

	tests := []struct {
		name   string
		filter string
		want   []string
	}{
		{"empty keeps all", "", []string{"Bean Town", "Kape Co", "Brewed Awakening"}},
		{"name substring", "town", []string{"Bean Town"}},
		{"description substring", "PASTRIES", []string{"Kape Co"}},
		{"matches several", "co", []string{"Bean Town", "Kape Co"}},
		{"no match", "matcha", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cafeNames(FilterCafes(cafes, tt.filter)))
		})
	}
}

func TestFilterReviews(t *testing.T) {
	reviews := []model.Review{
		{ID: "1", Username: "ana", Cafe: "Bean Town", Comment: "Great latte"},
		{ID: "2", Username: "ben", Cafe: "Bean Town", Comment: "Too loud"},
		{ID: "3", Username: "cara", Cafe: "Kape Co", Comment: "LATTE art was lovely"},
	}

	ids := func(rs []model.Review) []string {
		out := []string{}
		for _, r := range rs {
			out = append(out, r.ID)
		}
		return out
	}

	assert.Equal(t, []string{"1", "2", "3"}, ids(FilterReviews(reviews, "")))
	assert.Equal(t, []string{"1", "3"}, ids(FilterReviews(reviews, "latte")), "comment match")
	assert.Equal(t, []string{"2"}, ids(FilterReviews(reviews, "BEN")), "author match")
	assert.Equal(t, []string{"3"}, ids(FilterReviews(reviews, "kape")), "cafe name match")
	assert.Empty(t, FilterReviews(reviews, "espresso"))
}

// =========================================================================
// PAGE TESTS
// =========================================================================

func TestHome(t *testing.T) {
	svc, f := newTestCatalog(t)
	f.addCafe(t, 1, "Bean Town", "pour-overs")
	f.addCafe(t, 2, "Kape Co", "barako")
	f.addUser(t, "ana")

	page, err := svc.Home(context.Background(), "", "")
	require.NoError(t, err)
	assert.Len(t, page.Cafes, 2)
	assert.Nil(t, page.Viewer)

	page, err = svc.Home(context.Background(), "barako", "ana")
	require.NoError(t, err)
	assert.Equal(t, []string{"Kape Co"}, cafeNames(page.Cafes))
	assert.Equal(t, "barako", page.Filter)
	require.NotNil(t, page.Viewer)
	assert.Equal(t, "ana", page.Viewer.Username)
}

func TestHome_StaleSessionIsAnonymous(t *testing.T) {
	svc, _ := newTestCatalog(t)

	page, err := svc.Home(context.Background(), "", "deleted-user")
	require.NoError(t, err)
	assert.Nil(t, page.Viewer)
}

func TestCafeDetail_BeanTownScenario(t *testing.T) {
	svc, f := newTestCatalog(t)
	f.addCafe(t, 1, "Bean Town", "")
	review := f.addReview(t, "ana", "Bean Town", 4, "solid cortado")

	page, err := svc.CafeDetail(context.Background(), 1, "", "")
	require.NoError(t, err)

	assert.Equal(t, "Bean Town", page.Cafe.Name)
	assert.Equal(t, 1, page.Cafe.CafeID)
	require.Len(t, page.Reviews, 1)
	assert.Equal(t, review.ID, page.Reviews[0].ID)
	assert.Equal(t, 4, page.Reviews[0].Rating)
	assert.False(t, page.IsOwner)
}

func TestCafeDetail_FiltersReviews(t *testing.T) {
	svc, f := newTestCatalog(t)
	f.addCafe(t, 1, "Bean Town", "")
	f.addReview(t, "ana", "Bean Town", 4, "solid cortado")
	f.addReview(t, "ben", "Bean Town", 2, "cold brew was flat")

	page, err := svc.CafeDetail(context.Background(), 1, "cortado", "")
	require.NoError(t, err)
	require.Len(t, page.Reviews, 1)
	assert.Equal(t, "ana", page.Reviews[0].Username)
	assert.Equal(t, "cortado", page.Filter)
}

func TestCafeDetail_IsOwnerIsExactMembership(t *testing.T) {
	svc, f := newTestCatalog(t)
	f.addCafe(t, 1, "Bean Town", "")
	f.addCafe(t, 2, "Bean", "")
	f.addUser(t, "owner", "Bean Town")

	page, err := svc.CafeDetail(context.Background(), 1, "", "owner")
	require.NoError(t, err)
	assert.True(t, page.IsOwner)

	page, err = svc.CafeDetail(context.Background(), 2, "", "owner")
	require.NoError(t, err)
	assert.False(t, page.IsOwner, "owning Bean Town must not imply owning Bean")
}

func TestCafeDetail_UnknownCafe(t *testing.T) {
	svc, _ := newTestCatalog(t)

	_, err := svc.CafeDetail(context.Background(), 99, "", "")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestProfile_Views(t *testing.T) {
	svc, f := newTestCatalog(t)
	f.addUser(t, "ana")
	f.addUser(t, "ben")
	f.addReview(t, "ana", "Bean Town", 5, "mine")
	f.addReview(t, "ben", "Bean Town", 3, "not mine")

	tests := []struct {
		viewer string
		want   ProfileView
	}{
		{"ana", ViewOwn},
		{"ben", ViewOther},
		{"", ViewAnonymous},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			page, err := svc.Profile(context.Background(), "ana", tt.viewer)
			require.NoError(t, err)
			assert.Equal(t, tt.want, page.View)
			assert.Equal(t, "ana", page.User.Username)
			require.Len(t, page.Reviews, 1)
			assert.Equal(t, "mine", page.Reviews[0].Comment)
		})
	}
}

func TestProfile_UnknownUser(t *testing.T) {
	svc, _ := newTestCatalog(t)

	_, err := svc.Profile(context.Background(), "ghost", "")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
