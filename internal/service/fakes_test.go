package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"

	"github.com/sakif/espresso-self/internal/apperror"
	"github.com/sakif/espresso-self/internal/auth"
	"github.com/sakif/espresso-self/internal/model"
	"github.com/sakif/espresso-self/internal/repository"
)

// =========================================================================
// FAKES
// =========================================================================
//
// In-memory implementations of the repository interfaces. They keep copies
// so a test can't accidentally mutate stored state through a returned
// pointer, and a mutex so concurrency tests are race-free.

var errStoreDown = errors.New("store unavailable")

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]model.User // keyed by username
	seq   int
	// set to simulate a database failure
	getErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.Username]; ok {
		return apperror.Conflict("Username is already taken!")
	}
	f.seq++
	u.ID = fmt.Sprintf("user-%d", f.seq)
	stored := *u
	stored.Helpful = slices.Clone(u.Helpful)
	stored.Cafes = slices.Clone(u.Cafes)
	f.users[u.Username] = stored
	return nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[username]
	if !ok {
		return nil, apperror.NotFound("user", username)
	}
	u.Helpful = slices.Clone(u.Helpful)
	u.Cafes = slices.Clone(u.Cafes)
	return &u, nil
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, username string, update repository.ProfileUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return apperror.NotFound("user", username)
	}
	u.Description = update.Description
	if update.PasswordHash != "" {
		u.PasswordHash = update.PasswordHash
	}
	f.users[username] = u
	return nil
}

func (f *fakeUserRepo) AddVote(_ context.Context, username, reviewID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return false, apperror.NotFound("user", username)
	}
	if slices.Contains(u.Helpful, reviewID) {
		return false, nil
	}
	u.Helpful = append(slices.Clone(u.Helpful), reviewID)
	f.users[username] = u
	return true, nil
}

func (f *fakeUserRepo) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.users)), nil
}

func (f *fakeUserRepo) DeleteAll(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = make(map[string]model.User)
	return nil
}

type fakeCafeRepo struct {
	mu    sync.Mutex
	cafes []model.Cafe
}

func (f *fakeCafeRepo) Create(_ context.Context, c *model.Cafe) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = fmt.Sprintf("cafe-%d", c.CafeID)
	f.cafes = append(f.cafes, *c)
	return nil
}

func (f *fakeCafeRepo) find(match func(model.Cafe) bool, key string) (*model.Cafe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.cafes {
		if match(c) {
			return &c, nil
		}
	}
	return nil, apperror.NotFound("cafe", key)
}

func (f *fakeCafeRepo) GetByCafeID(_ context.Context, id int) (*model.Cafe, error) {
	return f.find(func(c model.Cafe) bool { return c.CafeID == id }, fmt.Sprint(id))
}

func (f *fakeCafeRepo) GetByName(_ context.Context, name string) (*model.Cafe, error) {
	return f.find(func(c model.Cafe) bool { return c.Name == name }, name)
}

func (f *fakeCafeRepo) List(context.Context) ([]model.Cafe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.cafes), nil
}

func (f *fakeCafeRepo) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.cafes)), nil
}

func (f *fakeCafeRepo) DeleteAll(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cafes = nil
	return nil
}

type fakeReviewRepo struct {
	mu      sync.Mutex
	reviews []model.Review
	seq     int
}

func (f *fakeReviewRepo) Create(_ context.Context, r *model.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	r.ID = fmt.Sprintf("review-%d", f.seq)
	f.reviews = append(f.reviews, *r)
	return nil
}

func (f *fakeReviewRepo) index(id string) int {
	return slices.IndexFunc(f.reviews, func(r model.Review) bool { return r.ID == id })
}

func (f *fakeReviewRepo) GetByID(_ context.Context, id string) (*model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return nil, apperror.NotFound("review", id)
	}
	r := f.reviews[i]
	return &r, nil
}

func (f *fakeReviewRepo) filter(match func(model.Review) bool) []model.Review {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Review{}
	for _, r := range f.reviews {
		if match(r) {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeReviewRepo) ListByCafe(_ context.Context, cafe string) ([]model.Review, error) {
	return f.filter(func(r model.Review) bool { return r.Cafe == cafe }), nil
}

func (f *fakeReviewRepo) ListByAuthor(_ context.Context, username string) ([]model.Review, error) {
	return f.filter(func(r model.Review) bool { return r.Username == username }), nil
}

func (f *fakeReviewRepo) mutate(id string, fn func(*model.Review)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return apperror.NotFound("review", id)
	}
	fn(&f.reviews[i])
	return nil
}

func (f *fakeReviewRepo) UpdateContent(_ context.Context, id string, rating int, comment string) error {
	return f.mutate(id, func(r *model.Review) {
		r.Rating, r.Comment, r.Edited = rating, comment, true
	})
}

func (f *fakeReviewRepo) SetOwnerResponse(_ context.Context, id, response string) error {
	return f.mutate(id, func(r *model.Review) { r.OwnerResponse = response })
}

func (f *fakeReviewRepo) IncrementVote(_ context.Context, id string, helpful bool) error {
	return f.mutate(id, func(r *model.Review) {
		if helpful {
			r.Helpful++
		} else {
			r.Unhelpful++
		}
	})
}

func (f *fakeReviewRepo) Delete(_ context.Context, id string) (*model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return nil, apperror.NotFound("review", id)
	}
	r := f.reviews[i]
	f.reviews = slices.Delete(f.reviews, i, i+1)
	return &r, nil
}

func (f *fakeReviewRepo) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.reviews)), nil
}

func (f *fakeReviewRepo) DeleteAll(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews = nil
	return nil
}

// =========================================================================
// HELPERS
// =========================================================================

type fixture struct {
	users     *fakeUserRepo
	cafes     *fakeCafeRepo
	reviews   *fakeReviewRepo
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		users:     newFakeUserRepo(),
		cafes:     &fakeCafeRepo{},
		reviews:   &fakeReviewRepo{},
		passwords: auth.NewPasswordService(4),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (f *fixture) addUser(t *testing.T, username string, cafes ...string) *model.User {
	t.Helper()
	u := &model.User{Username: username, Email: username + "@example.com", Cafes: cafes}
	if err := f.users.Create(context.Background(), u); err != nil {
		t.Fatalf("creating user %s: %v", username, err)
	}
	return u
}

func (f *fixture) addCafe(t *testing.T, cafeID int, name, description string) *model.Cafe {
	t.Helper()
	c := &model.Cafe{CafeID: cafeID, Name: name, Description: description, ImageName: "Photos/" + name + ".webp"}
	if err := f.cafes.Create(context.Background(), c); err != nil {
		t.Fatalf("creating cafe %s: %v", name, err)
	}
	return c
}

func (f *fixture) addReview(t *testing.T, author, cafe string, rating int, comment string) *model.Review {
	t.Helper()
	r := &model.Review{Username: author, Cafe: cafe, CafeID: 1, Rating: rating, Comment: comment}
	if err := f.reviews.Create(context.Background(), r); err != nil {
		t.Fatalf("creating review: %v", err)
	}
	return r
}
