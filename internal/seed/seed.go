// Package seed loads the demo fixtures into a store.
//
// Seeding is an explicit command (`espresso seed`), never part of serving.
// Without Reset it only adds what's missing, so running it twice is safe:
//
//	users   keyed by username  → existing ones skipped
//	cafés   keyed by cafe_id   → existing ones skipped
//	reviews no natural key     → inserted only into an empty collection
package seed

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/sakif/espresso-self/internal/apperror"
	"github.com/sakif/espresso-self/internal/auth"
	"github.com/sakif/espresso-self/internal/model"
	"github.com/sakif/espresso-self/internal/repository"
)

// Fixture file names, one per collection.
const (
	UserFile   = "EspressoSelf.user.json"
	CafeFile   = "EspressoSelf.cafe.json"
	ReviewFile = "EspressoSelf.review.json"
)

//go:embed fixtures/*.json
var fixtures embed.FS

// UserFixture is a user as written in the fixture file. Unlike model.User it
// carries a plaintext password, which is hashed on insert.
type UserFixture struct {
	Username   string   `json:"username"`
	Password   string   `json:"password"`
	Email      string   `json:"email"`
	Desc       string   `json:"desc"`
	ProfilePic string   `json:"profile_pic"`
	Helpful    []string `json:"helpful"`
	Cafes      []string `json:"cafes"`
}

// Data is the content of the three fixture files.
type Data struct {
	Users   []UserFixture
	Cafes   []model.Cafe
	Reviews []model.Review
}

// Embedded returns the fixtures compiled into the binary.
func Embedded() (*Data, error) {
	sub, err := fs.Sub(fixtures, "fixtures")
	if err != nil {
		return nil, fmt.Errorf("seed: opening embedded fixtures: %w", err)
	}
	return Load(sub)
}

// LoadDir reads the fixture files from dir.
func LoadDir(dir string) (*Data, error) {
	return Load(os.DirFS(dir))
}

// Load reads the three fixture files from fsys.
func Load(fsys fs.FS) (*Data, error) {
	var d Data
	if err := readJSON(fsys, UserFile, &d.Users); err != nil {
		return nil, err
	}
	if err := readJSON(fsys, CafeFile, &d.Cafes); err != nil {
		return nil, err
	}
	if err := readJSON(fsys, ReviewFile, &d.Reviews); err != nil {
		return nil, err
	}
	return &d, nil
}

func readJSON(fsys fs.FS, name string, v any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("seed: reading %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("seed: parsing %s: %w", name, err)
	}
	return nil
}

// Options controls a seeding run.
type Options struct {
	// Reset wipes all three collections before inserting.
	Reset bool
}

// Result counts what a run did.
type Result struct {
	UsersCreated   int
	UsersSkipped   int
	CafesCreated   int
	CafesSkipped   int
	ReviewsCreated int
	ReviewsSkipped int
}

// Seeder writes fixture data through the repositories.
type Seeder struct {
	users     repository.UserRepository
	cafes     repository.CafeRepository
	reviews   repository.ReviewRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewSeeder(
	users repository.UserRepository,
	cafes repository.CafeRepository,
	reviews repository.ReviewRepository,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *Seeder {
	return &Seeder{
		users:     users,
		cafes:     cafes,
		reviews:   reviews,
		passwords: passwords,
		logger:    logger,
	}
}

// Run inserts data. Reviews are deleted first and users last on reset so no
// review ever points at a café that is already gone.
func (s *Seeder) Run(ctx context.Context, data *Data, opts Options) (*Result, error) {
	if opts.Reset {
		if err := s.reset(ctx); err != nil {
			return nil, err
		}
	}

	res := &Result{}
	if err := s.seedUsers(ctx, data.Users, res); err != nil {
		return res, err
	}
	if err := s.seedCafes(ctx, data.Cafes, res); err != nil {
		return res, err
	}
	if err := s.seedReviews(ctx, data.Reviews, res); err != nil {
		return res, err
	}

	s.logger.Info("seed complete",
		slog.Bool("reset", opts.Reset),
		slog.Int("usersCreated", res.UsersCreated),
		slog.Int("usersSkipped", res.UsersSkipped),
		slog.Int("cafesCreated", res.CafesCreated),
		slog.Int("cafesSkipped", res.CafesSkipped),
		slog.Int("reviewsCreated", res.ReviewsCreated),
	)
	return res, nil
}

func (s *Seeder) reset(ctx context.Context) error {
	if err := s.reviews.DeleteAll(ctx); err != nil {
		return fmt.Errorf("seed: clearing reviews: %w", err)
	}
	if err := s.cafes.DeleteAll(ctx); err != nil {
		return fmt.Errorf("seed: clearing cafes: %w", err)
	}
	if err := s.users.DeleteAll(ctx); err != nil {
		return fmt.Errorf("seed: clearing users: %w", err)
	}
	s.logger.Warn("collections cleared")
	return nil
}

func (s *Seeder) seedUsers(ctx context.Context, fixtures []UserFixture, res *Result) error {
	for _, f := range fixtures {
		_, err := s.users.GetByUsername(ctx, f.Username)
		if err == nil {
			res.UsersSkipped++
			continue
		}
		if !errors.Is(err, apperror.ErrNotFound) {
			return fmt.Errorf("seed: checking user %q: %w", f.Username, err)
		}

		hash, err := s.passwords.Hash(f.Password)
		if err != nil {
			return fmt.Errorf("seed: hashing password for %q: %w", f.Username, err)
		}

		user := &model.User{
			Username:     f.Username,
			PasswordHash: hash,
			Email:        f.Email,
			Description:  f.Desc,
			ProfilePic:   f.ProfilePic,
			Helpful:      orEmpty(f.Helpful),
			Cafes:        orEmpty(f.Cafes),
		}
		if user.ProfilePic == "" {
			user.ProfilePic = model.DefaultProfilePic
		}

		if err := s.users.Create(ctx, user); err != nil {
			// Someone else created it between the check and the insert.
			if errors.Is(err, apperror.ErrConflict) {
				res.UsersSkipped++
				continue
			}
			return fmt.Errorf("seed: creating user %q: %w", f.Username, err)
		}
		res.UsersCreated++
	}
	return nil
}

func (s *Seeder) seedCafes(ctx context.Context, cafes []model.Cafe, res *Result) error {
	for _, c := range cafes {
		_, err := s.cafes.GetByCafeID(ctx, c.CafeID)
		if err == nil {
			res.CafesSkipped++
			continue
		}
		if !errors.Is(err, apperror.ErrNotFound) {
			return fmt.Errorf("seed: checking cafe %d: %w", c.CafeID, err)
		}

		cafe := c
		cafe.ID = ""
		cafe.Items = orEmpty(cafe.Items)
		if err := s.cafes.Create(ctx, &cafe); err != nil {
			if errors.Is(err, apperror.ErrConflict) {
				res.CafesSkipped++
				continue
			}
			return fmt.Errorf("seed: creating cafe %q: %w", c.Name, err)
		}
		res.CafesCreated++
	}
	return nil
}

func (s *Seeder) seedReviews(ctx context.Context, reviews []model.Review, res *Result) error {
	n, err := s.reviews.Count(ctx)
	if err != nil {
		return fmt.Errorf("seed: counting reviews: %w", err)
	}
	if n > 0 {
		res.ReviewsSkipped = len(reviews)
		return nil
	}

	for _, r := range reviews {
		review := r
		review.ID = ""
		if err := s.reviews.Create(ctx, &review); err != nil {
			return fmt.Errorf("seed: creating review by %q: %w", r.Username, err)
		}
		res.ReviewsCreated++
	}
	return nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
