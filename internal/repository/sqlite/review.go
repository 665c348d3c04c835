package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"
	"github.com/sakif/espresso-self/internal/apperror"
	"github.com/sakif/espresso-self/internal/model"
	"github.com/sakif/espresso-self/internal/repository"
)

var _ repository.ReviewRepository = (*ReviewStore)(nil)

// ReviewStore is the SQLite ReviewRepository.
type ReviewStore struct {
	conn *sql.DB
}

const reviewColumns = `id, username, cafe, cafe_id, image_src, rating, comment, date,
	helpful, unhelpful, owner_response, edited`

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanReview(row scanner) (*model.Review, error) {
	var r model.Review
	err := row.Scan(
		&r.ID,
		&r.Username,
		&r.Cafe,
		&r.CafeID,
		&r.ImageSrc,
		&r.Rating,
		&r.Comment,
		&r.Date,
		&r.Helpful,
		&r.Unhelpful,
		&r.OwnerResponse,
		&r.Edited,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Create inserts a review. A new ID is generated when review.ID is empty.
func (s *ReviewStore) Create(ctx context.Context, review *model.Review) error {
	if review.ID == "" {
		review.ID = xid.New().String()
	}

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO reviews (`+reviewColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		review.ID,
		review.Username,
		review.Cafe,
		review.CafeID,
		review.ImageSrc,
		review.Rating,
		review.Comment,
		review.Date,
		review.Helpful,
		review.Unhelpful,
		review.OwnerResponse,
		review.Edited,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting review: %w", err)
	}
	return nil
}

// GetByID returns apperror.ErrNotFound if no review has that ID.
func (s *ReviewStore) GetByID(ctx context.Context, id string) (*model.Review, error) {
	r, err := scanReview(s.conn.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("review", id)
		}
		return nil, fmt.Errorf("sqlite: getting review %s: %w", id, err)
	}
	return r, nil
}

// ListByCafe returns the café's reviews in the order they were written.
func (s *ReviewStore) ListByCafe(ctx context.Context, cafeName string) ([]model.Review, error) {
	return s.list(ctx, `cafe = ?`, cafeName)
}

// ListByAuthor returns the user's reviews in the order they were written.
func (s *ReviewStore) ListByAuthor(ctx context.Context, username string) ([]model.Review, error) {
	return s.list(ctx, `username = ?`, username)
}

func (s *ReviewStore) list(ctx context.Context, where string, arg any) ([]model.Review, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE `+where+` ORDER BY rowid`, arg,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing reviews: %w", err)
	}
	defer rows.Close()

	reviews := []model.Review{}
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning review: %w", err)
		}
		reviews = append(reviews, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating reviews: %w", err)
	}
	return reviews, nil
}

func (s *ReviewStore) UpdateContent(ctx context.Context, id string, rating int, comment string) error {
	return s.exec(ctx, id,
		`UPDATE reviews SET rating = ?, comment = ?, edited = 1 WHERE id = ?`,
		rating, comment, id,
	)
}

func (s *ReviewStore) SetOwnerResponse(ctx context.Context, id, response string) error {
	return s.exec(ctx, id,
		`UPDATE reviews SET owner_response = ? WHERE id = ?`,
		response, id,
	)
}

// IncrementVote bumps a counter in place, so concurrent votes never lose
// an update.
func (s *ReviewStore) IncrementVote(ctx context.Context, id string, helpful bool) error {
	query := `UPDATE reviews SET unhelpful = unhelpful + 1 WHERE id = ?`
	if helpful {
		query = `UPDATE reviews SET helpful = helpful + 1 WHERE id = ?`
	}
	return s.exec(ctx, id, query, id)
}

// Delete removes the review and returns it as it was.
func (s *ReviewStore) Delete(ctx context.Context, id string) (*model.Review, error) {
	var deleted *model.Review

	err := inTx(ctx, s.conn, func(tx *sql.Tx) error {
		r, err := scanReview(tx.QueryRowContext(ctx,
			`SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id,
		))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.NotFound("review", id)
			}
			return fmt.Errorf("sqlite: getting review %s: %w", id, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id); err != nil {
			return fmt.Errorf("sqlite: deleting review %s: %w", id, err)
		}
		deleted = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (s *ReviewStore) Count(ctx context.Context) (int64, error) {
	return count(ctx, s.conn, "reviews")
}

func (s *ReviewStore) DeleteAll(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM reviews`); err != nil {
		return fmt.Errorf("sqlite: deleting reviews: %w", err)
	}
	return nil
}

// exec runs a single-row update and maps "no rows" to NotFound.
func (s *ReviewStore) exec(ctx context.Context, id, query string, args ...any) error {
	result, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: updating review %s: %w", id, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NotFound("review", id)
	}
	return nil
}
