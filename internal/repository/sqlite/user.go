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

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

// UserStore is the SQLite UserRepository.
type UserStore struct {
	conn *sql.DB
}

// Create inserts a user together with its voted-review and owned-café lists.
// A new ID is generated when user.ID is empty.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = xid.New().String()
	}

	return inTx(ctx, s.conn, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, username, password_hash, email, description, profile_pic)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			user.ID,
			user.Username,
			user.PasswordHash,
			user.Email,
			user.Description,
			user.ProfilePic,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperror.Conflict("Username is already taken!")
			}
			return fmt.Errorf("sqlite: inserting user %s: %w", user.Username, err)
		}

		for _, reviewID := range user.Helpful {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO user_votes (username, review_id) VALUES (?, ?)`,
				user.Username, reviewID,
			); err != nil {
				return fmt.Errorf("sqlite: inserting votes for %s: %w", user.Username, err)
			}
		}

		for _, cafe := range user.Cafes {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO user_cafes (username, cafe_name) VALUES (?, ?)`,
				user.Username, cafe,
			); err != nil {
				return fmt.Errorf("sqlite: inserting cafes for %s: %w", user.Username, err)
			}
		}

		return nil
	})
}

// GetByUsername loads a user and both of its lists.
// Returns apperror.ErrNotFound if no user has that username.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User

	err := s.conn.QueryRowContext(ctx,
		`SELECT id, username, password_hash, email, description, profile_pic
		 FROM users WHERE username = ?`,
		username,
	).Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.Email,
		&u.Description,
		&u.ProfilePic,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", username, err)
	}

	u.Helpful, err = s.strings(ctx,
		`SELECT review_id FROM user_votes WHERE username = ? ORDER BY rowid`, username)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting votes for %s: %w", username, err)
	}

	u.Cafes, err = s.strings(ctx,
		`SELECT cafe_name FROM user_cafes WHERE username = ? ORDER BY rowid`, username)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting cafes for %s: %w", username, err)
	}

	return &u, nil
}

// UpdateProfile sets the description, and the password hash when one is given.
func (s *UserStore) UpdateProfile(ctx context.Context, username string, update repository.ProfileUpdate) error {
	var (
		result sql.Result
		err    error
	)
	if update.PasswordHash == "" {
		result, err = s.conn.ExecContext(ctx,
			`UPDATE users SET description = ? WHERE username = ?`,
			update.Description, username,
		)
	} else {
		result, err = s.conn.ExecContext(ctx,
			`UPDATE users SET description = ?, password_hash = ? WHERE username = ?`,
			update.Description, update.PasswordHash, username,
		)
	}
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", username, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NotFound("user", username)
	}
	return nil
}

// AddVote records the vote with INSERT OR IGNORE; the UNIQUE constraint on
// (username, review_id) makes a repeat affect zero rows.
func (s *UserStore) AddVote(ctx context.Context, username, reviewID string) (bool, error) {
	var added bool

	err := inTx(ctx, s.conn, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM users WHERE username = ?`, username,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("sqlite: looking up user %s: %w", username, err)
		}
		if exists == 0 {
			return apperror.NotFound("user", username)
		}

		result, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO user_votes (username, review_id) VALUES (?, ?)`,
			username, reviewID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: recording vote by %s: %w", username, err)
		}

		rows, _ := result.RowsAffected()
		added = rows == 1
		return nil
	})

	return added, err
}

func (s *UserStore) Count(ctx context.Context) (int64, error) {
	return count(ctx, s.conn, "users")
}

// DeleteAll removes every user. The vote and café lists go with them.
func (s *UserStore) DeleteAll(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return fmt.Errorf("sqlite: deleting users: %w", err)
	}
	return nil
}

// strings runs a single-column query and collects the results.
func (s *UserStore) strings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
