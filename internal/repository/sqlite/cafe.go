package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/xid"
	"github.com/sakif/espresso-self/internal/apperror"
	"github.com/sakif/espresso-self/internal/model"
	"github.com/sakif/espresso-self/internal/repository"
)

var _ repository.CafeRepository = (*CafeStore)(nil)

// CafeStore is the SQLite CafeRepository.
type CafeStore struct {
	conn *sql.DB
}

const cafeColumns = `id, cafe_id, name, description, rating, owner, address, price_range, image_name`

// Create inserts a café and its menu items.
func (s *CafeStore) Create(ctx context.Context, cafe *model.Cafe) error {
	if cafe.ID == "" {
		cafe.ID = xid.New().String()
	}

	return inTx(ctx, s.conn, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO cafes (`+cafeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			cafe.ID,
			cafe.CafeID,
			cafe.Name,
			cafe.Description,
			cafe.Rating,
			cafe.Owner,
			cafe.Address,
			cafe.PriceRange,
			cafe.ImageName,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperror.Conflict(fmt.Sprintf("cafe %d already exists", cafe.CafeID))
			}
			return fmt.Errorf("sqlite: inserting cafe %q: %w", cafe.Name, err)
		}

		for _, item := range cafe.Items {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO cafe_items (cafe_ref, item) VALUES (?, ?)`,
				cafe.ID, item,
			); err != nil {
				return fmt.Errorf("sqlite: inserting items for %q: %w", cafe.Name, err)
			}
		}
		return nil
	})
}

// GetByCafeID finds a café by its public numeric ID.
func (s *CafeStore) GetByCafeID(ctx context.Context, cafeID int) (*model.Cafe, error) {
	return s.getOne(ctx, `cafe_id = ?`, cafeID, strconv.Itoa(cafeID))
}

// GetByName finds a café by its exact name.
func (s *CafeStore) GetByName(ctx context.Context, name string) (*model.Cafe, error) {
	return s.getOne(ctx, `name = ?`, name, name)
}

func (s *CafeStore) getOne(ctx context.Context, where string, arg any, key string) (*model.Cafe, error) {
	var c model.Cafe

	err := s.conn.QueryRowContext(ctx,
		`SELECT `+cafeColumns+` FROM cafes WHERE `+where+` ORDER BY cafe_id LIMIT 1`,
		arg,
	).Scan(
		&c.ID,
		&c.CafeID,
		&c.Name,
		&c.Description,
		&c.Rating,
		&c.Owner,
		&c.Address,
		&c.PriceRange,
		&c.ImageName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("cafe", key)
		}
		return nil, fmt.Errorf("sqlite: getting cafe %s: %w", key, err)
	}

	items, err := s.items(ctx, `WHERE cafe_ref = ?`, c.ID)
	if err != nil {
		return nil, err
	}
	c.Items = items[c.ID]
	if c.Items == nil {
		c.Items = []string{}
	}

	return &c, nil
}

// List returns every café ordered by cafe_id.
func (s *CafeStore) List(ctx context.Context) ([]model.Cafe, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+cafeColumns+` FROM cafes ORDER BY cafe_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing cafes: %w", err)
	}

	cafes := []model.Cafe{}
	for rows.Next() {
		var c model.Cafe
		if err := rows.Scan(
			&c.ID,
			&c.CafeID,
			&c.Name,
			&c.Description,
			&c.Rating,
			&c.Owner,
			&c.Address,
			&c.PriceRange,
			&c.ImageName,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlite: scanning cafe: %w", err)
		}
		cafes = append(cafes, c)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("sqlite: iterating cafes: %w", err)
	}

	// The cafe rows are closed before the items query: the pool has a
	// single connection.
	items, err := s.items(ctx, ``)
	if err != nil {
		return nil, err
	}
	for i := range cafes {
		cafes[i].Items = items[cafes[i].ID]
		if cafes[i].Items == nil {
			cafes[i].Items = []string{}
		}
	}

	return cafes, nil
}

// items loads menu items grouped by café ID.
func (s *CafeStore) items(ctx context.Context, where string, args ...any) (map[string][]string, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT cafe_ref, item FROM cafe_items `+where+` ORDER BY rowid`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing cafe items: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var ref, item string
		if err := rows.Scan(&ref, &item); err != nil {
			return nil, fmt.Errorf("sqlite: scanning cafe item: %w", err)
		}
		out[ref] = append(out[ref], item)
	}
	return out, rows.Err()
}

func (s *CafeStore) Count(ctx context.Context) (int64, error) {
	return count(ctx, s.conn, "cafes")
}

func (s *CafeStore) DeleteAll(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM cafes`); err != nil {
		return fmt.Errorf("sqlite: deleting cafes: %w", err)
	}
	return nil
}
