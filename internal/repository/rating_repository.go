package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Rating is a user's score for a location. Ratings are owned child rows:
// deleting the location removes them. The rating value lives in [1, 5];
// the bound is enforced at the API boundary before rows reach this
// repository, and the average is always recomputed from the rows here,
// never stored.
type Rating struct {
	ID         uint64  `json:"id"`                // ratings.id
	LocationID uint64  `json:"location_id"`       // ratings.location_id
	UserID     uint64  `json:"user_id"`           // ratings.user_id
	Rating     float64 `json:"rating"`            // ratings.rating
	Comment    *string `json:"comment,omitempty"` // ratings.comment
	CreatedAt  string  `json:"created_at"`        // ratings.created_at
}

// RatingPage is the pagination envelope for a location's rating list.
type RatingPage struct {
	Items       []Rating `json:"items"`
	TotalItems  int64    `json:"total_items"`
	TotalPages  int      `json:"total_pages"`
	CurrentPage int      `json:"current_page"`
}

// RatingRepo encapsulates database access for rating rows.
type RatingRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewRatingRepo constructs a RatingRepo with the provided DB handle.
func NewRatingRepo(db *sql.DB) *RatingRepo {
	return &RatingRepo{db: db}
}

// Create inserts a rating for an existing location and repopulates the
// record with its generated id and timestamp. The existence check, the
// insert and the select-back share one transaction so the row cannot be
// orphaned by a concurrent location delete. ErrLocationNotFound is
// returned when the target location does not resolve, so callers can
// answer 404 instead of surfacing a foreign key violation.
func (r *RatingRepo) Create(ctx context.Context, rec *Rating) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	var locID uint64
	if err = tx.QueryRowContext(ctx, `SELECT id FROM locations WHERE id = ?`, rec.LocationID).Scan(&locID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrLocationNotFound
		}
		return err
	}

	const qInsert = `INSERT INTO ratings (location_id, user_id, rating, comment) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, qInsert, rec.LocationID, rec.UserID, rec.Rating, rec.Comment)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)

	const qSelect = `SELECT location_id, user_id, rating, comment, created_at FROM ratings WHERE id = ?`
	return tx.QueryRowContext(ctx, qSelect, rec.ID).Scan(
		&rec.LocationID, &rec.UserID, &rec.Rating, &rec.Comment, &rec.CreatedAt,
	)
}

// ListByLocation returns one page of a location's ratings, newest first,
// with the same clamping rules as location search. The location must
// exist; ErrLocationNotFound is returned otherwise so a missing id is
// distinguishable from a location that simply has no ratings yet.
func (r *RatingRepo) ListByLocation(ctx context.Context, locationID uint64, page, size int) (*RatingPage, error) {
	var locID uint64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM locations WHERE id = ?`, locationID).Scan(&locID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}

	page = clampPage(page)
	size = clampPageSize(size)

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ratings WHERE location_id = ?`, locationID).Scan(&total); err != nil {
		return nil, err
	}

	const q = `SELECT id, location_id, user_id, rating, comment, created_at
		FROM ratings
		WHERE location_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, locationID, size, (page-1)*size)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Rating, 0, size)
	for rows.Next() {
		var rec Rating
		if err := rows.Scan(&rec.ID, &rec.LocationID, &rec.UserID, &rec.Rating, &rec.Comment, &rec.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &RatingPage{
		Items:       items,
		TotalItems:  total,
		TotalPages:  totalPages(total, size),
		CurrentPage: page,
	}, nil
}

// AverageByLocation recomputes the location's mean rating. The pointer
// is nil when the location has no ratings, which callers must keep
// distinct from an average of zero.
func (r *RatingRepo) AverageByLocation(ctx context.Context, locationID uint64) (*float64, error) {
	var avg *float64
	const q = `SELECT AVG(rating) FROM ratings WHERE location_id = ?`
	if err := r.db.QueryRowContext(ctx, q, locationID).Scan(&avg); err != nil {
		return nil, err
	}
	return avg, nil
}

// ratingsByLocation retrieves every rating row of a location, newest
// first. Used when a full location entity is loaded with relations.
func ratingsByLocation(ctx context.Context, q querier, locationID uint64) ([]Rating, error) {
	const qSel = `SELECT id, location_id, user_id, rating, comment, created_at
		FROM ratings
		WHERE location_id = ?
		ORDER BY created_at DESC, id DESC`
	rows, err := q.QueryContext(ctx, qSel, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Rating
	for rows.Next() {
		var rec Rating
		if err := rows.Scan(&rec.ID, &rec.LocationID, &rec.UserID, &rec.Rating, &rec.Comment, &rec.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}
