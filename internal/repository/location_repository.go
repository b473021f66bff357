package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/bean0205/backend/internal/geo"
)

// Location represents a point of interest persisted in the locations
// table. Coordinates are stored twice: as plain latitude/longitude
// columns and as a POINT geometry in SRID 4326. The geometry column is
// derived, regenerated from the coordinates inside the same transaction
// that changes them, and therefore not mapped onto this struct. All
// administrative foreign keys are optional because a location may be
// geocoded before its hierarchy is resolved.
type Location struct {
	ID              uint64    `json:"id"`                      // locations.id
	Name            string    `json:"name"`                    // locations.name
	Description     *string   `json:"description,omitempty"`   // locations.description
	Latitude        float64   `json:"latitude"`                // locations.latitude
	Longitude       float64   `json:"longitude"`               // locations.longitude
	Address         *string   `json:"address,omitempty"`       // locations.address
	City            *string   `json:"city,omitempty"`          // locations.city
	CountryID       *uint64   `json:"country_id,omitempty"`    // locations.country_id
	RegionID        *uint64   `json:"region_id,omitempty"`     // locations.region_id
	DistrictID      *uint64   `json:"district_id,omitempty"`   // locations.district_id
	WardID          *uint64   `json:"ward_id,omitempty"`       // locations.ward_id
	CategoryID      *uint64   `json:"category_id,omitempty"`   // locations.category_id
	ThumbnailURL    *string   `json:"thumbnail_url,omitempty"` // locations.thumbnail_url
	PriceMin        *float64  `json:"price_min,omitempty"`     // locations.price_min
	PriceMax        *float64  `json:"price_max,omitempty"`     // locations.price_max
	PopularityScore float64   `json:"popularity_score"`        // locations.popularity_score
	IsActive        bool      `json:"is_active"`               // locations.is_active
	CreatedAt       string    `json:"created_at"`              // locations.created_at
	UpdatedAt       string    `json:"updated_at"`              // locations.updated_at
	AverageRating   *float64  `json:"average_rating,omitempty"`
	Amenities       []Amenity `json:"amenities,omitempty"` // loaded on demand
	Ratings         []Rating  `json:"ratings,omitempty"`   // loaded on demand
}

// Amenity is a descriptive tag owned by exactly one location. There is
// no shared amenity catalog: replacing a location's amenity set deletes
// the old rows and inserts the new names.
type Amenity struct {
	ID         uint64 `json:"id"`          // location_amenities.id
	LocationID uint64 `json:"location_id"` // location_amenities.location_id
	Name       string `json:"name"`        // location_amenities.name
}

// LocationPatch carries the optional field set for a partial update.
// A nil field leaves the stored value untouched. Amenities is special:
// nil means "do not touch the amenity set" while a non-nil slice
// (including an empty one) replaces the whole set.
type LocationPatch struct {
	Name            *string
	Description     *string
	Latitude        *float64
	Longitude       *float64
	Address         *string
	City            *string
	CountryID       *uint64
	RegionID        *uint64
	DistrictID      *uint64
	WardID          *uint64
	CategoryID      *uint64
	ThumbnailURL    *string
	PriceMin        *float64
	PriceMax        *float64
	PopularityScore *float64
	IsActive        *bool
	Amenities       []string
}

// ErrLocationNotFound is returned when a location id does not resolve.
var ErrLocationNotFound = errors.New("location not found")

// LocationRepo encapsulates all database access for locations and their
// amenity child rows. It depends on a sql.DB connection pool configured
// at startup.
type LocationRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewLocationRepo constructs a LocationRepo with the provided DB handle.
func NewLocationRepo(db *sql.DB) *LocationRepo {
	return &LocationRepo{db: db}
}

// querier is the subset of database/sql behavior shared by *sql.DB and
// *sql.Tx. Helpers that must run both inside and outside a transaction
// accept it instead of a concrete handle.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// rowScanner abstracts sql.Row and sql.Rows so scan helpers serve single
// row lookups and result-set iteration alike.
type rowScanner interface {
	Scan(dest ...any) error
}

// locationSelect is the canonical projection of a full location row.
// The average rating is recomputed from the ratings table on every read;
// it is never stored.
const locationSelect = `SELECT
		l.id, l.name, l.description, l.latitude, l.longitude,
		l.address, l.city,
		l.country_id, l.region_id, l.district_id, l.ward_id, l.category_id,
		l.thumbnail_url, l.price_min, l.price_max,
		l.popularity_score, l.is_active, l.created_at, l.updated_at,
		(SELECT AVG(r.rating) FROM ratings r WHERE r.location_id = l.id) AS average_rating
	FROM locations l`

// scanLocation reads one row produced by locationSelect into l. Nullable
// columns scan directly into the pointer fields: NULL becomes nil.
func scanLocation(row rowScanner, l *Location) error {
	return row.Scan(
		&l.ID, &l.Name, &l.Description, &l.Latitude, &l.Longitude,
		&l.Address, &l.City,
		&l.CountryID, &l.RegionID, &l.DistrictID, &l.WardID, &l.CategoryID,
		&l.ThumbnailURL, &l.PriceMin, &l.PriceMax,
		&l.PopularityScore, &l.IsActive, &l.CreatedAt, &l.UpdatedAt,
		&l.AverageRating,
	)
}

// Create validates the coordinate pair, then persists the location row
// and its amenity child rows as one transaction. On success the record
// is fully repopulated from the database, including generated id,
// timestamps and the inserted amenities. Geometry construction failure
// aborts the call before anything is written.
func (r *LocationRepo) Create(ctx context.Context, loc *Location, amenities []string) (err error) {
	pt, err := geo.NewPoint(loc.Latitude, loc.Longitude)
	if err != nil {
		return err
	}

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

	const qInsert = `INSERT INTO locations
		(name, description, latitude, longitude, geom, address, city,
		 country_id, region_id, district_id, ward_id, category_id,
		 thumbnail_url, price_min, price_max, popularity_score, is_active)
		VALUES (?, ?, ?, ?, ST_GeomFromText(?, 4326, 'axis-order=long-lat'),
		 ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, qInsert,
		loc.Name, loc.Description, loc.Latitude, loc.Longitude, pt.WKT(),
		loc.Address, loc.City,
		loc.CountryID, loc.RegionID, loc.DistrictID, loc.WardID, loc.CategoryID,
		loc.ThumbnailURL, loc.PriceMin, loc.PriceMax,
		loc.PopularityScore, loc.IsActive,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	loc.ID = uint64(id)

	if err = createAmenitiesTx(ctx, tx, loc.ID, amenities); err != nil {
		return err
	}

	// Query the row back within the transaction so timestamps and
	// database defaults reach the caller.
	if err = scanLocation(tx.QueryRowContext(ctx, locationSelect+` WHERE l.id = ?`, loc.ID), loc); err != nil {
		return err
	}
	loc.Amenities, err = amenitiesByLocation(ctx, tx, loc.ID)
	return err
}

// GetByID fetches a location by id. ErrLocationNotFound is returned when
// the id does not resolve. When withRelations is true the amenity and
// rating child rows are loaded as well; the average rating is always
// present because it is computed in the same SELECT.
func (r *LocationRepo) GetByID(ctx context.Context, id uint64, withRelations bool) (*Location, error) {
	var l Location
	if err := scanLocation(r.db.QueryRowContext(ctx, locationSelect+` WHERE l.id = ?`, id), &l); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}
	if !withRelations {
		return &l, nil
	}
	var err error
	if l.Amenities, err = amenitiesByLocation(ctx, r.db, id); err != nil {
		return nil, err
	}
	if l.Ratings, err = ratingsByLocation(ctx, r.db, id); err != nil {
		return nil, err
	}
	return &l, nil
}

// UpdateByID applies a partial update. The current row is read first so
// absent patch fields keep their stored values; if either coordinate is
// patched the geometry is regenerated from the merged pair. A non-nil
// amenity list replaces the whole child set. Row mutation and amenity
// replacement commit as one transaction. ErrLocationNotFound is returned
// when the id does not resolve.
func (r *LocationRepo) UpdateByID(ctx context.Context, id uint64, p LocationPatch) (loc *Location, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	var cur Location
	if err = scanLocation(tx.QueryRowContext(ctx, locationSelect+` WHERE l.id = ?`, id), &cur); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrLocationNotFound
		}
		return nil, err
	}

	applyLocationPatch(&cur, p)

	// The merged pair is re-validated even when neither coordinate
	// changed; the stored values always pass, a patched value may not.
	pt, err := geo.NewPoint(cur.Latitude, cur.Longitude)
	if err != nil {
		return nil, err
	}

	const qUpdate = `UPDATE locations
		SET name = ?, description = ?, latitude = ?, longitude = ?,
		    geom = ST_GeomFromText(?, 4326, 'axis-order=long-lat'),
		    address = ?, city = ?,
		    country_id = ?, region_id = ?, district_id = ?, ward_id = ?, category_id = ?,
		    thumbnail_url = ?, price_min = ?, price_max = ?,
		    popularity_score = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
	if _, err = tx.ExecContext(ctx, qUpdate,
		cur.Name, cur.Description, cur.Latitude, cur.Longitude, pt.WKT(),
		cur.Address, cur.City,
		cur.CountryID, cur.RegionID, cur.DistrictID, cur.WardID, cur.CategoryID,
		cur.ThumbnailURL, cur.PriceMin, cur.PriceMax,
		cur.PopularityScore, cur.IsActive,
		id,
	); err != nil {
		return nil, err
	}

	if p.Amenities != nil {
		if err = deleteAmenitiesTx(ctx, tx, id); err != nil {
			return nil, err
		}
		if err = createAmenitiesTx(ctx, tx, id, p.Amenities); err != nil {
			return nil, err
		}
	}

	var out Location
	if err = scanLocation(tx.QueryRowContext(ctx, locationSelect+` WHERE l.id = ?`, id), &out); err != nil {
		return nil, err
	}
	if out.Amenities, err = amenitiesByLocation(ctx, tx, id); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteByID removes a location together with its rating and amenity
// child rows. The child deletes are issued explicitly so the cascade
// does not depend on schema-level referential actions. Returns
// ErrLocationNotFound when the id does not resolve.
func (r *LocationRepo) DeleteByID(ctx context.Context, id uint64) (err error) {
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

	if _, err = tx.ExecContext(ctx, `DELETE FROM ratings WHERE location_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM location_amenities WHERE location_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM locations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrLocationNotFound
		return err
	}
	return nil
}

// applyLocationPatch merges the optional field set onto the current row,
// one field at a time. Explicit assignments keep the merge readable and
// avoid any reflection-based copying.
func applyLocationPatch(l *Location, p LocationPatch) {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Description != nil {
		l.Description = p.Description
	}
	if p.Latitude != nil {
		l.Latitude = *p.Latitude
	}
	if p.Longitude != nil {
		l.Longitude = *p.Longitude
	}
	if p.Address != nil {
		l.Address = p.Address
	}
	if p.City != nil {
		l.City = p.City
	}
	if p.CountryID != nil {
		l.CountryID = p.CountryID
	}
	if p.RegionID != nil {
		l.RegionID = p.RegionID
	}
	if p.DistrictID != nil {
		l.DistrictID = p.DistrictID
	}
	if p.WardID != nil {
		l.WardID = p.WardID
	}
	if p.CategoryID != nil {
		l.CategoryID = p.CategoryID
	}
	if p.ThumbnailURL != nil {
		l.ThumbnailURL = p.ThumbnailURL
	}
	if p.PriceMin != nil {
		l.PriceMin = p.PriceMin
	}
	if p.PriceMax != nil {
		l.PriceMax = p.PriceMax
	}
	if p.PopularityScore != nil {
		l.PopularityScore = *p.PopularityScore
	}
	if p.IsActive != nil {
		l.IsActive = *p.IsActive
	}
}

// createAmenitiesTx inserts the given amenity names for a location in a
// single multi-row statement. Blank names are skipped; passing no usable
// names has no effect and returns nil.
func createAmenitiesTx(ctx context.Context, tx *sql.Tx, locationID uint64, names []string) error {
	query := `INSERT INTO location_amenities (location_id, name) VALUES `
	args := make([]interface{}, 0, len(names)*2)
	n := 0
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if n > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, locationID, name)
		n++
	}
	if n == 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// deleteAmenitiesTx removes every amenity row owned by the location.
func deleteAmenitiesTx(ctx context.Context, tx *sql.Tx, locationID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM location_amenities WHERE location_id = ?`, locationID)
	return err
}

// amenitiesByLocation retrieves all amenity rows of a location ordered
// by id, so replacement order is preserved in responses.
func amenitiesByLocation(ctx context.Context, q querier, locationID uint64) ([]Amenity, error) {
	const qSel = `SELECT id, location_id, name FROM location_amenities WHERE location_id = ? ORDER BY id`
	rows, err := q.QueryContext(ctx, qSel, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Amenity
	for rows.Next() {
		var a Amenity
		if err := rows.Scan(&a.ID, &a.LocationID, &a.Name); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
