package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Reference entities are maintained by the administrative service; this
// repository only resolves ids and supplies names for denormalization.

// Country mirrors a row of the countries table.
type Country struct {
	ID          uint64  // countries.id
	Code        string  // countries.code
	Name        string  // countries.name
	ContinentID *uint64 // countries.continent_id, nullable
}

// Region mirrors a row of the regions table.
type Region struct {
	ID        uint64 // regions.id
	Name      string // regions.name
	CountryID uint64 // regions.country_id
}

// District mirrors a row of the districts table.
type District struct {
	ID       uint64 // districts.id
	Name     string // districts.name
	RegionID uint64 // districts.region_id
}

// Ward mirrors a row of the wards table.
type Ward struct {
	ID         uint64 // wards.id
	Name       string // wards.name
	DistrictID uint64 // wards.district_id
}

// Category mirrors a row of the categories table.
type Category struct {
	ID   uint64 // categories.id
	Name string // categories.name
}

var (
	ErrCountryNotFound  = errors.New("country not found")
	ErrRegionNotFound   = errors.New("region not found")
	ErrDistrictNotFound = errors.New("district not found")
	ErrWardNotFound     = errors.New("ward not found")
	ErrCategoryNotFound = errors.New("category not found")
)

// ReferenceRepo provides read-only lookups against the administrative
// hierarchy and category tables.
type ReferenceRepo struct {
	db *sql.DB
}

// NewReferenceRepo constructs a ReferenceRepo with the provided DB handle.
func NewReferenceRepo(db *sql.DB) *ReferenceRepo {
	return &ReferenceRepo{db: db}
}

// CountryByID resolves a country id or returns ErrCountryNotFound.
func (r *ReferenceRepo) CountryByID(ctx context.Context, id uint64) (*Country, error) {
	const q = `SELECT id, code, name, continent_id FROM countries WHERE id = ?`
	var c Country
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.Code, &c.Name, &c.ContinentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCountryNotFound
		}
		return nil, err
	}
	return &c, nil
}

// RegionByID resolves a region id or returns ErrRegionNotFound.
func (r *ReferenceRepo) RegionByID(ctx context.Context, id uint64) (*Region, error) {
	const q = `SELECT id, name, country_id FROM regions WHERE id = ?`
	var reg Region
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&reg.ID, &reg.Name, &reg.CountryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegionNotFound
		}
		return nil, err
	}
	return &reg, nil
}

// DistrictByID resolves a district id or returns ErrDistrictNotFound.
func (r *ReferenceRepo) DistrictByID(ctx context.Context, id uint64) (*District, error) {
	const q = `SELECT id, name, region_id FROM districts WHERE id = ?`
	var d District
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&d.ID, &d.Name, &d.RegionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDistrictNotFound
		}
		return nil, err
	}
	return &d, nil
}

// WardByID resolves a ward id or returns ErrWardNotFound.
func (r *ReferenceRepo) WardByID(ctx context.Context, id uint64) (*Ward, error) {
	const q = `SELECT id, name, district_id FROM wards WHERE id = ?`
	var w Ward
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&w.ID, &w.Name, &w.DistrictID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWardNotFound
		}
		return nil, err
	}
	return &w, nil
}

// CategoryByID resolves a category id or returns ErrCategoryNotFound.
func (r *ReferenceRepo) CategoryByID(ctx context.Context, id uint64) (*Category, error) {
	const q = `SELECT id, name FROM categories WHERE id = ?`
	var c Category
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ResolveLocationRefs checks every supplied foreign key of a location
// write in one pass. Nil ids are skipped; the first unresolved id aborts
// with its entity's sentinel so handlers can answer 404 with a precise
// message before any row is written.
func (r *ReferenceRepo) ResolveLocationRefs(ctx context.Context, countryID, regionID, districtID, wardID, categoryID *uint64) error {
	if countryID != nil {
		if _, err := r.CountryByID(ctx, *countryID); err != nil {
			return err
		}
	}
	if regionID != nil {
		if _, err := r.RegionByID(ctx, *regionID); err != nil {
			return err
		}
	}
	if districtID != nil {
		if _, err := r.DistrictByID(ctx, *districtID); err != nil {
			return err
		}
	}
	if wardID != nil {
		if _, err := r.WardByID(ctx, *wardID); err != nil {
			return err
		}
	}
	if categoryID != nil {
		if _, err := r.CategoryByID(ctx, *categoryID); err != nil {
			return err
		}
	}
	return nil
}
