package repository

import (
	"context"

	"github.com/bean0205/backend/internal/geo"
)

// NearbyLocation pairs a full location row with its spherical distance
// from the search origin, in meters.
type NearbyLocation struct {
	Location
	DistanceMeters float64 `json:"distance_m"`
}

// Nearby returns the active locations within radiusKm of the origin,
// closest first, truncated to limit. The distance is computed by the
// database with ST_Distance_Sphere so the radius cut and the ordering
// agree with the stored SRID 4326 geometry. An optional category id
// narrows the candidate set before the distance cut. Radius and limit
// bounds are the caller's responsibility; the repository only converts
// kilometers to meters.
func (r *LocationRepo) Nearby(ctx context.Context, origin geo.Point, radiusKm float64, limit int, categoryID *uint64) ([]NearbyLocation, error) {
	categoryCond := ""
	args := []any{origin.WKT()}
	if categoryID != nil {
		categoryCond = " AND l.category_id = ?"
		args = append(args, *categoryID)
	}
	args = append(args, radiusKm*1000, limit)

	// The inner derived table makes the distance alias usable in the
	// outer WHERE and ORDER BY without repeating the expression.
	q := `SELECT * FROM (
			SELECT
				l.id, l.name, l.description, l.latitude, l.longitude,
				l.address, l.city,
				l.country_id, l.region_id, l.district_id, l.ward_id, l.category_id,
				l.thumbnail_url, l.price_min, l.price_max,
				l.popularity_score, l.is_active, l.created_at, l.updated_at,
				(SELECT AVG(r.rating) FROM ratings r WHERE r.location_id = l.id) AS average_rating,
				ST_Distance_Sphere(l.geom, ST_GeomFromText(?, 4326, 'axis-order=long-lat')) AS distance_m
			FROM locations l
			WHERE l.is_active = TRUE` + categoryCond + `
		) AS near
		WHERE near.distance_m <= ?
		ORDER BY near.distance_m ASC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]NearbyLocation, 0, limit)
	for rows.Next() {
		var n NearbyLocation
		if err := rows.Scan(
			&n.ID, &n.Name, &n.Description, &n.Latitude, &n.Longitude,
			&n.Address, &n.City,
			&n.CountryID, &n.RegionID, &n.DistrictID, &n.WardID, &n.CategoryID,
			&n.ThumbnailURL, &n.PriceMin, &n.PriceMax,
			&n.PopularityScore, &n.IsActive, &n.CreatedAt, &n.UpdatedAt,
			&n.AverageRating,
			&n.DistanceMeters,
		); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
