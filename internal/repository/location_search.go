package repository

import (
	"context"
	"strings"
)

// LocationFilter defines the optional predicates for filtered location
// search. Absent fields impose no constraint; every present field is
// ANDed into the query. Price bounds apply independently: PriceRangeMin
// constrains the row's price_min from below and PriceRangeMax constrains
// price_max from above. Each amenity name must independently match one
// of the location's amenity rows (substring, case-insensitive).
type LocationFilter struct {
	SearchTerm    string
	CountryID     *uint64
	RegionID      *uint64
	DistrictID    *uint64
	WardID        *uint64
	CategoryID    *uint64
	PriceRangeMin *float64
	PriceRangeMax *float64
	Amenities     []string
	MinRating     *float64
}

// LocationSummary is the reduced projection returned by filtered search.
// Child collections are deliberately omitted; callers needing amenities
// or ratings fetch the location by id.
type LocationSummary struct {
	ID            uint64   `json:"id"`
	Name          string   `json:"name"`
	ThumbnailURL  *string  `json:"thumbnail_url,omitempty"`
	AddressShort  string   `json:"address_short"`
	CategoryName  *string  `json:"category_name,omitempty"`
	AverageRating *float64 `json:"average_rating,omitempty"`
	PriceMin      *float64 `json:"price_min,omitempty"`
	PriceMax      *float64 `json:"price_max,omitempty"`
}

// SearchResult is the pagination envelope for filtered search.
type SearchResult struct {
	Items       []LocationSummary `json:"items"`
	TotalItems  int64             `json:"total_items"`
	TotalPages  int               `json:"total_pages"`
	CurrentPage int               `json:"current_page"`
}

// predicates renders the filter as WHERE fragments plus their args.
// Public search never surfaces inactive locations, so the is_active
// restriction is always the first condition.
func (f LocationFilter) predicates() ([]string, []any) {
	where := []string{"l.is_active = TRUE"}
	args := []any{}

	if term := strings.TrimSpace(f.SearchTerm); term != "" {
		where = append(where, "(LOWER(l.name) LIKE ? OR LOWER(l.description) LIKE ? OR LOWER(l.address) LIKE ?)")
		pat := "%" + strings.ToLower(term) + "%"
		args = append(args, pat, pat, pat)
	}
	if f.CountryID != nil {
		where = append(where, "l.country_id = ?")
		args = append(args, *f.CountryID)
	}
	if f.RegionID != nil {
		where = append(where, "l.region_id = ?")
		args = append(args, *f.RegionID)
	}
	if f.DistrictID != nil {
		where = append(where, "l.district_id = ?")
		args = append(args, *f.DistrictID)
	}
	if f.WardID != nil {
		where = append(where, "l.ward_id = ?")
		args = append(args, *f.WardID)
	}
	if f.CategoryID != nil {
		where = append(where, "l.category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.PriceRangeMin != nil {
		where = append(where, "l.price_min >= ?")
		args = append(args, *f.PriceRangeMin)
	}
	if f.PriceRangeMax != nil {
		where = append(where, "l.price_max <= ?")
		args = append(args, *f.PriceRangeMax)
	}
	for _, name := range f.Amenities {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		where = append(where, "EXISTS (SELECT 1 FROM location_amenities la WHERE la.location_id = l.id AND LOWER(la.name) LIKE ?)")
		args = append(args, "%"+strings.ToLower(name)+"%")
	}
	if f.MinRating != nil {
		where = append(where, "l.id IN (SELECT r.location_id FROM ratings r GROUP BY r.location_id HAVING AVG(r.rating) >= ?)")
		args = append(args, *f.MinRating)
	}
	return where, args
}

// sortExpr maps a sort_by value onto its ORDER BY clause. Price sorts
// follow the stored bounds: ascending orders by the lower bound,
// descending by the upper one. Unknown or empty values fall back to
// popularity descending.
func sortExpr(sortBy string) string {
	switch strings.ToLower(strings.TrimSpace(sortBy)) {
	case "name_asc":
		return "l.name ASC"
	case "name_desc":
		return "l.name DESC"
	case "popularity_asc":
		return "l.popularity_score ASC"
	case "price_asc":
		return "l.price_min ASC"
	case "price_desc":
		return "l.price_max DESC"
	case "rating_asc":
		return "average_rating ASC"
	case "rating_desc":
		return "average_rating DESC"
	default:
		return "l.popularity_score DESC"
	}
}

// clampPage and clampPageSize bound the pagination inputs instead of
// rejecting them: page is at least 1 and size stays within [1, 100].
func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func clampPageSize(size int) int {
	if size < 1 {
		return 1
	}
	if size > 100 {
		return 100
	}
	return size
}

// totalPages derives the page count for an envelope: zero when the
// result set is empty, otherwise the ceiling of total/size.
func totalPages(total int64, size int) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

// shortAddress denormalizes the joined hierarchy names into a compact
// display address: the most specific administrative unit (ward, else
// district, else region) followed by the country, joined with ", ".
// When nothing is resolved the raw address is used as-is.
func shortAddress(ward, district, region, country, address *string) string {
	parts := make([]string, 0, 2)
	switch {
	case ward != nil && *ward != "":
		parts = append(parts, *ward)
	case district != nil && *district != "":
		parts = append(parts, *district)
	case region != nil && *region != "":
		parts = append(parts, *region)
	}
	if country != nil && *country != "" {
		parts = append(parts, *country)
	}
	if len(parts) == 0 {
		if address != nil {
			return *address
		}
		return ""
	}
	return strings.Join(parts, ", ")
}

// Search runs the filtered, paginated, sorted location query. The total
// is counted with the same predicate before pagination, then one page of
// summary projections is fetched with the category and hierarchy names
// joined in. Out-of-range page and size values are clamped, never
// rejected; an empty result is a valid outcome with TotalPages 0.
func (r *LocationRepo) Search(ctx context.Context, f LocationFilter, page, size int, sortBy string) (*SearchResult, error) {
	page = clampPage(page)
	size = clampPageSize(size)

	where, args := f.predicates()
	cond := strings.Join(where, " AND ")

	var total int64
	countSQL := `SELECT COUNT(*) FROM locations l WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, err
	}

	limit := size
	offset := (page - 1) * size

	dataSQL := `SELECT
			l.id,
			l.name,
			l.thumbnail_url,
			l.address,
			c.name  AS category_name,
			w.name  AS ward_name,
			d.name  AS district_name,
			rg.name AS region_name,
			co.name AS country_name,
			(SELECT AVG(r.rating) FROM ratings r WHERE r.location_id = l.id) AS average_rating,
			l.price_min,
			l.price_max
		FROM locations l
		LEFT JOIN categories c ON c.id  = l.category_id
		LEFT JOIN wards w      ON w.id  = l.ward_id
		LEFT JOIN districts d  ON d.id  = l.district_id
		LEFT JOIN regions rg   ON rg.id = l.region_id
		LEFT JOIN countries co ON co.id = l.country_id
		WHERE ` + cond + `
		ORDER BY ` + sortExpr(sortBy) + `
		LIMIT ? OFFSET ?`

	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]LocationSummary, 0, limit)
	for rows.Next() {
		var (
			s       LocationSummary
			address *string
			ward    *string
			dist    *string
			region  *string
			country *string
		)
		if err := rows.Scan(
			&s.ID,
			&s.Name,
			&s.ThumbnailURL,
			&address,
			&s.CategoryName,
			&ward,
			&dist,
			&region,
			&country,
			&s.AverageRating,
			&s.PriceMin,
			&s.PriceMax,
		); err != nil {
			return nil, err
		}
		s.AddressShort = shortAddress(ward, dist, region, country, address)
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &SearchResult{
		Items:       items,
		TotalItems:  total,
		TotalPages:  totalPages(total, size),
		CurrentPage: page,
	}, nil
}
