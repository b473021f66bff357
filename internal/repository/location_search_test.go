package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintPtr(v uint64) *uint64    { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func TestPredicatesEmptyFilter(t *testing.T) {
	where, args := LocationFilter{}.predicates()

	assert.Equal(t, []string{"l.is_active = TRUE"}, where, "an empty filter must still hide inactive rows")
	assert.Empty(t, args)
}

func TestPredicatesAllCriteria(t *testing.T) {
	f := LocationFilter{
		SearchTerm:    "  Old Town  ",
		CountryID:     uintPtr(1),
		RegionID:      uintPtr(2),
		DistrictID:    uintPtr(3),
		WardID:        uintPtr(4),
		CategoryID:    uintPtr(5),
		PriceRangeMin: floatPtr(10),
		PriceRangeMax: floatPtr(80),
		Amenities:     []string{"WiFi", " parking "},
		MinRating:     floatPtr(3.5),
	}
	where, args := f.predicates()

	require.Len(t, where, 12)
	assert.Equal(t, "l.is_active = TRUE", where[0])
	assert.Equal(t, "(LOWER(l.name) LIKE ? OR LOWER(l.description) LIKE ? OR LOWER(l.address) LIKE ?)", where[1])
	assert.Equal(t, "l.country_id = ?", where[2])
	assert.Equal(t, "l.region_id = ?", where[3])
	assert.Equal(t, "l.district_id = ?", where[4])
	assert.Equal(t, "l.ward_id = ?", where[5])
	assert.Equal(t, "l.category_id = ?", where[6])
	assert.Equal(t, "l.price_min >= ?", where[7])
	assert.Equal(t, "l.price_max <= ?", where[8])
	assert.Equal(t, "EXISTS (SELECT 1 FROM location_amenities la WHERE la.location_id = l.id AND LOWER(la.name) LIKE ?)", where[9])
	assert.Equal(t, "EXISTS (SELECT 1 FROM location_amenities la WHERE la.location_id = l.id AND LOWER(la.name) LIKE ?)", where[10])
	assert.Equal(t, "l.id IN (SELECT r.location_id FROM ratings r GROUP BY r.location_id HAVING AVG(r.rating) >= ?)", where[11])

	assert.Equal(t, []any{
		"%old town%", "%old town%", "%old town%",
		uint64(1), uint64(2), uint64(3), uint64(4), uint64(5),
		10.0, 80.0,
		"%wifi%", "%parking%",
		3.5,
	}, args)
}

func TestPredicatesSkipsBlankAmenities(t *testing.T) {
	f := LocationFilter{Amenities: []string{"  ", "", "Pool"}}
	where, args := f.predicates()

	require.Len(t, where, 2, "blank amenity names must not produce clauses")
	assert.Equal(t, []any{"%pool%"}, args)
}

func TestPredicatesBlankSearchTerm(t *testing.T) {
	where, args := LocationFilter{SearchTerm: "   "}.predicates()

	assert.Len(t, where, 1)
	assert.Empty(t, args)
}

func TestSortExpr(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"name_asc", "l.name ASC"},
		{"name_desc", "l.name DESC"},
		{"popularity_asc", "l.popularity_score ASC"},
		{"popularity_desc", "l.popularity_score DESC"},
		{"price_asc", "l.price_min ASC"},
		{"price_desc", "l.price_max DESC"},
		{"rating_asc", "average_rating ASC"},
		{"rating_desc", "average_rating DESC"},
		{"  RATING_DESC  ", "average_rating DESC"},
		{"", "l.popularity_score DESC"},
		{"bogus", "l.popularity_score DESC"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, sortExpr(tc.in), "sort_by=%q", tc.in)
	}
}

func TestClampPage(t *testing.T) {
	assert.Equal(t, 1, clampPage(0))
	assert.Equal(t, 1, clampPage(-5))
	assert.Equal(t, 1, clampPage(1))
	assert.Equal(t, 42, clampPage(42))
}

func TestClampPageSize(t *testing.T) {
	assert.Equal(t, 1, clampPageSize(0))
	assert.Equal(t, 1, clampPageSize(-1))
	assert.Equal(t, 20, clampPageSize(20))
	assert.Equal(t, 100, clampPageSize(100))
	assert.Equal(t, 100, clampPageSize(500))
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, totalPages(0, 20), "empty result has zero pages")
	assert.Equal(t, 0, totalPages(-3, 20))
	assert.Equal(t, 1, totalPages(1, 20))
	assert.Equal(t, 1, totalPages(20, 20))
	assert.Equal(t, 2, totalPages(21, 20))
	assert.Equal(t, 15, totalPages(100, 7))
}

func TestShortAddress(t *testing.T) {
	cases := []struct {
		name    string
		ward    *string
		dist    *string
		region  *string
		country *string
		address *string
		want    string
	}{
		{"ward wins over district", strPtr("Ben Thanh"), strPtr("District 1"), strPtr("Ho Chi Minh"), strPtr("Vietnam"), nil, "Ben Thanh, Vietnam"},
		{"district when no ward", nil, strPtr("District 1"), strPtr("Ho Chi Minh"), strPtr("Vietnam"), nil, "District 1, Vietnam"},
		{"region when nothing finer", nil, nil, strPtr("Ho Chi Minh"), strPtr("Vietnam"), nil, "Ho Chi Minh, Vietnam"},
		{"country alone", nil, nil, nil, strPtr("Vietnam"), nil, "Vietnam"},
		{"ward alone", strPtr("Ben Thanh"), nil, nil, nil, nil, "Ben Thanh"},
		{"empty strings ignored", strPtr(""), strPtr(""), nil, strPtr("Vietnam"), nil, "Vietnam"},
		{"raw address fallback", nil, nil, nil, nil, strPtr("12 Nowhere Rd"), "12 Nowhere Rd"},
		{"nothing at all", nil, nil, nil, nil, nil, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, shortAddress(tc.ward, tc.dist, tc.region, tc.country, tc.address))
		})
	}
}
