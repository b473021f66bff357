// This file implements filtered search and proximity search over the
// directory. The same filter is reachable twice: as query parameters on
// GET /v1/locations for casual use, and as a JSON body on
// POST /v1/locations/search for clients composing richer filters.
package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bean0205/backend/internal/geo"
	"github.com/bean0205/backend/internal/repository"
)

// Proximity search bounds. Requests outside them are rejected rather
// than clamped so callers learn about their mistake.
const (
	defaultRadiusKm    = 5.0
	minRadiusKm        = 0.1
	maxRadiusKm        = 50.0
	defaultNearbyLimit = 20
	maxNearbyLimit     = 100
)

// checkFilter enforces the cross-field rules a single predicate cannot
// express. An empty return means the filter is usable.
func checkFilter(f repository.LocationFilter) string {
	if f.PriceRangeMin != nil && f.PriceRangeMax != nil && *f.PriceRangeMin > *f.PriceRangeMax {
		return "price_min must not exceed price_max"
	}
	if f.MinRating != nil && (*f.MinRating < 1 || *f.MinRating > 5) {
		return "min_rating must be between 1 and 5"
	}
	return ""
}

// runSearch validates the filter, runs the paginated query and writes
// the envelope. Shared by the GET and POST variants.
func (h *PublicHandler) runSearch(c echo.Context, f repository.LocationFilter, page, size int, sortBy string) error {
	if msg := checkFilter(f); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	res, err := h.Locations.Search(c.Request().Context(), f, page, size, sortBy)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, res)
}

// ListLocations handles GET /v1/locations. All filters are optional;
// amenities is a comma-separated list. Page and page_size are clamped
// by the repository, sort_by falls back to popularity when unknown.
func (h *PublicHandler) ListLocations(c echo.Context) error {
	f := repository.LocationFilter{
		SearchTerm: strings.TrimSpace(c.QueryParam("search")),
	}

	var err error
	if f.CountryID, err = queryUint64(c, "country_id"); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if f.RegionID, err = queryUint64(c, "region_id"); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if f.DistrictID, err = queryUint64(c, "district_id"); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if f.WardID, err = queryUint64(c, "ward_id"); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if f.CategoryID, err = queryUint64(c, "category_id"); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if f.PriceRangeMin, err = queryFloat64(c, "price_min"); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if f.PriceRangeMax, err = queryFloat64(c, "price_max"); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if f.MinRating, err = queryFloat64(c, "min_rating"); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if raw := strings.TrimSpace(c.QueryParam("amenities")); raw != "" {
		f.Amenities = strings.Split(raw, ",")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("page_size"))
	return h.runSearch(c, f, page, size, c.QueryParam("sort_by"))
}

// SearchLocations handles POST /v1/locations/search. The body mirrors
// the query parameters of ListLocations; amenities is a real array here.
func (h *PublicHandler) SearchLocations(c echo.Context) error {
	var body struct {
		Search     string   `json:"search"`
		CountryID  *uint64  `json:"country_id"`
		RegionID   *uint64  `json:"region_id"`
		DistrictID *uint64  `json:"district_id"`
		WardID     *uint64  `json:"ward_id"`
		CategoryID *uint64  `json:"category_id"`
		PriceMin   *float64 `json:"price_min"`
		PriceMax   *float64 `json:"price_max"`
		Amenities  []string `json:"amenities"`
		MinRating  *float64 `json:"min_rating"`
		Page       int      `json:"page"`
		PageSize   int      `json:"page_size"`
		SortBy     string   `json:"sort_by"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	f := repository.LocationFilter{
		SearchTerm:    strings.TrimSpace(body.Search),
		CountryID:     body.CountryID,
		RegionID:      body.RegionID,
		DistrictID:    body.DistrictID,
		WardID:        body.WardID,
		CategoryID:    body.CategoryID,
		PriceRangeMin: body.PriceMin,
		PriceRangeMax: body.PriceMax,
		Amenities:     body.Amenities,
		MinRating:     body.MinRating,
	}
	return h.runSearch(c, f, body.Page, body.PageSize, body.SortBy)
}

// NearbyLocations handles POST /v1/locations/nearby and returns active
// locations within the given radius of the origin, closest first. The
// radius defaults to 5 km and must stay within [0.1, 50]; the limit
// defaults to 20 and must stay within [1, 100]. Violations are a 400,
// not a clamp.
func (h *PublicHandler) NearbyLocations(c echo.Context) error {
	var body struct {
		Latitude   float64  `json:"latitude"`
		Longitude  float64  `json:"longitude"`
		RadiusKm   *float64 `json:"radius_km"`
		Limit      *int     `json:"limit"`
		CategoryID *uint64  `json:"category_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	origin, err := geo.NewPoint(body.Latitude, body.Longitude)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	radius := defaultRadiusKm
	if body.RadiusKm != nil {
		radius = *body.RadiusKm
		if radius < minRadiusKm || radius > maxRadiusKm {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "radius_km must be between 0.1 and 50"})
		}
	}
	limit := defaultNearbyLimit
	if body.Limit != nil {
		limit = *body.Limit
		if limit < 1 || limit > maxNearbyLimit {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be between 1 and 100"})
		}
	}

	items, err := h.Locations.Nearby(c.Request().Context(), origin, radius, limit, body.CategoryID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
