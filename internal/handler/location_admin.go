package handler // handler package contains moderation endpoints for locations

import (
	"net/http" // http provides status code constants
	"strconv"  // strconv parses path parameters to numeric types
	"strings"  // strings offers trimming utilities

	"github.com/labstack/echo/v4" // echo supplies the request context

	"github.com/bean0205/backend/internal/geo"        // geo validates coordinate pairs
	"github.com/bean0205/backend/internal/queue"      // queue defines the lifecycle event payload
	"github.com/bean0205/backend/internal/repository" // repository holds the persistence records
)

// CreateLocation handles POST /v1/locations and registers a new location.
// The route is restricted to ADMIN and MODERATOR by the router; here the
// payload is validated, referenced hierarchy ids are resolved, and the
// row plus its amenities are written in one transaction.
func (h *LocationHandler) CreateLocation(c echo.Context) error {
	actorID, err := getUserID(c) // the acting moderator, recorded on the emitted event
	if err != nil {              // identity middleware did not run or the header was invalid
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	var body struct { // anonymous struct to bind the incoming JSON
		Name            string   `json:"name"`             // required display name
		Description     *string  `json:"description"`      // optional free text
		Latitude        float64  `json:"latitude"`         // required, [-90, 90]
		Longitude       float64  `json:"longitude"`        // required, [-180, 180]
		Address         *string  `json:"address"`          // optional street address
		City            *string  `json:"city"`             // optional city name
		CountryID       *uint64  `json:"country_id"`       // optional hierarchy reference
		RegionID        *uint64  `json:"region_id"`        // optional hierarchy reference
		DistrictID      *uint64  `json:"district_id"`      // optional hierarchy reference
		WardID          *uint64  `json:"ward_id"`          // optional hierarchy reference
		CategoryID      *uint64  `json:"category_id"`      // optional category reference
		ThumbnailURL    *string  `json:"thumbnail_url"`    // optional preview image
		PriceMin        *float64 `json:"price_min"`        // optional lower price bound
		PriceMax        *float64 `json:"price_max"`        // optional upper price bound
		PopularityScore *float64 `json:"popularity_score"` // optional, defaults to 0
		IsActive        *bool    `json:"is_active"`        // optional, defaults to true
		Amenities       []string `json:"amenities"`        // optional amenity names
	}
	if err := c.Bind(&body); err != nil { // bind the request body into the struct
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name) // normalize the name before the required check
	if name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "name is required"})
	}
	if _, err := geo.NewPoint(body.Latitude, body.Longitude); err != nil { // reject out-of-range coordinates before touching the database
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if body.PriceMin != nil && body.PriceMax != nil && *body.PriceMin > *body.PriceMax { // a price window must be coherent when both bounds are given
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "price_min must not exceed price_max"})
	}

	ctx := c.Request().Context()
	// Resolve every referenced id up front so a dangling reference is a
	// precise 404 rather than a foreign key violation from the insert.
	if err := h.Refs.ResolveLocationRefs(ctx, body.CountryID, body.RegionID, body.DistrictID, body.WardID, body.CategoryID); err != nil {
		return writeRepoError(c, err)
	}

	loc := &repository.Location{ // assemble the record from the validated payload
		Name:         name,
		Description:  body.Description,
		Latitude:     body.Latitude,
		Longitude:    body.Longitude,
		Address:      body.Address,
		City:         body.City,
		CountryID:    body.CountryID,
		RegionID:     body.RegionID,
		DistrictID:   body.DistrictID,
		WardID:       body.WardID,
		CategoryID:   body.CategoryID,
		ThumbnailURL: body.ThumbnailURL,
		PriceMin:     body.PriceMin,
		PriceMax:     body.PriceMax,
		IsActive:     true, // new locations are visible unless the payload says otherwise
	}
	if body.PopularityScore != nil {
		loc.PopularityScore = *body.PopularityScore
	}
	if body.IsActive != nil {
		loc.IsActive = *body.IsActive
	}
	if err := h.Locations.Create(ctx, loc, body.Amenities); err != nil { // persist row and amenities in one transaction
		return writeRepoError(c, err)
	}

	h.publishAsync(queue.LocationEvent{ // announce the new location; failures only cost the event
		Action:     queue.ActionLocationCreated,
		LocationID: loc.ID,
		Name:       loc.Name,
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
		CategoryID: loc.CategoryID,
		ActorID:    actorID,
	})
	return c.JSON(http.StatusCreated, loc) // return 201 and the repopulated record
}

// UpdateLocation handles PUT /v1/locations/:id with partial-update
// semantics: absent fields keep their stored values, a present field
// overwrites, and a present amenities array replaces the whole set.
// Restricted to ADMIN and MODERATOR by the router.
func (h *LocationHandler) UpdateLocation(c echo.Context) error {
	actorID, err := getUserID(c) // acting moderator for the event
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64) // parse the target id from the path
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	var body struct { // every field is a pointer so absence is distinguishable from a zero value
		Name            *string  `json:"name"`
		Description     *string  `json:"description"`
		Latitude        *float64 `json:"latitude"`
		Longitude       *float64 `json:"longitude"`
		Address         *string  `json:"address"`
		City            *string  `json:"city"`
		CountryID       *uint64  `json:"country_id"`
		RegionID        *uint64  `json:"region_id"`
		DistrictID      *uint64  `json:"district_id"`
		WardID          *uint64  `json:"ward_id"`
		CategoryID      *uint64  `json:"category_id"`
		ThumbnailURL    *string  `json:"thumbnail_url"`
		PriceMin        *float64 `json:"price_min"`
		PriceMax        *float64 `json:"price_max"`
		PopularityScore *float64 `json:"popularity_score"`
		IsActive        *bool    `json:"is_active"`
		Amenities       []string `json:"amenities"` // nil leaves the set untouched, [] clears it
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if body.Name != nil { // a patched name must still be non-empty after trimming
		trimmed := strings.TrimSpace(*body.Name)
		if trimmed == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "name must not be empty"})
		}
		body.Name = &trimmed
	}
	if body.PriceMin != nil && body.PriceMax != nil && *body.PriceMin > *body.PriceMax {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "price_min must not exceed price_max"})
	}

	ctx := c.Request().Context()
	if err := h.Refs.ResolveLocationRefs(ctx, body.CountryID, body.RegionID, body.DistrictID, body.WardID, body.CategoryID); err != nil { // only patched references are checked, nil ids are skipped
		return writeRepoError(c, err)
	}

	patch := repository.LocationPatch{ // carry the optional field set to the repository merge
		Name:            body.Name,
		Description:     body.Description,
		Latitude:        body.Latitude,
		Longitude:       body.Longitude,
		Address:         body.Address,
		City:            body.City,
		CountryID:       body.CountryID,
		RegionID:        body.RegionID,
		DistrictID:      body.DistrictID,
		WardID:          body.WardID,
		CategoryID:      body.CategoryID,
		ThumbnailURL:    body.ThumbnailURL,
		PriceMin:        body.PriceMin,
		PriceMax:        body.PriceMax,
		PopularityScore: body.PopularityScore,
		IsActive:        body.IsActive,
		Amenities:       body.Amenities,
	}
	updated, err := h.Locations.UpdateByID(ctx, id, patch) // merge, re-validate coordinates and write in one transaction
	if err != nil {
		return writeRepoError(c, err) // 404 for a missing id, 400 for an invalid merged coordinate
	}

	h.publishAsync(queue.LocationEvent{
		Action:     queue.ActionLocationUpdated,
		LocationID: updated.ID,
		Name:       updated.Name,
		Latitude:   updated.Latitude,
		Longitude:  updated.Longitude,
		CategoryID: updated.CategoryID,
		ActorID:    actorID,
	})
	return c.JSON(http.StatusOK, updated) // return the merged, repopulated record
}

// DeleteLocation handles DELETE /v1/locations/:id. The row is read first
// so the emitted event can carry the location's name and coordinates.
// Amenity and rating child rows are removed with it. Restricted to ADMIN
// by the router; returns 204 on success and 404 for an unknown id.
func (h *LocationHandler) DeleteLocation(c echo.Context) error {
	actorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	ctx := c.Request().Context()
	loc, err := h.Locations.GetByID(ctx, id, false) // fetch before deleting, the event needs the row
	if err != nil {
		return writeRepoError(c, err)
	}
	if err := h.Locations.DeleteByID(ctx, id); err != nil {
		return writeRepoError(c, err)
	}

	h.publishAsync(queue.LocationEvent{
		Action:     queue.ActionLocationDeleted,
		LocationID: loc.ID,
		Name:       loc.Name,
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
		CategoryID: loc.CategoryID,
		ActorID:    actorID,
	})
	return c.NoContent(http.StatusNoContent)
}
