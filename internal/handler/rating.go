// This file implements the rating endpoints nested under a location.
// Submitting a rating requires an authenticated caller of any role;
// reading the list is public. The location's average is never written
// anywhere, it is recomputed from these rows on every read.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/bean0205/backend/internal/repository"
)

// CreateRating handles POST /v1/locations/:id/ratings. The rating value
// must lie in [1, 5]; the comment is optional. Returns 404 when the
// location id does not resolve and 201 with the stored row on success.
func (h *RatingHandler) CreateRating(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	locationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Rating  float64 `json:"rating"`
		Comment *string `json:"comment"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Rating < 1 || body.Rating > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
	}

	rec := &repository.Rating{
		LocationID: locationID,
		UserID:     userID,
		Rating:     body.Rating,
		Comment:    body.Comment,
	}
	if err := h.Ratings.Create(c.Request().Context(), rec); err != nil {
		if errors.Is(err, repository.ErrLocationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "location not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, rec)
}

// ListRatings handles GET /v1/locations/:id/ratings and returns one page
// of the location's ratings, newest first, in the standard pagination
// envelope. A missing location is a 404 even when it would simply have
// zero ratings.
func (h *RatingHandler) ListRatings(c echo.Context) error {
	locationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("page_size"))

	out, err := h.Ratings.ListByLocation(c.Request().Context(), locationID, page, size)
	if err != nil {
		if errors.Is(err, repository.ErrLocationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "location not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, out)
}
