// This file defines the public read API for single locations. These
// routes require no authentication; responses are the repository records
// with the average rating computed on read.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bean0205/backend/internal/repository"
)

// GetLocation handles GET /v1/locations/:id. By default the response is
// the bare record plus its computed average rating; adding
// ?include_relations=true loads the amenity and rating child rows too.
func (h *PublicHandler) GetLocation(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	withRelations := false
	switch strings.ToLower(strings.TrimSpace(c.QueryParam("include_relations"))) {
	case "true", "1":
		withRelations = true
	}

	loc, err := h.Locations.GetByID(c.Request().Context(), id, withRelations)
	if err != nil {
		if errors.Is(err, repository.ErrLocationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "location not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, loc)
}
