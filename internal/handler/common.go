// Package handler exposes the HTTP handlers of the location directory.
// Handlers bind and validate requests, translate repository sentinels
// into status codes and leave all persistence to the stores they are
// constructed with. Admin mutations additionally emit lifecycle events
// to the message queue after the write succeeded.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bean0205/backend/internal/geo"
	"github.com/bean0205/backend/internal/queue"
	"github.com/bean0205/backend/internal/repository"
	queue_publisher "github.com/bean0205/backend/internal/service"
)

// LocationStore is the slice of location persistence the handlers
// consume. *repository.LocationRepo satisfies it; tests substitute
// in-memory fakes.
type LocationStore interface {
	Create(ctx context.Context, loc *repository.Location, amenities []string) error
	GetByID(ctx context.Context, id uint64, withRelations bool) (*repository.Location, error)
	UpdateByID(ctx context.Context, id uint64, p repository.LocationPatch) (*repository.Location, error)
	DeleteByID(ctx context.Context, id uint64) error
	Search(ctx context.Context, f repository.LocationFilter, page, size int, sortBy string) (*repository.SearchResult, error)
	Nearby(ctx context.Context, origin geo.Point, radiusKm float64, limit int, categoryID *uint64) ([]repository.NearbyLocation, error)
}

// ReferenceStore resolves the administrative hierarchy and category ids
// referenced by a location write. *repository.ReferenceRepo satisfies it.
type ReferenceStore interface {
	ResolveLocationRefs(ctx context.Context, countryID, regionID, districtID, wardID, categoryID *uint64) error
}

// RatingStore is the rating persistence surface the handlers consume.
// *repository.RatingRepo satisfies it.
type RatingStore interface {
	Create(ctx context.Context, rec *repository.Rating) error
	ListByLocation(ctx context.Context, locationID uint64, page, size int) (*repository.RatingPage, error)
}

// LocationHandler bundles the stores needed by the moderation endpoints
// that create, update and delete locations.
type LocationHandler struct {
	Locations LocationStore  // Locations provides location persistence
	Refs      ReferenceStore // Refs validates hierarchy/category ids before writes
	// Publish emits a lifecycle event after a successful write. It is
	// invoked asynchronously and its error is ignored; replace it in
	// tests to capture events.
	Publish func(ctx context.Context, ev queue.LocationEvent) error
}

// NewLocationHandler constructs a LocationHandler and panics if any
// dependency is nil. Events go to the RabbitMQ publisher by default.
func NewLocationHandler(locations LocationStore, refs ReferenceStore) *LocationHandler {
	if locations == nil || refs == nil {
		panic("nil store passed to NewLocationHandler")
	}
	return &LocationHandler{
		Locations: locations,
		Refs:      refs,
		Publish:   queue_publisher.PublishLocationEvent,
	}
}

// publishAsync fires a lifecycle event without blocking the request.
// The event gets its own timeout context because the request context is
// cancelled as soon as the response is written.
func (h *LocationHandler) publishAsync(ev queue.LocationEvent) {
	if h.Publish == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.Publish(ctx, ev)
	}()
}

// PublicHandler bundles the stores needed for unauthenticated browsing:
// lookups, filtered search and proximity search.
type PublicHandler struct {
	Locations LocationStore // Locations provides location reads
}

// NewPublicHandler constructs a PublicHandler and panics on a nil store.
func NewPublicHandler(locations LocationStore) *PublicHandler {
	if locations == nil {
		panic("nil store passed to NewPublicHandler")
	}
	return &PublicHandler{Locations: locations}
}

// RatingHandler serves the rating endpoints under a location.
type RatingHandler struct {
	Ratings RatingStore // Ratings provides rating persistence
}

// NewRatingHandler constructs a RatingHandler and panics on a nil store.
func NewRatingHandler(ratings RatingStore) *RatingHandler {
	if ratings == nil {
		panic("nil store passed to NewRatingHandler")
	}
	return &RatingHandler{Ratings: ratings}
}

// getUserID extracts the caller's id from echo.Context. The identity
// middleware stores it as uint64; a string value is parsed as a courtesy
// for handlers invoked outside the middleware chain.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("missing or invalid user_id in context")
}

// writeRepoError maps repository sentinels onto HTTP responses so every
// handler answers the same way for the same failure. Unrecognized errors
// become an opaque 500.
func writeRepoError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrLocationNotFound),
		errors.Is(err, repository.ErrCountryNotFound),
		errors.Is(err, repository.ErrRegionNotFound),
		errors.Is(err, repository.ErrDistrictNotFound),
		errors.Is(err, repository.ErrWardNotFound),
		errors.Is(err, repository.ErrCategoryNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, geo.ErrLatitude), errors.Is(err, geo.ErrLongitude):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, map[string]string{"error": "conflict"})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "database error"})
	}
}

// queryUint64 reads an optional numeric query parameter. Missing or
// blank yields nil; a malformed value is an error so the handler can
// answer 400 instead of silently dropping the filter.
func queryUint64(c echo.Context, name string) (*uint64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", name)
	}
	return &n, nil
}

// queryFloat64 is queryUint64 for fractional parameters.
func queryFloat64(c echo.Context, name string) (*float64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", name)
	}
	return &f, nil
}
