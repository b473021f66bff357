package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bean0205/backend/internal/geo"
	"github.com/bean0205/backend/internal/repository"
)

// The fakes below satisfy the store interfaces with per-call function
// fields. A test assigns only the calls it expects; an unexpected call
// hits a nil function and fails the test loudly.

type fakeLocationStore struct {
	createFn func(ctx context.Context, loc *repository.Location, amenities []string) error
	getFn    func(ctx context.Context, id uint64, withRelations bool) (*repository.Location, error)
	updateFn func(ctx context.Context, id uint64, p repository.LocationPatch) (*repository.Location, error)
	deleteFn func(ctx context.Context, id uint64) error
	searchFn func(ctx context.Context, f repository.LocationFilter, page, size int, sortBy string) (*repository.SearchResult, error)
	nearbyFn func(ctx context.Context, origin geo.Point, radiusKm float64, limit int, categoryID *uint64) ([]repository.NearbyLocation, error)
}

func (s *fakeLocationStore) Create(ctx context.Context, loc *repository.Location, amenities []string) error {
	return s.createFn(ctx, loc, amenities)
}

func (s *fakeLocationStore) GetByID(ctx context.Context, id uint64, withRelations bool) (*repository.Location, error) {
	return s.getFn(ctx, id, withRelations)
}

func (s *fakeLocationStore) UpdateByID(ctx context.Context, id uint64, p repository.LocationPatch) (*repository.Location, error) {
	return s.updateFn(ctx, id, p)
}

func (s *fakeLocationStore) DeleteByID(ctx context.Context, id uint64) error {
	return s.deleteFn(ctx, id)
}

func (s *fakeLocationStore) Search(ctx context.Context, f repository.LocationFilter, page, size int, sortBy string) (*repository.SearchResult, error) {
	return s.searchFn(ctx, f, page, size, sortBy)
}

func (s *fakeLocationStore) Nearby(ctx context.Context, origin geo.Point, radiusKm float64, limit int, categoryID *uint64) ([]repository.NearbyLocation, error) {
	return s.nearbyFn(ctx, origin, radiusKm, limit, categoryID)
}

type fakeReferenceStore struct {
	resolveFn func(ctx context.Context, countryID, regionID, districtID, wardID, categoryID *uint64) error
}

func (s *fakeReferenceStore) ResolveLocationRefs(ctx context.Context, countryID, regionID, districtID, wardID, categoryID *uint64) error {
	if s.resolveFn == nil {
		// Most tests are not about reference resolution.
		return nil
	}
	return s.resolveFn(ctx, countryID, regionID, districtID, wardID, categoryID)
}

type fakeRatingStore struct {
	createFn func(ctx context.Context, rec *repository.Rating) error
	listFn   func(ctx context.Context, locationID uint64, page, size int) (*repository.RatingPage, error)
}

func (s *fakeRatingStore) Create(ctx context.Context, rec *repository.Rating) error {
	return s.createFn(ctx, rec)
}

func (s *fakeRatingStore) ListByLocation(ctx context.Context, locationID uint64, page, size int) (*repository.RatingPage, error) {
	return s.listFn(ctx, locationID, page, size)
}

// newTestContext builds an echo context around an httptest request and
// recorder. A non-empty body is sent as JSON.
func newTestContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func uintPtr(v uint64) *uint64    { return &v }
func floatPtr(v float64) *float64 { return &v }
