package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bean0205/backend/internal/queue"
	"github.com/bean0205/backend/internal/repository"
)

// capturePublisher replaces the RabbitMQ publisher so tests can observe
// the events a handler emits from its goroutine.
func capturePublisher(h *LocationHandler) <-chan queue.LocationEvent {
	events := make(chan queue.LocationEvent, 4)
	h.Publish = func(ctx context.Context, ev queue.LocationEvent) error {
		events <- ev
		return nil
	}
	return events
}

func waitForEvent(t *testing.T, events <-chan queue.LocationEvent) queue.LocationEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(time.Second):
		t.Fatal("expected a lifecycle event")
		return queue.LocationEvent{}
	}
}

func TestCreateLocationRequiresIdentity(t *testing.T) {
	h := NewLocationHandler(&fakeLocationStore{}, &fakeReferenceStore{})
	c, rec := newTestContext(http.MethodPost, "/v1/locations", `{"name":"x","latitude":1,"longitude":2}`)

	require.NoError(t, h.CreateLocation(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateLocationValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing name", `{"name":"   ","latitude":10,"longitude":20}`, "name is required"},
		{"latitude out of range", `{"name":"x","latitude":91,"longitude":20}`, "latitude must be within [-90, 90]"},
		{"longitude out of range", `{"name":"x","latitude":10,"longitude":-181}`, "longitude must be within [-180, 180]"},
		{"inverted price window", `{"name":"x","latitude":10,"longitude":20,"price_min":50,"price_max":10}`, "price_min must not exceed price_max"},
		{"malformed body", `{"name":`, "invalid request body"},
	}
	h := NewLocationHandler(&fakeLocationStore{}, &fakeReferenceStore{})
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestContext(http.MethodPost, "/v1/locations", tc.body)
			c.Set("user_id", uint64(7))

			require.NoError(t, h.CreateLocation(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.want)
		})
	}
}

func TestCreateLocationUnknownReference(t *testing.T) {
	refs := &fakeReferenceStore{
		resolveFn: func(ctx context.Context, countryID, regionID, districtID, wardID, categoryID *uint64) error {
			return repository.ErrCategoryNotFound
		},
	}
	h := NewLocationHandler(&fakeLocationStore{}, refs)
	c, rec := newTestContext(http.MethodPost, "/v1/locations", `{"name":"x","latitude":10,"longitude":20,"category_id":999}`)
	c.Set("user_id", uint64(7))

	require.NoError(t, h.CreateLocation(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "category not found")
}

func TestCreateLocationSuccess(t *testing.T) {
	var gotAmenities []string
	store := &fakeLocationStore{
		createFn: func(ctx context.Context, loc *repository.Location, amenities []string) error {
			gotAmenities = amenities
			loc.ID = 101
			loc.CreatedAt = "2026-08-25T10:00:00Z"
			loc.UpdatedAt = "2026-08-25T10:00:00Z"
			loc.Amenities = []repository.Amenity{
				{ID: 1, LocationID: 101, Name: "WiFi"},
				{ID: 2, LocationID: 101, Name: "Parking"},
			}
			return nil
		},
	}
	h := NewLocationHandler(store, &fakeReferenceStore{})
	events := capturePublisher(h)

	body := `{"name":"  Night Market  ","latitude":10.77,"longitude":106.69,"category_id":5,"amenities":["WiFi","Parking"]}`
	c, rec := newTestContext(http.MethodPost, "/v1/locations", body)
	c.Set("user_id", uint64(7))

	require.NoError(t, h.CreateLocation(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var got repository.Location
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, uint64(101), got.ID)
	assert.Equal(t, "Night Market", got.Name, "name must be trimmed before persisting")
	assert.True(t, got.IsActive, "locations default to active")
	assert.Len(t, got.Amenities, 2)
	assert.Equal(t, []string{"WiFi", "Parking"}, gotAmenities)

	ev := waitForEvent(t, events)
	assert.Equal(t, queue.ActionLocationCreated, ev.Action)
	assert.Equal(t, uint64(101), ev.LocationID)
	assert.Equal(t, uint64(7), ev.ActorID)
	assert.Equal(t, uintPtr(5), ev.CategoryID)
}

func TestCreateLocationHonorsExplicitFlags(t *testing.T) {
	store := &fakeLocationStore{
		createFn: func(ctx context.Context, loc *repository.Location, amenities []string) error {
			assert.False(t, loc.IsActive, "explicit is_active=false must survive binding")
			assert.Equal(t, 9.5, loc.PopularityScore)
			loc.ID = 5
			return nil
		},
	}
	h := NewLocationHandler(store, &fakeReferenceStore{})
	h.Publish = nil // no event assertions here

	body := `{"name":"x","latitude":1,"longitude":2,"is_active":false,"popularity_score":9.5}`
	c, rec := newTestContext(http.MethodPost, "/v1/locations", body)
	c.Set("user_id", uint64(7))

	require.NoError(t, h.CreateLocation(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestUpdateLocationInvalidID(t *testing.T) {
	h := NewLocationHandler(&fakeLocationStore{}, &fakeReferenceStore{})
	c, rec := newTestContext(http.MethodPut, "/v1/locations/abc", `{"name":"x"}`)
	c.SetParamNames("id")
	c.SetParamValues("abc")
	c.Set("user_id", uint64(7))

	require.NoError(t, h.UpdateLocation(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateLocationEmptyName(t *testing.T) {
	h := NewLocationHandler(&fakeLocationStore{}, &fakeReferenceStore{})
	c, rec := newTestContext(http.MethodPut, "/v1/locations/4", `{"name":"   "}`)
	c.SetParamNames("id")
	c.SetParamValues("4")
	c.Set("user_id", uint64(7))

	require.NoError(t, h.UpdateLocation(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "name must not be empty")
}

func TestUpdateLocationNotFound(t *testing.T) {
	store := &fakeLocationStore{
		updateFn: func(ctx context.Context, id uint64, p repository.LocationPatch) (*repository.Location, error) {
			return nil, repository.ErrLocationNotFound
		},
	}
	h := NewLocationHandler(store, &fakeReferenceStore{})
	c, rec := newTestContext(http.MethodPut, "/v1/locations/4", `{"name":"x"}`)
	c.SetParamNames("id")
	c.SetParamValues("4")
	c.Set("user_id", uint64(7))

	require.NoError(t, h.UpdateLocation(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateLocationPartialPatch(t *testing.T) {
	var gotPatch repository.LocationPatch
	store := &fakeLocationStore{
		updateFn: func(ctx context.Context, id uint64, p repository.LocationPatch) (*repository.Location, error) {
			gotPatch = p
			return &repository.Location{ID: id, Name: *p.Name, Latitude: 10, Longitude: 20, IsActive: true}, nil
		},
	}
	h := NewLocationHandler(store, &fakeReferenceStore{})
	events := capturePublisher(h)

	c, rec := newTestContext(http.MethodPut, "/v1/locations/4", `{"name":" Renamed ","price_max":200}`)
	c.SetParamNames("id")
	c.SetParamValues("4")
	c.Set("user_id", uint64(9))

	require.NoError(t, h.UpdateLocation(c))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, gotPatch.Name)
	assert.Equal(t, "Renamed", *gotPatch.Name, "patched name must be trimmed")
	assert.Nil(t, gotPatch.Description, "absent fields stay nil")
	assert.Nil(t, gotPatch.Latitude)
	assert.Nil(t, gotPatch.PriceMin)
	require.NotNil(t, gotPatch.PriceMax)
	assert.Equal(t, 200.0, *gotPatch.PriceMax)
	assert.Nil(t, gotPatch.Amenities, "absent amenities must not clear the set")

	ev := waitForEvent(t, events)
	assert.Equal(t, queue.ActionLocationUpdated, ev.Action)
	assert.Equal(t, uint64(9), ev.ActorID)
}

func TestUpdateLocationEmptyAmenitiesClearsSet(t *testing.T) {
	store := &fakeLocationStore{
		updateFn: func(ctx context.Context, id uint64, p repository.LocationPatch) (*repository.Location, error) {
			require.NotNil(t, p.Amenities, "an explicit empty array must reach the repository non-nil")
			assert.Empty(t, p.Amenities)
			return &repository.Location{ID: id, Name: "x", IsActive: true}, nil
		},
	}
	h := NewLocationHandler(store, &fakeReferenceStore{})
	h.Publish = nil

	c, rec := newTestContext(http.MethodPut, "/v1/locations/4", `{"amenities":[]}`)
	c.SetParamNames("id")
	c.SetParamValues("4")
	c.Set("user_id", uint64(7))

	require.NoError(t, h.UpdateLocation(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeleteLocationNotFound(t *testing.T) {
	store := &fakeLocationStore{
		getFn: func(ctx context.Context, id uint64, withRelations bool) (*repository.Location, error) {
			return nil, repository.ErrLocationNotFound
		},
	}
	h := NewLocationHandler(store, &fakeReferenceStore{})
	c, rec := newTestContext(http.MethodDelete, "/v1/locations/4", "")
	c.SetParamNames("id")
	c.SetParamValues("4")
	c.Set("user_id", uint64(7))

	require.NoError(t, h.DeleteLocation(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteLocationSuccess(t *testing.T) {
	store := &fakeLocationStore{
		getFn: func(ctx context.Context, id uint64, withRelations bool) (*repository.Location, error) {
			return &repository.Location{ID: id, Name: "Old Pier", Latitude: 1, Longitude: 2}, nil
		},
		deleteFn: func(ctx context.Context, id uint64) error {
			assert.Equal(t, uint64(4), id)
			return nil
		},
	}
	h := NewLocationHandler(store, &fakeReferenceStore{})
	events := capturePublisher(h)

	c, rec := newTestContext(http.MethodDelete, "/v1/locations/4", "")
	c.SetParamNames("id")
	c.SetParamValues("4")
	c.Set("user_id", uint64(3))

	require.NoError(t, h.DeleteLocation(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	ev := waitForEvent(t, events)
	assert.Equal(t, queue.ActionLocationDeleted, ev.Action)
	assert.Equal(t, "Old Pier", ev.Name, "the event carries the row as it was before deletion")
	assert.Equal(t, uint64(3), ev.ActorID)
}
