package integration

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tripper-app/tripper/internal/categories"
	"github.com/tripper-app/tripper/internal/locations"
)

func setupTrip(t *testing.T, svc *services) (uuid.UUID, uuid.UUID) {
	t.Helper()

	owner := createUser(t, svc.pool, "owner@example.com")
	trip, err := svc.trips.Create(context.Background(), owner, "Trip", nil, nil, nil)
	require.NoError(t, err)
	return trip.ID, owner
}

func TestLocationSortOrderIsMonotonic(t *testing.T) {
	pool, cleanup := newTestDB(t)
	defer cleanup()
	svc := newServices(pool)
	ctx := context.Background()

	tripID, owner := setupTrip(t, svc)

	var created []*locations.Location
	for _, name := range []string{"First", "Second", "Third"} {
		loc, err := svc.locations.Create(ctx, tripID, owner, locations.CreateCommand{
			Name: name, Latitude: 1, Longitude: 1,
		})
		require.NoError(t, err)
		created = append(created, loc)
	}

	require.Equal(t, 1, created[0].SortOrder)
	require.Equal(t, 2, created[1].SortOrder)
	require.Equal(t, 3, created[2].SortOrder)

	// Deleting the middle one must not free its slot for reuse.
	_, err := svc.locations.Remove(ctx, created[1].ID, owner)
	require.NoError(t, err)

	fourth, err := svc.locations.Create(ctx, tripID, owner, locations.CreateCommand{
		Name: "Fourth", Latitude: 1, Longitude: 1,
	})
	require.NoError(t, err)
	require.Equal(t, 4, fourth.SortOrder)
}

func TestLocationUpdateEmptyStringClearsDate(t *testing.T) {
	pool, cleanup := newTestDB(t)
	defer cleanup()
	svc := newServices(pool)
	ctx := context.Background()

	tripID, owner := setupTrip(t, svc)

	loc, err := svc.locations.Create(ctx, tripID, owner, locations.CreateCommand{
		Name: "Museum", Latitude: 1, Longitude: 1,
		DateTime: strPtr("2026-05-01T10:00"),
	})
	require.NoError(t, err)
	require.NotNil(t, loc.DateTime)

	// Omitting date_time leaves it unchanged.
	updated, err := svc.locations.Update(ctx, loc.ID, owner, locations.UpdateCommand{
		Name: strPtr("City museum"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.DateTime)
	require.Equal(t, "2026-05-01T10:00", *updated.DateTime)

	// An explicit empty string clears it.
	cleared, err := svc.locations.Update(ctx, loc.ID, owner, locations.UpdateCommand{
		DateTime: strPtr(""),
	})
	require.NoError(t, err)
	require.Nil(t, cleared.DateTime)
}

func TestLocationDateFilter(t *testing.T) {
	pool, cleanup := newTestDB(t)
	defer cleanup()
	svc := newServices(pool)
	ctx := context.Background()

	tripID, owner := setupTrip(t, svc)

	mk := func(cmd locations.CreateCommand) *locations.Location {
		loc, err := svc.locations.Create(ctx, tripID, owner, cmd)
		require.NoError(t, err)
		return loc
	}

	mk(locations.CreateCommand{Name: "Unscheduled", Latitude: 1, Longitude: 1})
	dayTrip := mk(locations.CreateCommand{
		Name: "Temple", Latitude: 1, Longitude: 1,
		DateTime: strPtr("2026-05-02T09:00"),
	})
	hotel := mk(locations.CreateCommand{
		Name: "Hotel", Latitude: 1, Longitude: 1,
		DateTime:     strPtr("2026-05-01T15:00"),
		EndDateTime:  strPtr("2026-05-03T11:00"),
		LocationType: strPtr("accommodation"),
	})

	onSecond, err := svc.locations.ListByTripAndDate(ctx, tripID, owner, "2026-05-02")
	require.NoError(t, err)
	require.Len(t, onSecond, 2)

	onFirst, err := svc.locations.ListByTripAndDate(ctx, tripID, owner, "2026-05-01")
	require.NoError(t, err)
	require.Len(t, onFirst, 1)
	require.Equal(t, hotel.ID, onFirst[0].ID)

	dates, err := svc.locations.UniqueDates(ctx, tripID, owner)
	require.NoError(t, err)
	require.Equal(t, []string{"2026-05-01", "2026-05-02", "2026-05-03"}, dates)
	require.NotNil(t, dayTrip)
}

func TestLocationReorderRejectsForeignLocation(t *testing.T) {
	pool, cleanup := newTestDB(t)
	defer cleanup()
	svc := newServices(pool)
	ctx := context.Background()

	tripID, owner := setupTrip(t, svc)

	otherTrip, err := svc.trips.Create(ctx, owner, "Other trip", nil, nil, nil)
	require.NoError(t, err)

	mine, err := svc.locations.Create(ctx, tripID, owner, locations.CreateCommand{
		Name: "Mine", Latitude: 1, Longitude: 1,
	})
	require.NoError(t, err)

	foreign, err := svc.locations.Create(ctx, otherTrip.ID, owner, locations.CreateCommand{
		Name: "Foreign", Latitude: 1, Longitude: 1,
	})
	require.NoError(t, err)

	err = svc.locations.Reorder(ctx, tripID, owner, []locations.ReorderEntry{
		{ID: mine.ID, SortOrder: 10},
		{ID: foreign.ID, SortOrder: 20},
	})

	var wrongTrip *locations.WrongTripError
	require.ErrorAs(t, err, &wrongTrip)
	require.Equal(t, foreign.ID, wrongTrip.LocationID)

	// Entries before the failing one are persisted.
	reloaded, err := svc.locations.Get(ctx, mine.ID, owner)
	require.NoError(t, err)
	require.Equal(t, 10, reloaded.SortOrder)
}

func TestLocationReorderAppliesNewOrder(t *testing.T) {
	pool, cleanup := newTestDB(t)
	defer cleanup()
	svc := newServices(pool)
	ctx := context.Background()

	tripID, owner := setupTrip(t, svc)

	a, err := svc.locations.Create(ctx, tripID, owner, locations.CreateCommand{Name: "A", Latitude: 1, Longitude: 1})
	require.NoError(t, err)
	b, err := svc.locations.Create(ctx, tripID, owner, locations.CreateCommand{Name: "B", Latitude: 1, Longitude: 1})
	require.NoError(t, err)

	err = svc.locations.Reorder(ctx, tripID, owner, []locations.ReorderEntry{
		{ID: a.ID, SortOrder: 2},
		{ID: b.ID, SortOrder: 1},
	})
	require.NoError(t, err)

	list, err := svc.locations.ListByTrip(ctx, tripID, owner)
	require.NoError(t, err)
	require.Equal(t, b.ID, list[0].ID)
	require.Equal(t, a.ID, list[1].ID)
}

func TestLocationDeletePurgesAttachments(t *testing.T) {
	pool, cleanup := newTestDB(t)
	defer cleanup()
	svc := newServices(pool)
	ctx := context.Background()

	tripID, owner := setupTrip(t, svc)

	loc, err := svc.locations.Create(ctx, tripID, owner, locations.CreateCommand{
		Name: "Gallery", Latitude: 1, Longitude: 1,
	})
	require.NoError(t, err)

	for _, name := range []string{"ticket.pdf", "map.png"} {
		_, err := svc.attachments.Upload(ctx, loc.ID, owner, name, "application/octet-stream", strings.NewReader("data"))
		require.NoError(t, err)
	}
	require.Equal(t, 2, svc.blobs.count())

	_, err = svc.locations.Remove(ctx, loc.ID, owner)
	require.NoError(t, err)

	require.Zero(t, countRows(t, pool, "attachments", "location_id", loc.ID))
	require.Zero(t, svc.blobs.count())
}

func TestCategoryDeleteDetachesLocations(t *testing.T) {
	pool, cleanup := newTestDB(t)
	defer cleanup()
	svc := newServices(pool)
	ctx := context.Background()

	tripID, owner := setupTrip(t, svc)

	cat, err := svc.categories.Create(ctx, tripID, owner, categories.CreateCommand{Name: "Food"})
	require.NoError(t, err)

	loc, err := svc.locations.Create(ctx, tripID, owner, locations.CreateCommand{
		Name: "Ramen", Latitude: 1, Longitude: 1, CategoryID: &cat.ID,
	})
	require.NoError(t, err)
	require.True(t, loc.CategoryID.Valid)

	_, err = svc.categories.Remove(ctx, cat.ID, owner)
	require.NoError(t, err)

	reloaded, err := svc.locations.Get(ctx, loc.ID, owner)
	require.NoError(t, err)
	require.False(t, reloaded.CategoryID.Valid)
	require.Zero(t, countRows(t, pool, "categories", "id", cat.ID))
}
