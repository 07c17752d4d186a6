package integration

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tripper-app/tripper/internal/access"
	"github.com/tripper-app/tripper/internal/categories"
	"github.com/tripper-app/tripper/internal/locations"
	"github.com/tripper-app/tripper/internal/trips"
)

func TestTripCreateMakesOwnerMembership(t *testing.T) {
	pool, cleanup := newTestDB(t)
	defer cleanup()
	svc := newServices(pool)
	ctx := context.Background()

	owner := createUser(t, pool, "owner@example.com")

	trip, err := svc.trips.Create(ctx, owner, "Japan 2026", nil, nil, nil)
	require.NoError(t, err)
	require.Equal(t, owner, trip.OwnerID)

	list, err := svc.trips.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, access.RoleOwner, list[0].Role)
}

func TestTripListIsEmptyForNewUser(t *testing.T) {
	pool, cleanup := newTestDB(t)
	defer cleanup()
	svc := newServices(pool)

	user := createUser(t, pool, "nobody@example.com")

	list, err := svc.trips.List(context.Background(), user)
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)
}

func TestTripAccessIsMembershipBased(t *testing.T) {
	pool, cleanup := newTestDB(t)
	defer cleanup()
	svc := newServices(pool)
	ctx := context.Background()

	owner := createUser(t, pool, "owner@example.com")
	stranger := createUser(t, pool, "stranger@example.com")

	trip, err := svc.trips.Create(ctx, owner, "Private trip", nil, nil, nil)
	require.NoError(t, err)

	_, _, err = svc.trips.Get(ctx, trip.ID, stranger)
	require.ErrorIs(t, err, access.ErrNoAccess)

	_, err = svc.trips.Update(ctx, trip.ID, stranger, trips.UpdateCommand{Name: strPtr("Hijacked")})
	require.ErrorIs(t, err, access.ErrNoAccess)
}

func TestTripUpdateMergePatch(t *testing.T) {
	pool, cleanup := newTestDB(t)
	defer cleanup()
	svc := newServices(pool)
	ctx := context.Background()

	owner := createUser(t, pool, "owner@example.com")
	lat, lng, zoom := 35.68, 139.69, 12

	trip, err := svc.trips.Create(ctx, owner, "Japan 2026", &lat, &lng, &zoom)
	require.NoError(t, err)

	updated, err := svc.trips.Update(ctx, trip.ID, owner, trips.UpdateCommand{Name: strPtr("Japan spring")})
	require.NoError(t, err)
	require.Equal(t, "Japan spring", updated.Name)
	// Omitted fields stay untouched.
	require.NotNil(t, updated.DefaultLat)
	require.Equal(t, lat, *updated.DefaultLat)
	require.NotNil(t, updated.DefaultZoom)
	require.Equal(t, zoom, *updated.DefaultZoom)
}

func TestTripDeleteIsOwnerOnly(t *testing.T) {
	pool, cleanup := newTestDB(t)
	defer cleanup()
	svc := newServices(pool)
	ctx := context.Background()

	owner := createUser(t, pool, "owner@example.com")
	member := createUser(t, pool, "member@example.com")

	trip, err := svc.trips.Create(ctx, owner, "Shared trip", nil, nil, nil)
	require.NoError(t, err)

	result, err := svc.members.Invite(ctx, trip.ID, owner, "member@example.com")
	require.NoError(t, err)
	require.Equal(t, "added", string(result.Status))

	_, err = svc.trips.Remove(ctx, trip.ID, member)
	require.ErrorIs(t, err, access.ErrNotOwner)
}

func TestTripDeleteCascadeLeavesNoOrphans(t *testing.T) {
	pool, cleanup := newTestDB(t)
	defer cleanup()
	svc := newServices(pool)
	ctx := context.Background()

	owner := createUser(t, pool, "owner@example.com")
	createUser(t, pool, "friend@example.com")

	trip, err := svc.trips.Create(ctx, owner, "Doomed trip", nil, nil, nil)
	require.NoError(t, err)

	// Membership beyond the owner, plus a pending invite.
	_, err = svc.members.Invite(ctx, trip.ID, owner, "friend@example.com")
	require.NoError(t, err)
	_, err = svc.members.Invite(ctx, trip.ID, owner, "pending@example.com")
	require.NoError(t, err)

	cat, err := svc.categories.Create(ctx, trip.ID, owner, categories.CreateCommand{Name: "Food"})
	require.NoError(t, err)

	loc, err := svc.locations.Create(ctx, trip.ID, owner, locations.CreateCommand{
		Name: "Ramen shop", Latitude: 35.0, Longitude: 139.0,
	})
	require.NoError(t, err)

	_, err = svc.attachments.Upload(ctx, loc.ID, owner, "menu.pdf", "application/pdf", strings.NewReader("pdf bytes"))
	require.NoError(t, err)
	require.Equal(t, 1, svc.blobs.count())

	_, err = svc.trips.Remove(ctx, trip.ID, owner)
	require.NoError(t, err)

	require.Zero(t, countRows(t, pool, "trips", "id", trip.ID))
	require.Zero(t, countRows(t, pool, "trip_members", "trip_id", trip.ID))
	require.Zero(t, countRows(t, pool, "trip_invites", "trip_id", trip.ID))
	require.Zero(t, countRows(t, pool, "locations", "trip_id", trip.ID))
	require.Zero(t, countRows(t, pool, "categories", "trip_id", trip.ID))
	require.Zero(t, countRows(t, pool, "attachments", "location_id", loc.ID))
	require.Zero(t, svc.blobs.count())
	require.NotNil(t, cat)
}

func TestTripGetMissingIsNotFound(t *testing.T) {
	pool, cleanup := newTestDB(t)
	defer cleanup()
	svc := newServices(pool)

	user := createUser(t, pool, "user@example.com")

	trip, err := svc.trips.Create(context.Background(), user, "Temp", nil, nil, nil)
	require.NoError(t, err)
	_, err = svc.trips.Remove(context.Background(), trip.ID, user)
	require.NoError(t, err)

	_, _, err = svc.trips.Get(context.Background(), trip.ID, user)
	require.True(t, errors.Is(err, trips.ErrTripNotFound))
}
