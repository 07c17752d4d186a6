package integration

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tripper-app/tripper/internal/access"
	"github.com/tripper-app/tripper/internal/locations"
	"github.com/tripper-app/tripper/internal/retention"
)

func TestAttachmentUploadDownloadRoundTrip(t *testing.T) {
	pool, cleanup := newTestDB(t)
	defer cleanup()
	svc := newServices(pool)
	ctx := context.Background()

	tripID, owner := setupTrip(t, svc)

	loc, err := svc.locations.Create(ctx, tripID, owner, locations.CreateCommand{
		Name: "Station", Latitude: 1, Longitude: 1,
	})
	require.NoError(t, err)

	a, err := svc.attachments.Upload(ctx, loc.ID, owner, "ticket.pdf", "application/pdf", strings.NewReader("ticket bytes"))
	require.NoError(t, err)
	require.Equal(t, "ticket.pdf", a.FileName)
	require.Equal(t, "application/pdf", a.MimeType)

	count, err := svc.attachments.CountByLocation(ctx, loc.ID, owner)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	got, body, err := svc.attachments.Download(ctx, a.ID, owner)
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, "ticket bytes", string(data))
	require.Equal(t, a.ID, got.ID)
}

func TestAttachmentAccessRequiresMembership(t *testing.T) {
	pool, cleanup := newTestDB(t)
	defer cleanup()
	svc := newServices(pool)
	ctx := context.Background()

	tripID, owner := setupTrip(t, svc)
	stranger := createUser(t, pool, "stranger@example.com")

	loc, err := svc.locations.Create(ctx, tripID, owner, locations.CreateCommand{
		Name: "Station", Latitude: 1, Longitude: 1,
	})
	require.NoError(t, err)

	a, err := svc.attachments.Upload(ctx, loc.ID, owner, "ticket.pdf", "application/pdf", strings.NewReader("x"))
	require.NoError(t, err)

	_, _, err = svc.attachments.Download(ctx, a.ID, stranger)
	require.ErrorIs(t, err, access.ErrNoAccess)

	_, err = svc.attachments.Upload(ctx, loc.ID, stranger, "evil.bin", "application/octet-stream", strings.NewReader("x"))
	require.ErrorIs(t, err, access.ErrNoAccess)
}

func TestAttachmentRemoveDeletesBlobAndRow(t *testing.T) {
	pool, cleanup := newTestDB(t)
	defer cleanup()
	svc := newServices(pool)
	ctx := context.Background()

	tripID, owner := setupTrip(t, svc)

	loc, err := svc.locations.Create(ctx, tripID, owner, locations.CreateCommand{
		Name: "Station", Latitude: 1, Longitude: 1,
	})
	require.NoError(t, err)

	a, err := svc.attachments.Upload(ctx, loc.ID, owner, "ticket.pdf", "application/pdf", strings.NewReader("x"))
	require.NoError(t, err)
	require.Equal(t, 1, svc.blobs.count())

	_, gotTripID, err := svc.attachments.Remove(ctx, a.ID, owner)
	require.NoError(t, err)
	require.Equal(t, tripID, gotTripID)
	require.Zero(t, svc.blobs.count())
	require.Zero(t, countRows(t, pool, "attachments", "id", a.ID))
}

func TestRetentionSweepPurgesExpiredInvites(t *testing.T) {
	pool, cleanup := newTestDB(t)
	defer cleanup()
	svc := newServices(pool)
	ctx := context.Background()

	tripID, owner := setupTrip(t, svc)

	expired, err := svc.members.Invite(ctx, tripID, owner, "expired@example.com")
	require.NoError(t, err)
	fresh, err := svc.members.Invite(ctx, tripID, owner, "fresh@example.com")
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `UPDATE trip_invites SET expires_at = NOW() - INTERVAL '1 hour' WHERE id = $1`, expired.Invite.ID)
	require.NoError(t, err)

	purged, err := retention.NewSweeper(pool).PurgeExpiredInvites(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, purged)

	require.Zero(t, countRows(t, pool, "trip_invites", "id", expired.Invite.ID))
	require.Equal(t, 1, countRows(t, pool, "trip_invites", "id", fresh.Invite.ID))
}
