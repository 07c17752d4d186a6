package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tripper-app/tripper/internal/access"
	"github.com/tripper-app/tripper/internal/members"
)

func TestInviteUnknownEmailCreatesPendingInvite(t *testing.T) {
	pool, cleanup := newTestDB(t)
	defer cleanup()
	svc := newServices(pool)
	ctx := context.Background()

	tripID, owner := setupTrip(t, svc)

	result, err := svc.members.Invite(ctx, tripID, owner, "newcomer@example.com")
	require.NoError(t, err)
	require.Equal(t, members.StatusInvited, result.Status)
	require.NotNil(t, result.Invite)

	// Roughly 30 days out.
	ttl := time.Until(result.Invite.ExpiresAt)
	require.Greater(t, ttl, 29*24*time.Hour)
	require.Less(t, ttl, 31*24*time.Hour)

	// A second invite for the same email is rejected while one is pending.
	_, err = svc.members.Invite(ctx, tripID, owner, "newcomer@example.com")
	require.ErrorIs(t, err, members.ErrInvitePending)
}

func TestInviteExistingUserAddsDirectly(t *testing.T) {
	pool, cleanup := newTestDB(t)
	defer cleanup()
	svc := newServices(pool)
	ctx := context.Background()

	tripID, owner := setupTrip(t, svc)
	friend := createUser(t, pool, "friend@example.com")

	result, err := svc.members.Invite(ctx, tripID, owner, "Friend@Example.com ")
	require.NoError(t, err)
	require.Equal(t, members.StatusAdded, result.Status)
	require.Equal(t, friend, result.MemberUserID)

	// Inviting an existing member is a conflict.
	_, err = svc.members.Invite(ctx, tripID, owner, "friend@example.com")
	require.ErrorIs(t, err, members.ErrAlreadyMember)
}

func TestInviteIsOwnerOnly(t *testing.T) {
	pool, cleanup := newTestDB(t)
	defer cleanup()
	svc := newServices(pool)
	ctx := context.Background()

	tripID, owner := setupTrip(t, svc)
	createUser(t, pool, "member@example.com")

	_, err := svc.members.Invite(ctx, tripID, owner, "member@example.com")
	require.NoError(t, err)

	var memberID uuid.UUID
	err = pool.QueryRow(ctx, `SELECT id FROM users WHERE email = 'member@example.com'`).Scan(&memberID)
	require.NoError(t, err)

	_, err = svc.members.Invite(ctx, tripID, memberID, "another@example.com")
	require.ErrorIs(t, err, access.ErrNotOwner)

	_, err = svc.members.ListPending(ctx, tripID, memberID)
	require.ErrorIs(t, err, access.ErrNotOwner)
}

func TestAcceptInviteConsumesIt(t *testing.T) {
	pool, cleanup := newTestDB(t)
	defer cleanup()
	svc := newServices(pool)
	ctx := context.Background()

	tripID, owner := setupTrip(t, svc)

	result, err := svc.members.Invite(ctx, tripID, owner, "invitee@example.com")
	require.NoError(t, err)
	inviteID := result.Invite.ID

	invitee := createUser(t, pool, "invitee@example.com")

	inv, err := svc.members.Accept(ctx, inviteID, invitee, "invitee@example.com")
	require.NoError(t, err)
	require.Equal(t, tripID, inv.TripID)

	list, err := svc.trips.List(ctx, invitee)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, access.RoleMember, list[0].Role)

	// Double accept: the invite is gone.
	_, err = svc.members.Accept(ctx, inviteID, invitee, "invitee@example.com")
	require.ErrorIs(t, err, members.ErrInviteNotFound)
}

func TestAcceptInviteEmailMismatchIsForbidden(t *testing.T) {
	pool, cleanup := newTestDB(t)
	defer cleanup()
	svc := newServices(pool)
	ctx := context.Background()

	tripID, owner := setupTrip(t, svc)

	result, err := svc.members.Invite(ctx, tripID, owner, "invitee@example.com")
	require.NoError(t, err)

	impostor := createUser(t, pool, "impostor@example.com")

	_, err = svc.members.Accept(ctx, result.Invite.ID, impostor, "impostor@example.com")
	require.ErrorIs(t, err, members.ErrInviteEmailMismatch)

	// The invite survives a mismatched accept attempt.
	require.Equal(t, 1, countRows(t, pool, "trip_invites", "id", result.Invite.ID))
}

func TestDeclineAndCancelInvite(t *testing.T) {
	pool, cleanup := newTestDB(t)
	defer cleanup()
	svc := newServices(pool)
	ctx := context.Background()

	tripID, owner := setupTrip(t, svc)

	declined, err := svc.members.Invite(ctx, tripID, owner, "declines@example.com")
	require.NoError(t, err)
	cancelled, err := svc.members.Invite(ctx, tripID, owner, "cancelled@example.com")
	require.NoError(t, err)

	_, err = svc.members.Decline(ctx, declined.Invite.ID, "declines@example.com")
	require.NoError(t, err)
	require.Zero(t, countRows(t, pool, "trip_invites", "id", declined.Invite.ID))

	_, err = svc.members.Cancel(ctx, cancelled.Invite.ID, owner)
	require.NoError(t, err)
	require.Zero(t, countRows(t, pool, "trip_invites", "id", cancelled.Invite.ID))
}

func TestMyInvitesEnrichment(t *testing.T) {
	pool, cleanup := newTestDB(t)
	defer cleanup()
	svc := newServices(pool)
	ctx := context.Background()

	tripID, owner := setupTrip(t, svc)

	_, err := svc.members.Invite(ctx, tripID, owner, "invitee@example.com")
	require.NoError(t, err)

	incoming, err := svc.members.MyInvites(ctx, "invitee@example.com")
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	require.Equal(t, "Trip", incoming[0].TripName)
	require.Equal(t, "owner@example.com", incoming[0].InviterEmail)
}

func TestProcessInvitesForUserConvertsOnSignup(t *testing.T) {
	pool, cleanup := newTestDB(t)
	defer cleanup()
	svc := newServices(pool)
	ctx := context.Background()

	tripID, owner := setupTrip(t, svc)
	secondTrip, err := svc.trips.Create(ctx, owner, "Second trip", nil, nil, nil)
	require.NoError(t, err)

	_, err = svc.members.Invite(ctx, tripID, owner, "late@example.com")
	require.NoError(t, err)
	_, err = svc.members.Invite(ctx, secondTrip.ID, owner, "late@example.com")
	require.NoError(t, err)

	// Account created after the invites, as the post-signup hook would see it.
	late := createUser(t, pool, "late@example.com")

	processed, err := svc.members.ProcessInvitesForUser(ctx, late, "late@example.com")
	require.NoError(t, err)
	require.Equal(t, 2, processed)

	list, err := svc.trips.List(ctx, late)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Zero(t, countRows(t, pool, "trip_invites", "email", "late@example.com"))

	// Running again is a no-op.
	processed, err = svc.members.ProcessInvitesForUser(ctx, late, "late@example.com")
	require.NoError(t, err)
	require.Zero(t, processed)
}

func TestRemoveMemberAndLeave(t *testing.T) {
	pool, cleanup := newTestDB(t)
	defer cleanup()
	svc := newServices(pool)
	ctx := context.Background()

	tripID, owner := setupTrip(t, svc)
	member := createUser(t, pool, "member@example.com")

	_, err := svc.members.Invite(ctx, tripID, owner, "member@example.com")
	require.NoError(t, err)

	list, err := svc.members.ListByTrip(ctx, tripID, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, access.RoleOwner, list[0].Role)

	// The owner cannot remove their own row.
	var ownerRow members.Member
	for _, m := range list {
		if m.UserID == owner {
			ownerRow = m
		}
	}
	_, err = svc.members.Remove(ctx, tripID, ownerRow.ID, owner)
	require.ErrorIs(t, err, members.ErrCannotRemoveSelf)

	// Plain members cannot remove anyone.
	_, err = svc.members.Remove(ctx, tripID, ownerRow.ID, member)
	require.ErrorIs(t, err, access.ErrNotOwner)

	// The owner cannot leave; members can.
	require.ErrorIs(t, svc.members.Leave(ctx, tripID, owner), members.ErrOwnerCannotLeave)
	require.NoError(t, svc.members.Leave(ctx, tripID, member))

	list, err = svc.members.ListByTrip(ctx, tripID, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestExpiredInviteSweep(t *testing.T) {
	pool, cleanup := newTestDB(t)
	defer cleanup()
	svc := newServices(pool)
	ctx := context.Background()

	tripID, owner := setupTrip(t, svc)

	result, err := svc.members.Invite(ctx, tripID, owner, "slow@example.com")
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `UPDATE trip_invites SET expires_at = NOW() - INTERVAL '1 day' WHERE id = $1`, result.Invite.ID)
	require.NoError(t, err)

	// Expired invites are invisible to the invitee and the owner.
	incoming, err := svc.members.MyInvites(ctx, "slow@example.com")
	require.NoError(t, err)
	require.Empty(t, incoming)

	pending, err := svc.members.ListPending(ctx, tripID, owner)
	require.NoError(t, err)
	require.Empty(t, pending)

	// Accepting one fails and consumes it.
	slow := createUser(t, pool, "slow@example.com")
	_, err = svc.members.Accept(ctx, result.Invite.ID, slow, "slow@example.com")
	require.ErrorIs(t, err, members.ErrInviteNotFound)
	require.Zero(t, countRows(t, pool, "trip_invites", "id", result.Invite.ID))
}
