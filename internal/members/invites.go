package members

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"github.com/tripper-app/tripper/internal/access"
)

// InviteTTLDays is how long a pending invite stays acceptable
const InviteTTLDays = 30

var (
	// ErrInviteNotFound is returned when an invite is missing or expired
	ErrInviteNotFound = errors.New("invite not found")

	// ErrAlreadyMember is returned when the invited user already belongs to
	// the trip
	ErrAlreadyMember = errors.New("user is already a member of this trip")

	// ErrInvitePending is returned when a pending invite for the email exists
	ErrInvitePending = errors.New("an invite for this email is already pending")

	// ErrInviteEmailMismatch is returned when someone tries to act on an
	// invite addressed to a different email
	ErrInviteEmailMismatch = errors.New("invite is addressed to a different email")
)

// Invite adds an email to a trip. Owner only. An existing account becomes a
// member immediately; otherwise a pending invite is stored. The email must
// already be normalized (lower-cased, trimmed) by the caller.
func (s *Service) Invite(ctx context.Context, tripID, inviterID uuid.UUID, email string) (*InviteResult, error) {
	if _, err := s.checker.RequireOwnerAccess(ctx, tripID, inviterID); err != nil {
		return nil, err
	}

	var existingUserID uuid.UUID
	err := s.pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, email).Scan(&existingUserID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up user by email: %w", err)
	}

	if err == nil {
		return s.addExistingUser(ctx, tripID, inviterID, existingUserID)
	}

	return s.storePendingInvite(ctx, tripID, inviterID, email)
}

func (s *Service) addExistingUser(ctx context.Context, tripID, inviterID, userID uuid.UUID) (*InviteResult, error) {
	existing, err := s.checker.CheckTripAccess(ctx, tripID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyMember
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO trip_members (trip_id, user_id, role, invited_by)
		VALUES ($1, $2, $3, $4)
	`, tripID, userID, access.RoleMember, inviterID)
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return &InviteResult{Status: StatusAdded, MemberUserID: userID}, nil
}

func (s *Service) storePendingInvite(ctx context.Context, tripID, inviterID uuid.UUID, email string) (*InviteResult, error) {
	var pending int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM trip_invites
		WHERE trip_id = $1 AND email = $2 AND expires_at > NOW()
	`, tripID, email).Scan(&pending)
	if err != nil {
		return nil, fmt.Errorf("failed to check pending invites: %w", err)
	}
	if pending > 0 {
		return nil, ErrInvitePending
	}

	var inv Invite
	err = s.pool.QueryRow(ctx, `
		INSERT INTO trip_invites (trip_id, email, invited_by, expires_at)
		VALUES ($1, $2, $3, NOW() + make_interval(days => $4))
		RETURNING id, trip_id, email, role, invited_by, created_at, expires_at
	`, tripID, email, inviterID, InviteTTLDays).Scan(
		&inv.ID,
		&inv.TripID,
		&inv.Email,
		&inv.Role,
		&inv.InvitedBy,
		&inv.CreatedAt,
		&inv.ExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}

	return &InviteResult{Status: StatusInvited, Invite: &inv}, nil
}

// ListPending returns the trip's unexpired invites. Owner only.
func (s *Service) ListPending(ctx context.Context, tripID, userID uuid.UUID) ([]Invite, error) {
	if _, err := s.checker.RequireOwnerAccess(ctx, tripID, userID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, trip_id, email, role, invited_by, created_at, expires_at
		FROM trip_invites
		WHERE trip_id = $1 AND expires_at > NOW()
		ORDER BY created_at ASC
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	defer rows.Close()

	return collectInvites(rows)
}

func collectInvites(rows pgx.Rows) ([]Invite, error) {
	invites := []Invite{}
	for rows.Next() {
		var inv Invite
		err := rows.Scan(
			&inv.ID,
			&inv.TripID,
			&inv.Email,
			&inv.Role,
			&inv.InvitedBy,
			&inv.CreatedAt,
			&inv.ExpiresAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invite: %w", err)
		}
		invites = append(invites, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invite rows: %w", err)
	}

	return invites, nil
}

// MyInvites returns the unexpired invites addressed to the email, enriched
// with the trip name and inviter email for the invitee's inbox.
func (s *Service) MyInvites(ctx context.Context, email string) ([]IncomingInvite, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT i.id, i.trip_id, i.email, i.role, i.invited_by, i.created_at, i.expires_at,
		       t.name, u.email
		FROM trip_invites i
		INNER JOIN trips t ON t.id = i.trip_id
		INNER JOIN users u ON u.id = i.invited_by
		WHERE i.email = $1 AND i.expires_at > NOW()
		ORDER BY i.created_at DESC
	`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list incoming invites: %w", err)
	}
	defer rows.Close()

	invites := []IncomingInvite{}
	for rows.Next() {
		var inv IncomingInvite
		err := rows.Scan(
			&inv.ID,
			&inv.TripID,
			&inv.Email,
			&inv.Role,
			&inv.InvitedBy,
			&inv.CreatedAt,
			&inv.ExpiresAt,
			&inv.TripName,
			&inv.InviterEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incoming invite: %w", err)
		}
		invites = append(invites, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating incoming invite rows: %w", err)
	}

	return invites, nil
}

func (s *Service) getInvite(ctx context.Context, inviteID uuid.UUID) (*Invite, error) {
	var inv Invite
	err := s.pool.QueryRow(ctx, `
		SELECT id, trip_id, email, role, invited_by, created_at, expires_at
		FROM trip_invites
		WHERE id = $1
	`, inviteID).Scan(
		&inv.ID,
		&inv.TripID,
		&inv.Email,
		&inv.Role,
		&inv.InvitedBy,
		&inv.CreatedAt,
		&inv.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to get invite: %w", err)
	}
	return &inv, nil
}

func (s *Service) deleteInvite(ctx context.Context, inviteID uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM trip_invites WHERE id = $1`, inviteID); err != nil {
		return fmt.Errorf("failed to delete invite: %w", err)
	}
	return nil
}

// Accept converts an invite into a membership. The invite is consumed in
// every outcome except an error loading it: a stale invite (expired, trip
// deleted, already a member) is deleted before the error is returned, so a
// second accept always sees not-found.
func (s *Service) Accept(ctx context.Context, inviteID, userID uuid.UUID, email string) (*Invite, error) {
	inv, err := s.getInvite(ctx, inviteID)
	if err != nil {
		return nil, err
	}

	if inv.Email != email {
		return nil, ErrInviteEmailMismatch
	}

	if time.Now().After(inv.ExpiresAt) {
		if err := s.deleteInvite(ctx, inviteID); err != nil {
			return nil, err
		}
		return nil, ErrInviteNotFound
	}

	var tripExists bool
	err = s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM trips WHERE id = $1)`, inv.TripID).Scan(&tripExists)
	if err != nil {
		return nil, fmt.Errorf("failed to check trip existence: %w", err)
	}
	if !tripExists {
		if err := s.deleteInvite(ctx, inviteID); err != nil {
			return nil, err
		}
		return nil, ErrInviteNotFound
	}

	existing, err := s.checker.CheckTripAccess(ctx, inv.TripID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := s.deleteInvite(ctx, inviteID); err != nil {
			return nil, err
		}
		return nil, ErrAlreadyMember
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO trip_members (trip_id, user_id, role, invited_by)
		VALUES ($1, $2, $3, $4)
	`, inv.TripID, userID, access.RoleMember, inv.InvitedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	if err := s.deleteInvite(ctx, inviteID); err != nil {
		return nil, err
	}

	return inv, nil
}

// Decline deletes an invite addressed to the caller's email
func (s *Service) Decline(ctx context.Context, inviteID uuid.UUID, email string) (*Invite, error) {
	inv, err := s.getInvite(ctx, inviteID)
	if err != nil {
		return nil, err
	}

	if inv.Email != email {
		return nil, ErrInviteEmailMismatch
	}

	if err := s.deleteInvite(ctx, inviteID); err != nil {
		return nil, err
	}

	return inv, nil
}

// Cancel deletes a pending invite. Trip owner only.
func (s *Service) Cancel(ctx context.Context, inviteID, userID uuid.UUID) (*Invite, error) {
	inv, err := s.getInvite(ctx, inviteID)
	if err != nil {
		return nil, err
	}

	if _, err := s.checker.RequireOwnerAccess(ctx, inv.TripID, userID); err != nil {
		return nil, err
	}

	if err := s.deleteInvite(ctx, inviteID); err != nil {
		return nil, err
	}

	return inv, nil
}

// ProcessInvitesForUser converts every invite addressed to the email into a
// membership, discarding expired or stale ones. Invoked after signup and
// login. Returns the number of invites processed.
func (s *Service) ProcessInvitesForUser(ctx context.Context, userID uuid.UUID, email string) (int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, trip_id, email, role, invited_by, created_at, expires_at
		FROM trip_invites
		WHERE email = $1
	`, email)
	if err != nil {
		return 0, fmt.Errorf("failed to list invites for user: %w", err)
	}
	defer rows.Close()

	invites, err := collectInvites(rows)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, inv := range invites {
		if time.Now().Before(inv.ExpiresAt) {
			existing, err := s.checker.CheckTripAccess(ctx, inv.TripID, userID)
			if err != nil {
				return processed, err
			}
			if existing == nil {
				_, err = s.pool.Exec(ctx, `
					INSERT INTO trip_members (trip_id, user_id, role, invited_by)
					VALUES ($1, $2, $3, $4)
				`, inv.TripID, userID, access.RoleMember, inv.InvitedBy)
				if err != nil {
					return processed, fmt.Errorf("failed to add member from invite: %w", err)
				}
			}
		}

		if err := s.deleteInvite(ctx, inv.ID); err != nil {
			return processed, err
		}
		processed++
	}

	if processed > 0 {
		log.Info().
			Str("user_id", userID.String()).
			Int("count", processed).
			Msg("Processed pending invites for user")
	}

	return processed, nil
}
