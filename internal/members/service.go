package members

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/tripper-app/tripper/internal/access"
)

var (
	// ErrMemberNotFound is returned when a membership row is not found
	ErrMemberNotFound = errors.New("member not found")

	// ErrCannotRemoveSelf is returned when the owner tries to remove their own
	// membership row; the owner leaves a trip by deleting it.
	ErrCannotRemoveSelf = errors.New("cannot remove yourself from the trip")

	// ErrOwnerCannotLeave is returned when the owner tries to leave their trip
	ErrOwnerCannotLeave = errors.New("the owner cannot leave the trip, delete it instead")
)

// Service provides membership and invitation operations
type Service struct {
	pool    *pgxpool.Pool
	checker *access.Checker
}

// NewService creates a new member service
func NewService(pool *pgxpool.Pool, checker *access.Checker) *Service {
	return &Service{pool: pool, checker: checker}
}

// ListByTrip returns the trip's members with their emails, owner first then by
// join time
func (s *Service) ListByTrip(ctx context.Context, tripID, userID uuid.UUID) ([]Member, error) {
	if _, err := s.checker.RequireTripAccess(ctx, tripID, userID); err != nil {
		return nil, err
	}

	query := `
		SELECT m.id, m.trip_id, m.user_id, u.email, m.role, m.invited_by, m.invited_at
		FROM trip_members m
		INNER JOIN users u ON u.id = m.user_id
		WHERE m.trip_id = $1
		ORDER BY (m.role = 'owner') DESC, m.invited_at ASC
	`

	rows, err := s.pool.Query(ctx, query, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	list := []Member{}
	for rows.Next() {
		var m Member
		err := rows.Scan(
			&m.ID,
			&m.TripID,
			&m.UserID,
			&m.Email,
			&m.Role,
			&m.InvitedBy,
			&m.InvitedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		list = append(list, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}

	return list, nil
}

// Remove deletes another user's membership row. Owner only; the owner's own
// row cannot be removed this way.
func (s *Service) Remove(ctx context.Context, tripID, memberID, userID uuid.UUID) (*Member, error) {
	if _, err := s.checker.RequireOwnerAccess(ctx, tripID, userID); err != nil {
		return nil, err
	}

	var m Member
	query := `
		SELECT m.id, m.trip_id, m.user_id, u.email, m.role, m.invited_by, m.invited_at
		FROM trip_members m
		INNER JOIN users u ON u.id = m.user_id
		WHERE m.id = $1 AND m.trip_id = $2
	`

	err := s.pool.QueryRow(ctx, query, memberID, tripID).Scan(
		&m.ID,
		&m.TripID,
		&m.UserID,
		&m.Email,
		&m.Role,
		&m.InvitedBy,
		&m.InvitedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	if m.UserID == userID {
		return nil, ErrCannotRemoveSelf
	}

	if _, err := s.pool.Exec(ctx, `DELETE FROM trip_members WHERE id = $1`, m.ID); err != nil {
		return nil, fmt.Errorf("failed to remove member: %w", err)
	}

	log.Info().
		Str("trip_id", tripID.String()).
		Str("member_user_id", m.UserID.String()).
		Str("removed_by", userID.String()).
		Msg("Member removed from trip")

	return &m, nil
}

// Leave deletes the caller's own membership row. Owners must delete the trip
// instead.
func (s *Service) Leave(ctx context.Context, tripID, userID uuid.UUID) error {
	m, err := s.checker.RequireTripAccess(ctx, tripID, userID)
	if err != nil {
		return err
	}

	if m.Role == access.RoleOwner {
		return ErrOwnerCannotLeave
	}

	if _, err := s.pool.Exec(ctx, `DELETE FROM trip_members WHERE id = $1`, m.ID); err != nil {
		return fmt.Errorf("failed to leave trip: %w", err)
	}

	return nil
}
