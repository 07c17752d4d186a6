// Package access is the single capability-checking module for trips. Every
// entity service authorizes through these guards instead of re-implementing
// membership lookups.
package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNoAccess is returned when the user has no membership on the trip
	ErrNoAccess = errors.New("no access to this trip")

	// ErrNotOwner is returned when an owner-only action is attempted by a member
	ErrNotOwner = errors.New("only the trip owner can do this")
)

// Role represents a user's role within a trip
type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

// IsValid reports whether the role is one of the known roles
func (r Role) IsValid() bool {
	return r == RoleOwner || r == RoleMember
}

// CanEdit reports whether the role grants edit rights. Every member of a trip
// can edit; there is no read-only role.
func (r Role) CanEdit() bool {
	return r == RoleOwner || r == RoleMember
}

// Membership represents a user's membership row on a trip
type Membership struct {
	ID        uuid.UUID     `db:"id"`
	TripID    uuid.UUID     `db:"trip_id"`
	UserID    uuid.UUID     `db:"user_id"`
	Role      Role          `db:"role"`
	InvitedBy uuid.NullUUID `db:"invited_by"`
	InvitedAt time.Time     `db:"invited_at"`
}

// Checker answers membership and role questions for trips
type Checker struct {
	pool *pgxpool.Pool
}

// NewChecker creates a new access checker
func NewChecker(pool *pgxpool.Pool) *Checker {
	return &Checker{pool: pool}
}

// CheckTripAccess returns the user's membership row on the trip, or nil when
// the user has no access. A missing membership is not an error.
func (c *Checker) CheckTripAccess(ctx context.Context, tripID, userID uuid.UUID) (*Membership, error) {
	var m Membership

	query := `
		SELECT id, trip_id, user_id, role, invited_by, invited_at
		FROM trip_members
		WHERE trip_id = $1 AND user_id = $2
	`

	err := c.pool.QueryRow(ctx, query, tripID, userID).Scan(
		&m.ID,
		&m.TripID,
		&m.UserID,
		&m.Role,
		&m.InvitedBy,
		&m.InvitedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check trip access: %w", err)
	}

	return &m, nil
}

// RequireTripAccess returns the membership row or ErrNoAccess
func (c *Checker) RequireTripAccess(ctx context.Context, tripID, userID uuid.UUID) (*Membership, error) {
	m, err := c.CheckTripAccess(ctx, tripID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		log.Debug().
			Str("user_id", userID.String()).
			Str("trip_id", tripID.String()).
			Msg("Access denied: no trip membership")
		return nil, ErrNoAccess
	}
	return m, nil
}

// RequireEditorAccess returns the membership row if the user may edit trip
// contents. Every membership grants edit rights, so this differs from
// RequireTripAccess only in intent at call sites.
func (c *Checker) RequireEditorAccess(ctx context.Context, tripID, userID uuid.UUID) (*Membership, error) {
	m, err := c.RequireTripAccess(ctx, tripID, userID)
	if err != nil {
		return nil, err
	}
	if !m.Role.CanEdit() {
		return nil, ErrNoAccess
	}
	return m, nil
}

// RequireOwnerAccess returns the membership row if the user owns the trip.
// Returns ErrNoAccess for non-members and ErrNotOwner for plain members.
func (c *Checker) RequireOwnerAccess(ctx context.Context, tripID, userID uuid.UUID) (*Membership, error) {
	m, err := c.RequireTripAccess(ctx, tripID, userID)
	if err != nil {
		return nil, err
	}
	if m.Role != RoleOwner {
		log.Debug().
			Str("user_id", userID.String()).
			Str("trip_id", tripID.String()).
			Str("role", string(m.Role)).
			Msg("Access denied: owner role required")
		return nil, ErrNotOwner
	}
	return m, nil
}
