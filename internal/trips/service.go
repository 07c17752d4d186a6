package trips

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/tripper-app/tripper/internal/access"
)

var (
	// ErrTripNotFound is returned when a trip is not found
	ErrTripNotFound = errors.New("trip not found")
)

// LocationPurger deletes every location of a trip together with its
// attachments and blobs. Implemented by the locations service.
type LocationPurger interface {
	PurgeTrip(ctx context.Context, tripID uuid.UUID) error
}

// Service provides trip lifecycle operations
type Service struct {
	pool      *pgxpool.Pool
	checker   *access.Checker
	locations LocationPurger
}

// NewService creates a new trip service
func NewService(pool *pgxpool.Pool, checker *access.Checker, locations LocationPurger) *Service {
	return &Service{pool: pool, checker: checker, locations: locations}
}

// List retrieves every trip the user is a member of, with the user's role,
// newest first. Returns an empty slice for users with no memberships.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]TripWithRole, error) {
	query := `
		SELECT t.id, t.name, t.owner_id, t.default_lat, t.default_lng, t.default_zoom,
		       t.created_at, t.updated_at, m.role
		FROM trips t
		INNER JOIN trip_members m ON t.id = m.trip_id
		WHERE m.user_id = $1
		ORDER BY t.created_at DESC
	`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	trips := []TripWithRole{}
	for rows.Next() {
		var t TripWithRole
		err := rows.Scan(
			&t.ID,
			&t.Name,
			&t.OwnerID,
			&t.DefaultLat,
			&t.DefaultLng,
			&t.DefaultZoom,
			&t.CreatedAt,
			&t.UpdatedAt,
			&t.Role,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trip rows: %w", err)
	}

	return trips, nil
}

// Get retrieves a trip and the caller's role on it
func (s *Service) Get(ctx context.Context, tripID, userID uuid.UUID) (*Trip, access.Role, error) {
	trip, err := s.getByID(ctx, tripID)
	if err != nil {
		return nil, "", err
	}

	m, err := s.checker.RequireTripAccess(ctx, tripID, userID)
	if err != nil {
		return nil, "", err
	}

	return trip, m.Role, nil
}

func (s *Service) getByID(ctx context.Context, tripID uuid.UUID) (*Trip, error) {
	var t Trip

	query := `
		SELECT id, name, owner_id, default_lat, default_lng, default_zoom, created_at, updated_at
		FROM trips
		WHERE id = $1
	`

	err := s.pool.QueryRow(ctx, query, tripID).Scan(
		&t.ID,
		&t.Name,
		&t.OwnerID,
		&t.DefaultLat,
		&t.DefaultLng,
		&t.DefaultZoom,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}

	return &t, nil
}

// Create inserts a trip and its owner membership row in one transaction
func (s *Service) Create(ctx context.Context, userID uuid.UUID, name string, defaultLat, defaultLng *float64, defaultZoom *int) (*Trip, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var t Trip
	query := `
		INSERT INTO trips (name, owner_id, default_lat, default_lng, default_zoom)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, owner_id, default_lat, default_lng, default_zoom, created_at, updated_at
	`

	err = tx.QueryRow(ctx, query, name, userID, defaultLat, defaultLng, defaultZoom).Scan(
		&t.ID,
		&t.Name,
		&t.OwnerID,
		&t.DefaultLat,
		&t.DefaultLng,
		&t.DefaultZoom,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trip: %w", err)
	}

	memberQuery := `
		INSERT INTO trip_members (trip_id, user_id, role)
		VALUES ($1, $2, $3)
	`

	_, err = tx.Exec(ctx, memberQuery, t.ID, userID, access.RoleOwner)
	if err != nil {
		return nil, fmt.Errorf("failed to create owner membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &t, nil
}

// Update applies a merge patch to a trip. Only fields present in the command
// are changed; updated_at is always bumped.
func (s *Service) Update(ctx context.Context, tripID, userID uuid.UUID, cmd UpdateCommand) (*Trip, error) {
	if _, err := s.checker.RequireEditorAccess(ctx, tripID, userID); err != nil {
		return nil, err
	}

	sets := []string{"updated_at = NOW()"}
	args := []any{tripID}

	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if cmd.Name != nil {
		addSet("name", *cmd.Name)
	}
	if cmd.DefaultLat != nil {
		addSet("default_lat", *cmd.DefaultLat)
	}
	if cmd.DefaultLng != nil {
		addSet("default_lng", *cmd.DefaultLng)
	}
	if cmd.DefaultZoom != nil {
		addSet("default_zoom", *cmd.DefaultZoom)
	}

	query := fmt.Sprintf(`
		UPDATE trips
		SET %s
		WHERE id = $1
		RETURNING id, name, owner_id, default_lat, default_lng, default_zoom, created_at, updated_at
	`, strings.Join(sets, ", "))

	var t Trip
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&t.ID,
		&t.Name,
		&t.OwnerID,
		&t.DefaultLat,
		&t.DefaultLng,
		&t.DefaultZoom,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		return nil, fmt.Errorf("failed to update trip: %w", err)
	}

	return &t, nil
}

// Remove deletes a trip and everything under it. Owner only. The cascade runs
// as a sequence of deletes (members, invites, locations with attachments and
// blobs, then the trip row); a failure partway through surfaces to the caller
// and earlier steps are not undone.
func (s *Service) Remove(ctx context.Context, tripID, userID uuid.UUID) (*Trip, error) {
	trip, err := s.getByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if _, err := s.checker.RequireOwnerAccess(ctx, tripID, userID); err != nil {
		return nil, err
	}

	if _, err := s.pool.Exec(ctx, `DELETE FROM trip_members WHERE trip_id = $1`, tripID); err != nil {
		return nil, fmt.Errorf("failed to delete trip members: %w", err)
	}

	if _, err := s.pool.Exec(ctx, `DELETE FROM trip_invites WHERE trip_id = $1`, tripID); err != nil {
		return nil, fmt.Errorf("failed to delete trip invites: %w", err)
	}

	if err := s.locations.PurgeTrip(ctx, tripID); err != nil {
		return nil, fmt.Errorf("failed to delete trip locations: %w", err)
	}

	if _, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE trip_id = $1`, tripID); err != nil {
		return nil, fmt.Errorf("failed to delete trip categories: %w", err)
	}

	if _, err := s.pool.Exec(ctx, `DELETE FROM trips WHERE id = $1`, tripID); err != nil {
		return nil, fmt.Errorf("failed to delete trip: %w", err)
	}

	log.Info().
		Str("trip_id", tripID.String()).
		Str("owner_id", userID.String()).
		Msg("Trip deleted with cascade")

	return trip, nil
}
