package locations

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
	// ErrLocationNotFound is returned when a location is not found
	ErrLocationNotFound = errors.New("location not found")
)

// WrongTripError is returned by Reorder when an entry references a location
// that belongs to a different trip.
type WrongTripError struct {
	LocationID uuid.UUID
}

func (e *WrongTripError) Error() string {
	return fmt.Sprintf("location %s does not belong to this trip", e.LocationID)
}

// AttachmentPurger deletes every attachment row and blob of a location.
// Implemented by the attachments service.
type AttachmentPurger interface {
	PurgeLocation(ctx context.Context, locationID uuid.UUID) error
}

// BlobDeleter removes a stored blob by its opaque file ID
type BlobDeleter interface {
	Delete(ctx context.Context, fileID string) error
}

// Service provides location lifecycle operations
type Service struct {
	pool        *pgxpool.Pool
	checker     *access.Checker
	attachments AttachmentPurger
	blobs       BlobDeleter
}

// NewService creates a new location service
func NewService(pool *pgxpool.Pool, checker *access.Checker, attachments AttachmentPurger, blobs BlobDeleter) *Service {
	return &Service{pool: pool, checker: checker, attachments: attachments, blobs: blobs}
}

const locationColumns = `
	id, trip_id, name, latitude, longitude, date_time, end_date_time,
	location_type, category_id, notes, address, sort_order,
	attachment_id, attachment_name, created_by, created_at, updated_at
`

func scanLocation(row pgx.Row) (*Location, error) {
	var loc Location
	err := row.Scan(
		&loc.ID,
		&loc.TripID,
		&loc.Name,
		&loc.Latitude,
		&loc.Longitude,
		&loc.DateTime,
		&loc.EndDateTime,
		&loc.LocationType,
		&loc.CategoryID,
		&loc.Notes,
		&loc.Address,
		&loc.SortOrder,
		&loc.AttachmentID,
		&loc.AttachmentName,
		&loc.CreatedBy,
		&loc.CreatedAt,
		&loc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// ListByTrip returns all locations of a trip ordered by sort order
func (s *Service) ListByTrip(ctx context.Context, tripID, userID uuid.UUID) ([]Location, error) {
	if _, err := s.checker.RequireTripAccess(ctx, tripID, userID); err != nil {
		return nil, err
	}
	return s.listByTrip(ctx, tripID)
}

func (s *Service) listByTrip(ctx context.Context, tripID uuid.UUID) ([]Location, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM locations
		WHERE trip_id = $1
		ORDER BY sort_order ASC
	`, locationColumns)

	rows, err := s.pool.Query(ctx, query, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer rows.Close()

	locs := []Location{}
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locs = append(locs, *loc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating location rows: %w", err)
	}

	return locs, nil
}

// ListByTripAndDate returns the trip's locations scheduled on the given
// calendar date, in sort order. Accommodation locations match every date of
// their inclusive stay range; unscheduled locations are excluded.
func (s *Service) ListByTripAndDate(ctx context.Context, tripID, userID uuid.UUID, date string) ([]Location, error) {
	all, err := s.ListByTrip(ctx, tripID, userID)
	if err != nil {
		return nil, err
	}

	matched := []Location{}
	for i := range all {
		if occursOn(&all[i], date) {
			matched = append(matched, all[i])
		}
	}

	return matched, nil
}

// UniqueDates returns the sorted, deduplicated calendar dates touched by any
// location of the trip, with accommodation ranges expanded day by day.
func (s *Service) UniqueDates(ctx context.Context, tripID, userID uuid.UUID) ([]string, error) {
	all, err := s.ListByTrip(ctx, tripID, userID)
	if err != nil {
		return nil, err
	}
	return uniqueDates(all), nil
}

// Get retrieves a location; the caller must have access to the owning trip
func (s *Service) Get(ctx context.Context, locationID, userID uuid.UUID) (*Location, error) {
	loc, err := s.getByID(ctx, locationID)
	if err != nil {
		return nil, err
	}

	if _, err := s.checker.RequireTripAccess(ctx, loc.TripID, userID); err != nil {
		return nil, err
	}

	return loc, nil
}

func (s *Service) getByID(ctx context.Context, locationID uuid.UUID) (*Location, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM locations
		WHERE id = $1
	`, locationColumns)

	loc, err := scanLocation(s.pool.QueryRow(ctx, query, locationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("failed to get location: %w", err)
	}

	return loc, nil
}

// Create inserts a location at the end of the trip's sort order. Sort orders
// are assigned max+1 and never reused after deletes.
func (s *Service) Create(ctx context.Context, tripID, userID uuid.UUID, cmd CreateCommand) (*Location, error) {
	if _, err := s.checker.RequireEditorAccess(ctx, tripID, userID); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var nextSortOrder int
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(sort_order), 0) + 1
		FROM locations
		WHERE trip_id = $1
	`, tripID).Scan(&nextSortOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to compute sort order: %w", err)
	}

	dateTime := normalizeOptional(cmd.DateTime)
	endDateTime := normalizeOptional(cmd.EndDateTime)

	query := fmt.Sprintf(`
		INSERT INTO locations (
			trip_id, name, latitude, longitude, date_time, end_date_time,
			location_type, category_id, notes, address, sort_order, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING %s
	`, locationColumns)

	loc, err := scanLocation(tx.QueryRow(ctx, query,
		tripID,
		cmd.Name,
		cmd.Latitude,
		cmd.Longitude,
		dateTime,
		endDateTime,
		cmd.LocationType,
		cmd.CategoryID,
		cmd.Notes,
		cmd.Address,
		nextSortOrder,
		userID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create location: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return loc, nil
}

// normalizeOptional maps nil and empty strings to SQL NULL
func normalizeOptional(value *string) *string {
	if value == nil || *value == "" {
		return nil
	}
	return value
}

// Update applies a merge patch to a location. Omitted fields stay unchanged;
// an explicit empty string for DateTime/EndDateTime clears the field.
func (s *Service) Update(ctx context.Context, locationID, userID uuid.UUID, cmd UpdateCommand) (*Location, error) {
	loc, err := s.getByID(ctx, locationID)
	if err != nil {
		return nil, err
	}

	if _, err := s.checker.RequireEditorAccess(ctx, loc.TripID, userID); err != nil {
		return nil, err
	}

	sets := []string{"updated_at = NOW()"}
	args := []any{locationID}

	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if cmd.Name != nil {
		addSet("name", *cmd.Name)
	}
	if cmd.Latitude != nil {
		addSet("latitude", *cmd.Latitude)
	}
	if cmd.Longitude != nil {
		addSet("longitude", *cmd.Longitude)
	}
	if cmd.DateTime != nil {
		// Empty string clears the schedule; distinct from omitting the field.
		addSet("date_time", normalizeOptional(cmd.DateTime))
	}
	if cmd.EndDateTime != nil {
		addSet("end_date_time", normalizeOptional(cmd.EndDateTime))
	}
	if cmd.LocationType != nil {
		addSet("location_type", normalizeOptional(cmd.LocationType))
	}
	if cmd.CategoryID != nil {
		addSet("category_id", *cmd.CategoryID)
	}
	if cmd.Notes != nil {
		addSet("notes", *cmd.Notes)
	}
	if cmd.Address != nil {
		addSet("address", *cmd.Address)
	}

	query := fmt.Sprintf(`
		UPDATE locations
		SET %s
		WHERE id = $1
		RETURNING %s
	`, strings.Join(sets, ", "), locationColumns)

	updated, err := scanLocation(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("failed to update location: %w", err)
	}

	return updated, nil
}

// Remove deletes a location, its legacy single-file blob if present, and all
// of its attachments (rows and blobs). The steps run sequentially; a failure
// partway through surfaces to the caller.
func (s *Service) Remove(ctx context.Context, locationID, userID uuid.UUID) (*Location, error) {
	loc, err := s.getByID(ctx, locationID)
	if err != nil {
		return nil, err
	}

	if _, err := s.checker.RequireEditorAccess(ctx, loc.TripID, userID); err != nil {
		return nil, err
	}

	if err := s.deleteWithAttachments(ctx, loc); err != nil {
		return nil, err
	}

	return loc, nil
}

func (s *Service) deleteWithAttachments(ctx context.Context, loc *Location) error {
	if loc.AttachmentID != nil && *loc.AttachmentID != "" {
		if err := s.blobs.Delete(ctx, *loc.AttachmentID); err != nil {
			return fmt.Errorf("failed to delete legacy attachment blob: %w", err)
		}
	}

	if err := s.attachments.PurgeLocation(ctx, loc.ID); err != nil {
		return fmt.Errorf("failed to delete attachments: %w", err)
	}

	if _, err := s.pool.Exec(ctx, `DELETE FROM locations WHERE id = $1`, loc.ID); err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}

	return nil
}

// PurgeTrip deletes every location of a trip together with attachments and
// blobs. Called from the trip delete cascade; access is checked by the caller.
func (s *Service) PurgeTrip(ctx context.Context, tripID uuid.UUID) error {
	locs, err := s.listByTrip(ctx, tripID)
	if err != nil {
		return err
	}

	for i := range locs {
		if err := s.deleteWithAttachments(ctx, &locs[i]); err != nil {
			return err
		}
	}

	log.Debug().
		Str("trip_id", tripID.String()).
		Int("count", len(locs)).
		Msg("Purged trip locations")

	return nil
}

// Reorder patches the sort order of the given locations. Every entry must
// belong to the trip; entries are applied one by one, so a failure partway
// through leaves earlier entries persisted.
func (s *Service) Reorder(ctx context.Context, tripID, userID uuid.UUID, entries []ReorderEntry) error {
	if _, err := s.checker.RequireEditorAccess(ctx, tripID, userID); err != nil {
		return err
	}

	for _, entry := range entries {
		var locTripID uuid.UUID
		err := s.pool.QueryRow(ctx, `SELECT trip_id FROM locations WHERE id = $1`, entry.ID).Scan(&locTripID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrLocationNotFound
			}
			return fmt.Errorf("failed to load location for reorder: %w", err)
		}

		if locTripID != tripID {
			return &WrongTripError{LocationID: entry.ID}
		}

		_, err = s.pool.Exec(ctx, `
			UPDATE locations
			SET sort_order = $2, updated_at = NOW()
			WHERE id = $1
		`, entry.ID, entry.SortOrder)
		if err != nil {
			return fmt.Errorf("failed to reorder location %s: %w", entry.ID, err)
		}
	}

	return nil
}
