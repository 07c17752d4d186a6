package attachments

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/tripper-app/tripper/internal/access"
)

var (
	// ErrAttachmentNotFound is returned when an attachment is not found
	ErrAttachmentNotFound = errors.New("attachment not found")

	// ErrLocationNotFound is returned when the target location does not exist
	ErrLocationNotFound = errors.New("location not found")
)

// BlobStore is the object store attachments keep their payloads in
type BlobStore interface {
	Put(ctx context.Context, body io.Reader, contentType string) (string, error)
	Get(ctx context.Context, fileID string) (io.ReadCloser, error)
	Delete(ctx context.Context, fileID string) error
}

// Service provides attachment operations. Access is always checked against
// the trip owning the attachment's location.
type Service struct {
	pool    *pgxpool.Pool
	checker *access.Checker
	blobs   BlobStore
}

// NewService creates a new attachment service
func NewService(pool *pgxpool.Pool, checker *access.Checker, blobs BlobStore) *Service {
	return &Service{pool: pool, checker: checker, blobs: blobs}
}

// resolveLocationTrip maps a location to its owning trip
func (s *Service) resolveLocationTrip(ctx context.Context, locationID uuid.UUID) (uuid.UUID, error) {
	var tripID uuid.UUID
	err := s.pool.QueryRow(ctx, `SELECT trip_id FROM locations WHERE id = $1`, locationID).Scan(&tripID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrLocationNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to resolve location: %w", err)
	}
	return tripID, nil
}

// CountByLocation returns how many attachments a location has
func (s *Service) CountByLocation(ctx context.Context, locationID, userID uuid.UUID) (int, error) {
	tripID, err := s.resolveLocationTrip(ctx, locationID)
	if err != nil {
		return 0, err
	}
	if _, err := s.checker.RequireTripAccess(ctx, tripID, userID); err != nil {
		return 0, err
	}

	var count int
	err = s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM attachments WHERE location_id = $1`, locationID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count attachments: %w", err)
	}

	return count, nil
}

// ListByLocation returns a location's attachment metadata, newest first
func (s *Service) ListByLocation(ctx context.Context, locationID, userID uuid.UUID) ([]Attachment, error) {
	tripID, err := s.resolveLocationTrip(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.checker.RequireTripAccess(ctx, tripID, userID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, location_id, file_name, file_id, mime_type, uploaded_at
		FROM attachments
		WHERE location_id = $1
		ORDER BY uploaded_at DESC
	`, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer rows.Close()

	list := []Attachment{}
	for rows.Next() {
		var a Attachment
		err := rows.Scan(&a.ID, &a.LocationID, &a.FileName, &a.FileID, &a.MimeType, &a.UploadedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		list = append(list, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attachment rows: %w", err)
	}

	return list, nil
}

// Upload stores the blob first, then the metadata row. A failed row insert
// removes the just-written blob so the store does not accumulate orphans.
func (s *Service) Upload(ctx context.Context, locationID, userID uuid.UUID, fileName, mimeType string, body io.Reader) (*Attachment, error) {
	tripID, err := s.resolveLocationTrip(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.checker.RequireEditorAccess(ctx, tripID, userID); err != nil {
		return nil, err
	}

	fileID, err := s.blobs.Put(ctx, body, mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to store attachment blob: %w", err)
	}

	var a Attachment
	err = s.pool.QueryRow(ctx, `
		INSERT INTO attachments (location_id, file_name, file_id, mime_type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, location_id, file_name, file_id, mime_type, uploaded_at
	`, locationID, fileName, fileID, mimeType).Scan(
		&a.ID,
		&a.LocationID,
		&a.FileName,
		&a.FileID,
		&a.MimeType,
		&a.UploadedAt,
	)
	if err != nil {
		if delErr := s.blobs.Delete(ctx, fileID); delErr != nil {
			log.Error().Err(delErr).Str("file_id", fileID).Msg("Failed to clean up blob after insert failure")
		}
		return nil, fmt.Errorf("failed to create attachment: %w", err)
	}

	return &a, nil
}

func (s *Service) getByID(ctx context.Context, attachmentID uuid.UUID) (*Attachment, error) {
	var a Attachment
	err := s.pool.QueryRow(ctx, `
		SELECT id, location_id, file_name, file_id, mime_type, uploaded_at
		FROM attachments
		WHERE id = $1
	`, attachmentID).Scan(
		&a.ID,
		&a.LocationID,
		&a.FileName,
		&a.FileID,
		&a.MimeType,
		&a.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}
	return &a, nil
}

// Download opens the attachment's blob for streaming. The caller closes the
// returned reader.
func (s *Service) Download(ctx context.Context, attachmentID, userID uuid.UUID) (*Attachment, io.ReadCloser, error) {
	a, err := s.getByID(ctx, attachmentID)
	if err != nil {
		return nil, nil, err
	}

	tripID, err := s.resolveLocationTrip(ctx, a.LocationID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.checker.RequireTripAccess(ctx, tripID, userID); err != nil {
		return nil, nil, err
	}

	body, err := s.blobs.Get(ctx, a.FileID)
	if err != nil {
		return nil, nil, err
	}

	return a, body, nil
}

// Remove deletes the blob then the metadata row
func (s *Service) Remove(ctx context.Context, attachmentID, userID uuid.UUID) (*Attachment, uuid.UUID, error) {
	a, err := s.getByID(ctx, attachmentID)
	if err != nil {
		return nil, uuid.Nil, err
	}

	tripID, err := s.resolveLocationTrip(ctx, a.LocationID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	if _, err := s.checker.RequireEditorAccess(ctx, tripID, userID); err != nil {
		return nil, uuid.Nil, err
	}

	if err := s.deletePair(ctx, a); err != nil {
		return nil, uuid.Nil, err
	}

	return a, tripID, nil
}

func (s *Service) deletePair(ctx context.Context, a *Attachment) error {
	if err := s.blobs.Delete(ctx, a.FileID); err != nil {
		return fmt.Errorf("failed to delete attachment blob: %w", err)
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM attachments WHERE id = $1`, a.ID); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	return nil
}

// PurgeLocation deletes every attachment of a location, blobs included.
// Called from the location delete cascade; access is checked by the caller.
func (s *Service) PurgeLocation(ctx context.Context, locationID uuid.UUID) error {
	rows, err := s.pool.Query(ctx, `
		SELECT id, location_id, file_name, file_id, mime_type, uploaded_at
		FROM attachments
		WHERE location_id = $1
	`, locationID)
	if err != nil {
		return fmt.Errorf("failed to list attachments for purge: %w", err)
	}
	defer rows.Close()

	list := []Attachment{}
	for rows.Next() {
		var a Attachment
		if err := rows.Scan(&a.ID, &a.LocationID, &a.FileName, &a.FileID, &a.MimeType, &a.UploadedAt); err != nil {
			return fmt.Errorf("failed to scan attachment: %w", err)
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating attachment rows: %w", err)
	}
	rows.Close()

	for i := range list {
		if err := s.deletePair(ctx, &list[i]); err != nil {
			return err
		}
	}

	return nil
}
