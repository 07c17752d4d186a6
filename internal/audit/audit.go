package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const (
	EventUserSignup        = "user.signup"
	EventLoginFailed       = "auth.login_failed"
	EventTripCreated       = "trip.created"
	EventTripDeleted       = "trip.deleted"
	EventInviteCreated     = "trip.invite_created"
	EventInviteAccepted    = "trip.invite_accepted"
	EventInviteDeclined    = "trip.invite_declined"
	EventInviteCancelled   = "trip.invite_cancelled"
	EventMemberAdded       = "trip.member_added"
	EventMemberRemoved     = "trip.member_removed"
	EventMemberLeft        = "trip.member_left"
	EventLocationCreated   = "location.created"
	EventLocationDeleted   = "location.deleted"
	EventCategoryCreated   = "category.created"
	EventCategoryDeleted   = "category.deleted"
	EventAttachmentAdded   = "attachment.uploaded"
	EventAttachmentDeleted = "attachment.deleted"
)

// Event represents an audit log entry.
type Event struct {
	ID          uuid.UUID              `db:"id"`
	TripID      uuid.NullUUID          `db:"trip_id"`
	ActorUserID uuid.NullUUID          `db:"actor_user_id"`
	Action      string                 `db:"action"`
	Meta        map[string]interface{} `db:"meta"`
	CreatedAt   time.Time              `db:"created_at"`
}

// Writer provides methods to write audit log entries.
type Writer struct {
	pool *pgxpool.Pool
}

func NewWriter(pool *pgxpool.Pool) *Writer {
	return &Writer{pool: pool}
}

// LogParams contains parameters for logging an audit event.
type LogParams struct {
	TripID      *uuid.UUID
	ActorUserID *uuid.UUID
	Action      string
	Meta        map[string]interface{}
}

func (w *Writer) Log(ctx context.Context, params LogParams) error {
	metaJSON := []byte("{}")
	if params.Meta != nil {
		b, err := json.Marshal(params.Meta)
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal audit meta")
			return err
		}
		metaJSON = b
	}

	query := `
		INSERT INTO audit_log (trip_id, actor_user_id, action, meta)
		VALUES ($1, $2, $3, $4)
	`

	_, err := w.pool.Exec(ctx, query, toNullUUID(params.TripID), toNullUUID(params.ActorUserID), params.Action, metaJSON)
	if err != nil {
		log.Error().Err(err).Str("action", params.Action).Msg("Failed to write audit log")
		return err
	}

	log.Info().
		Str("action", params.Action).
		Interface("trip_id", params.TripID).
		Interface("actor_user_id", params.ActorUserID).
		Msg("Audit event logged")

	return nil
}

func toNullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func (w *Writer) LogUserSignup(ctx context.Context, userID uuid.UUID, email string) error {
	return w.Log(ctx, LogParams{
		ActorUserID: &userID,
		Action:      EventUserSignup,
		Meta: map[string]interface{}{
			"email": email,
		},
	})
}

func (w *Writer) LogLoginFailed(ctx context.Context, email, ip string) error {
	return w.Log(ctx, LogParams{
		Action: EventLoginFailed,
		Meta: map[string]interface{}{
			"email": email,
			"ip":    ip,
		},
	})
}

func (w *Writer) LogTripCreated(ctx context.Context, tripID, userID uuid.UUID, name string) error {
	return w.Log(ctx, LogParams{
		TripID:      &tripID,
		ActorUserID: &userID,
		Action:      EventTripCreated,
		Meta: map[string]interface{}{
			"name": name,
		},
	})
}

func (w *Writer) LogTripDeleted(ctx context.Context, tripID, userID uuid.UUID, name string) error {
	return w.Log(ctx, LogParams{
		TripID:      &tripID,
		ActorUserID: &userID,
		Action:      EventTripDeleted,
		Meta: map[string]interface{}{
			"name": name,
		},
	})
}

func (w *Writer) LogInviteCreated(ctx context.Context, tripID, actorUserID, inviteID uuid.UUID, email string) error {
	return w.Log(ctx, LogParams{
		TripID:      &tripID,
		ActorUserID: &actorUserID,
		Action:      EventInviteCreated,
		Meta: map[string]interface{}{
			"invite_id": inviteID.String(),
			"email":     email,
		},
	})
}

func (w *Writer) LogInviteAccepted(ctx context.Context, tripID, actorUserID, inviteID uuid.UUID) error {
	return w.Log(ctx, LogParams{
		TripID:      &tripID,
		ActorUserID: &actorUserID,
		Action:      EventInviteAccepted,
		Meta: map[string]interface{}{
			"invite_id": inviteID.String(),
		},
	})
}

func (w *Writer) LogInviteDeclined(ctx context.Context, tripID, actorUserID, inviteID uuid.UUID) error {
	return w.Log(ctx, LogParams{
		TripID:      &tripID,
		ActorUserID: &actorUserID,
		Action:      EventInviteDeclined,
		Meta: map[string]interface{}{
			"invite_id": inviteID.String(),
		},
	})
}

func (w *Writer) LogInviteCancelled(ctx context.Context, tripID, actorUserID, inviteID uuid.UUID) error {
	return w.Log(ctx, LogParams{
		TripID:      &tripID,
		ActorUserID: &actorUserID,
		Action:      EventInviteCancelled,
		Meta: map[string]interface{}{
			"invite_id": inviteID.String(),
		},
	})
}

func (w *Writer) LogMemberAdded(ctx context.Context, tripID, actorUserID, memberUserID uuid.UUID) error {
	return w.Log(ctx, LogParams{
		TripID:      &tripID,
		ActorUserID: &actorUserID,
		Action:      EventMemberAdded,
		Meta: map[string]interface{}{
			"member_user_id": memberUserID.String(),
		},
	})
}

func (w *Writer) LogMemberRemoved(ctx context.Context, tripID, actorUserID, memberUserID uuid.UUID) error {
	return w.Log(ctx, LogParams{
		TripID:      &tripID,
		ActorUserID: &actorUserID,
		Action:      EventMemberRemoved,
		Meta: map[string]interface{}{
			"member_user_id": memberUserID.String(),
		},
	})
}

func (w *Writer) LogMemberLeft(ctx context.Context, tripID, userID uuid.UUID) error {
	return w.Log(ctx, LogParams{
		TripID:      &tripID,
		ActorUserID: &userID,
		Action:      EventMemberLeft,
		Meta:        map[string]interface{}{},
	})
}

func (w *Writer) LogLocationCreated(ctx context.Context, tripID, actorUserID, locationID uuid.UUID, name string) error {
	return w.Log(ctx, LogParams{
		TripID:      &tripID,
		ActorUserID: &actorUserID,
		Action:      EventLocationCreated,
		Meta: map[string]interface{}{
			"location_id": locationID.String(),
			"name":        name,
		},
	})
}

func (w *Writer) LogLocationDeleted(ctx context.Context, tripID, actorUserID, locationID uuid.UUID) error {
	return w.Log(ctx, LogParams{
		TripID:      &tripID,
		ActorUserID: &actorUserID,
		Action:      EventLocationDeleted,
		Meta: map[string]interface{}{
			"location_id": locationID.String(),
		},
	})
}

func (w *Writer) LogCategoryCreated(ctx context.Context, tripID, actorUserID, categoryID uuid.UUID, name string) error {
	return w.Log(ctx, LogParams{
		TripID:      &tripID,
		ActorUserID: &actorUserID,
		Action:      EventCategoryCreated,
		Meta: map[string]interface{}{
			"category_id": categoryID.String(),
			"name":        name,
		},
	})
}

func (w *Writer) LogCategoryDeleted(ctx context.Context, tripID, actorUserID, categoryID uuid.UUID) error {
	return w.Log(ctx, LogParams{
		TripID:      &tripID,
		ActorUserID: &actorUserID,
		Action:      EventCategoryDeleted,
		Meta: map[string]interface{}{
			"category_id": categoryID.String(),
		},
	})
}

func (w *Writer) LogAttachmentUploaded(ctx context.Context, tripID, actorUserID, attachmentID uuid.UUID, fileName string) error {
	return w.Log(ctx, LogParams{
		TripID:      &tripID,
		ActorUserID: &actorUserID,
		Action:      EventAttachmentAdded,
		Meta: map[string]interface{}{
			"attachment_id": attachmentID.String(),
			"file_name":     fileName,
		},
	})
}

func (w *Writer) LogAttachmentDeleted(ctx context.Context, tripID, actorUserID, attachmentID uuid.UUID) error {
	return w.Log(ctx, LogParams{
		TripID:      &tripID,
		ActorUserID: &actorUserID,
		Action:      EventAttachmentDeleted,
		Meta: map[string]interface{}{
			"attachment_id": attachmentID.String(),
		},
	})
}
