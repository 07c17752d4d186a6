package members

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tripper-app/tripper/internal/access"
	"github.com/tripper-app/tripper/internal/apperrors"
	"github.com/tripper-app/tripper/internal/audit"
	"github.com/tripper-app/tripper/internal/auth"
)

// MemberResponse is the JSON shape of a trip member
type MemberResponse struct {
	ID        uuid.UUID   `json:"id"`
	TripID    uuid.UUID   `json:"trip_id"`
	UserID    uuid.UUID   `json:"user_id"`
	Email     string      `json:"email"`
	Role      access.Role `json:"role"`
	InvitedAt string      `json:"invited_at"`
}

func toMemberResponse(m *Member) MemberResponse {
	return MemberResponse{
		ID:        m.ID,
		TripID:    m.TripID,
		UserID:    m.UserID,
		Email:     m.Email,
		Role:      m.Role,
		InvitedAt: m.InvitedAt.Format(time.RFC3339),
	}
}

func writeAccessError(w http.ResponseWriter, r *http.Request, err error) bool {
	if errors.Is(err, access.ErrNoAccess) {
		apperrors.WriteForbidden(w, r, "No access to this trip")
		return true
	}
	if errors.Is(err, access.ErrNotOwner) {
		apperrors.WriteForbidden(w, r, "Only the trip owner can do this")
		return true
	}
	return false
}

// HandleListMembers handles GET /api/v1/trips/{trip_id}/members
func HandleListMembers(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		tripID, err := uuid.Parse(chi.URLParam(r, "trip_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid trip ID")
			return
		}

		list, err := svc.ListByTrip(ctx, tripID, userID)
		if err != nil {
			if writeAccessError(w, r, err) {
				return
			}
			log.Error().Err(err).Msg("Failed to list members")
			apperrors.WriteInternalError(w, r, "Failed to list members")
			return
		}

		resp := make([]MemberResponse, len(list))
		for i := range list {
			resp[i] = toMemberResponse(&list[i])
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"members": resp,
		})
	}
}

// HandleRemoveMember handles DELETE /api/v1/trips/{trip_id}/members/{member_id}
func HandleRemoveMember(svc *Service, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		tripID, err := uuid.Parse(chi.URLParam(r, "trip_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid trip ID")
			return
		}
		memberID, err := uuid.Parse(chi.URLParam(r, "member_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid member ID")
			return
		}

		m, err := svc.Remove(ctx, tripID, memberID, userID)
		if err != nil {
			if writeAccessError(w, r, err) {
				return
			}
			if errors.Is(err, ErrMemberNotFound) {
				apperrors.WriteNotFound(w, r, "Member not found")
				return
			}
			if errors.Is(err, ErrCannotRemoveSelf) {
				apperrors.WriteBadRequest(w, r, "Cannot remove yourself from the trip")
				return
			}
			log.Error().Err(err).Msg("Failed to remove member")
			apperrors.WriteInternalError(w, r, "Failed to remove member")
			return
		}

		if err := auditor.LogMemberRemoved(ctx, tripID, userID, m.UserID); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"removed": true,
		})
	}
}

// HandleLeaveTrip handles POST /api/v1/trips/{trip_id}/leave
func HandleLeaveTrip(svc *Service, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		tripID, err := uuid.Parse(chi.URLParam(r, "trip_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid trip ID")
			return
		}

		if err := svc.Leave(ctx, tripID, userID); err != nil {
			if writeAccessError(w, r, err) {
				return
			}
			if errors.Is(err, ErrOwnerCannotLeave) {
				apperrors.WriteBadRequest(w, r, "The owner cannot leave the trip, delete it instead")
				return
			}
			log.Error().Err(err).Msg("Failed to leave trip")
			apperrors.WriteInternalError(w, r, "Failed to leave trip")
			return
		}

		if err := auditor.LogMemberLeft(ctx, tripID, userID); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"left": true,
		})
	}
}
