package members

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tripper-app/tripper/internal/apperrors"
	"github.com/tripper-app/tripper/internal/audit"
	"github.com/tripper-app/tripper/internal/auth"
)

// InviteRequest carries the email to invite
type InviteRequest struct {
	Email string `json:"email"`
}

// InviteResponse is the JSON shape of a pending invite
type InviteResponse struct {
	ID        uuid.UUID `json:"id"`
	TripID    uuid.UUID `json:"trip_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt string    `json:"created_at"`
	ExpiresAt string    `json:"expires_at"`
}

func toInviteResponse(inv *Invite) InviteResponse {
	return InviteResponse{
		ID:        inv.ID,
		TripID:    inv.TripID,
		Email:     inv.Email,
		Role:      inv.Role,
		CreatedAt: inv.CreatedAt.Format(time.RFC3339),
		ExpiresAt: inv.ExpiresAt.Format(time.RFC3339),
	}
}

// IncomingInviteResponse is an invite as shown in the invitee's inbox
type IncomingInviteResponse struct {
	InviteResponse
	TripName     string `json:"trip_name"`
	InviterEmail string `json:"inviter_email"`
}

// HandleInvite handles POST /api/v1/trips/{trip_id}/invites
func HandleInvite(svc *Service, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		tripID, err := uuid.Parse(chi.URLParam(r, "trip_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid trip ID")
			return
		}

		var req InviteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		email := auth.NormalizeEmail(req.Email)
		if email == "" {
			apperrors.WriteBadRequest(w, r, "Email is required")
			return
		}

		result, err := svc.Invite(ctx, tripID, userID, email)
		if err != nil {
			if writeAccessError(w, r, err) {
				return
			}
			if errors.Is(err, ErrAlreadyMember) {
				apperrors.WriteConflict(w, r, "User is already a member of this trip")
				return
			}
			if errors.Is(err, ErrInvitePending) {
				apperrors.WriteConflict(w, r, "An invite for this email is already pending")
				return
			}
			log.Error().Err(err).Msg("Failed to invite user")
			apperrors.WriteInternalError(w, r, "Failed to invite user")
			return
		}

		switch result.Status {
		case StatusAdded:
			if err := auditor.LogMemberAdded(ctx, tripID, userID, result.MemberUserID); err != nil {
				log.Error().Err(err).Msg("Failed to log audit event")
			}
			apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
				"status": StatusAdded,
			})
		case StatusInvited:
			if err := auditor.LogInviteCreated(ctx, tripID, userID, result.Invite.ID, email); err != nil {
				log.Error().Err(err).Msg("Failed to log audit event")
			}
			apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
				"status": StatusInvited,
				"invite": toInviteResponse(result.Invite),
			})
		}
	}
}

// HandleListInvites handles GET /api/v1/trips/{trip_id}/invites
func HandleListInvites(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		tripID, err := uuid.Parse(chi.URLParam(r, "trip_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid trip ID")
			return
		}

		invites, err := svc.ListPending(ctx, tripID, userID)
		if err != nil {
			if writeAccessError(w, r, err) {
				return
			}
			log.Error().Err(err).Msg("Failed to list invites")
			apperrors.WriteInternalError(w, r, "Failed to list invites")
			return
		}

		resp := make([]InviteResponse, len(invites))
		for i := range invites {
			resp[i] = toInviteResponse(&invites[i])
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"invites": resp,
		})
	}
}

// HandleMyInvites handles GET /api/v1/invites. Unauthenticated callers get an
// empty list, not an error.
func HandleMyInvites(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		email := auth.GetUserEmail(ctx)

		if email == "" {
			apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
				"invites": []IncomingInviteResponse{},
			})
			return
		}

		invites, err := svc.MyInvites(ctx, email)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list incoming invites")
			apperrors.WriteInternalError(w, r, "Failed to list invites")
			return
		}

		resp := make([]IncomingInviteResponse, len(invites))
		for i := range invites {
			resp[i] = IncomingInviteResponse{
				InviteResponse: toInviteResponse(&invites[i].Invite),
				TripName:       invites[i].TripName,
				InviterEmail:   invites[i].InviterEmail,
			}
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"invites": resp,
		})
	}
}

func writeInviteError(w http.ResponseWriter, r *http.Request, err error, action string) {
	if errors.Is(err, ErrInviteNotFound) {
		apperrors.WriteNotFound(w, r, "Invite not found")
		return
	}
	if errors.Is(err, ErrInviteEmailMismatch) {
		apperrors.WriteForbidden(w, r, "Invite is addressed to a different email")
		return
	}
	if errors.Is(err, ErrAlreadyMember) {
		apperrors.WriteConflict(w, r, "User is already a member of this trip")
		return
	}
	if writeAccessError(w, r, err) {
		return
	}
	log.Error().Err(err).Msgf("Failed to %s invite", action)
	apperrors.WriteInternalError(w, r, "Failed to "+action+" invite")
}

// HandleAcceptInvite handles POST /api/v1/invites/{invite_id}/accept
func HandleAcceptInvite(svc *Service, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)
		email := auth.GetUserEmail(ctx)

		inviteID, err := uuid.Parse(chi.URLParam(r, "invite_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid invite ID")
			return
		}

		inv, err := svc.Accept(ctx, inviteID, userID, email)
		if err != nil {
			writeInviteError(w, r, err, "accept")
			return
		}

		if err := auditor.LogInviteAccepted(ctx, inv.TripID, userID, inv.ID); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"accepted": true,
			"trip_id":  inv.TripID,
		})
	}
}

// HandleDeclineInvite handles POST /api/v1/invites/{invite_id}/decline
func HandleDeclineInvite(svc *Service, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)
		email := auth.GetUserEmail(ctx)

		inviteID, err := uuid.Parse(chi.URLParam(r, "invite_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid invite ID")
			return
		}

		inv, err := svc.Decline(ctx, inviteID, email)
		if err != nil {
			writeInviteError(w, r, err, "decline")
			return
		}

		if err := auditor.LogInviteDeclined(ctx, inv.TripID, userID, inv.ID); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"declined": true,
		})
	}
}

// HandleCancelInvite handles DELETE /api/v1/invites/{invite_id}
func HandleCancelInvite(svc *Service, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		inviteID, err := uuid.Parse(chi.URLParam(r, "invite_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid invite ID")
			return
		}

		inv, err := svc.Cancel(ctx, inviteID, userID)
		if err != nil {
			writeInviteError(w, r, err, "cancel")
			return
		}

		if err := auditor.LogInviteCancelled(ctx, inv.TripID, userID, inv.ID); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"cancelled": true,
		})
	}
}
