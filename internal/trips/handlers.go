package trips

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tripper-app/tripper/internal/access"
	"github.com/tripper-app/tripper/internal/apperrors"
	"github.com/tripper-app/tripper/internal/audit"
	"github.com/tripper-app/tripper/internal/auth"
	"github.com/tripper-app/tripper/internal/validation"
)

// CreateRequest represents the request to create a trip
type CreateRequest struct {
	Name        string   `json:"name"`
	DefaultLat  *float64 `json:"default_lat"`
	DefaultLng  *float64 `json:"default_lng"`
	DefaultZoom *int     `json:"default_zoom"`
}

// TripResponse is the JSON shape of a trip
type TripResponse struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	OwnerID     uuid.UUID   `json:"owner_id"`
	DefaultLat  *float64    `json:"default_lat,omitempty"`
	DefaultLng  *float64    `json:"default_lng,omitempty"`
	DefaultZoom *int        `json:"default_zoom,omitempty"`
	Role        access.Role `json:"role,omitempty"`
	CreatedAt   string      `json:"created_at"`
	UpdatedAt   string      `json:"updated_at"`
}

func toTripResponse(t *Trip, role access.Role) TripResponse {
	return TripResponse{
		ID:          t.ID,
		Name:        t.Name,
		OwnerID:     t.OwnerID,
		DefaultLat:  t.DefaultLat,
		DefaultLng:  t.DefaultLng,
		DefaultZoom: t.DefaultZoom,
		Role:        role,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.Format(time.RFC3339),
	}
}

// HandleList handles GET /api/v1/trips
func HandleList(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		// Unauthenticated callers get an empty list, not an error.
		if userID == uuid.Nil {
			apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
				"trips": []TripResponse{},
			})
			return
		}

		list, err := svc.List(ctx, userID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list trips")
			apperrors.WriteInternalError(w, r, "Failed to list trips")
			return
		}

		resp := make([]TripResponse, len(list))
		for i, t := range list {
			resp[i] = toTripResponse(&t.Trip, t.Role)
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"trips": resp,
		})
	}
}

// HandleGet handles GET /api/v1/trips/{trip_id}
func HandleGet(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		tripID, err := uuid.Parse(chi.URLParam(r, "trip_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid trip ID")
			return
		}

		trip, role, err := svc.Get(ctx, tripID, userID)
		if err != nil {
			if errors.Is(err, ErrTripNotFound) {
				apperrors.WriteNotFound(w, r, "Trip not found")
				return
			}
			if errors.Is(err, access.ErrNoAccess) {
				apperrors.WriteForbidden(w, r, "No access to this trip")
				return
			}
			log.Error().Err(err).Msg("Failed to get trip")
			apperrors.WriteInternalError(w, r, "Failed to get trip")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"trip": toTripResponse(trip, role),
		})
	}
}

// HandleCreate handles POST /api/v1/trips
func HandleCreate(svc *Service, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		var req CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		if err := validation.ValidateTripName(req.Name); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}

		trip, err := svc.Create(ctx, userID, req.Name, req.DefaultLat, req.DefaultLng, req.DefaultZoom)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create trip")
			apperrors.WriteInternalError(w, r, "Failed to create trip")
			return
		}

		if err := auditor.LogTripCreated(ctx, trip.ID, userID, trip.Name); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"trip": toTripResponse(trip, access.RoleOwner),
		})
	}
}

// HandleUpdate handles PATCH /api/v1/trips/{trip_id}
func HandleUpdate(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		tripID, err := uuid.Parse(chi.URLParam(r, "trip_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid trip ID")
			return
		}

		var cmd UpdateCommand
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		if cmd.Name != nil {
			trimmed := strings.TrimSpace(*cmd.Name)
			if err := validation.ValidateTripName(trimmed); err != nil {
				apperrors.WriteBadRequest(w, r, err.Error())
				return
			}
			cmd.Name = &trimmed
		}

		trip, err := svc.Update(ctx, tripID, userID, cmd)
		if err != nil {
			if errors.Is(err, ErrTripNotFound) {
				apperrors.WriteNotFound(w, r, "Trip not found")
				return
			}
			if errors.Is(err, access.ErrNoAccess) {
				apperrors.WriteForbidden(w, r, "No access to this trip")
				return
			}
			log.Error().Err(err).Msg("Failed to update trip")
			apperrors.WriteInternalError(w, r, "Failed to update trip")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"trip": toTripResponse(trip, ""),
		})
	}
}

// HandleDelete handles DELETE /api/v1/trips/{trip_id}
func HandleDelete(svc *Service, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		tripID, err := uuid.Parse(chi.URLParam(r, "trip_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid trip ID")
			return
		}

		trip, err := svc.Remove(ctx, tripID, userID)
		if err != nil {
			if errors.Is(err, ErrTripNotFound) {
				apperrors.WriteNotFound(w, r, "Trip not found")
				return
			}
			if errors.Is(err, access.ErrNoAccess) {
				apperrors.WriteForbidden(w, r, "No access to this trip")
				return
			}
			if errors.Is(err, access.ErrNotOwner) {
				apperrors.WriteForbidden(w, r, "Only the trip owner can delete a trip")
				return
			}
			log.Error().Err(err).Msg("Failed to delete trip")
			apperrors.WriteInternalError(w, r, "Failed to delete trip")
			return
		}

		if err := auditor.LogTripDeleted(ctx, tripID, userID, trip.Name); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"deleted": true,
		})
	}
}
