package locations

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

// LocationResponse is the JSON shape of a location
type LocationResponse struct {
	ID             uuid.UUID  `json:"id"`
	TripID         uuid.UUID  `json:"trip_id"`
	Name           string     `json:"name"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	DateTime       *string    `json:"date_time"`
	EndDateTime    *string    `json:"end_date_time"`
	LocationType   *string    `json:"location_type,omitempty"`
	CategoryID     *uuid.UUID `json:"category_id"`
	Notes          string     `json:"notes"`
	Address        string     `json:"address"`
	SortOrder      int        `json:"sort_order"`
	AttachmentID   *string    `json:"attachment_id,omitempty"`
	AttachmentName *string    `json:"attachment_name,omitempty"`
	CreatedBy      uuid.UUID  `json:"created_by"`
	CreatedAt      string     `json:"created_at"`
	UpdatedAt      string     `json:"updated_at"`
}

func toLocationResponse(loc *Location) LocationResponse {
	resp := LocationResponse{
		ID:             loc.ID,
		TripID:         loc.TripID,
		Name:           loc.Name,
		Latitude:       loc.Latitude,
		Longitude:      loc.Longitude,
		DateTime:       loc.DateTime,
		EndDateTime:    loc.EndDateTime,
		LocationType:   loc.LocationType,
		Notes:          loc.Notes,
		Address:        loc.Address,
		SortOrder:      loc.SortOrder,
		AttachmentID:   loc.AttachmentID,
		AttachmentName: loc.AttachmentName,
		CreatedBy:      loc.CreatedBy,
		CreatedAt:      loc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      loc.UpdatedAt.Format(time.RFC3339),
	}
	if loc.CategoryID.Valid {
		id := loc.CategoryID.UUID
		resp.CategoryID = &id
	}
	return resp
}

func toLocationListResponse(locs []Location) []LocationResponse {
	resp := make([]LocationResponse, len(locs))
	for i := range locs {
		resp[i] = toLocationResponse(&locs[i])
	}
	return resp
}

func writeLocationError(w http.ResponseWriter, r *http.Request, err error, action string) {
	if errors.Is(err, ErrLocationNotFound) {
		apperrors.WriteNotFound(w, r, "Location not found")
		return
	}
	if errors.Is(err, access.ErrNoAccess) {
		apperrors.WriteForbidden(w, r, "No access to this trip")
		return
	}
	log.Error().Err(err).Msgf("Failed to %s location", action)
	apperrors.WriteInternalError(w, r, "Failed to "+action+" location")
}

// validateDates checks the naive datetime format of create/update payloads.
// Empty strings are allowed: they mean "unscheduled" (create) or "clear the
// field" (update).
func validateDates(dateTime, endDateTime *string) error {
	if dateTime != nil && *dateTime != "" {
		if err := validation.ValidateNaiveDateTime(*dateTime); err != nil {
			return err
		}
	}
	if endDateTime != nil && *endDateTime != "" {
		if err := validation.ValidateNaiveDateTime(*endDateTime); err != nil {
			return err
		}
	}
	return nil
}

// HandleListByTrip handles GET /api/v1/trips/{trip_id}/locations. An optional
// ?date=YYYY-MM-DD query filters to locations scheduled on that date.
func HandleListByTrip(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		tripID, err := uuid.Parse(chi.URLParam(r, "trip_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid trip ID")
			return
		}

		var locs []Location
		if date := r.URL.Query().Get("date"); date != "" {
			if err := validation.ValidateDate(date); err != nil {
				apperrors.WriteBadRequest(w, r, err.Error())
				return
			}
			locs, err = svc.ListByTripAndDate(ctx, tripID, userID, date)
		} else {
			locs, err = svc.ListByTrip(ctx, tripID, userID)
		}
		if err != nil {
			writeLocationError(w, r, err, "list")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"locations": toLocationListResponse(locs),
		})
	}
}

// HandleUniqueDates handles GET /api/v1/trips/{trip_id}/locations/dates
func HandleUniqueDates(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		tripID, err := uuid.Parse(chi.URLParam(r, "trip_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid trip ID")
			return
		}

		dates, err := svc.UniqueDates(ctx, tripID, userID)
		if err != nil {
			writeLocationError(w, r, err, "list dates for")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"dates": dates,
		})
	}
}

// HandleGet handles GET /api/v1/locations/{location_id}
func HandleGet(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		locationID, err := uuid.Parse(chi.URLParam(r, "location_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid location ID")
			return
		}

		loc, err := svc.Get(ctx, locationID, userID)
		if err != nil {
			writeLocationError(w, r, err, "get")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"location": toLocationResponse(loc),
		})
	}
}

// HandleCreate handles POST /api/v1/trips/{trip_id}/locations
func HandleCreate(svc *Service, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		tripID, err := uuid.Parse(chi.URLParam(r, "trip_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid trip ID")
			return
		}

		var cmd CreateCommand
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		cmd.Name = strings.TrimSpace(cmd.Name)
		if cmd.Name == "" {
			apperrors.WriteBadRequest(w, r, "Location name is required")
			return
		}
		if err := validateDates(cmd.DateTime, cmd.EndDateTime); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}

		loc, err := svc.Create(ctx, tripID, userID, cmd)
		if err != nil {
			writeLocationError(w, r, err, "create")
			return
		}

		if err := auditor.LogLocationCreated(ctx, tripID, userID, loc.ID, loc.Name); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"location": toLocationResponse(loc),
		})
	}
}

// HandleUpdate handles PATCH /api/v1/locations/{location_id}
func HandleUpdate(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		locationID, err := uuid.Parse(chi.URLParam(r, "location_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid location ID")
			return
		}

		var cmd UpdateCommand
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		if cmd.Name != nil {
			trimmed := strings.TrimSpace(*cmd.Name)
			if trimmed == "" {
				apperrors.WriteBadRequest(w, r, "Location name cannot be empty")
				return
			}
			cmd.Name = &trimmed
		}
		if err := validateDates(cmd.DateTime, cmd.EndDateTime); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}

		loc, err := svc.Update(ctx, locationID, userID, cmd)
		if err != nil {
			writeLocationError(w, r, err, "update")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"location": toLocationResponse(loc),
		})
	}
}

// HandleDelete handles DELETE /api/v1/locations/{location_id}
func HandleDelete(svc *Service, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		locationID, err := uuid.Parse(chi.URLParam(r, "location_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid location ID")
			return
		}

		loc, err := svc.Remove(ctx, locationID, userID)
		if err != nil {
			writeLocationError(w, r, err, "delete")
			return
		}

		if err := auditor.LogLocationDeleted(ctx, loc.TripID, userID, loc.ID); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"deleted": true,
		})
	}
}

// ReorderRequest carries the new sort order assignments
type ReorderRequest struct {
	Locations []ReorderEntry `json:"locations"`
}

// HandleReorder handles PUT /api/v1/trips/{trip_id}/locations/reorder
func HandleReorder(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		tripID, err := uuid.Parse(chi.URLParam(r, "trip_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid trip ID")
			return
		}

		var req ReorderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}
		if len(req.Locations) == 0 {
			apperrors.WriteBadRequest(w, r, "No locations to reorder")
			return
		}

		if err := svc.Reorder(ctx, tripID, userID, req.Locations); err != nil {
			var wrongTrip *WrongTripError
			if errors.As(err, &wrongTrip) {
				apperrors.WriteBadRequest(w, r, wrongTrip.Error())
				return
			}
			writeLocationError(w, r, err, "reorder")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"reordered": true,
		})
	}
}
