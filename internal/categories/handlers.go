package categories

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

// CategoryResponse is the JSON shape of a category
type CategoryResponse struct {
	ID        uuid.UUID `json:"id"`
	TripID    uuid.UUID `json:"trip_id"`
	Name      string    `json:"name"`
	IconName  string    `json:"icon_name"`
	Color     string    `json:"color"`
	SortOrder int       `json:"sort_order"`
	IsDefault bool      `json:"is_default"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

func toCategoryResponse(c *Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		TripID:    c.TripID,
		Name:      c.Name,
		IconName:  c.IconName,
		Color:     c.Color,
		SortOrder: c.SortOrder,
		IsDefault: c.IsDefault,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
	}
}

func writeCategoryError(w http.ResponseWriter, r *http.Request, err error, action string) {
	if errors.Is(err, ErrCategoryNotFound) {
		apperrors.WriteNotFound(w, r, "Category not found")
		return
	}
	if errors.Is(err, access.ErrNoAccess) {
		apperrors.WriteForbidden(w, r, "No access to this trip")
		return
	}
	log.Error().Err(err).Msgf("Failed to %s category", action)
	apperrors.WriteInternalError(w, r, "Failed to "+action+" category")
}

// HandleListByTrip handles GET /api/v1/trips/{trip_id}/categories
func HandleListByTrip(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		tripID, err := uuid.Parse(chi.URLParam(r, "trip_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid trip ID")
			return
		}

		cats, err := svc.ListByTrip(ctx, tripID, userID)
		if err != nil {
			writeCategoryError(w, r, err, "list")
			return
		}

		resp := make([]CategoryResponse, len(cats))
		for i := range cats {
			resp[i] = toCategoryResponse(&cats[i])
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"categories": resp,
		})
	}
}

// HandleCreate handles POST /api/v1/trips/{trip_id}/categories
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
		if err := validation.ValidateCategoryName(cmd.Name); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}

		cat, err := svc.Create(ctx, tripID, userID, cmd)
		if err != nil {
			writeCategoryError(w, r, err, "create")
			return
		}

		if err := auditor.LogCategoryCreated(ctx, tripID, userID, cat.ID, cat.Name); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"category": toCategoryResponse(cat),
		})
	}
}

// HandleUpdate handles PATCH /api/v1/categories/{category_id}
func HandleUpdate(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		categoryID, err := uuid.Parse(chi.URLParam(r, "category_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid category ID")
			return
		}

		var cmd UpdateCommand
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		if cmd.Name != nil {
			trimmed := strings.TrimSpace(*cmd.Name)
			if err := validation.ValidateCategoryName(trimmed); err != nil {
				apperrors.WriteBadRequest(w, r, err.Error())
				return
			}
			cmd.Name = &trimmed
		}

		cat, err := svc.Update(ctx, categoryID, userID, cmd)
		if err != nil {
			writeCategoryError(w, r, err, "update")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"category": toCategoryResponse(cat),
		})
	}
}

// HandleDelete handles DELETE /api/v1/categories/{category_id}
func HandleDelete(svc *Service, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		categoryID, err := uuid.Parse(chi.URLParam(r, "category_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid category ID")
			return
		}

		cat, err := svc.Remove(ctx, categoryID, userID)
		if err != nil {
			writeCategoryError(w, r, err, "delete")
			return
		}

		if err := auditor.LogCategoryDeleted(ctx, cat.TripID, userID, cat.ID); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"deleted": true,
		})
	}
}
