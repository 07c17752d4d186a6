package attachments

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tripper-app/tripper/internal/access"
	"github.com/tripper-app/tripper/internal/apperrors"
	"github.com/tripper-app/tripper/internal/audit"
	"github.com/tripper-app/tripper/internal/auth"
)

// AttachmentResponse is the JSON shape of attachment metadata
type AttachmentResponse struct {
	ID         uuid.UUID `json:"id"`
	LocationID uuid.UUID `json:"location_id"`
	FileName   string    `json:"file_name"`
	MimeType   string    `json:"mime_type"`
	UploadedAt string    `json:"uploaded_at"`
}

func toAttachmentResponse(a *Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:         a.ID,
		LocationID: a.LocationID,
		FileName:   a.FileName,
		MimeType:   a.MimeType,
		UploadedAt: a.UploadedAt.Format(time.RFC3339),
	}
}

func writeAttachmentError(w http.ResponseWriter, r *http.Request, err error, action string) {
	if errors.Is(err, ErrAttachmentNotFound) {
		apperrors.WriteNotFound(w, r, "Attachment not found")
		return
	}
	if errors.Is(err, ErrLocationNotFound) {
		apperrors.WriteNotFound(w, r, "Location not found")
		return
	}
	if errors.Is(err, access.ErrNoAccess) {
		apperrors.WriteForbidden(w, r, "No access to this trip")
		return
	}
	log.Error().Err(err).Msgf("Failed to %s attachment", action)
	apperrors.WriteInternalError(w, r, "Failed to "+action+" attachment")
}

// HandleCount handles GET /api/v1/locations/{location_id}/attachments/count
func HandleCount(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		locationID, err := uuid.Parse(chi.URLParam(r, "location_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid location ID")
			return
		}

		count, err := svc.CountByLocation(ctx, locationID, userID)
		if err != nil {
			writeAttachmentError(w, r, err, "count")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"count": count,
		})
	}
}

// HandleList handles GET /api/v1/locations/{location_id}/attachments
func HandleList(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		locationID, err := uuid.Parse(chi.URLParam(r, "location_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid location ID")
			return
		}

		list, err := svc.ListByLocation(ctx, locationID, userID)
		if err != nil {
			writeAttachmentError(w, r, err, "list")
			return
		}

		resp := make([]AttachmentResponse, len(list))
		for i := range list {
			resp[i] = toAttachmentResponse(&list[i])
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"attachments": resp,
		})
	}
}

// HandleUpload handles POST /api/v1/locations/{location_id}/attachments.
// Expects a multipart form with a "file" part; maxBytes caps the whole body.
func HandleUpload(svc *Service, auditor *audit.Writer, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		locationID, err := uuid.Parse(chi.URLParam(r, "location_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid location ID")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				apperrors.WritePayloadTooLarge(w, r, "Attachment exceeds the size limit")
				return
			}
			apperrors.WriteBadRequest(w, r, "Invalid multipart body")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Missing file part")
			return
		}
		defer file.Close()

		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
			mimeType = parsed
		}

		a, err := svc.Upload(ctx, locationID, userID, header.Filename, mimeType, file)
		if err != nil {
			writeAttachmentError(w, r, err, "upload")
			return
		}

		tripID, err := svc.resolveLocationTrip(ctx, locationID)
		if err == nil {
			if err := auditor.LogAttachmentUploaded(ctx, tripID, userID, a.ID, a.FileName); err != nil {
				log.Error().Err(err).Msg("Failed to log audit event")
			}
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"attachment": toAttachmentResponse(a),
		})
	}
}

// HandleDownload handles GET /api/v1/attachments/{attachment_id}/download
func HandleDownload(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		attachmentID, err := uuid.Parse(chi.URLParam(r, "attachment_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid attachment ID")
			return
		}

		a, body, err := svc.Download(ctx, attachmentID, userID)
		if err != nil {
			writeAttachmentError(w, r, err, "download")
			return
		}
		defer body.Close()

		w.Header().Set("Content-Type", a.MimeType)
		w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(a.FileName))
		w.WriteHeader(http.StatusOK)

		if _, err := io.Copy(w, body); err != nil {
			log.Error().Err(err).Str("attachment_id", a.ID.String()).Msg("Failed to stream attachment")
		}
	}
}

// HandleDelete handles DELETE /api/v1/attachments/{attachment_id}
func HandleDelete(svc *Service, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		attachmentID, err := uuid.Parse(chi.URLParam(r, "attachment_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid attachment ID")
			return
		}

		a, tripID, err := svc.Remove(ctx, attachmentID, userID)
		if err != nil {
			writeAttachmentError(w, r, err, "delete")
			return
		}

		if err := auditor.LogAttachmentDeleted(ctx, tripID, userID, a.ID); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"deleted": true,
		})
	}
}
