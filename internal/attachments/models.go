package attachments

import (
	"time"

	"github.com/google/uuid"
)

// Attachment is a file attached to a location. The payload lives in the blob
// store under FileID; this row carries the metadata.
type Attachment struct {
	ID         uuid.UUID `db:"id"`
	LocationID uuid.UUID `db:"location_id"`
	FileName   string    `db:"file_name"`
	FileID     string    `db:"file_id"`
	MimeType   string    `db:"mime_type"`
	UploadedAt time.Time `db:"uploaded_at"`
}
