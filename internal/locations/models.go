package locations

import (
	"time"

	"github.com/google/uuid"
)

// LocationTypeAccommodation marks locations that span a date range
// (check-in to check-out) rather than a single instant. Other legacy type
// values ("attraction", "restaurant", ...) carry no special behavior.
const LocationTypeAccommodation = "accommodation"

// Location represents a point of interest placed on a trip's map/calendar.
// DateTime and EndDateTime are timezone-naive "YYYY-MM-DDTHH:mm" strings;
// nil means unscheduled.
type Location struct {
	ID             uuid.UUID     `db:"id"`
	TripID         uuid.UUID     `db:"trip_id"`
	Name           string        `db:"name"`
	Latitude       float64       `db:"latitude"`
	Longitude      float64       `db:"longitude"`
	DateTime       *string       `db:"date_time"`
	EndDateTime    *string       `db:"end_date_time"`
	LocationType   *string       `db:"location_type"`
	CategoryID     uuid.NullUUID `db:"category_id"`
	Notes          string        `db:"notes"`
	Address        string        `db:"address"`
	SortOrder      int           `db:"sort_order"`
	AttachmentID   *string       `db:"attachment_id"`
	AttachmentName *string       `db:"attachment_name"`
	CreatedBy      uuid.UUID     `db:"created_by"`
	CreatedAt      time.Time     `db:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at"`
}

// CreateCommand carries the fields for a new location
type CreateCommand struct {
	Name         string     `json:"name"`
	Latitude     float64    `json:"latitude"`
	Longitude    float64    `json:"longitude"`
	DateTime     *string    `json:"date_time"`
	EndDateTime  *string    `json:"end_date_time"`
	LocationType *string    `json:"location_type"`
	CategoryID   *uuid.UUID `json:"category_id"`
	Notes        string     `json:"notes"`
	Address      string     `json:"address"`
}

// UpdateCommand is a merge patch for a location. Nil fields are left
// unchanged. For DateTime and EndDateTime an explicit empty string clears the
// field; this is distinct from omitting it and must be preserved (the UI's
// "clear date" action depends on it).
type UpdateCommand struct {
	Name         *string    `json:"name"`
	Latitude     *float64   `json:"latitude"`
	Longitude    *float64   `json:"longitude"`
	DateTime     *string    `json:"date_time"`
	EndDateTime  *string    `json:"end_date_time"`
	LocationType *string    `json:"location_type"`
	CategoryID   *uuid.UUID `json:"category_id"`
	Notes        *string    `json:"notes"`
	Address      *string    `json:"address"`
}

// ReorderEntry assigns a new sort order to one location
type ReorderEntry struct {
	ID        uuid.UUID `json:"id"`
	SortOrder int       `json:"sort_order"`
}
