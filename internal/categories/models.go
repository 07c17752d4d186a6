package categories

import (
	"time"

	"github.com/google/uuid"
)

// Category is a per-trip label locations can be grouped under
type Category struct {
	ID        uuid.UUID `db:"id"`
	TripID    uuid.UUID `db:"trip_id"`
	Name      string    `db:"name"`
	IconName  string    `db:"icon_name"`
	Color     string    `db:"color"`
	SortOrder int       `db:"sort_order"`
	IsDefault bool      `db:"is_default"`
	CreatedBy uuid.UUID `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// CreateCommand carries the fields for a new category
type CreateCommand struct {
	Name     string `json:"name"`
	IconName string `json:"icon_name"`
	Color    string `json:"color"`
}

// UpdateCommand is a merge patch for a category; nil fields are unchanged
type UpdateCommand struct {
	Name      *string `json:"name"`
	IconName  *string `json:"icon_name"`
	Color     *string `json:"color"`
	SortOrder *int    `json:"sort_order"`
}
