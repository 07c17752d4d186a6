package trips

import (
	"time"

	"github.com/google/uuid"
	"github.com/tripper-app/tripper/internal/access"
)

// Trip represents a trip owned by one user and shared with collaborators
type Trip struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	OwnerID     uuid.UUID `db:"owner_id"`
	DefaultLat  *float64  `db:"default_lat"`
	DefaultLng  *float64  `db:"default_lng"`
	DefaultZoom *int      `db:"default_zoom"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// TripWithRole combines trip information with the caller's role
type TripWithRole struct {
	Trip
	Role access.Role `db:"role"`
}

// UpdateCommand is a merge patch for a trip. Nil fields are left unchanged.
type UpdateCommand struct {
	Name        *string  `json:"name"`
	DefaultLat  *float64 `json:"default_lat"`
	DefaultLng  *float64 `json:"default_lng"`
	DefaultZoom *int     `json:"default_zoom"`
}
