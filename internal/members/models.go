package members

import (
	"time"

	"github.com/google/uuid"
	"github.com/tripper-app/tripper/internal/access"
)

// Member is a trip membership row joined with the member's email
type Member struct {
	ID        uuid.UUID   `db:"id"`
	TripID    uuid.UUID   `db:"trip_id"`
	UserID    uuid.UUID   `db:"user_id"`
	Email     string      `db:"email"`
	Role      access.Role `db:"role"`
	InvitedBy *uuid.UUID  `db:"invited_by"`
	InvitedAt time.Time   `db:"invited_at"`
}

// Invite is a pending invitation for an email address that may not yet have
// an account
type Invite struct {
	ID        uuid.UUID `db:"id"`
	TripID    uuid.UUID `db:"trip_id"`
	Email     string    `db:"email"`
	Role      string    `db:"role"`
	InvitedBy uuid.UUID `db:"invited_by"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

// IncomingInvite is an invite enriched for the invitee's inbox view
type IncomingInvite struct {
	Invite
	TripName     string `db:"trip_name"`
	InviterEmail string `db:"inviter_email"`
}

// InviteStatus distinguishes the two outcomes of inviting an email
type InviteStatus string

const (
	// StatusAdded means the email belonged to an existing account and a
	// membership row was created directly.
	StatusAdded InviteStatus = "added"
	// StatusInvited means a pending invite was stored for later acceptance
	StatusInvited InviteStatus = "invited"
)

// InviteResult reports what inviting an email produced
type InviteResult struct {
	Status InviteStatus
	// Invite is set when Status is StatusInvited
	Invite *Invite
	// MemberUserID is set when Status is StatusAdded
	MemberUserID uuid.UUID
}
