// Package retention sweeps out expired rows on a schedule.
package retention

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Sweeper deletes expired data
type Sweeper struct {
	pool *pgxpool.Pool
}

// NewSweeper creates a new sweeper
func NewSweeper(pool *pgxpool.Pool) *Sweeper {
	return &Sweeper{pool: pool}
}

// PurgeExpiredInvites deletes trip invites whose expiry has passed. Invites
// are also treated as dead at read/accept time, so the sweep only reclaims
// rows.
func (s *Sweeper) PurgeExpiredInvites(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM trip_invites WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired invites: %w", err)
	}

	if tag.RowsAffected() > 0 {
		log.Info().Int64("count", tag.RowsAffected()).Msg("Purged expired invites")
	}

	return tag.RowsAffected(), nil
}
