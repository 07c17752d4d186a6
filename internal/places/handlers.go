package places

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tripper-app/tripper/internal/apperrors"
)

const (
	minQueryLen  = 2
	maxQueryLen  = 200
	defaultLimit = 5
	maxLimit     = 50
)

// HandleSearch handles GET /api/foursquare/places. The upstream response
// body is passed through verbatim on a hit or a successful call.
func HandleSearch(client *Client, cache *Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		query := strings.TrimSpace(r.URL.Query().Get("query"))
		if len(query) < minQueryLen || len(query) > maxQueryLen {
			apperrors.WriteBadRequest(w, r, "query must be between 2 and 200 characters")
			return
		}

		limit := defaultLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				apperrors.WriteBadRequest(w, r, "limit must be an integer")
				return
			}
			limit = parsed
		}
		if limit < 1 {
			limit = 1
		}
		if limit > maxLimit {
			limit = maxLimit
		}

		if !client.Configured() {
			apperrors.WriteInternalError(w, r, "Places search is not configured")
			return
		}

		key := Key(query, limit)
		if body, ok := cache.Get(ctx, key); ok {
			writePassthrough(w, body)
			return
		}

		body, err := client.Search(ctx, query, limit)
		if err != nil {
			if errors.Is(err, ErrUpstreamTimeout) {
				apperrors.WriteGatewayTimeout(w, r, "Places search timed out")
				return
			}
			log.Error().Err(err).Str("query", query).Msg("Places search failed")
			apperrors.WriteInternalError(w, r, "Places search failed")
			return
		}

		cache.Set(ctx, key, body)
		writePassthrough(w, body)
	}
}

func writePassthrough(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
