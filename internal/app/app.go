// Package app assembles the services and HTTP surface of the Tripper API.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tripper-app/tripper/internal/access"
	"github.com/tripper-app/tripper/internal/attachments"
	"github.com/tripper-app/tripper/internal/audit"
	"github.com/tripper-app/tripper/internal/blob"
	"github.com/tripper-app/tripper/internal/categories"
	"github.com/tripper-app/tripper/internal/config"
	"github.com/tripper-app/tripper/internal/locations"
	"github.com/tripper-app/tripper/internal/members"
	"github.com/tripper-app/tripper/internal/places"
	"github.com/tripper-app/tripper/internal/retention"
	"github.com/tripper-app/tripper/internal/trips"
)

// App holds the wired services and the router
type App struct {
	cfg    *config.Config
	pool   *pgxpool.Pool
	router http.Handler

	placesCache *places.Cache

	// Sweeper runs the scheduled retention jobs
	Sweeper *retention.Sweeper
}

// New wires every service onto the shared pool and builds the router
func New(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (*App, error) {
	checker := access.NewChecker(pool)
	auditor := audit.NewWriter(pool)

	blobs, err := blob.NewStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob store: %w", err)
	}

	attachmentSvc := attachments.NewService(pool, checker, blobs)
	locationSvc := locations.NewService(pool, checker, attachmentSvc, blobs)
	tripSvc := trips.NewService(pool, checker, locationSvc)
	categorySvc := categories.NewService(pool, checker)
	memberSvc := members.NewService(pool, checker)

	placesClient := places.NewClient(cfg.FoursquareAPIKey, time.Duration(cfg.FoursquareTimeoutMS)*time.Millisecond)
	placesCache := places.NewCache(cfg.RedisAddr, time.Duration(cfg.PlacesCacheTTLSecs)*time.Second)

	a := &App{
		cfg:         cfg,
		pool:        pool,
		placesCache: placesCache,
		Sweeper:     retention.NewSweeper(pool),
	}

	a.router = a.buildRouter(routerDeps{
		auditor:       auditor,
		tripSvc:       tripSvc,
		locationSvc:   locationSvc,
		categorySvc:   categorySvc,
		memberSvc:     memberSvc,
		attachmentSvc: attachmentSvc,
		placesClient:  placesClient,
		placesCache:   placesCache,
	})

	return a, nil
}

// Router returns the HTTP handler
func (a *App) Router() http.Handler {
	return a.router
}

// Close releases resources held by the app (not the pool, which the caller
// owns)
func (a *App) Close() error {
	return a.placesCache.Close()
}
