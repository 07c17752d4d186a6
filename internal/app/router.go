package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/tripper-app/tripper/internal/apperrors"
	"github.com/tripper-app/tripper/internal/attachments"
	"github.com/tripper-app/tripper/internal/audit"
	"github.com/tripper-app/tripper/internal/auth"
	"github.com/tripper-app/tripper/internal/categories"
	"github.com/tripper-app/tripper/internal/locations"
	"github.com/tripper-app/tripper/internal/members"
	"github.com/tripper-app/tripper/internal/places"
	"github.com/tripper-app/tripper/internal/trips"
)

type routerDeps struct {
	auditor       *audit.Writer
	tripSvc       *trips.Service
	locationSvc   *locations.Service
	categorySvc   *categories.Service
	memberSvc     *members.Service
	attachmentSvc *attachments.Service
	placesClient  *places.Client
	placesCache   *places.Cache
}

func (a *App) buildRouter(deps routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(apperrors.RequestIDMiddleware)
	r.Use(RequestLogging)
	r.Use(Recovery)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(auth.SessionMiddleware(a.cfg.JWTSecret))
	r.Use(CSRFProtect)

	r.Get("/healthz", a.handleHealthz)
	r.Get("/readyz", a.handleReadyz)

	processInvites := auth.InviteProcessor(deps.memberSvc.ProcessInvitesForUser)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(httprate.LimitByIP(a.cfg.LoginRateLimitRPM, time.Minute))
				r.Post("/signup", auth.HandleSignup(a.pool, deps.auditor, a.cfg.JWTSecret, a.cfg.SessionDays, !a.cfg.IsDev(), processInvites))
				r.Post("/login", auth.HandleLogin(a.pool, deps.auditor, a.cfg.JWTSecret, a.cfg.SessionDays, !a.cfg.IsDev(), processInvites))
			})
			r.Post("/logout", auth.HandleLogout())
			r.With(auth.RequireAuth).Get("/me", auth.HandleMe())
		})

		r.Route("/trips", func(r chi.Router) {
			// Unauthenticated callers get an empty list, not a 401.
			r.Get("/", trips.HandleList(deps.tripSvc))
			r.With(auth.RequireAuth).Post("/", trips.HandleCreate(deps.tripSvc, deps.auditor))

			r.Route("/{trip_id}", func(r chi.Router) {
				r.Use(auth.RequireAuth)

				r.Get("/", trips.HandleGet(deps.tripSvc))
				r.Patch("/", trips.HandleUpdate(deps.tripSvc))
				r.Delete("/", trips.HandleDelete(deps.tripSvc, deps.auditor))

				r.Route("/locations", func(r chi.Router) {
					r.Get("/", locations.HandleListByTrip(deps.locationSvc))
					r.Get("/dates", locations.HandleUniqueDates(deps.locationSvc))
					r.Post("/", locations.HandleCreate(deps.locationSvc, deps.auditor))
					r.Put("/reorder", locations.HandleReorder(deps.locationSvc))
				})

				r.Route("/categories", func(r chi.Router) {
					r.Get("/", categories.HandleListByTrip(deps.categorySvc))
					r.Post("/", categories.HandleCreate(deps.categorySvc, deps.auditor))
				})

				r.Get("/members", members.HandleListMembers(deps.memberSvc))
				r.Delete("/members/{member_id}", members.HandleRemoveMember(deps.memberSvc, deps.auditor))
				r.Post("/leave", members.HandleLeaveTrip(deps.memberSvc, deps.auditor))

				r.Post("/invites", members.HandleInvite(deps.memberSvc, deps.auditor))
				r.Get("/invites", members.HandleListInvites(deps.memberSvc))
			})
		})

		r.Route("/locations/{location_id}", func(r chi.Router) {
			r.Use(auth.RequireAuth)

			r.Get("/", locations.HandleGet(deps.locationSvc))
			r.Patch("/", locations.HandleUpdate(deps.locationSvc))
			r.Delete("/", locations.HandleDelete(deps.locationSvc, deps.auditor))

			r.Route("/attachments", func(r chi.Router) {
				r.Get("/", attachments.HandleList(deps.attachmentSvc))
				r.Get("/count", attachments.HandleCount(deps.attachmentSvc))
				r.Post("/", attachments.HandleUpload(deps.attachmentSvc, deps.auditor, a.cfg.MaxAttachmentBytes))
			})
		})

		r.Route("/categories/{category_id}", func(r chi.Router) {
			r.Use(auth.RequireAuth)

			r.Patch("/", categories.HandleUpdate(deps.categorySvc))
			r.Delete("/", categories.HandleDelete(deps.categorySvc, deps.auditor))
		})

		r.Route("/invites", func(r chi.Router) {
			// Unauthenticated callers get an empty list, not a 401.
			r.Get("/", members.HandleMyInvites(deps.memberSvc))

			r.Route("/{invite_id}", func(r chi.Router) {
				r.Use(auth.RequireAuth)

				r.Post("/accept", members.HandleAcceptInvite(deps.memberSvc, deps.auditor))
				r.Post("/decline", members.HandleDeclineInvite(deps.memberSvc, deps.auditor))
				r.Delete("/", members.HandleCancelInvite(deps.memberSvc, deps.auditor))
			})
		})

		r.Route("/attachments/{attachment_id}", func(r chi.Router) {
			r.Use(auth.RequireAuth)

			r.Get("/download", attachments.HandleDownload(deps.attachmentSvc))
			r.Delete("/", attachments.HandleDelete(deps.attachmentSvc, deps.auditor))
		})
	})

	r.Get("/api/foursquare/places", places.HandleSearch(deps.placesClient, deps.placesCache))

	return r
}

func (a *App) handleHealthz(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{"status": "ok"})
}

func (a *App) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := a.pool.Ping(r.Context()); err != nil {
		apperrors.WriteServiceUnavailable(w, r, "Database not reachable")
		return
	}
	apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{"status": "ready"})
}
