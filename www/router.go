package www

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"

	"hairops/engine"
)

type Handlers struct {
	engine   *engine.Engine
	sessions *sessions.CookieStore
	auth     Authorizer
	eventHub *EventHub
}

func NewRouter(eng *engine.Engine) (http.Handler, func()) {
	hub := NewEventHub()
	hub.Start()
	hub.SetupEngineListeners(eng)

	sessionStore := newSessionStore(eng.AppConfig().Web.SessionSecret)
	h := &Handlers{
		engine:   eng,
		sessions: sessionStore,
		auth:     &sessionAuthorizer{sessions: sessionStore},
		eventHub: hub,
	}

	h.ensureDefaultAdmin(eng.DB())

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// SSE
	r.Get("/events", hub.SSEHandler)

	// Auth
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)

	// Public API: reads, plus the optimizer callback which authenticates
	// by nothing more than knowing the job id (it is a machine peer on
	// the internal network, same trust model as the outbound call).
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.apiHealthCheck)
		r.Get("/stats", h.apiStats)

		r.Get("/zones", h.apiListZones)
		r.Get("/providers", h.apiListProviders)
		r.Get("/clients", h.apiListClients)
		r.Get("/vehicles", h.apiListVehicles)
		r.Get("/zones/{id}", h.apiGetZone)
		r.Get("/providers/{id}", h.apiGetProvider)
		r.Get("/clients/{id}", h.apiGetClient)
		r.Get("/vehicles/{id}", h.apiGetVehicle)

		r.Get("/jobs", h.apiListJobs)
		r.Get("/jobs/{id}", h.apiGetJob)
		r.Get("/jobs/{id}/history", h.apiJobHistory)
		r.Get("/jobs/{id}/solutions", h.apiJobSolutions)
		r.Get("/solutions/{id}", h.apiGetSolution)

		r.Post("/jobs/{id}/solution", h.apiSolutionCallback)
	})

	// Protected API: writes
	r.Group(func(r chi.Router) {
		r.Use(h.requireCap(CapManageEntities))

		r.Post("/api/zones", h.apiCreateZone)
		r.Put("/api/zones/{id}", h.apiUpdateZone)
		r.Delete("/api/zones/{id}", h.apiDeleteZone)

		r.Post("/api/providers", h.apiCreateProvider)
		r.Put("/api/providers/{id}", h.apiUpdateProvider)
		r.Delete("/api/providers/{id}", h.apiDeleteProvider)

		r.Post("/api/clients", h.apiCreateClient)
		r.Put("/api/clients/{id}", h.apiUpdateClient)
		r.Delete("/api/clients/{id}", h.apiDeleteClient)

		r.Post("/api/vehicles", h.apiCreateVehicle)
		r.Put("/api/vehicles/{id}", h.apiUpdateVehicle)
		r.Delete("/api/vehicles/{id}", h.apiDeleteVehicle)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.requireCap(CapManageJobs))

		r.Post("/api/jobs", h.apiCreateJob)
		r.Post("/api/jobs/{id}/dispatch", h.apiDispatchJob)
		r.Post("/api/jobs/{id}/reject", h.apiRejectJob)
		r.Delete("/api/jobs/{id}", h.apiDeleteJob)

		r.Put("/api/visits/{id}/completed", h.apiSetVisitCompleted)

		r.Get("/api/notifications", h.apiListNotifications)
		r.Delete("/api/notifications", h.apiClearNotifications)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.requireCap(CapViewAudit))

		r.Get("/api/audit", h.apiListAudit)
	})

	stopFn := func() {
		hub.Stop()
	}

	return r, stopFn
}
