package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tixlabs/tix-server/config"
)

// NewRouter wires the full HTTP surface. Event listing and reads are
// public; everything that mutates or leaks per-user data sits behind the
// bearer-token middleware.
func NewRouter(h *Handler, corsCfg config.CORSConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(CORS(corsCfg))

	r.Get("/health", h.HealthCheck)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/google", h.GoogleLogin)
	})

	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.ListEvents)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate, h.RequireEventManager)
			r.Post("/", h.CreateEvent)
			// Registered before /{id} so chi does not treat "organizer"
			// as an event id.
			r.Get("/organizer", h.ListOrganizerEvents)
			r.Put("/{id}", h.UpdateEvent)
			r.Delete("/{id}", h.DeleteEvent)
			r.Get("/{id}/analytics", h.EventAnalytics)
		})

		r.Get("/{id}", h.GetEvent)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)
			r.Post("/{id}/waitlist", h.JoinWaitlist)
		})
	})

	r.Route("/tickets", func(r chi.Router) {
		r.Use(h.Authenticate)
		r.Get("/", h.ListMyTickets)
		r.Post("/purchase", h.PurchaseTicket)
		// Door staff scan with regular accounts, so verify is open to any
		// authenticated user.
		r.Post("/verify", h.VerifyTicket)
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(h.Authenticate)
		r.Get("/me", h.Me)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAdmin)
			r.Get("/", h.ListUsers)
			r.Delete("/{id}", h.DeleteUser)
		})
	})

	return r
}
