package web

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// NewServer wires the routes:
//
//	GET  /
//	POST /api/auth/login, /api/auth/generate-token, /api/auth/logout
//	POST /api/auth/verify                      (bearer)
//	GET  /api/properties, /api/properties/{agentId}  (bearer)
//	PUT  /api/properties/{propertyId}          (bearer)
//	GET  /api/contracts/{propertyId}           (bearer)
func NewServer(h *Handler, logger *slog.Logger, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(LoggerMiddleware(logger), Recoverer(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", TraceHeader},
		ExposedHeaders: []string{TraceHeader},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, fail("Route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, fail("Route not found"))
	})

	r.Get("/", h.Root)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Post("/generate-token", h.GenerateToken)
			r.Post("/logout", h.Logout)
			r.With(Authenticate(h.tokens)).Post("/verify", h.Verify)
		})

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(h.tokens))
			r.Get("/properties", h.ListProperties)
			r.Get("/properties/{agentId}", h.ListByAgent)
			r.Put("/properties/{propertyId}", h.UpdateProperty)
			r.Get("/contracts/{propertyId}", h.ListContracts)
		})
	})

	return r
}
