package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the health check and all API routes on r.
// apiMiddleware (e.g. the rate limiter) applies to /api only, so health
// probes are never throttled.
func MountRoutes(r chi.Router, h *Handlers, apiMiddleware ...func(http.Handler) http.Handler) {
	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(apiMiddleware...)

		// News proxy
		r.Get("/news", h.GetNews)
		r.Get("/everything", h.GetEverything)
		r.Get("/top-headlines", h.GetTopHeadlines)

		// Image relay
		r.Get("/proxy-image", h.ProxyImage)

		// Contact form
		r.Post("/contact", h.SubmitContact)

		// Demo profile
		r.Get("/profile", h.GetProfile)
		r.Put("/profile", h.UpdateProfile)

		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusNotFound, "not found")
		})
	})
}

// MountStatic serves the single-page client from dir for every path not
// claimed by MountRoutes.
func MountStatic(r chi.Router, dir string) {
	spa := SPAHandler(dir)
	r.Get("/*", spa.ServeHTTP)
	r.Head("/*", spa.ServeHTTP)
}
