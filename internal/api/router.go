// Package api wires the HTTP surface: router, middleware chain, and the
// route table.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/courtesyinspect/courtesyinspect/internal/api/handlers"
	"github.com/courtesyinspect/courtesyinspect/internal/api/middleware"
	"github.com/courtesyinspect/courtesyinspect/internal/config"
)

// NewRouter creates the HTTP router with all API routes.
func NewRouter(cfg *config.Config, h *handlers.Handlers, authn *middleware.Authenticator) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.Origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Uploaded photos are served straight off disk.
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadPath))))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Auth
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/refresh", h.Refresh)
			r.Post("/logout", h.Logout)
			r.Group(func(r chi.Router) {
				r.Use(authn.Handler)
				r.Get("/me", h.Me)
				r.Post("/change-password", h.ChangePassword)
			})
		})

		// Inspections
		r.Route("/inspections", func(r chi.Router) {
			r.Use(authn.Handler)
			r.Post("/", h.CreateInspection)
			r.Get("/", h.ListInspections)
			r.Get("/shop/{shopID}", h.ListShopInspections)
			r.Route("/{inspectionID}", func(r chi.Router) {
				r.Get("/", h.GetInspection)
				r.Put("/", h.UpdateInspection)
				r.Route("/photos", func(r chi.Router) {
					r.Get("/", h.ListPhotos)
					r.Post("/", h.UploadPhoto)
				})
				r.Route("/items", func(r chi.Router) {
					r.Get("/", h.ListItems)
					r.Post("/", h.AddItem)
					r.Post("/initialize", h.InitializeItems)
					r.Patch("/bulk-update", h.BulkUpdateItems)
					r.Put("/{itemID}", h.UpdateItem)
					r.Delete("/{itemID}", h.DeleteItem)
				})
			})
		})

		// Voice findings
		r.Group(func(r chi.Router) {
			r.Use(authn.Handler)
			r.Post("/voice/parse", h.ParseVoice)
		})

		// SMS
		r.Group(func(r chi.Router) {
			r.Use(authn.Handler)
			r.Get("/sms/templates", h.ListSMSTemplates)
			r.Post("/sms/preview", h.PreviewSMS)
		})

		// Customer portal
		r.Route("/portal", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authn.Handler)
				r.Post("/generate", h.GeneratePortalToken)
				r.Post("/revoke", h.RevokePortalTokens)
			})
			r.Get("/{token}", h.ViewPortal)
		})
	})

	return r
}
