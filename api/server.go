/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for frontend

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Actor-ID"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Property catalog
		r.Route("/properties", func(r chi.Router) {
			r.Get("/", h.ListProperties)
			r.Post("/", h.RegisterProperty)
			r.Delete("/{key}", h.DeleteProperty)
		})

		// Resource types
		r.Route("/types", func(r chi.Router) {
			r.Get("/", h.ListTypes)
			r.Post("/", h.CreateType)
			r.Put("/{id}", h.UpdateType)
			r.Delete("/{id}", h.DeleteType)
			r.Get("/{id}/categories", h.ListTypeCategories)
		})

		// Categories
		r.Route("/categories", func(r chi.Router) {
			r.Post("/", h.CreateCategory)
			r.Put("/{id}", h.RenameCategory)
			r.Delete("/{id}", h.DeleteCategory)
		})

		// Resources and their items
		r.Route("/resources", func(r chi.Router) {
			r.Get("/", h.ListResources)
			r.Post("/", h.CreateResource)
			r.Get("/{id}", h.GetResource)
			r.Put("/{id}", h.UpdateResource)
			r.Delete("/{id}", h.DeleteResource)
			r.Get("/{id}/items", h.ListItems)
			r.Post("/{id}/items", h.CreateItem)
			r.Get("/{id}/assignments", h.ListResourceAssignments)
		})

		// Items
		r.Route("/items", func(r chi.Router) {
			r.Get("/{id}", h.GetItem)
			r.Put("/{id}", h.UpdateItem)
			r.Delete("/{id}", h.DeleteItem)
			r.Get("/{id}/can-delete", h.CanDeleteItem)
		})

		// Assignments
		r.Route("/assignments", func(r chi.Router) {
			r.Post("/", h.CreateAssignment)
			r.Post("/validate", h.ValidateAssignment)
			r.Get("/{id}", h.GetAssignment)
			r.Put("/{id}/status", h.UpdateAssignmentStatus)
			r.Post("/{id}/revoke", h.RevokeAssignment)
		})

		// Employees
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/assignments", h.ListEmployeeAssignments)
		})
	})

	return r
}
