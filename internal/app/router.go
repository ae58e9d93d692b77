// Package app wires storage, services and the HTTP router together.
package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"relocate/internal/config"
	"relocate/internal/handlers"
)

// InitMiddleware - initializes middleware handlers for the router.
func InitMiddleware(r *chi.Mux, conf *config.Config, ctrl *handlers.Controller) {
	r.Use(ctrl.PanicRecoveryMiddleware)
	r.Use(middleware.RealIP)
	if conf.Timeout > 0 {
		r.Use(middleware.Timeout(time.Duration(conf.Timeout) * time.Second))
	}
	r.Use(ctrl.LoggingMiddleware)
	r.Use(ctrl.GzipEncodeMiddleware)
	r.Use(ctrl.GzipDecodeMiddleware)
}

// Routing - registers routes for the relocate controller.
// Registered routes:
//   - GET "/": relocation form through ctrl.RelocateForm().
//   - POST "/relocate": runs the relocation submitted by the form through ctrl.Relocate().
//   - POST "/api/relocate": JSON relocation API through ctrl.APIRelocate().
//   - GET "/ping": database availability check through ctrl.PingHandler().
//   - POST "/login", "/logout": session management.
//
// All but "/ping", "/login" and "/logout" require a user allowed to manage options.
func Routing(r *chi.Mux, ctrl *handlers.Controller) {
	r.Get("/ping", ctrl.PingHandler())
	r.Post("/login", ctrl.Login())
	r.Post("/logout", ctrl.Logout())

	r.Group(func(r chi.Router) {
		r.Use(ctrl.Authorize)
		r.Get("/", ctrl.RelocateForm())
		r.Post("/relocate", ctrl.Relocate())
		r.Post("/api/relocate", ctrl.APIRelocate())
	})
}

// NewRouter builds the router with middleware and routes registered.
func NewRouter(conf *config.Config, ctrl *handlers.Controller) http.Handler {
	r := chi.NewRouter()
	InitMiddleware(r, conf, ctrl)
	Routing(r, ctrl)
	return r
}
