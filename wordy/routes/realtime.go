package routes

import (
	"wordy/wordy/config"
	"wordy/wordy/controllers"
	"wordy/wordy/middlewares"

	"github.com/go-chi/chi/v5"
)

// RealtimeRoutes must be mounted outside any request timeout middleware.
func RealtimeRoutes(ctrl *controllers.RealtimeController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.With(middlewares.SocketAuthMiddleware(cfg)).Get("/", ctrl.ServeWS)
	return r
}
