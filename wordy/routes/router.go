package routes

import (
	"net/http"
	"time"
	"wordy/wordy/config"
	"wordy/wordy/controllers"
	"wordy/wordy/middlewares"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

type Controllers struct {
	Health     *controllers.HealthController
	Auth       *controllers.AuthController
	User       *controllers.UserController
	Document   *controllers.DocumentController
	Attachment *controllers.AttachmentController
	Revision   *controllers.RevisionController
	Favorite   *controllers.FavoriteController
	Settings   *controllers.SettingsController
	Realtime   *controllers.RealtimeController
}

// NewRouter mounts every resource. Only the REST routes run under the
// request timeout; /ws connections live as long as the client stays.
func NewRouter(cfg config.Config, c Controllers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	}).Handler)

	r.Mount("/ws", RealtimeRoutes(c.Realtime, cfg))

	r.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(60 * time.Second))

		api.Mount("/health", HealthRoutes(c.Health))
		api.Mount("/auth", AuthRoutes(c.Auth, cfg))
		api.Mount("/users", UserRoutes(c.User, cfg))
		api.Mount("/documents", DocumentRoutes(c.Document, c.Attachment, cfg))
		api.Mount("/revisions", RevisionRoutes(c.Revision, cfg))
		api.Mount("/favorites", FavoriteRoutes(c.Favorite, cfg))
		api.Mount("/settings", SettingsRoutes(c.Settings, cfg))
	})
	return r
}
