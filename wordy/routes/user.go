package routes

import (
	"net/http"
	"wordy/wordy/config"
	"wordy/wordy/controllers"
	"wordy/wordy/middlewares"
	"wordy/wordy/types"
	httputils "wordy/wordy/utils/http"

	"github.com/go-chi/chi/v5"
)

func UserRoutes(ctrl *controllers.UserController, cfg config.Config) chi.Router {
	r := chi.NewRouter()

	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		gr.Get("/me", handleJSON(cfg, func(w http.ResponseWriter, r *http.Request) (any, int, error) {
			id, err := currentUser(r)
			if err != nil {
				return nil, 0, err
			}
			user, err := ctrl.GetUser(r.Context(), id)
			if err != nil {
				return nil, 0, err
			}
			return user, http.StatusOK, nil
		}))

		gr.Put("/me", handleJSON(cfg, func(w http.ResponseWriter, r *http.Request) (any, int, error) {
			id, err := currentUser(r)
			if err != nil {
				return nil, 0, err
			}
			var req types.UpdateUserRequest
			if err := httputils.ParseJSON(w, r, &req); err != nil {
				return nil, 0, err
			}
			user, err := ctrl.UpdateUser(r.Context(), id, req)
			if err != nil {
				return nil, 0, err
			}
			return user, http.StatusOK, nil
		}))
	})

	return r
}
