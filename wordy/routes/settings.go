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

func SettingsRoutes(ctrl *controllers.SettingsController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		gr.Get("/editor", handleJSON(cfg, func(w http.ResponseWriter, r *http.Request) (any, int, error) {
			userID, err := currentUser(r)
			if err != nil {
				return nil, 0, err
			}
			s, err := ctrl.GetEditorSettings(r.Context(), userID)
			if err != nil {
				return nil, 0, err
			}
			return s, http.StatusOK, nil
		}))

		gr.Put("/editor", handleJSON(cfg, func(w http.ResponseWriter, r *http.Request) (any, int, error) {
			userID, err := currentUser(r)
			if err != nil {
				return nil, 0, err
			}
			var req types.UpdateEditorSettingsRequest
			if err := httputils.ParseJSON(w, r, &req); err != nil {
				return nil, 0, err
			}
			s, err := ctrl.UpdateEditorSettings(r.Context(), userID, req)
			if err != nil {
				return nil, 0, err
			}
			return s, http.StatusOK, nil
		}))
	})
	return r
}
