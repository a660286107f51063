package routes

import (
	"net/http"
	"wordy/wordy/config"
	"wordy/wordy/controllers"
	"wordy/wordy/types"
	httputils "wordy/wordy/utils/http"

	"github.com/go-chi/chi/v5"
)

func AuthRoutes(ctrl *controllers.AuthController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Post("/login", func(w http.ResponseWriter, r *http.Request) {
		var req types.LoginRequest
		if err := httputils.ParseJSON(w, r, &req); err != nil {
			httputils.WriteError(w, err, !cfg.IsProduction())
			return
		}
		resp, err := ctrl.Login(r.Context(), req.Username)
		if err != nil {
			httputils.WriteError(w, err, !cfg.IsProduction())
			return
		}
		httputils.RespondJSON(w, http.StatusOK, resp)
	})
	return r
}
