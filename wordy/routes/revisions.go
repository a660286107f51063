package routes

import (
	"net/http"
	"wordy/wordy/config"
	"wordy/wordy/controllers"
	"wordy/wordy/middlewares"
	"wordy/wordy/types"
	httputils "wordy/wordy/utils/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func RevisionRoutes(ctrl *controllers.RevisionController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		gr.Post("/", handleJSON(cfg, func(w http.ResponseWriter, r *http.Request) (any, int, error) {
			userID, err := currentUser(r)
			if err != nil {
				return nil, 0, err
			}
			var req types.CreateRevisionRequest
			if err := httputils.ParseJSON(w, r, &req); err != nil {
				return nil, 0, err
			}
			resp, err := ctrl.CreateRevision(r.Context(), userID, req)
			if err != nil {
				return nil, 0, err
			}
			return resp, http.StatusCreated, nil
		}))

		gr.Get("/{id}", handleJSON(cfg, func(w http.ResponseWriter, r *http.Request) (any, int, error) {
			userID, id, err := revisionTarget(r)
			if err != nil {
				return nil, 0, err
			}
			rev, err := ctrl.GetRevision(r.Context(), userID, id)
			if err != nil {
				return nil, 0, err
			}
			return rev, http.StatusOK, nil
		}))

		// raw body exactly as it was written at creation
		gr.Get("/{id}/content", func(w http.ResponseWriter, r *http.Request) {
			userID, id, err := revisionTarget(r)
			if err != nil {
				httputils.WriteError(w, err, !cfg.IsProduction())
				return
			}
			rc, info, err := ctrl.OpenContent(r.Context(), userID, id)
			if err != nil {
				httputils.WriteError(w, err, !cfg.IsProduction())
				return
			}
			serveObject(w, r, id.String()+".json", rc, info)
		})

		gr.Patch("/{id}", handleJSON(cfg, func(w http.ResponseWriter, r *http.Request) (any, int, error) {
			userID, id, err := revisionTarget(r)
			if err != nil {
				return nil, 0, err
			}
			var req types.UpdateRevisionRequest
			if err := httputils.ParseJSON(w, r, &req); err != nil {
				return nil, 0, err
			}
			resp, err := ctrl.UpdateRevision(r.Context(), userID, id, req)
			if err != nil {
				return nil, 0, err
			}
			return resp, http.StatusOK, nil
		}))

		gr.Delete("/{id}", handleJSON(cfg, func(w http.ResponseWriter, r *http.Request) (any, int, error) {
			userID, id, err := revisionTarget(r)
			if err != nil {
				return nil, 0, err
			}
			if err := ctrl.DeleteRevision(r.Context(), userID, id); err != nil {
				return nil, 0, err
			}
			return map[string]string{"status": "deleted"}, http.StatusOK, nil
		}))
	})
	return r
}

func revisionTarget(r *http.Request) (int, uuid.UUID, error) {
	userID, err := currentUser(r)
	if err != nil {
		return 0, uuid.Nil, err
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		return 0, uuid.Nil, err
	}
	return userID, id, nil
}
