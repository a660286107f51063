package routes

import (
	"net/http"
	"wordy/wordy/config"
	"wordy/wordy/controllers"
	"wordy/wordy/middlewares"

	"github.com/go-chi/chi/v5"
)

func FavoriteRoutes(ctrl *controllers.FavoriteController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		gr.Get("/", handleJSON(cfg, func(w http.ResponseWriter, r *http.Request) (any, int, error) {
			userID, err := currentUser(r)
			if err != nil {
				return nil, 0, err
			}
			favs, err := ctrl.ListFavorites(r.Context(), userID)
			if err != nil {
				return nil, 0, err
			}
			return favs, http.StatusOK, nil
		}))

		gr.Put("/{document_id}", handleJSON(cfg, func(w http.ResponseWriter, r *http.Request) (any, int, error) {
			userID, err := currentUser(r)
			if err != nil {
				return nil, 0, err
			}
			docID, err := uuidParam(r, "document_id")
			if err != nil {
				return nil, 0, err
			}
			fav, err := ctrl.AddFavorite(r.Context(), userID, docID)
			if err != nil {
				return nil, 0, err
			}
			return fav, http.StatusOK, nil
		}))

		// null body when the document was not a favorite
		gr.Delete("/{document_id}", handleJSON(cfg, func(w http.ResponseWriter, r *http.Request) (any, int, error) {
			userID, err := currentUser(r)
			if err != nil {
				return nil, 0, err
			}
			docID, err := uuidParam(r, "document_id")
			if err != nil {
				return nil, 0, err
			}
			fav, err := ctrl.RemoveFavorite(r.Context(), userID, docID)
			if err != nil {
				return nil, 0, err
			}
			return fav, http.StatusOK, nil
		}))
	})
	return r
}
