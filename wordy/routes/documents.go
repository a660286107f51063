package routes

import (
	"errors"
	"io"
	"net/http"
	"wordy/wordy/config"
	"wordy/wordy/controllers"
	"wordy/wordy/middlewares"
	"wordy/wordy/types"
	"wordy/wordy/utils/apperrors"
	httputils "wordy/wordy/utils/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// multipartOverhead leaves room for boundaries and part headers on top of
// the attachment size cap.
const multipartOverhead = 1 << 20

func DocumentRoutes(ctrl *controllers.DocumentController, attachments *controllers.AttachmentController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		// GET /documents?parent_id=
		gr.Get("/", handleJSON(cfg, func(w http.ResponseWriter, r *http.Request) (any, int, error) {
			userID, err := currentUser(r)
			if err != nil {
				return nil, 0, err
			}
			var parentID *uuid.UUID
			if raw := r.URL.Query().Get("parent_id"); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil {
					return nil, 0, apperrors.Validation(map[string]string{"parent_id": "must be a valid UUID"})
				}
				parentID = &id
			}
			docs, err := ctrl.ListDocuments(r.Context(), userID, parentID)
			if err != nil {
				return nil, 0, err
			}
			return docs, http.StatusOK, nil
		}))

		gr.Post("/", handleJSON(cfg, func(w http.ResponseWriter, r *http.Request) (any, int, error) {
			userID, err := currentUser(r)
			if err != nil {
				return nil, 0, err
			}
			var req types.CreateDocumentRequest
			if err := httputils.ParseJSON(w, r, &req); err != nil {
				return nil, 0, err
			}
			doc, err := ctrl.CreateDocument(r.Context(), userID, req)
			if err != nil {
				return nil, 0, err
			}
			return doc, http.StatusCreated, nil
		}))

		gr.Get("/handle/{handle}", handleJSON(cfg, func(w http.ResponseWriter, r *http.Request) (any, int, error) {
			userID, err := currentUser(r)
			if err != nil {
				return nil, 0, err
			}
			doc, err := ctrl.GetDocumentByHandle(r.Context(), userID, chi.URLParam(r, "handle"))
			if err != nil {
				return nil, 0, err
			}
			return doc, http.StatusOK, nil
		}))

		gr.Route("/{id}", func(dr chi.Router) {
			dr.Get("/", handleJSON(cfg, func(w http.ResponseWriter, r *http.Request) (any, int, error) {
				userID, id, err := documentTarget(r)
				if err != nil {
					return nil, 0, err
				}
				doc, err := ctrl.GetDocument(r.Context(), userID, id)
				if err != nil {
					return nil, 0, err
				}
				return doc, http.StatusOK, nil
			}))

			dr.Patch("/", handleJSON(cfg, func(w http.ResponseWriter, r *http.Request) (any, int, error) {
				userID, id, err := documentTarget(r)
				if err != nil {
					return nil, 0, err
				}
				var req types.UpdateDocumentRequest
				if err := httputils.ParseJSON(w, r, &req); err != nil {
					return nil, 0, err
				}
				doc, err := ctrl.UpdateDocument(r.Context(), userID, id, req)
				if err != nil {
					return nil, 0, err
				}
				return doc, http.StatusOK, nil
			}))

			dr.Delete("/", handleJSON(cfg, func(w http.ResponseWriter, r *http.Request) (any, int, error) {
				userID, id, err := documentTarget(r)
				if err != nil {
					return nil, 0, err
				}
				if err := ctrl.DeleteDocument(r.Context(), userID, id); err != nil {
					return nil, 0, err
				}
				return map[string]string{"status": "deleted"}, http.StatusOK, nil
			}))

			dr.Get("/revisions", handleJSON(cfg, func(w http.ResponseWriter, r *http.Request) (any, int, error) {
				userID, id, err := documentTarget(r)
				if err != nil {
					return nil, 0, err
				}
				revs, err := ctrl.ListRevisions(r.Context(), userID, id)
				if err != nil {
					return nil, 0, err
				}
				return revs, http.StatusOK, nil
			}))

			// null body when the document has no current revision
			dr.Get("/revisions/current", handleJSON(cfg, func(w http.ResponseWriter, r *http.Request) (any, int, error) {
				userID, id, err := documentTarget(r)
				if err != nil {
					return nil, 0, err
				}
				cur, err := ctrl.GetCurrentRevision(r.Context(), userID, id)
				if err != nil {
					return nil, 0, err
				}
				return cur, http.StatusOK, nil
			}))

			dr.Put("/revisions/current", handleJSON(cfg, func(w http.ResponseWriter, r *http.Request) (any, int, error) {
				userID, id, err := documentTarget(r)
				if err != nil {
					return nil, 0, err
				}
				var req types.SetCurrentRevisionRequest
				if err := httputils.ParseJSON(w, r, &req); err != nil {
					return nil, 0, err
				}
				revisionID, err := uuid.Parse(req.RevisionID)
				if err != nil {
					return nil, 0, apperrors.Validation(map[string]string{"revision_id": "must be a valid UUID"})
				}
				if err := ctrl.SetCurrentRevision(r.Context(), userID, id, revisionID); err != nil {
					return nil, 0, err
				}
				return map[string]string{"status": "ok"}, http.StatusOK, nil
			}))

			dr.Get("/attachments", handleJSON(cfg, func(w http.ResponseWriter, r *http.Request) (any, int, error) {
				userID, id, err := documentTarget(r)
				if err != nil {
					return nil, 0, err
				}
				files, err := attachments.List(r.Context(), userID, id)
				if err != nil {
					return nil, 0, err
				}
				return files, http.StatusOK, nil
			}))

			dr.Post("/attachments", handleJSON(cfg, func(w http.ResponseWriter, r *http.Request) (any, int, error) {
				userID, id, err := documentTarget(r)
				if err != nil {
					return nil, 0, err
				}
				r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadBytes+multipartOverhead)
				mr, err := r.MultipartReader()
				if err != nil {
					return nil, 0, apperrors.Validation(map[string]string{"file": "expected a multipart/form-data body"})
				}
				for {
					part, err := mr.NextPart()
					if errors.Is(err, io.EOF) {
						return nil, 0, apperrors.Validation(map[string]string{"file": "cannot be blank"})
					}
					if err != nil {
						return nil, 0, err
					}
					if part.FormName() != "file" {
						part.Close()
						continue
					}
					info, err := attachments.Upload(r.Context(), userID, id, part.FileName(), part)
					part.Close()
					if err != nil {
						return nil, 0, err
					}
					return info, http.StatusCreated, nil
				}
			}))

			dr.Get("/attachments/{filename}", func(w http.ResponseWriter, r *http.Request) {
				userID, id, err := documentTarget(r)
				if err != nil {
					httputils.WriteError(w, err, !cfg.IsProduction())
					return
				}
				name := chi.URLParam(r, "filename")
				rc, info, err := attachments.Open(r.Context(), userID, id, name)
				if err != nil {
					httputils.WriteError(w, err, !cfg.IsProduction())
					return
				}
				w.Header().Set("Content-Disposition", attachmentDisposition(info.Name))
				serveObject(w, r, info.Name, rc, info)
			})

			dr.Delete("/attachments/{filename}", handleJSON(cfg, func(w http.ResponseWriter, r *http.Request) (any, int, error) {
				userID, id, err := documentTarget(r)
				if err != nil {
					return nil, 0, err
				}
				if err := attachments.Delete(r.Context(), userID, id, chi.URLParam(r, "filename")); err != nil {
					return nil, 0, err
				}
				return map[string]string{"status": "deleted"}, http.StatusOK, nil
			}))
		})
	})
	return r
}

func documentTarget(r *http.Request) (int, uuid.UUID, error) {
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
