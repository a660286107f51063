package routes

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"wordy/wordy/config"
	"wordy/wordy/middlewares"
	"wordy/wordy/sources/storage"
	"wordy/wordy/utils/apperrors"
	httputils "wordy/wordy/utils/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// handleJSON turns a handler result into a JSON response or an error payload.
func handleJSON(cfg config.Config, handler func(w http.ResponseWriter, r *http.Request) (any, int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, status, err := handler(w, r)
		if err != nil {
			httputils.WriteError(w, err, !cfg.IsProduction())
			return
		}
		httputils.RespondJSON(w, status, res)
	}
}

func currentUser(r *http.Request) (int, error) {
	id, ok := middlewares.UserID(r.Context())
	if !ok {
		return 0, apperrors.Unauthorized("unauthorized")
	}
	return id, nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperrors.Validation(map[string]string{name: "must be a valid UUID"})
	}
	return id, nil
}

// serveObject writes an opened content object. Seekable bodies get range
// and conditional request support.
func serveObject(w http.ResponseWriter, r *http.Request, name string, rc io.ReadCloser, info storage.ObjectInfo) {
	defer rc.Close()
	ctype := mime.TypeByExtension(path.Ext(name))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, name, info.ModTime, rs)
		return
	}
	w.WriteHeader(http.StatusOK)
	io.Copy(w, rc)
}

func attachmentDisposition(name string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": strings.TrimSpace(name)})
}
