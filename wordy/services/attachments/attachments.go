// Package attachments keeps files uploaded alongside a document in the
// content store under attachments/{documentId}/.
package attachments

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"wordy/wordy/sources/storage"
	"wordy/wordy/utils/apperrors"
	"wordy/wordy/utils/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	store    storage.ContentStore
	maxBytes int64
}

func NewService(store storage.ContentStore, maxBytes int64) *Service {
	return &Service{store: store, maxBytes: maxBytes}
}

// CleanFilename reduces name to its last path element.
func CleanFilename(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	base := path.Base(name)
	if name == "" || base == "." || base == ".." || base == "/" {
		return "", apperrors.Validation(map[string]string{"file": "invalid filename"})
	}
	if storage.IsTempName(base) {
		return "", apperrors.Validation(map[string]string{"file": "reserved filename"})
	}
	return base, nil
}

// Upload stores r as documentID's attachment named filename, replacing a
// previous file of that name.
func (s *Service) Upload(ctx context.Context, documentID uuid.UUID, filename string, r io.Reader) (*storage.ObjectInfo, error) {
	name, err := CleanFilename(filename)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, apperrors.Validation(map[string]string{
			"file": fmt.Sprintf("must be at most %d bytes", s.maxBytes),
		})
	}

	p := storage.AttachmentPath(documentID.String(), name)
	if err := s.store.Save(ctx, p, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("save attachment: %w", err)
	}
	logging.AppLogger.Info("Attachment stored",
		zap.String("document_id", documentID.String()),
		zap.String("name", name),
		zap.Int("size", len(data)),
	)

	rc, info, err := s.store.Open(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("stat attachment: %w", err)
	}
	rc.Close()
	return &info, nil
}

func (s *Service) List(ctx context.Context, documentID uuid.UUID) ([]storage.ObjectInfo, error) {
	files, err := s.store.List(ctx, storage.AttachmentDir(documentID.String()))
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	return files, nil
}

func (s *Service) Open(ctx context.Context, documentID uuid.UUID, filename string) (io.ReadCloser, storage.ObjectInfo, error) {
	name, err := CleanFilename(filename)
	if err != nil {
		return nil, storage.ObjectInfo{}, err
	}
	rc, info, err := s.store.Open(ctx, storage.AttachmentPath(documentID.String(), name))
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, storage.ObjectInfo{}, apperrors.NotFound("attachment %q not found", name)
		}
		return nil, storage.ObjectInfo{}, fmt.Errorf("open attachment: %w", err)
	}
	return rc, info, nil
}

func (s *Service) Delete(ctx context.Context, documentID uuid.UUID, filename string) error {
	name, err := CleanFilename(filename)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, storage.AttachmentPath(documentID.String(), name)); err != nil {
		if storage.IsNotFound(err) {
			return apperrors.NotFound("attachment %q not found", name)
		}
		return fmt.Errorf("delete attachment: %w", err)
	}
	return nil
}
