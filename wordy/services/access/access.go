// Package access answers whether a user owns a document or revision.
package access

import (
	"context"
	"fmt"
	"wordy/wordy/services/realtime"
	"wordy/wordy/sources/db/dao"
	"wordy/wordy/sources/db/models"
	"wordy/wordy/utils/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	documents *dao.DocumentDAO
	revisions *dao.RevisionDAO
}

func NewService(db *gorm.DB) *Service {
	return &Service{
		documents: dao.NewDocumentDAO(db),
		revisions: dao.NewRevisionDAO(db),
	}
}

func (s *Service) UserHasDocument(ctx context.Context, userID int, documentID uuid.UUID) (bool, error) {
	ok, err := s.documents.UserHasDocument(ctx, userID, documentID)
	if err != nil {
		return false, fmt.Errorf("check document access: %w", err)
	}
	return ok, nil
}

func (s *Service) UserHasRevision(ctx context.Context, userID int, revisionID uuid.UUID) (bool, error) {
	ok, err := s.revisions.UserHasRevision(ctx, userID, revisionID)
	if err != nil {
		return false, fmt.Errorf("check revision access: %w", err)
	}
	return ok, nil
}

// RequireDocument fails with Forbidden unless userID owns the document. A
// missing document is reported the same way.
func (s *Service) RequireDocument(ctx context.Context, userID int, documentID uuid.UUID) error {
	ok, err := s.UserHasDocument(ctx, userID, documentID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Forbidden("no access to document %s", documentID)
	}
	return nil
}

func (s *Service) RequireRevision(ctx context.Context, userID int, revisionID uuid.UUID) error {
	ok, err := s.UserHasRevision(ctx, userID, revisionID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Forbidden("no access to revision %s", revisionID)
	}
	return nil
}

// AuthorizeRoom lets a user join the room of a space they own.
func (s *Service) AuthorizeRoom(ctx context.Context, userID int, room string) error {
	spaceID, ok := realtime.ParseSpaceRoom(room)
	if !ok {
		return apperrors.Forbidden("unknown room %q", room)
	}
	doc, err := s.documents.GetDocumentByID(ctx, spaceID)
	if err != nil {
		return fmt.Errorf("load space: %w", err)
	}
	if doc == nil || doc.UserID != userID || doc.Type != models.DocumentTypeSpace {
		return apperrors.Forbidden("no access to room %q", room)
	}
	return nil
}
