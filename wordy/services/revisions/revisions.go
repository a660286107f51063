// Package revisions creates, renames and deletes revisions and keeps each
// document's current revision pointer consistent with them.
package revisions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"wordy/wordy/services/realtime"
	"wordy/wordy/services/reconcile"
	"wordy/wordy/services/writequeue"
	"wordy/wordy/sources/db/dao"
	"wordy/wordy/sources/db/models"
	"wordy/wordy/sources/storage"
	"wordy/wordy/types"
	"wordy/wordy/utils/apperrors"
	"wordy/wordy/utils/logging"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db        *gorm.DB
	store     storage.ContentStore
	locks     *writequeue.KeyedMutex
	events    realtime.Broadcaster
	cleaner   *reconcile.Cleaner
	documents *dao.DocumentDAO
	revisions *dao.RevisionDAO
}

func NewService(db *gorm.DB, store storage.ContentStore, locks *writequeue.KeyedMutex, events realtime.Broadcaster) *Service {
	return &Service{
		db:        db,
		store:     store,
		locks:     locks,
		events:    events,
		cleaner:   reconcile.NewCleaner(store),
		documents: dao.NewDocumentDAO(db),
		revisions: dao.NewRevisionDAO(db),
	}
}

// newRevision is everything needed to write one revision.
type newRevision struct {
	documentID  uuid.UUID
	userID      int
	text        string
	content     string
	checksum    *string
	name        *string
	makeCurrent bool
}

func validateCreate(req *types.CreateRevisionRequest) error {
	return apperrors.FromValidation(validation.ValidateStruct(req,
		validation.Field(&req.DocumentID, validation.Required, is.UUID),
		validation.Field(&req.Text, validation.Required),
		validation.Field(&req.Content, validation.Required),
		validation.Field(&req.Checksum, validation.NilOrNotEmpty, validation.Length(1, 128)),
		validation.Field(&req.RevisionName, validation.NilOrNotEmpty, validation.Length(1, 255)),
	))
}

func (s *Service) CreateRevision(ctx context.Context, req types.CreateRevisionRequest, userID int) (*types.CreateRevisionResponse, error) {
	defer logging.LogDuration(ctx, "revisions.CreateRevision")()

	if err := validateCreate(&req); err != nil {
		return nil, err
	}
	documentID := uuid.MustParse(req.DocumentID)

	rev, err := s.create(ctx, newRevision{
		documentID:  documentID,
		userID:      userID,
		text:        req.Text,
		content:     req.Content,
		checksum:    req.Checksum,
		name:        req.RevisionName,
		makeCurrent: req.MakeCurrentRevision,
	})
	if err != nil {
		return nil, err
	}
	return &types.CreateRevisionResponse{ID: rev.ID.String()}, nil
}

// create writes the body, then inserts the row and moves the pointer in one
// transaction, all while holding the document's lock. A failed transaction
// takes the body with it.
func (s *Service) create(ctx context.Context, in newRevision) (*models.Revision, error) {
	var rev *models.Revision
	err := s.locks.Do(ctx, in.documentID.String(), func(ctx context.Context) error {
		doc, err := s.documents.GetDocumentByID(ctx, in.documentID)
		if err != nil {
			return fmt.Errorf("load document: %w", err)
		}
		if doc == nil {
			return apperrors.NotFound("document %s not found", in.documentID)
		}

		rev = &models.Revision{
			ID:           uuid.New(),
			DocumentID:   in.documentID,
			UserID:       in.userID,
			RevisionName: in.name,
			Checksum:     in.checksum,
			Text:         in.text,
		}
		rev.ContentPath = storage.RevisionContentPath(rev.ID.String())

		if err := s.store.Save(ctx, rev.ContentPath, strings.NewReader(in.content)); err != nil {
			return fmt.Errorf("save revision content: %w", err)
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := dao.NewRevisionDAO(tx).CreateRevision(ctx, rev); err != nil {
				return fmt.Errorf("insert revision: %w", err)
			}
			if in.makeCurrent {
				if err := dao.NewDocumentDAO(tx).SetCurrentRevision(ctx, in.documentID, &rev.ID); err != nil {
					return fmt.Errorf("set current revision: %w", err)
				}
			}
			return nil
		})
		if err != nil {
			s.cleaner.RemoveRevisionContent(ctx, "create_rollback", rev.ID, rev.DocumentID, rev.ContentPath)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.AppLogger.Info("Revision created",
		zap.String("revision_id", rev.ID.String()),
		zap.String("document_id", rev.DocumentID.String()),
		zap.Bool("current", in.makeCurrent),
	)
	rooms := s.rooms(ctx, in.userID, in.documentID)
	realtime.Notify(ctx, s.events, realtime.EventRevisionCreated, summaryEvent(rev), rooms...)
	if in.makeCurrent {
		realtime.Notify(ctx, s.events, realtime.EventDocumentUpdated, pointerEvent(in.documentID, &rev.ID), rooms...)
	}
	return rev, nil
}

func validateUpdate(req *types.UpdateRevisionRequest) error {
	switch {
	case req.IsRename():
		return apperrors.FromValidation(validation.ValidateStruct(req,
			validation.Field(&req.RevisionName, validation.Length(0, 255)),
		))
	case req.RevisionName == nil && req.Content != nil && req.Text != nil:
		return apperrors.FromValidation(validation.ValidateStruct(req,
			validation.Field(&req.Content, validation.Required),
			validation.Field(&req.Text, validation.Required),
			validation.Field(&req.Checksum, validation.NilOrNotEmpty, validation.Length(1, 128)),
		))
	default:
		return apperrors.Validation(map[string]string{
			"revision_name": "send either revision_name alone or content with text",
		})
	}
}

// UpdateRevision renames a revision, or writes new content as a fresh
// revision of the same document. Content of an existing revision never
// changes.
func (s *Service) UpdateRevision(ctx context.Context, revisionID uuid.UUID, req types.UpdateRevisionRequest, userID int) (*types.RevisionSummary, error) {
	if err := validateUpdate(&req); err != nil {
		return nil, err
	}
	if req.IsRename() {
		return s.rename(ctx, revisionID, req.RevisionName, userID)
	}

	current, err := s.GetRevision(ctx, revisionID)
	if err != nil {
		return nil, err
	}
	rev, err := s.create(ctx, newRevision{
		documentID:  current.DocumentID,
		userID:      userID,
		text:        *req.Text,
		content:     *req.Content,
		checksum:    req.Checksum,
		makeCurrent: req.MakeCurrentRevision,
	})
	if err != nil {
		return nil, err
	}
	return summary(rev), nil
}

func (s *Service) rename(ctx context.Context, revisionID uuid.UUID, name *string, userID int) (*types.RevisionSummary, error) {
	if name != nil && *name == "" {
		name = nil
	}
	if err := s.revisions.UpdateRevisionName(ctx, revisionID, name); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("revision %s not found", revisionID)
		}
		return nil, fmt.Errorf("rename revision: %w", err)
	}
	rev, err := s.GetRevision(ctx, revisionID)
	if err != nil {
		return nil, err
	}
	realtime.Notify(ctx, s.events, realtime.EventRevisionUpdated, summaryEvent(rev), s.rooms(ctx, userID, rev.DocumentID)...)
	return summary(rev), nil
}

// DeleteRevisionByID removes the row, clearing the document pointer first
// when it names this revision, then drops the content on a best-effort
// basis.
func (s *Service) DeleteRevisionByID(ctx context.Context, revisionID uuid.UUID, userID int) error {
	rev, err := s.GetRevision(ctx, revisionID)
	if err != nil {
		return err
	}

	cleared := false
	err = s.locks.Do(ctx, rev.DocumentID.String(), func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			cleared, err = dao.NewDocumentDAO(tx).ClearCurrentRevisionIf(ctx, rev.DocumentID, rev.ID)
			if err != nil {
				return fmt.Errorf("clear current revision: %w", err)
			}
			if err := dao.NewRevisionDAO(tx).DeleteRevision(ctx, rev.ID); err != nil {
				return fmt.Errorf("delete revision: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	s.cleaner.RemoveRevisionContent(ctx, "delete_revision", rev.ID, rev.DocumentID, rev.ContentPath)

	rooms := s.rooms(ctx, userID, rev.DocumentID)
	realtime.Notify(ctx, s.events, realtime.EventRevisionDeleted, summaryEvent(rev), rooms...)
	if cleared {
		realtime.Notify(ctx, s.events, realtime.EventDocumentUpdated, pointerEvent(rev.DocumentID, nil), rooms...)
	}
	return nil
}

// SetCurrentRevision points documentID at revisionID, which must belong to
// that document.
func (s *Service) SetCurrentRevision(ctx context.Context, documentID, revisionID uuid.UUID, userID int) error {
	err := s.locks.Do(ctx, documentID.String(), func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			rev, err := dao.NewRevisionDAO(tx).GetRevisionByID(ctx, revisionID)
			if err != nil {
				return fmt.Errorf("load revision: %w", err)
			}
			if rev == nil || rev.DocumentID != documentID {
				return apperrors.Validation(map[string]string{
					"revision_id": "must be a revision of this document",
				})
			}
			if err := dao.NewDocumentDAO(tx).SetCurrentRevision(ctx, documentID, &revisionID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.NotFound("document %s not found", documentID)
				}
				return fmt.Errorf("set current revision: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return err
	}
	realtime.Notify(ctx, s.events, realtime.EventDocumentUpdated, pointerEvent(documentID, &revisionID), s.rooms(ctx, userID, documentID)...)
	return nil
}

// GetCurrentRevisionByDocumentID returns nil when the document has no
// current revision.
func (s *Service) GetCurrentRevisionByDocumentID(ctx context.Context, documentID uuid.UUID) (*models.CurrentRevision, error) {
	cur, err := s.revisions.GetCurrentRevisionByDocumentID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load current revision: %w", err)
	}
	return cur, nil
}

func (s *Service) ListRevisions(ctx context.Context, documentID uuid.UUID) ([]models.Revision, error) {
	revs, err := s.revisions.ListRevisionsByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	if revs == nil {
		revs = []models.Revision{}
	}
	return revs, nil
}

func (s *Service) GetRevision(ctx context.Context, revisionID uuid.UUID) (*models.Revision, error) {
	rev, err := s.revisions.GetRevisionByID(ctx, revisionID)
	if err != nil {
		return nil, fmt.Errorf("load revision: %w", err)
	}
	if rev == nil {
		return nil, apperrors.NotFound("revision %s not found", revisionID)
	}
	return rev, nil
}

// OpenRevisionContent streams the body stored at the row's content path.
func (s *Service) OpenRevisionContent(ctx context.Context, revisionID uuid.UUID) (io.ReadCloser, storage.ObjectInfo, error) {
	rev, err := s.GetRevision(ctx, revisionID)
	if err != nil {
		return nil, storage.ObjectInfo{}, err
	}
	rc, info, err := s.store.Open(ctx, rev.ContentPath)
	if err != nil {
		return nil, storage.ObjectInfo{}, s.contentError(rev, "open", err)
	}
	return rc, info, nil
}

// ReadRevisionContent loads the whole body stored for a revision.
func (s *Service) ReadRevisionContent(ctx context.Context, revisionID uuid.UUID) ([]byte, error) {
	rev, err := s.GetRevision(ctx, revisionID)
	if err != nil {
		return nil, err
	}
	data, err := s.store.Read(ctx, rev.ContentPath)
	if err != nil {
		return nil, s.contentError(rev, "read", err)
	}
	return data, nil
}

func (s *Service) contentError(rev *models.Revision, op string, err error) error {
	if storage.IsNotFound(err) {
		logging.ReconcileLogger.Warn("revision content missing",
			zap.String("op", op),
			zap.String("path", rev.ContentPath),
			zap.String("revision_id", rev.ID.String()),
			zap.String("document_id", rev.DocumentID.String()),
		)
		return apperrors.NotFound("content of revision %s not found", rev.ID)
	}
	return fmt.Errorf("%s revision content: %w", op, err)
}

// rooms are the owner's room plus the room of the document's space, when
// it can be resolved.
func (s *Service) rooms(ctx context.Context, userID int, documentID uuid.UUID) []string {
	rooms := []string{realtime.UserRoom(userID)}
	spaceID, err := s.documents.RootSpaceID(ctx, documentID)
	if err != nil {
		logging.AppLogger.Debug("No space room for document", zap.String("document_id", documentID.String()), zap.Error(err))
		return rooms
	}
	return append(rooms, realtime.SpaceRoom(spaceID))
}

func summary(rev *models.Revision) *types.RevisionSummary {
	return &types.RevisionSummary{
		ID:           rev.ID.String(),
		RevisionName: rev.RevisionName,
		ContentPath:  rev.ContentPath,
	}
}

type revisionEvent struct {
	types.RevisionSummary
	DocumentID string `json:"document_id"`
}

func summaryEvent(rev *models.Revision) revisionEvent {
	return revisionEvent{RevisionSummary: *summary(rev), DocumentID: rev.DocumentID.String()}
}

type documentPointerEvent struct {
	ID                string     `json:"id"`
	CurrentRevisionID *uuid.UUID `json:"current_revision_id"`
}

func pointerEvent(documentID uuid.UUID, revisionID *uuid.UUID) documentPointerEvent {
	return documentPointerEvent{ID: documentID.String(), CurrentRevisionID: revisionID}
}
