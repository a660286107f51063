// Package documents manages the space/folder/note tree and document handles.
package documents

import (
	"context"
	"errors"
	"fmt"
	"sort"
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

// handleAttempts bounds retries when a concurrent insert takes the handle
// picked for us.
const handleAttempts = 5

type Service struct {
	db        *gorm.DB
	locks     *writequeue.KeyedMutex
	events    realtime.Broadcaster
	cleaner   *reconcile.Cleaner
	documents *dao.DocumentDAO
}

func NewService(db *gorm.DB, store storage.ContentStore, locks *writequeue.KeyedMutex, events realtime.Broadcaster) *Service {
	return &Service{
		db:        db,
		locks:     locks,
		events:    events,
		cleaner:   reconcile.NewCleaner(store),
		documents: dao.NewDocumentDAO(db),
	}
}

func validateCreate(req *types.CreateDocumentRequest) error {
	return apperrors.FromValidation(validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&req.Type, validation.Required, validation.In(
			string(models.DocumentTypeSpace),
			string(models.DocumentTypeFolder),
			string(models.DocumentTypeNote),
		)),
		validation.Field(&req.ParentID, validation.NilOrNotEmpty, is.UUID),
		validation.Field(&req.Handle, validation.Length(0, maxHandleLength)),
	))
}

func (s *Service) CreateDocument(ctx context.Context, userID int, req types.CreateDocumentRequest) (*models.Document, error) {
	defer logging.LogDuration(ctx, "documents.CreateDocument")()

	if err := validateCreate(&req); err != nil {
		return nil, err
	}
	docType := models.DocumentType(req.Type)

	var parentID *uuid.UUID
	if req.ParentID != nil {
		id := uuid.MustParse(*req.ParentID)
		parentID = &id
	}
	if err := s.checkPlacement(ctx, userID, docType, parentID); err != nil {
		return nil, err
	}

	source := req.Name
	if req.Handle != nil && *req.Handle != "" {
		source = *req.Handle
	}
	base := Slugify(source)

	doc := &models.Document{
		Name:     req.Name,
		Type:     docType,
		UserID:   userID,
		ParentID: parentID,
	}
	var err error
	for attempt := 0; attempt < handleAttempts; attempt++ {
		doc.ID = uuid.Nil
		doc.Handle, err = s.nextHandle(ctx, base)
		if err != nil {
			return nil, err
		}
		err = s.documents.CreateDocument(ctx, doc)
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
		logging.AppLogger.Debug("Handle taken concurrently, retrying", zap.String("handle", doc.Handle))
	}
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("handle %q is taken", base)
		}
		return nil, fmt.Errorf("create document: %w", err)
	}

	logging.AppLogger.Info("Document created",
		zap.String("document_id", doc.ID.String()),
		zap.String("handle", doc.Handle),
		zap.String("type", string(doc.Type)),
	)
	realtime.Notify(ctx, s.events, realtime.EventDocumentCreated, doc, s.rooms(ctx, userID, doc.ID)...)
	return doc, nil
}

// nextHandle returns base when it is free, otherwise base-N for the lowest
// free N starting at 2.
func (s *Service) nextHandle(ctx context.Context, base string) (string, error) {
	existing, err := s.documents.HandlesWithPrefix(ctx, base)
	if err != nil {
		return "", fmt.Errorf("load handles: %w", err)
	}
	return pickHandle(base, existing), nil
}

// checkPlacement enforces the tree rules: spaces sit at the root, folders
// and notes sit inside a space or folder owned by the same user.
func (s *Service) checkPlacement(ctx context.Context, userID int, docType models.DocumentType, parentID *uuid.UUID) error {
	if docType == models.DocumentTypeSpace {
		if parentID != nil {
			return apperrors.Validation(map[string]string{"parent_id": "a space cannot have a parent"})
		}
		return nil
	}
	if parentID == nil {
		return apperrors.Validation(map[string]string{"parent_id": "cannot be blank for a " + string(docType)})
	}
	parent, err := s.documents.GetDocumentByID(ctx, *parentID)
	if err != nil {
		return fmt.Errorf("load parent: %w", err)
	}
	if parent == nil || parent.UserID != userID {
		return apperrors.Forbidden("no access to document %s", *parentID)
	}
	if !parent.Type.CanContain() {
		return apperrors.Validation(map[string]string{"parent_id": "a " + string(parent.Type) + " cannot contain documents"})
	}
	return nil
}

func (s *Service) GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	doc, err := s.documents.GetDocumentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if doc == nil {
		return nil, apperrors.NotFound("document %s not found", id)
	}
	return doc, nil
}

// GetDocumentByHandle answers Forbidden both for a missing handle and for
// someone else's document.
func (s *Service) GetDocumentByHandle(ctx context.Context, userID int, handle string) (*models.Document, error) {
	doc, err := s.documents.GetDocumentByHandle(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if doc == nil || doc.UserID != userID {
		return nil, apperrors.Forbidden("no access to document %q", handle)
	}
	return doc, nil
}

// ListDocuments returns the children of parentID, or the user's spaces when
// parentID is nil.
func (s *Service) ListDocuments(ctx context.Context, userID int, parentID *uuid.UUID) ([]models.Document, error) {
	docs, err := s.documents.ListDocuments(ctx, userID, parentID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return docs, nil
}

func validateUpdate(req *types.UpdateDocumentRequest) error {
	if req.Name == nil && req.ParentID == nil {
		return apperrors.Validation(map[string]string{"name": "nothing to update"})
	}
	return apperrors.FromValidation(validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&req.ParentID, validation.NilOrNotEmpty, is.UUID),
	))
}

// UpdateDocument renames and/or moves a document. Renaming keeps the handle.
func (s *Service) UpdateDocument(ctx context.Context, id uuid.UUID, req types.UpdateDocumentRequest, userID int) (*models.Document, error) {
	if err := validateUpdate(&req); err != nil {
		return nil, err
	}
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	oldRooms := s.rooms(ctx, userID, id)

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.ParentID != nil {
		parentID := uuid.MustParse(*req.ParentID)
		if err := s.checkMove(ctx, userID, doc, parentID); err != nil {
			return nil, err
		}
		updates["parent_id"] = parentID
	}

	if err := s.documents.UpdateDocument(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	doc, err = s.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	realtime.Notify(ctx, s.events, realtime.EventDocumentUpdated, doc, mergeRooms(oldRooms, s.rooms(ctx, userID, id))...)
	return doc, nil
}

func (s *Service) checkMove(ctx context.Context, userID int, doc *models.Document, parentID uuid.UUID) error {
	if doc.Type == models.DocumentTypeSpace {
		return apperrors.Validation(map[string]string{"parent_id": "a space cannot be moved"})
	}
	if err := s.checkPlacement(ctx, userID, doc.Type, &parentID); err != nil {
		return err
	}
	cycle, err := s.documents.IsAncestor(ctx, doc.ID, parentID)
	if err != nil {
		return fmt.Errorf("check move: %w", err)
	}
	if cycle {
		return apperrors.Validation(map[string]string{"parent_id": "cannot move a document inside itself"})
	}
	return nil
}

// DeleteDocument removes the document, its descendants and their revisions
// and favorites in one transaction, then drops their content.
func (s *Service) DeleteDocument(ctx context.Context, id uuid.UUID, userID int) error {
	defer logging.LogDuration(ctx, "documents.DeleteDocument")()

	if _, err := s.GetDocument(ctx, id); err != nil {
		return err
	}
	rooms := s.rooms(ctx, userID, id)

	ids, err := s.documents.SubtreeIDs(ctx, id)
	if err != nil {
		return fmt.Errorf("load subtree: %w", err)
	}

	var revs []models.Revision
	err = doLocked(ctx, s.locks, ids, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			docDAO := dao.NewDocumentDAO(tx)
			revDAO := dao.NewRevisionDAO(tx)

			// children may have been added since the subtree was read
			current, err := docDAO.SubtreeIDs(ctx, id)
			if err != nil {
				return fmt.Errorf("load subtree: %w", err)
			}
			ids = current

			revs, err = revDAO.ListRevisionsByDocuments(ctx, ids)
			if err != nil {
				return fmt.Errorf("list revisions: %w", err)
			}
			if err := dao.NewFavoriteDAO(tx).DeleteFavoritesByDocuments(ctx, ids); err != nil {
				return fmt.Errorf("delete favorites: %w", err)
			}
			if err := revDAO.DeleteRevisionsByDocuments(ctx, ids); err != nil {
				return fmt.Errorf("delete revisions: %w", err)
			}
			if err := docDAO.DeleteDocuments(ctx, ids); err != nil {
				return fmt.Errorf("delete documents: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	for _, rev := range revs {
		s.cleaner.RemoveRevisionContent(ctx, "delete_document", rev.ID, rev.DocumentID, rev.ContentPath)
	}
	for _, docID := range ids {
		s.cleaner.RemoveAttachments(ctx, "delete_document", docID)
	}

	logging.AppLogger.Info("Document deleted",
		zap.String("document_id", id.String()),
		zap.Int("documents", len(ids)),
		zap.Int("revisions", len(revs)),
	)
	realtime.Notify(ctx, s.events, realtime.EventDocumentDeleted, deletedEvent{ID: id, DeletedIDs: ids}, rooms...)
	return nil
}

type deletedEvent struct {
	ID         uuid.UUID   `json:"id"`
	DeletedIDs []uuid.UUID `json:"deleted_ids"`
}

// doLocked holds the lock of every key in ids while fn runs. Keys are taken
// in sorted order so two overlapping callers cannot deadlock.
func doLocked(ctx context.Context, locks *writequeue.KeyedMutex, ids []uuid.UUID, fn func(ctx context.Context) error) error {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	sort.Strings(keys)

	var run func(ctx context.Context, i int) error
	run = func(ctx context.Context, i int) error {
		if i == len(keys) {
			return fn(ctx)
		}
		return locks.Do(ctx, keys[i], func(ctx context.Context) error {
			return run(ctx, i+1)
		})
	}
	return run(ctx, 0)
}

func (s *Service) rooms(ctx context.Context, userID int, documentID uuid.UUID) []string {
	rooms := []string{realtime.UserRoom(userID)}
	spaceID, err := s.documents.RootSpaceID(ctx, documentID)
	if err != nil {
		return rooms
	}
	return append(rooms, realtime.SpaceRoom(spaceID))
}

func mergeRooms(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, room := range append(append([]string{}, a...), b...) {
		if _, ok := seen[room]; ok {
			continue
		}
		seen[room] = struct{}{}
		out = append(out, room)
	}
	return out
}
