package dao

import (
	"context"
	"errors"
	"fmt"
	"wordy/wordy/sources/db/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// maxTreeDepth bounds parent walks so a corrupted parent cycle cannot spin.
const maxTreeDepth = 64

type DocumentDAO struct {
	DB *gorm.DB
}

func NewDocumentDAO(db *gorm.DB) *DocumentDAO {
	return &DocumentDAO{DB: db}
}

func (dao *DocumentDAO) CreateDocument(ctx context.Context, doc *models.Document) error {
	return dao.DB.WithContext(ctx).Create(doc).Error
}

func (dao *DocumentDAO) GetDocumentByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	var doc models.Document
	err := dao.DB.WithContext(ctx).First(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (dao *DocumentDAO) GetDocumentByHandle(ctx context.Context, handle string) (*models.Document, error) {
	var doc models.Document
	err := dao.DB.WithContext(ctx).Where("handle = ?", handle).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// UserHasDocument is true iff a document with that id is owned by userID.
func (dao *DocumentDAO) UserHasDocument(ctx context.Context, userID int, documentID uuid.UUID) (bool, error) {
	var count int64
	err := dao.DB.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ? AND user_id = ?", documentID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListDocuments returns the children of parentID, or the user's root
// documents when parentID is nil.
func (dao *DocumentDAO) ListDocuments(ctx context.Context, userID int, parentID *uuid.UUID) ([]models.Document, error) {
	var docs []models.Document
	db := dao.DB.WithContext(ctx).Where("user_id = ?", userID)
	if parentID == nil {
		db = db.Where("parent_id IS NULL")
	} else {
		db = db.Where("parent_id = ?", *parentID)
	}
	err := db.Order("name asc").Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// HandlesWithPrefix returns every stored handle equal to base or starting
// with base + "-".
func (dao *DocumentDAO) HandlesWithPrefix(ctx context.Context, base string) ([]string, error) {
	var handles []string
	err := dao.DB.WithContext(ctx).
		Model(&models.Document{}).
		Where("handle = ? OR handle LIKE ? ESCAPE '\\'", base, escapeLike(base)+"-%").
		Pluck("handle", &handles).Error
	if err != nil {
		return nil, err
	}
	return handles, nil
}

func (dao *DocumentDAO) UpdateDocument(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	return dao.DB.WithContext(ctx).Model(&models.Document{}).Where("id = ?", id).Updates(updates).Error
}

// SetCurrentRevision moves the document's pointer. A nil revisionID clears it.
func (dao *DocumentDAO) SetCurrentRevision(ctx context.Context, documentID uuid.UUID, revisionID *uuid.UUID) error {
	res := dao.DB.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ?", documentID).
		Update("current_revision_id", revisionID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("document %s: %w", documentID, gorm.ErrRecordNotFound)
	}
	return nil
}

// ClearCurrentRevisionIf clears the pointer only while it still names
// revisionID and reports whether it did.
func (dao *DocumentDAO) ClearCurrentRevisionIf(ctx context.Context, documentID, revisionID uuid.UUID) (bool, error) {
	res := dao.DB.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ? AND current_revision_id = ?", documentID, revisionID).
		Update("current_revision_id", nil)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SubtreeIDs returns id followed by every descendant id, breadth first.
func (dao *DocumentDAO) SubtreeIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{id}
	frontier := []uuid.UUID{id}
	for depth := 0; len(frontier) > 0; depth++ {
		if depth > maxTreeDepth {
			return nil, fmt.Errorf("document tree under %s exceeds depth %d", id, maxTreeDepth)
		}
		var children []uuid.UUID
		err := dao.DB.WithContext(ctx).
			Model(&models.Document{}).
			Where("parent_id IN ?", frontier).
			Pluck("id", &children).Error
		if err != nil {
			return nil, err
		}
		ids = append(ids, children...)
		frontier = children
	}
	return ids, nil
}

// RootSpaceID walks parent links up to the space at the top of the tree.
func (dao *DocumentDAO) RootSpaceID(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	current := id
	for i := 0; i <= maxTreeDepth; i++ {
		doc, err := dao.GetDocumentByID(ctx, current)
		if err != nil {
			return uuid.Nil, err
		}
		if doc == nil {
			return uuid.Nil, fmt.Errorf("document %s: %w", current, gorm.ErrRecordNotFound)
		}
		if doc.ParentID == nil {
			return doc.ID, nil
		}
		current = *doc.ParentID
	}
	return uuid.Nil, fmt.Errorf("document %s exceeds depth %d", id, maxTreeDepth)
}

// IsAncestor reports whether candidate is id itself or one of its ancestors.
func (dao *DocumentDAO) IsAncestor(ctx context.Context, candidate, id uuid.UUID) (bool, error) {
	current := &id
	for i := 0; current != nil && i <= maxTreeDepth; i++ {
		if *current == candidate {
			return true, nil
		}
		doc, err := dao.GetDocumentByID(ctx, *current)
		if err != nil || doc == nil {
			return false, err
		}
		current = doc.ParentID
	}
	return false, nil
}

func (dao *DocumentDAO) DeleteDocuments(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return dao.DB.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Document{}).Error
}
