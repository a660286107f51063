package dao

import (
	"context"
	"errors"
	"time"
	"wordy/wordy/sources/db/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RevisionDAO struct {
	DB *gorm.DB
}

func NewRevisionDAO(db *gorm.DB) *RevisionDAO {
	return &RevisionDAO{DB: db}
}

func (dao *RevisionDAO) CreateRevision(ctx context.Context, rev *models.Revision) error {
	return dao.DB.WithContext(ctx).Omit("Document").Create(rev).Error
}

func (dao *RevisionDAO) GetRevisionByID(ctx context.Context, id uuid.UUID) (*models.Revision, error) {
	var rev models.Revision
	err := dao.DB.WithContext(ctx).First(&rev, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

// UserHasRevision is true iff the revision joins to a document owned by userID.
func (dao *RevisionDAO) UserHasRevision(ctx context.Context, userID int, revisionID uuid.UUID) (bool, error) {
	var count int64
	err := dao.DB.WithContext(ctx).
		Model(&models.Revision{}).
		Joins("JOIN documents ON documents.id = revisions.document_id").
		Where("revisions.id = ? AND documents.user_id = ?", revisionID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListRevisionsByDocument returns metadata newest first.
func (dao *RevisionDAO) ListRevisionsByDocument(ctx context.Context, documentID uuid.UUID) ([]models.Revision, error) {
	var revs []models.Revision
	err := dao.DB.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at desc").
		Find(&revs).Error
	if err != nil {
		return nil, err
	}
	return revs, nil
}

func (dao *RevisionDAO) ListRevisionsByDocuments(ctx context.Context, documentIDs []uuid.UUID) ([]models.Revision, error) {
	var revs []models.Revision
	if len(documentIDs) == 0 {
		return revs, nil
	}
	err := dao.DB.WithContext(ctx).Where("document_id IN ?", documentIDs).Find(&revs).Error
	if err != nil {
		return nil, err
	}
	return revs, nil
}

// UpdateRevisionName touches the name column and nothing else.
func (dao *RevisionDAO) UpdateRevisionName(ctx context.Context, id uuid.UUID, name *string) error {
	res := dao.DB.WithContext(ctx).
		Model(&models.Revision{}).
		Where("id = ?", id).
		Update("revision_name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (dao *RevisionDAO) DeleteRevision(ctx context.Context, id uuid.UUID) error {
	return dao.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Revision{}).Error
}

func (dao *RevisionDAO) DeleteRevisionsByDocuments(ctx context.Context, documentIDs []uuid.UUID) error {
	if len(documentIDs) == 0 {
		return nil
	}
	return dao.DB.WithContext(ctx).Where("document_id IN ?", documentIDs).Delete(&models.Revision{}).Error
}

type currentRevisionRow struct {
	ID         uuid.UUID
	Text       string
	Checksum   *string
	CreatedAt  time.Time
	DocumentID uuid.UUID
}

// GetCurrentRevisionByDocumentID follows documents.current_revision_id. It
// returns nil when the document has no current revision or does not exist.
func (dao *RevisionDAO) GetCurrentRevisionByDocumentID(ctx context.Context, documentID uuid.UUID) (*models.CurrentRevision, error) {
	var rows []currentRevisionRow
	err := dao.DB.WithContext(ctx).
		Table("documents").
		Select("revisions.id, revisions.text, revisions.checksum, revisions.created_at, documents.id AS document_id").
		Joins("JOIN revisions ON revisions.id = documents.current_revision_id").
		Where("documents.id = ?", documentID).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	row := rows[0]
	return &models.CurrentRevision{
		ID:        row.ID,
		Text:      row.Text,
		Checksum:  row.Checksum,
		CreatedAt: row.CreatedAt,
		Document:  models.DocumentRef{ID: row.DocumentID},
	}, nil
}

// RevisionRef is the minimal row the reconciler needs.
type RevisionRef struct {
	ID          uuid.UUID `json:"id"`
	DocumentID  uuid.UUID `json:"document_id"`
	ContentPath string    `json:"content_path"`
}

// EachRevisionRef streams every revision in batches.
func (dao *RevisionDAO) EachRevisionRef(ctx context.Context, batchSize int, fn func([]RevisionRef) error) error {
	var batch []models.Revision
	return dao.DB.WithContext(ctx).
		Select("id", "document_id", "content_path").
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			refs := make([]RevisionRef, len(batch))
			for i, rev := range batch {
				refs[i] = RevisionRef{ID: rev.ID, DocumentID: rev.DocumentID, ContentPath: rev.ContentPath}
			}
			return fn(refs)
		}).Error
}
