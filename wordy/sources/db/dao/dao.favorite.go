package dao

import (
	"context"
	"errors"
	"time"
	"wordy/wordy/sources/db/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FavoriteDAO struct {
	DB *gorm.DB
}

func NewFavoriteDAO(db *gorm.DB) *FavoriteDAO {
	return &FavoriteDAO{DB: db}
}

// UpsertFavorite inserts the (user, document) pair or revives its
// soft-deleted row. Either way exactly one row exists for the pair afterwards.
func (dao *FavoriteDAO) UpsertFavorite(ctx context.Context, userID int, documentID uuid.UUID) (*models.Favorite, error) {
	var fav models.Favorite
	err := dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		row := models.Favorite{UserID: userID, DocumentID: documentID}
		err := tx.Omit("Document").Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "document_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"deleted_at": nil,
				"updated_at": now,
			}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
		return tx.Where("user_id = ? AND document_id = ?", userID, documentID).First(&fav).Error
	})
	if err != nil {
		return nil, err
	}
	return &fav, nil
}

// SoftDeleteFavorite stamps deleted_at on the active row for the pair. It
// returns nil, nil when there is no active row.
func (dao *FavoriteDAO) SoftDeleteFavorite(ctx context.Context, userID int, documentID uuid.UUID) (*models.Favorite, error) {
	var fav models.Favorite
	found := false
	err := dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND document_id = ? AND deleted_at IS NULL", userID, documentID).First(&fav).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := tx.Model(&fav).Updates(map[string]interface{}{"deleted_at": now, "updated_at": now}).Error; err != nil {
			return err
		}
		fav.DeletedAt = &now
		found = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &fav, nil
}

func (dao *FavoriteDAO) GetFavorite(ctx context.Context, userID int, documentID uuid.UUID) (*models.Favorite, error) {
	var fav models.Favorite
	err := dao.DB.WithContext(ctx).Where("user_id = ? AND document_id = ?", userID, documentID).First(&fav).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fav, nil
}

// ListActiveFavorites returns the user's favorites with their documents,
// most recently favorited first.
func (dao *FavoriteDAO) ListActiveFavorites(ctx context.Context, userID int) ([]models.Favorite, error) {
	var favs []models.Favorite
	err := dao.DB.WithContext(ctx).
		Preload("Document").
		Where("user_id = ? AND deleted_at IS NULL", userID).
		Order("updated_at desc").
		Find(&favs).Error
	if err != nil {
		return nil, err
	}
	return favs, nil
}

func (dao *FavoriteDAO) CountFavorites(ctx context.Context, userID int, documentID uuid.UUID) (int64, error) {
	var count int64
	err := dao.DB.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ? AND document_id = ?", userID, documentID).
		Count(&count).Error
	return count, err
}

func (dao *FavoriteDAO) DeleteFavoritesByDocuments(ctx context.Context, documentIDs []uuid.UUID) error {
	if len(documentIDs) == 0 {
		return nil
	}
	return dao.DB.WithContext(ctx).Where("document_id IN ?", documentIDs).Delete(&models.Favorite{}).Error
}
