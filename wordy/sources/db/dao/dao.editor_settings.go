package dao

import (
	"context"
	"errors"
	"wordy/wordy/sources/db/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EditorSettingsDAO struct {
	DB *gorm.DB
}

func NewEditorSettingsDAO(db *gorm.DB) *EditorSettingsDAO {
	return &EditorSettingsDAO{DB: db}
}

// GetEditorSettings returns the stored row or nil when the user never saved
// settings.
func (dao *EditorSettingsDAO) GetEditorSettings(ctx context.Context, userID int) (*models.EditorSettings, error) {
	var s models.EditorSettings
	err := dao.DB.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpsertEditorSettings loads the current row (or the defaults), lets apply
// mutate it and writes it back, creating the row on first use.
func (dao *EditorSettingsDAO) UpsertEditorSettings(ctx context.Context, userID int, apply func(*models.EditorSettings)) (*models.EditorSettings, error) {
	var out models.EditorSettings
	err := dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ?", userID).First(&out).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			out = models.DefaultEditorSettings(userID)
		} else if err != nil {
			return err
		}
		apply(&out)
		return tx.Omit("User").Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"spell_check", "show_word_count", "focus_mode", "auto_save", "updated_at"}),
		}).Create(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
