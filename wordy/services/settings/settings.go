// Package settings stores per-user editor preferences.
package settings

import (
	"context"
	"fmt"
	"wordy/wordy/sources/db/dao"
	"wordy/wordy/sources/db/models"
	"wordy/wordy/types"
	"wordy/wordy/utils/apperrors"

	"gorm.io/gorm"
)

type Service struct {
	settings *dao.EditorSettingsDAO
}

func NewService(db *gorm.DB) *Service {
	return &Service{settings: dao.NewEditorSettingsDAO(db)}
}

// GetEditorSettings returns the saved settings or the defaults. It never
// writes.
func (s *Service) GetEditorSettings(ctx context.Context, userID int) (*models.EditorSettings, error) {
	saved, err := s.settings.GetEditorSettings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load editor settings: %w", err)
	}
	if saved == nil {
		defaults := models.DefaultEditorSettings(userID)
		return &defaults, nil
	}
	return saved, nil
}

// UpdateEditorSettings applies the non-nil fields, creating the row on the
// first call.
func (s *Service) UpdateEditorSettings(ctx context.Context, userID int, req types.UpdateEditorSettingsRequest) (*models.EditorSettings, error) {
	if req.Empty() {
		return nil, apperrors.Validation(map[string]string{"settings": "nothing to update"})
	}
	saved, err := s.settings.UpsertEditorSettings(ctx, userID, func(es *models.EditorSettings) {
		if req.SpellCheck != nil {
			es.SpellCheck = *req.SpellCheck
		}
		if req.ShowWordCount != nil {
			es.ShowWordCount = *req.ShowWordCount
		}
		if req.FocusMode != nil {
			es.FocusMode = *req.FocusMode
		}
		if req.AutoSave != nil {
			es.AutoSave = *req.AutoSave
		}
	})
	if err != nil {
		return nil, fmt.Errorf("save editor settings: %w", err)
	}
	return saved, nil
}
