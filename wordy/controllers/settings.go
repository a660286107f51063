package controllers

import (
	"context"
	"wordy/wordy/services/settings"
	"wordy/wordy/sources/db/models"
	"wordy/wordy/types"
)

type SettingsController struct {
	settings *settings.Service
}

func NewSettingsController(s *settings.Service) *SettingsController {
	return &SettingsController{settings: s}
}

func (c *SettingsController) GetEditorSettings(ctx context.Context, userID int) (*models.EditorSettings, error) {
	return c.settings.GetEditorSettings(ctx, userID)
}

func (c *SettingsController) UpdateEditorSettings(ctx context.Context, userID int, req types.UpdateEditorSettingsRequest) (*models.EditorSettings, error) {
	return c.settings.UpdateEditorSettings(ctx, userID, req)
}
