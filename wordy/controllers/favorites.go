package controllers

import (
	"context"
	"wordy/wordy/services/access"
	"wordy/wordy/services/favorites"
	"wordy/wordy/types"

	"github.com/google/uuid"
)

type FavoriteController struct {
	access    *access.Service
	favorites *favorites.Service
}

func NewFavoriteController(acc *access.Service, favs *favorites.Service) *FavoriteController {
	return &FavoriteController{access: acc, favorites: favs}
}

func (c *FavoriteController) AddFavorite(ctx context.Context, userID int, documentID uuid.UUID) (*types.FavoriteResponse, error) {
	if err := c.access.RequireDocument(ctx, userID, documentID); err != nil {
		return nil, err
	}
	return c.favorites.AddDocumentToFavorites(ctx, userID, documentID)
}

// RemoveFavorite returns nil when the document was not a favorite.
func (c *FavoriteController) RemoveFavorite(ctx context.Context, userID int, documentID uuid.UUID) (*types.FavoriteResponse, error) {
	if err := c.access.RequireDocument(ctx, userID, documentID); err != nil {
		return nil, err
	}
	return c.favorites.RemoveDocumentFromFavorites(ctx, userID, documentID)
}

func (c *FavoriteController) ListFavorites(ctx context.Context, userID int) ([]favorites.FavoriteDocument, error) {
	return c.favorites.ListFavorites(ctx, userID)
}
