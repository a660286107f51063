// Package favorites stars documents for a user.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"wordy/wordy/services/realtime"
	"wordy/wordy/sources/db/dao"
	"wordy/wordy/sources/db/models"
	"wordy/wordy/types"
	"wordy/wordy/utils/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	favorites *dao.FavoriteDAO
	events    realtime.Broadcaster
}

func NewService(db *gorm.DB, events realtime.Broadcaster) *Service {
	return &Service{favorites: dao.NewFavoriteDAO(db), events: events}
}

// AddDocumentToFavorites inserts the pair or revives its removed row.
func (s *Service) AddDocumentToFavorites(ctx context.Context, userID int, documentID uuid.UUID) (*types.FavoriteResponse, error) {
	fav, err := s.favorites.UpsertFavorite(ctx, userID, documentID)
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return nil, apperrors.NotFound("document %s not found", documentID)
	}
	if err != nil {
		return nil, fmt.Errorf("add favorite: %w", err)
	}
	res := response(fav)
	realtime.Notify(ctx, s.events, realtime.EventFavoriteAdded, res, realtime.UserRoom(userID))
	return res, nil
}

// RemoveDocumentFromFavorites returns nil when the pair had no active
// favorite; nothing is written in that case.
func (s *Service) RemoveDocumentFromFavorites(ctx context.Context, userID int, documentID uuid.UUID) (*types.FavoriteResponse, error) {
	fav, err := s.favorites.SoftDeleteFavorite(ctx, userID, documentID)
	if err != nil {
		return nil, fmt.Errorf("remove favorite: %w", err)
	}
	if fav == nil {
		return nil, nil
	}
	res := response(fav)
	realtime.Notify(ctx, s.events, realtime.EventFavoriteRemoved, res, realtime.UserRoom(userID))
	return res, nil
}

type FavoriteDocument struct {
	types.FavoriteResponse
	Document models.Document `json:"document"`
}

func (s *Service) ListFavorites(ctx context.Context, userID int) ([]FavoriteDocument, error) {
	favs, err := s.favorites.ListActiveFavorites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	out := make([]FavoriteDocument, 0, len(favs))
	for i := range favs {
		out = append(out, FavoriteDocument{FavoriteResponse: *response(&favs[i]), Document: favs[i].Document})
	}
	return out, nil
}

func response(fav *models.Favorite) *types.FavoriteResponse {
	return &types.FavoriteResponse{
		ID:         fav.ID.String(),
		DocumentID: fav.DocumentID.String(),
		UserID:     fav.UserID,
	}
}
