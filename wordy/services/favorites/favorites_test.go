package favorites

import (
	"context"
	"testing"
	"wordy/wordy/services/realtime"
	"wordy/wordy/services/realtime/realtimetest"
	"wordy/wordy/sources/db/dbtest"
	"wordy/wordy/sources/db/models"
	"wordy/wordy/utils/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavorites_Lifecycle(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	userID := dbtest.SeedUser(t, db, "ada")
	doc := &models.Document{Name: "Space", Handle: "space", Type: models.DocumentTypeSpace, UserID: userID}
	require.NoError(t, db.Create(doc).Error)
	events := &realtimetest.Recorder{}
	s := NewService(db, events)

	added, err := s.AddDocumentToFavorites(ctx, userID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID.String(), added.DocumentID)
	assert.Equal(t, userID, added.UserID)

	list, err := s.ListFavorites(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "space", list[0].Document.Handle)

	removed, err := s.RemoveDocumentFromFavorites(ctx, userID, doc.ID)
	require.NoError(t, err)
	require.NotNil(t, removed)
	assert.Equal(t, added.ID, removed.ID)

	again, err := s.RemoveDocumentFromFavorites(ctx, userID, doc.ID)
	require.NoError(t, err)
	assert.Nil(t, again, "no active favorite means no-op")

	revived, err := s.AddDocumentToFavorites(ctx, userID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, added.ID, revived.ID, "the same row comes back")

	var rows []models.Favorite
	require.NoError(t, db.Where("user_id = ? AND document_id = ?", userID, doc.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsActive())

	assert.Equal(t,
		[]string{realtime.EventFavoriteAdded, realtime.EventFavoriteRemoved, realtime.EventFavoriteAdded},
		events.Names(realtime.UserRoom(userID)))
}

func TestFavorites_UnknownDocument(t *testing.T) {
	db := dbtest.Open(t)
	userID := dbtest.SeedUser(t, db, "ada")
	s := NewService(db, realtime.Nop{})

	_, err := s.AddDocumentToFavorites(context.Background(), userID, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))

	list, err := s.ListFavorites(context.Background(), userID)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}
