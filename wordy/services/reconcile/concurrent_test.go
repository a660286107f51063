package reconcile_test

import (
	"context"
	"testing"
	"wordy/wordy/services/realtime"
	"wordy/wordy/services/reconcile"
	"wordy/wordy/services/revisions"
	"wordy/wordy/services/writequeue"
	"wordy/wordy/sources/db/dao"
	"wordy/wordy/sources/db/dbtest"
	"wordy/wordy/sources/db/models"
	"wordy/wordy/sources/storage"
	"wordy/wordy/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// walkHookStore runs beforeWalk ahead of listing files.
type walkHookStore struct {
	*storage.LocalStore
	beforeWalk func()
}

func (w *walkHookStore) Walk(ctx context.Context, dir string, fn func(p string, info storage.ObjectInfo) error) error {
	if w.beforeWalk != nil {
		w.beforeWalk()
	}
	return w.LocalStore.Walk(ctx, dir, fn)
}

func TestScan_RevisionCreatedDuringScanKeepsContent(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	local, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	userID := dbtest.SeedUser(t, db, "ada")

	note := &models.Document{Name: "Note", Handle: "note", Type: models.DocumentTypeNote, UserID: userID}
	require.NoError(t, db.Create(note).Error)

	svc := revisions.NewService(db, local, writequeue.NewKeyedMutex(), realtime.Nop{})

	var created *types.CreateRevisionResponse
	store := &walkHookStore{LocalStore: local, beforeWalk: func() {
		created, err = svc.CreateRevision(ctx, types.CreateRevisionRequest{
			DocumentID:          note.ID.String(),
			Text:                "hello",
			Content:             `{"type":"doc"}`,
			MakeCurrentRevision: true,
		}, userID)
		require.NoError(t, err)
	}}

	scanner := reconcile.NewScanner(db, store)
	scanner.MinAge = 0
	report, err := scanner.Scan(ctx, true)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Empty(t, report.Removed)
	assert.Empty(t, report.MissingContent)

	rev, err := dao.NewRevisionDAO(db).GetRevisionByID(ctx, uuid.MustParse(created.ID))
	require.NoError(t, err)
	require.NotNil(t, rev)
	ok, err := local.Exists(ctx, rev.ContentPath)
	require.NoError(t, err)
	assert.True(t, ok, "current revision still has its content")

	data, err := svc.ReadRevisionContent(ctx, rev.ID)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"doc"}`, string(data))
}
