package revisions

import (
	"context"
	"strings"
	"sync"
	"testing"
	"wordy/wordy/services/realtime"
	"wordy/wordy/services/realtime/realtimetest"
	"wordy/wordy/services/writequeue"
	"wordy/wordy/sources/db/dbtest"
	"wordy/wordy/sources/db/models"
	"wordy/wordy/sources/storage"
	"wordy/wordy/types"
	"wordy/wordy/utils/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// --- Helpers ---

type fixture struct {
	svc    *Service
	db     *gorm.DB
	store  *storage.LocalStore
	events *realtimetest.Recorder
	userID int
	space  *models.Document
	note   *models.Document
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	events := &realtimetest.Recorder{}
	userID := dbtest.SeedUser(t, db, "ada")

	space := &models.Document{Name: "Space", Handle: "space", Type: models.DocumentTypeSpace, UserID: userID}
	require.NoError(t, db.Create(space).Error)
	note := &models.Document{Name: "Note", Handle: "note", Type: models.DocumentTypeNote, UserID: userID, ParentID: &space.ID}
	require.NoError(t, db.Create(note).Error)

	return &fixture{
		svc:    NewService(db, store, writequeue.NewKeyedMutex(), events),
		db:     db,
		store:  store,
		events: events,
		userID: userID,
		space:  space,
		note:   note,
	}
}

func (f *fixture) create(t *testing.T, text, content string, makeCurrent bool) uuid.UUID {
	t.Helper()
	res, err := f.svc.CreateRevision(context.Background(), types.CreateRevisionRequest{
		DocumentID:          f.note.ID.String(),
		Text:                text,
		Content:             content,
		MakeCurrentRevision: makeCurrent,
	}, f.userID)
	require.NoError(t, err)
	return uuid.MustParse(res.ID)
}

func (f *fixture) currentPointer(t *testing.T) *uuid.UUID {
	t.Helper()
	var doc models.Document
	require.NoError(t, f.db.First(&doc, "id = ?", f.note.ID).Error)
	return doc.CurrentRevisionID
}

// pointersConsistent checks that every current pointer names a revision of
// its own document.
func pointersConsistent(t *testing.T, db *gorm.DB) {
	t.Helper()
	var docs []models.Document
	require.NoError(t, db.Where("current_revision_id IS NOT NULL").Find(&docs).Error)
	for _, doc := range docs {
		var rev models.Revision
		require.NoError(t, db.First(&rev, "id = ?", *doc.CurrentRevisionID).Error, "dangling pointer on %s", doc.ID)
		assert.Equal(t, doc.ID, rev.DocumentID)
	}
}

func ptr(s string) *string { return &s }

func TestCreateRevision_ContentReadableImmediately(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	id := f.create(t, "hello", `{"type":"doc","content":[]}`, false)

	data, err := f.svc.ReadRevisionContent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"doc","content":[]}`, string(data))

	rev, err := f.svc.GetRevision(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, storage.RevisionContentPath(id.String()), rev.ContentPath)
	assert.Nil(t, f.currentPointer(t), "not current unless asked")

	assert.Equal(t, []string{realtime.EventRevisionCreated}, f.events.Names(realtime.UserRoom(f.userID)))
	assert.Equal(t, []string{realtime.EventRevisionCreated}, f.events.Names(realtime.SpaceRoom(f.space.ID)))
}

func TestCreateRevision_MakeCurrentThenFetch(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	id := f.create(t, "a", "b", true)

	cur, err := f.svc.GetCurrentRevisionByDocumentID(ctx, f.note.ID)
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, id, cur.ID)
	assert.Equal(t, "a", cur.Text)
	assert.Equal(t, f.note.ID, cur.Document.ID)

	assert.Equal(t,
		[]string{realtime.EventRevisionCreated, realtime.EventDocumentUpdated},
		f.events.Names(realtime.UserRoom(f.userID)))
	pointersConsistent(t, f.db)
}

func TestCreateRevision_Validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.CreateRevision(ctx, types.CreateRevisionRequest{}, f.userID)
	require.Error(t, err)
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Issues, "document_id")
	assert.Contains(t, verr.Issues, "text")
	assert.Contains(t, verr.Issues, "content")

	_, err = f.svc.CreateRevision(ctx, types.CreateRevisionRequest{DocumentID: "nope", Text: "a", Content: "b"}, f.userID)
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.svc.CreateRevision(ctx, types.CreateRevisionRequest{DocumentID: uuid.NewString(), Text: "a", Content: "b"}, f.userID)
	assert.True(t, apperrors.IsNotFound(err))

	var files []string
	require.NoError(t, f.store.Walk(ctx, storage.RevisionsDir(), func(p string, _ storage.ObjectInfo) error {
		files = append(files, p)
		return nil
	}))
	assert.Empty(t, files, "rejected creates leave no content behind")
}

func TestCreateRevision_FailedInsertRemovesContent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// Break the insert after the content has been written.
	require.NoError(t, f.db.Exec("DROP TABLE revisions").Error)

	_, err := f.svc.CreateRevision(ctx, types.CreateRevisionRequest{
		DocumentID: f.note.ID.String(), Text: "a", Content: "b", MakeCurrentRevision: true,
	}, f.userID)
	require.Error(t, err)

	var files []string
	require.NoError(t, f.store.Walk(ctx, storage.RevisionsDir(), func(p string, _ storage.ObjectInfo) error {
		files = append(files, p)
		return nil
	}))
	assert.Empty(t, files)
	assert.Nil(t, f.currentPointer(t))
	assert.Empty(t, f.events.Events())
}

func TestUpdateRevision_RenameOnlyChangesName(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	content := `{"type":"doc","content":[{"type":"paragraph"}]}`
	id := f.create(t, "text", content, true)
	before, err := f.svc.GetRevision(ctx, id)
	require.NoError(t, err)

	res, err := f.svc.UpdateRevision(ctx, id, types.UpdateRevisionRequest{RevisionName: ptr("v2")}, f.userID)
	require.NoError(t, err)
	assert.Equal(t, id.String(), res.ID)
	require.NotNil(t, res.RevisionName)
	assert.Equal(t, "v2", *res.RevisionName)
	assert.Equal(t, before.ContentPath, res.ContentPath)

	after, err := f.svc.GetRevision(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before.Text, after.Text)
	assert.Equal(t, before.Checksum, after.Checksum)
	assert.Equal(t, before.CreatedAt.Unix(), after.CreatedAt.Unix())

	data, err := f.svc.ReadRevisionContent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))

	_, err = f.svc.UpdateRevision(ctx, id, types.UpdateRevisionRequest{RevisionName: ptr("")}, f.userID)
	require.NoError(t, err)
	cleared, err := f.svc.GetRevision(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, cleared.RevisionName)

	_, err = f.svc.UpdateRevision(ctx, uuid.New(), types.UpdateRevisionRequest{RevisionName: ptr("x")}, f.userID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdateRevision_ContentCreatesNewRevision(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	first := f.create(t, "one", "content-1", true)

	res, err := f.svc.UpdateRevision(ctx, first, types.UpdateRevisionRequest{
		Content:             ptr("content-2"),
		Text:                ptr("two"),
		MakeCurrentRevision: true,
	}, f.userID)
	require.NoError(t, err)
	assert.NotEqual(t, first.String(), res.ID)

	old, err := f.svc.ReadRevisionContent(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "content-1", string(old))

	cur, err := f.svc.GetCurrentRevisionByDocumentID(ctx, f.note.ID)
	require.NoError(t, err)
	assert.Equal(t, res.ID, cur.ID.String())
	assert.Equal(t, "two", cur.Text)

	revs, err := f.svc.ListRevisions(ctx, f.note.ID)
	require.NoError(t, err)
	assert.Len(t, revs, 2)
}

func TestUpdateRevision_ShapesAreExclusive(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.create(t, "one", "c", false)

	bad := []types.UpdateRevisionRequest{
		{},
		{RevisionName: ptr("n"), Content: ptr("c"), Text: ptr("t")},
		{Content: ptr("c")},
		{Text: ptr("t")},
		{Content: ptr(""), Text: ptr("t")},
	}
	for i, req := range bad {
		_, err := f.svc.UpdateRevision(ctx, id, req, f.userID)
		assert.True(t, apperrors.IsValidation(err), "case %d: %v", i, err)
	}
}

func TestDeleteRevision_ClearsPointerAndContent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	keep := f.create(t, "keep", "k", true)
	drop := f.create(t, "drop", "d", true)
	f.events.Reset()

	require.NoError(t, f.svc.DeleteRevisionByID(ctx, drop, f.userID))

	assert.Nil(t, f.currentPointer(t))
	_, err := f.svc.GetRevision(ctx, drop)
	assert.True(t, apperrors.IsNotFound(err))
	ok, err := f.store.Exists(ctx, storage.RevisionContentPath(drop.String()))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t,
		[]string{realtime.EventRevisionDeleted, realtime.EventDocumentUpdated},
		f.events.Names(realtime.UserRoom(f.userID)))

	// deleting a non-current revision leaves the pointer alone
	require.NoError(t, f.svc.SetCurrentRevision(ctx, f.note.ID, keep, f.userID))
	other := f.create(t, "other", "o", false)
	require.NoError(t, f.svc.DeleteRevisionByID(ctx, other, f.userID))
	require.NotNil(t, f.currentPointer(t))
	assert.Equal(t, keep, *f.currentPointer(t))

	assert.True(t, apperrors.IsNotFound(f.svc.DeleteRevisionByID(ctx, drop, f.userID)))
	pointersConsistent(t, f.db)
}

func TestDeleteRevision_MissingContentStillDeletesRow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.create(t, "a", "b", false)
	require.NoError(t, f.store.Delete(ctx, storage.RevisionContentPath(id.String())))

	_, err := f.svc.ReadRevisionContent(ctx, id)
	assert.True(t, apperrors.IsNotFound(err))

	require.NoError(t, f.svc.DeleteRevisionByID(ctx, id, f.userID))
	_, err = f.svc.GetRevision(ctx, id)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSetCurrentRevision_RejectsForeignRevision(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.create(t, "a", "b", false)

	otherNote := &models.Document{Name: "Other", Handle: "other", Type: models.DocumentTypeNote, UserID: f.userID, ParentID: &f.space.ID}
	require.NoError(t, f.db.Create(otherNote).Error)

	err := f.svc.SetCurrentRevision(ctx, otherNote.ID, id, f.userID)
	assert.True(t, apperrors.IsValidation(err))

	err = f.svc.SetCurrentRevision(ctx, f.note.ID, uuid.New(), f.userID)
	assert.True(t, apperrors.IsValidation(err))

	require.NoError(t, f.svc.SetCurrentRevision(ctx, f.note.ID, id, f.userID))
	assert.Equal(t, id, *f.currentPointer(t))
	pointersConsistent(t, f.db)
}

func TestCreateRevision_ConcurrentMakeCurrent(t *testing.T) {
	f := setup(t)

	const n = 8
	ids := make([]uuid.UUID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.svc.CreateRevision(context.Background(), types.CreateRevisionRequest{
				DocumentID:          f.note.ID.String(),
				Text:                "text",
				Content:             strings.Repeat("x", i+1),
				MakeCurrentRevision: true,
			}, f.userID)
			if assert.NoError(t, err) {
				ids[i] = uuid.MustParse(res.ID)
			}
		}(i)
	}
	wg.Wait()

	pointer := f.currentPointer(t)
	require.NotNil(t, pointer)
	assert.Contains(t, ids, *pointer)

	revs, err := f.svc.ListRevisions(context.Background(), f.note.ID)
	require.NoError(t, err)
	assert.Len(t, revs, n)
	pointersConsistent(t, f.db)
}

func TestListRevisions_EmptyIsNotNil(t *testing.T) {
	f := setup(t)
	revs, err := f.svc.ListRevisions(context.Background(), f.note.ID)
	require.NoError(t, err)
	assert.NotNil(t, revs)
	assert.Empty(t, revs)

	cur, err := f.svc.GetCurrentRevisionByDocumentID(context.Background(), f.note.ID)
	require.NoError(t, err)
	assert.Nil(t, cur)
}
